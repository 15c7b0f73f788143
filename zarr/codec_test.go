package zarr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressorRoundTrip(t *testing.T) {
	payload := make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(i % 7)
	}

	for _, id := range []string{"zstd", "zlib", "gzip"} {
		t.Run(id, func(t *testing.T) {
			codec, err := compressorFor(&CompressorConfig{ID: id})
			require.NoError(t, err)

			encoded, err := codec.Encode(payload)
			require.NoError(t, err)
			require.NotEqual(t, payload, encoded)

			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, payload, decoded)
		})
	}
}

func TestCompressorForNil(t *testing.T) {
	codec, err := compressorFor(nil)
	require.NoError(t, err)
	require.Nil(t, codec)
}

func TestCompressorUnsupported(t *testing.T) {
	_, err := compressorFor(&CompressorConfig{ID: "blosc"})
	require.Error(t, err)
	_, err = compressorFor(&CompressorConfig{ID: "lz77"})
	require.Error(t, err)
}

func TestShuffleFilter(t *testing.T) {
	f := shuffleFilter{elemSize: 4}

	in := []byte{
		0xA0, 0xA1, 0xA2, 0xA3,
		0xB0, 0xB1, 0xB2, 0xB3,
	}
	shuffled, err := f.Encode(in)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0xA0, 0xB0,
		0xA1, 0xB1,
		0xA2, 0xB2,
		0xA3, 0xB3,
	}, shuffled)

	back, err := f.Decode(shuffled)
	require.NoError(t, err)
	require.Equal(t, in, back)
}

func TestShuffleFilterSingleByte(t *testing.T) {
	f := shuffleFilter{elemSize: 1}
	in := []byte{1, 2, 3}
	out, err := f.Encode(in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestFiltersForUnknown(t *testing.T) {
	_, err := filtersFor([]*FilterConfig{{ID: "delta"}}, 4)
	require.Error(t, err)
}

func TestFiltersForShuffleDefaultsToItemSize(t *testing.T) {
	filters, err := filtersFor([]*FilterConfig{{ID: "shuffle"}}, 2)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	require.Equal(t, shuffleFilter{elemSize: 2}, filters[0])
}
