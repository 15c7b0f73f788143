package zarr

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec is a bidirectional byte transform: compressors and filters both
// implement it. Encode and Decode must be inverses for lossless codecs.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// compressorFor resolves a compressor descriptor. A nil descriptor
// means no compression and resolves to a nil Codec.
func compressorFor(cfg *CompressorConfig) (Codec, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.ID {
	case "zstd":
		return zstdCodec{}, nil
	case "zlib":
		return zlibCodec{level: cfg.Clevel}, nil
	case "gzip":
		return gzipCodec{level: cfg.Clevel}, nil
	case "blosc":
		return nil, fmt.Errorf("blosc compression not yet supported")
	default:
		return nil, fmt.Errorf("unsupported compressor: %s", cfg.ID)
	}
}

// filtersFor resolves the metadata filters list. Filters apply in list
// order on encode and in reverse order on decode. itemSize seeds the
// shuffle filter when the descriptor omits elementsize.
func filtersFor(cfgs []*FilterConfig, itemSize int) ([]Codec, error) {
	var out []Codec
	for _, cfg := range cfgs {
		switch cfg.ID {
		case "shuffle":
			size := cfg.ElementSize
			if size == 0 {
				size = itemSize
			}
			out = append(out, shuffleFilter{elemSize: size})
		default:
			return nil, fmt.Errorf("unsupported filter: %s", cfg.ID)
		}
	}
	return out, nil
}

type zstdCodec struct{}

func (zstdCodec) Encode(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

func (zstdCodec) Decode(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer decoder.Close()
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd chunk: %w", err)
	}
	return out, nil
}

type zlibCodec struct {
	level int
}

func (c zlibCodec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	level := c.level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to init zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress zlib chunk: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress zlib chunk: %w", err)
	}
	return buf.Bytes(), nil
}

func (zlibCodec) Decode(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to init zlib reader: %w", err)
	}
	out, err := io.ReadAll(zr)
	zr.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zlib chunk: %w", err)
	}
	return out, nil
}

type gzipCodec struct {
	level int
}

func (c gzipCodec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	level := c.level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to init gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress gzip chunk: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress gzip chunk: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Decode(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to init gzip reader: %w", err)
	}
	out, err := io.ReadAll(gr)
	gr.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip chunk: %w", err)
	}
	return out, nil
}

// shuffleFilter is the numcodecs byte shuffle: on encode, byte j of
// every element is grouped together so similar byte positions sit next
// to each other for the compressor. Single-byte elements pass through.
type shuffleFilter struct {
	elemSize int
}

func (f shuffleFilter) Encode(input []byte) ([]byte, error) {
	if f.elemSize <= 1 {
		return input, nil
	}
	numElems := len(input) / f.elemSize
	if numElems == 0 || len(input)%f.elemSize != 0 {
		return input, nil
	}
	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[j*numElems+i] = input[i*f.elemSize+j]
		}
	}
	return output, nil
}

func (f shuffleFilter) Decode(input []byte) ([]byte, error) {
	if f.elemSize <= 1 {
		return input, nil
	}
	numElems := len(input) / f.elemSize
	if numElems == 0 || len(input)%f.elemSize != 0 {
		return input, nil
	}
	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[i*f.elemSize+j] = input[j*numElems+i]
		}
	}
	return output, nil
}
