package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType is the parsed form of a numpy-style dtype tag like "<f4" or
// "|u1". In-memory buffers are always little-endian; BigEndian records
// the on-disk byte order so chunks can be swapped during decode/encode
// and the tag round-trips through metadata unchanged.
type DType struct {
	Kind      byte // 'i', 'u' or 'f'
	Size      int  // element width in bytes
	BigEndian bool

	tag string
}

// ParseDType parses a dtype tag of the form endianness ('<', '>', '|')
// + kind + width. The bare two-character form ("f4") is accepted and
// treated as little-endian. Supported dtypes: u1, i1, u2, i2, u4, i4,
// f4, f8.
func ParseDType(s string) (DType, error) {
	tag := s
	big := false
	switch {
	case len(s) >= 1 && (s[0] == '<' || s[0] == '|'):
		s = s[1:]
	case len(s) >= 1 && s[0] == '>':
		big = true
		s = s[1:]
	}
	if len(s) != 2 {
		return DType{}, fmt.Errorf("%w: unknown dtype %q", ErrValue, tag)
	}

	kind := s[0]
	var size int
	switch s[1] {
	case '1':
		size = 1
	case '2':
		size = 2
	case '4':
		size = 4
	case '8':
		size = 8
	default:
		return DType{}, fmt.Errorf("%w: unknown dtype %q", ErrValue, tag)
	}

	switch {
	case kind == 'u' && size <= 4:
	case kind == 'i' && size <= 4:
	case kind == 'f' && size >= 4:
	default:
		return DType{}, fmt.Errorf("%w: unknown dtype %q", ErrValue, tag)
	}

	return DType{Kind: kind, Size: size, BigEndian: big, tag: tag}, nil
}

// String returns the on-disk tag the DType was parsed from.
func (dt DType) String() string {
	if dt.tag != "" {
		return dt.tag
	}
	return fmt.Sprintf("<%c%d", dt.Kind, dt.Size)
}

// ItemSize returns the element width in bytes.
func (dt DType) ItemSize() int { return dt.Size }

// putScalar encodes v into the first ItemSize bytes of dst,
// little-endian. Integer kinds truncate toward zero.
func putScalar(dst []byte, dt DType, v float64) {
	switch {
	case dt.Kind == 'f' && dt.Size == 4:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case dt.Kind == 'f' && dt.Size == 8:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	case dt.Size == 1:
		dst[0] = byte(int64(v))
	case dt.Size == 2:
		binary.LittleEndian.PutUint16(dst, uint16(int64(v)))
	case dt.Size == 4:
		binary.LittleEndian.PutUint32(dst, uint32(int64(v)))
	}
}

// scalarAt decodes the element at byte offset off into its native Go
// type (uint8, int8, uint16, int16, uint32, int32, float32 or float64).
func scalarAt(buf []byte, off int, dt DType) any {
	switch {
	case dt.Kind == 'f' && dt.Size == 4:
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	case dt.Kind == 'f' && dt.Size == 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	case dt.Kind == 'u' && dt.Size == 1:
		return buf[off]
	case dt.Kind == 'i' && dt.Size == 1:
		return int8(buf[off])
	case dt.Kind == 'u' && dt.Size == 2:
		return binary.LittleEndian.Uint16(buf[off:])
	case dt.Kind == 'i' && dt.Size == 2:
		return int16(binary.LittleEndian.Uint16(buf[off:]))
	case dt.Kind == 'u' && dt.Size == 4:
		return binary.LittleEndian.Uint32(buf[off:])
	default:
		return int32(binary.LittleEndian.Uint32(buf[off:]))
	}
}

// toFloat64 widens a numeric scalar. Every supported dtype fits a
// float64 exactly.
func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// byteSwap reverses the byte order of every width-sized element in buf,
// in place. Used to convert big-endian chunks to the little-endian
// in-memory form and back.
func byteSwap(buf []byte, width int) {
	if width <= 1 {
		return
	}
	for i := 0; i+width <= len(buf); i += width {
		for l, r := i, i+width-1; l < r; l, r = l+1, r-1 {
			buf[l], buf[r] = buf[r], buf[l]
		}
	}
}

// bytesToTyped reinterprets a little-endian buffer as a typed slice.
func bytesToTyped(dt DType, buf []byte) any {
	n := len(buf) / dt.Size
	switch {
	case dt.Kind == 'f' && dt.Size == 4:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		return out
	case dt.Kind == 'f' && dt.Size == 8:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		return out
	case dt.Kind == 'u' && dt.Size == 1:
		out := make([]uint8, n)
		copy(out, buf)
		return out
	case dt.Kind == 'i' && dt.Size == 1:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(buf[i])
		}
		return out
	case dt.Kind == 'u' && dt.Size == 2:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(buf[i*2:])
		}
		return out
	case dt.Kind == 'i' && dt.Size == 2:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}
		return out
	case dt.Kind == 'u' && dt.Size == 4:
		out := make([]uint32, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(buf[i*4:])
		}
		return out
	default:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		return out
	}
}
