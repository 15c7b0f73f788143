package zarr

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// CompressorConfig represents the Zarr compressor metadata.
type CompressorConfig struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// FilterConfig represents one entry of the Zarr filters list.
type FilterConfig struct {
	ID          string `json:"id"`
	ElementSize int    `json:"elementsize,omitempty"`
}

// Metadata represents the Zarr V2 .zarray metadata.
type Metadata struct {
	ZarrFormat         int               `json:"zarr_format"`
	Shape              []int             `json:"shape"`
	Chunks             []int             `json:"chunks"`
	DType              string            `json:"dtype"`
	Compressor         *CompressorConfig `json:"compressor"`
	FillValue          interface{}       `json:"fill_value"`
	Order              string            `json:"order"`
	Filters            []*FilterConfig   `json:"filters,omitempty"`
	DimensionSeparator string            `json:"dimension_separator,omitempty"`
}

// LoadMetadata reads and parses a .zarray document.
func LoadMetadata(reader io.Reader) (*Metadata, error) {
	var meta Metadata
	if err := json.NewDecoder(reader).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	if meta.ZarrFormat != 2 {
		return nil, fmt.Errorf("unsupported zarr_format: %d, expected 2", meta.ZarrFormat)
	}

	return &meta, nil
}

// Validate checks the structural invariants the engine relies on: shape
// and chunk grid of equal rank, non-negative extents, positive chunk
// extents, C order and a parsable dtype.
func (m *Metadata) Validate() error {
	if len(m.Chunks) != len(m.Shape) {
		return fmt.Errorf("%w: shape rank %d != chunks rank %d", ErrValue, len(m.Shape), len(m.Chunks))
	}
	for i, n := range m.Shape {
		if n < 0 {
			return fmt.Errorf("%w: negative extent %d on axis %d", ErrValue, n, i)
		}
		if m.Chunks[i] <= 0 {
			return fmt.Errorf("%w: chunk extent %d on axis %d must be positive", ErrValue, m.Chunks[i], i)
		}
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("%w: order %q is not supported, only C", ErrValue, m.Order)
	}
	if _, err := ParseDType(m.DType); err != nil {
		return err
	}
	sep := m.DimensionSeparator
	if sep != "" && sep != "." && sep != "/" {
		return fmt.Errorf("%w: dimension_separator %q", ErrValue, sep)
	}
	return nil
}

// Separator returns the chunk key separator, defaulting to ".".
func (m *Metadata) Separator() string {
	if m.DimensionSeparator == "" {
		return "."
	}
	return m.DimensionSeparator
}

// ParseFillValue resolves the metadata fill value against the dtype.
// It returns (value, false) for a concrete fill, where the string
// sentinels "NaN", "Infinity" and "-Infinity" map to the float specials,
// and (0, true) for a null fill value.
func (m *Metadata) ParseFillValue(dt DType) (float64, bool, error) {
	switch v := m.FillValue.(type) {
	case nil:
		return 0, true, nil
	case string:
		if dt.Kind != 'f' {
			return 0, false, fmt.Errorf("%w: fill value %q for non-float dtype %s", ErrValue, v, dt)
		}
		switch v {
		case "NaN":
			return math.NaN(), false, nil
		case "Infinity":
			return math.Inf(1), false, nil
		case "-Infinity":
			return math.Inf(-1), false, nil
		}
		return 0, false, fmt.Errorf("%w: fill value %q", ErrValue, v)
	default:
		f, ok := toFloat64(v)
		if !ok {
			return 0, false, fmt.Errorf("%w: fill value %v (%T)", ErrValue, v, v)
		}
		return f, false, nil
	}
}

// Encode marshals the metadata back to .zarray JSON. Float fill values
// that JSON cannot carry are re-encoded as their string sentinels.
func (m *Metadata) Encode() ([]byte, error) {
	out := *m
	if f, ok := toFloat64(m.FillValue); ok {
		switch {
		case math.IsNaN(f):
			out.FillValue = "NaN"
		case math.IsInf(f, 1):
			out.FillValue = "Infinity"
		case math.IsInf(f, -1):
			out.FillValue = "-Infinity"
		}
	}
	return json.MarshalIndent(&out, "", "    ")
}
