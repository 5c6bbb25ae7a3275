package container

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mlopt/featstore/internal/f16"
)

func int64sToBytes(v []int64) []byte {
	out := make([]byte, len(v)*8)
	for i, n := range v {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(n))
	}
	return out
}

func bytesToInt64s(b []byte) ([]int64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("int64 payload has %d bytes: %w", len(b), ErrCorrupt)
	}
	out := make([]int64, len(b)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

func uint64sToBytes(v []uint64) []byte {
	out := make([]byte, len(v)*8)
	for i, n := range v {
		binary.LittleEndian.PutUint64(out[i*8:], n)
	}
	return out
}

func bytesToUint64s(b []byte) ([]uint64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("uint64 payload has %d bytes: %w", len(b), ErrCorrupt)
	}
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return out, nil
}

func float64sToBytes(v []float64) []byte {
	out := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(f))
	}
	return out
}

func bytesToFloat64s(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("float64 payload has %d bytes: %w", len(b), ErrCorrupt)
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

func float16sToBytes(v []float64) []byte {
	bits := f16.Encode(v)
	out := make([]byte, len(bits)*2)
	for i, h := range bits {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(h))
	}
	return out
}

func bytesToFloat16s(b []byte) ([]float64, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("float16 payload has %d bytes: %w", len(b), ErrCorrupt)
	}
	bits := make([]f16.Bits, len(b)/2)
	for i := range bits {
		bits[i] = f16.Bits(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return f16.Decode(bits), nil
}

func boolsToBytes(v []bool) []byte {
	out := make([]byte, len(v))
	for i, b := range v {
		if b {
			out[i] = 1
		}
	}
	return out
}

func bytesToBools(b []byte) []bool {
	out := make([]bool, len(b))
	for i, c := range b {
		out[i] = c != 0
	}
	return out
}

// fixedWidthEncode packs strings into width-sized, zero-padded cells. Null
// entries are written as the empty string, which is the on-disk null
// sentinel.
func fixedWidthEncode(strs []string, null []bool) (int, []byte) {
	width := 1
	for i, s := range strs {
		if null != nil && null[i] {
			continue
		}
		if len(s) > width {
			width = len(s)
		}
	}
	out := make([]byte, len(strs)*width)
	for i, s := range strs {
		if null != nil && null[i] {
			continue
		}
		copy(out[i*width:(i+1)*width], s)
	}
	return width, out
}

// fixedWidthDecode unpacks width-sized cells, trimming the zero padding.
// The null mask marks cells that decoded to the empty string; it is nil when
// every cell carries text.
func fixedWidthDecode(b []byte, width int) ([]string, []bool, error) {
	if width <= 0 || len(b)%width != 0 {
		return nil, nil, fmt.Errorf("bytes payload has %d bytes for width %d: %w", len(b), width, ErrCorrupt)
	}
	n := len(b) / width
	strs := make([]string, n)
	var null []bool
	for i := 0; i < n; i++ {
		cell := b[i*width : (i+1)*width]
		end := len(cell)
		for end > 0 && cell[end-1] == 0 {
			end--
		}
		if end == 0 {
			if null == nil {
				null = make([]bool, n)
			}
			null[i] = true
			continue
		}
		strs[i] = string(cell[:end])
	}
	return strs, null, nil
}
