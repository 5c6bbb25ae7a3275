package container

import (
	"fmt"

	"github.com/mlopt/featstore/sample"
)

// FileSample is the durable Sample backend, backed by a container File.
//
// Values are coerced for compact storage: float vectors are narrowed to
// binary16, text vectors become fixed-width byte strings with the empty
// string as null sentinel, and ragged vector lists are packed into a
// rectangular field with a per-row length side-array. Numeric and text
// vector payloads are lz4-compressed; array and sparse payloads are always
// zstd-compressed; scalars are stored verbatim.
//
// Every put is written to the file before returning; there is no buffering
// across calls.
type FileSample struct {
	c *File
}

// NewFileSample wraps an open container File.
func NewFileSample(c *File) *FileSample {
	return &FileSample{c: c}
}

// File returns the backing container.
func (s *FileSample) File() *File { return s.c }

var _ sample.Sample = (*FileSample)(nil)

// GetScalar implements sample.Sample.
func (s *FileSample) GetScalar(key string) (*sample.Scalar, error) {
	e, ok := s.c.lookup(key)
	if !ok {
		return nil, nil
	}
	if e.hdr.NDim != 0 {
		return nil, fmt.Errorf("container: key %q holds a %d-dim field: %w",
			key, e.hdr.NDim, sample.ErrKindMismatch)
	}
	payload, err := s.c.readPayload(e)
	if err != nil {
		return nil, err
	}

	var v sample.Scalar
	switch e.hdr.DType {
	case dtNull:
		v = sample.Null()
	case dtBool:
		if len(payload) != 1 {
			return nil, fmt.Errorf("container: key %q: bool scalar payload: %w", key, ErrCorrupt)
		}
		v = sample.Bool(payload[0] != 0)
	case dtInt64:
		n, err := bytesToInt64s(payload)
		if err != nil || len(n) != 1 {
			return nil, fmt.Errorf("container: key %q: int scalar payload: %w", key, ErrCorrupt)
		}
		v = sample.Int(n[0])
	case dtFloat64:
		f, err := bytesToFloat64s(payload)
		if err != nil || len(f) != 1 {
			return nil, fmt.Errorf("container: key %q: float scalar payload: %w", key, ErrCorrupt)
		}
		v = sample.Float(f[0])
	case dtBytes:
		v = sample.String(string(payload))
	default:
		return nil, fmt.Errorf("container: key %q holds dtype %s: %w",
			key, dtypeName(e.hdr.DType), sample.ErrKindMismatch)
	}
	return &v, nil
}

// PutScalar implements sample.Sample. Scalars are never compressed.
func (s *FileSample) PutScalar(key string, v sample.Scalar) error {
	if err := sample.ValidateScalar(key, v); err != nil {
		return err
	}
	hdr := fieldHeader{NDim: 0}
	var payload []byte
	switch v.Kind {
	case sample.ScalarNull:
		hdr.DType = dtNull
	case sample.ScalarBool:
		hdr.DType = dtBool
		payload = boolsToBytes([]bool{v.B})
	case sample.ScalarInt:
		hdr.DType = dtInt64
		payload = int64sToBytes([]int64{v.I})
	case sample.ScalarFloat:
		hdr.DType = dtFloat64
		payload = float64sToBytes([]float64{v.F})
	case sample.ScalarString:
		hdr.DType = dtBytes
		hdr.Width = uint16(len(v.S))
		payload = []byte(v.S)
	}
	return s.c.putField(key, hdr, nil, payload)
}

// GetVector implements sample.Sample. Text elements that decode to the
// empty string come back as null (round trip of the null sentinel).
func (s *FileSample) GetVector(key string) (*sample.Vector, error) {
	e, ok := s.c.lookup(key)
	if !ok {
		return nil, nil
	}
	if e.hdr.NDim != 1 {
		return nil, fmt.Errorf("container: key %q holds a %d-dim field: %w",
			key, e.hdr.NDim, sample.ErrKindMismatch)
	}
	payload, err := s.c.readPayload(e)
	if err != nil {
		return nil, err
	}
	return decodeVector(key, e.hdr, payload)
}

func decodeVector(key string, hdr fieldHeader, payload []byte) (*sample.Vector, error) {
	switch hdr.DType {
	case dtBool:
		return sample.Bools(bytesToBools(payload)), nil
	case dtInt64:
		v, err := bytesToInt64s(payload)
		if err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
		return sample.Ints(v), nil
	case dtFloat16:
		v, err := bytesToFloat16s(payload)
		if err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
		return sample.Floats(v), nil
	case dtFloat64:
		v, err := bytesToFloat64s(payload)
		if err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
		return sample.Floats(v), nil
	case dtBytes:
		strs, null, err := fixedWidthDecode(payload, int(hdr.Width))
		if err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
		if null == nil {
			return sample.Strings(strs), nil
		}
		return sample.OptStrings(strs, null), nil
	default:
		return nil, fmt.Errorf("container: key %q holds dtype %s: %w",
			key, dtypeName(hdr.DType), sample.ErrKindMismatch)
	}
}

// PutVector implements sample.Sample. A nil vector is a no-op.
func (s *FileSample) PutVector(key string, v *sample.Vector) error {
	if v == nil {
		return nil
	}
	if err := sample.ValidateVector(key, v); err != nil {
		return err
	}

	hdr := fieldHeader{NDim: 1, Dim0: int64(v.Len())}
	var payload []byte
	compress := true
	switch v.Kind {
	case sample.ElemBool:
		// Stored verbatim, one byte per element.
		hdr.DType = dtBool
		payload = boolsToBytes(v.Bools)
		compress = false
	case sample.ElemInt:
		hdr.DType = dtInt64
		payload = int64sToBytes(v.Ints)
	case sample.ElemFloat:
		// Reduced precision for floats.
		hdr.DType = dtFloat16
		payload = float16sToBytes(v.Floats)
	case sample.ElemString:
		width, raw := fixedWidthEncode(v.Strs, v.Null)
		hdr.DType = dtBytes
		hdr.Width = uint16(width)
		payload = raw
	}
	if compress {
		compressed, err := compressBlock(payload, flagLZ4)
		if err != nil {
			return fmt.Errorf("container: key %q: %w", key, err)
		}
		hdr.Flags |= flagLZ4
		payload = compressed
	}
	return s.c.putField(key, hdr, nil, payload)
}

// GetVectorList implements sample.Sample.
func (s *FileSample) GetVectorList(key string) (*sample.VectorList, error) {
	e, ok := s.c.lookup(key)
	if !ok {
		return nil, nil
	}
	if e.hdr.NDim != 2 || e.hdr.Flags&flagHasLengths == 0 {
		return nil, fmt.Errorf("container: key %q is not a packed vector list: %w",
			key, sample.ErrKindMismatch)
	}
	lengths, err := s.c.readLengths(e)
	if err != nil {
		return nil, err
	}
	payload, err := s.c.readPayload(e)
	if err != nil {
		return nil, err
	}

	p := &sample.Packed{
		Rows:    int(e.hdr.Dim0),
		Cols:    int(e.hdr.Dim1),
		Lengths: lengths,
	}
	switch e.hdr.DType {
	case dtInt64:
		p.Kind = sample.ElemInt
		if p.Ints, err = bytesToInt64s(payload); err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
	case dtFloat16:
		p.Kind = sample.ElemFloat
		if p.Floats, err = bytesToFloat16s(payload); err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
	case dtBytes:
		p.Kind = sample.ElemString
		strs, _, err := fixedWidthDecode(payload, int(e.hdr.Width))
		if err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
		p.Strs = strs
	default:
		return nil, fmt.Errorf("container: key %q holds dtype %s: %w",
			key, dtypeName(e.hdr.DType), sample.ErrKindMismatch)
	}
	return p.Crop(), nil
}

// PutVectorList implements sample.Sample. The ragged list is packed into a
// rectangular field plus a per-row length side-array; absent rows keep the
// -1 length sentinel so they are recoverable.
func (s *FileSample) PutVectorList(key string, v *sample.VectorList) error {
	if v == nil {
		return nil
	}
	if err := sample.ValidateVectorList(key, v); err != nil {
		return err
	}
	p, err := sample.Pack(v)
	if err != nil {
		return fmt.Errorf("container: key %q: %w", key, err)
	}

	hdr := fieldHeader{NDim: 2, Dim0: int64(p.Rows), Dim1: int64(p.Cols)}
	var payload []byte
	switch p.Kind {
	case sample.ElemInt:
		hdr.DType = dtInt64
		payload = int64sToBytes(p.Ints)
	case sample.ElemFloat:
		hdr.DType = dtFloat16
		payload = float16sToBytes(p.Floats)
	case sample.ElemString:
		width, raw := fixedWidthEncode(p.Strs, nil)
		hdr.DType = dtBytes
		hdr.Width = uint16(width)
		payload = raw
	}
	compressed, err := compressBlock(payload, flagLZ4)
	if err != nil {
		return fmt.Errorf("container: key %q: %w", key, err)
	}
	hdr.Flags |= flagLZ4
	return s.c.putField(key, hdr, p.Lengths, compressed)
}

// GetArray implements sample.Sample.
func (s *FileSample) GetArray(key string) (*sample.Array, error) {
	e, ok := s.c.lookup(key)
	if !ok {
		return nil, nil
	}
	if e.hdr.NDim < 1 || e.hdr.NDim > 2 {
		return nil, fmt.Errorf("container: key %q holds a %d-dim field: %w",
			key, e.hdr.NDim, sample.ErrKindMismatch)
	}
	payload, err := s.c.readPayload(e)
	if err != nil {
		return nil, err
	}

	a := &sample.Array{}
	if e.hdr.NDim == 1 {
		a.Shape = []int{int(e.hdr.Dim0)}
	} else {
		a.Shape = []int{int(e.hdr.Dim0), int(e.hdr.Dim1)}
	}
	switch e.hdr.DType {
	case dtBool:
		a.DType = sample.DTypeBool
		a.Bools = bytesToBools(payload)
	case dtInt64:
		a.DType = sample.DTypeInt64
		if a.Ints, err = bytesToInt64s(payload); err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
	case dtUint64:
		a.DType = sample.DTypeUint64
		if a.Uints, err = bytesToUint64s(payload); err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
	case dtFloat64:
		a.DType = sample.DTypeFloat64
		if a.Floats, err = bytesToFloat64s(payload); err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
	case dtFloat16:
		a.DType = sample.DTypeFloat64
		if a.Floats, err = bytesToFloat16s(payload); err != nil {
			return nil, fmt.Errorf("container: key %q: %w", key, err)
		}
	case dtBytes:
		a.DType = sample.DTypeBytes
		a.Width = int(e.hdr.Width)
		a.Bytes = payload
	default:
		return nil, fmt.Errorf("container: key %q holds dtype %s: %w",
			key, dtypeName(e.hdr.DType), sample.ErrKindMismatch)
	}
	return a, nil
}

// PutArray implements sample.Sample. Arrays keep full precision and are
// always zstd-compressed.
func (s *FileSample) PutArray(key string, v *sample.Array) error {
	if v == nil {
		return nil
	}
	if err := sample.ValidateArray(key, v); err != nil {
		return err
	}

	hdr := fieldHeader{NDim: uint8(len(v.Shape)), Dim0: int64(v.Shape[0])}
	if len(v.Shape) == 2 {
		hdr.Dim1 = int64(v.Shape[1])
	}
	var payload []byte
	switch v.DType {
	case sample.DTypeBool:
		hdr.DType = dtBool
		payload = boolsToBytes(v.Bools)
	case sample.DTypeInt64:
		hdr.DType = dtInt64
		payload = int64sToBytes(v.Ints)
	case sample.DTypeUint64:
		hdr.DType = dtUint64
		payload = uint64sToBytes(v.Uints)
	case sample.DTypeFloat64:
		hdr.DType = dtFloat64
		payload = float64sToBytes(v.Floats)
	case sample.DTypeBytes:
		hdr.DType = dtBytes
		hdr.Width = uint16(v.Width)
		payload = v.Bytes
	}
	compressed, err := compressBlock(payload, flagZstd)
	if err != nil {
		return fmt.Errorf("container: key %q: %w", key, err)
	}
	hdr.Flags |= flagZstd
	return s.c.putField(key, hdr, nil, compressed)
}

// GetSparse implements sample.Sample. The matrix is reconstructed from the
// three sibling fields key_row, key_col and key_data.
func (s *FileSample) GetSparse(key string) (*sample.Sparse, error) {
	row, err := s.GetArray(key + "_row")
	if err != nil {
		return nil, err
	}
	col, err := s.GetArray(key + "_col")
	if err != nil {
		return nil, err
	}
	data, err := s.GetArray(key + "_data")
	if err != nil {
		return nil, err
	}
	if row == nil && col == nil && data == nil {
		return nil, nil
	}
	if row == nil || col == nil || data == nil {
		return nil, fmt.Errorf("container: key %q: incomplete sparse triplet", key)
	}
	if row.DType != sample.DTypeInt64 || col.DType != sample.DTypeInt64 {
		return nil, fmt.Errorf("container: key %q: sparse index arrays must be int64", key)
	}
	return &sample.Sparse{Row: row.Ints, Col: col.Ints, Data: data}, nil
}

// PutSparse implements sample.Sample. The three coordinate arrays are
// written as sibling fields, each zstd-compressed.
func (s *FileSample) PutSparse(key string, v *sample.Sparse) error {
	if v == nil {
		return nil
	}
	if err := sample.ValidateSparse(key, v); err != nil {
		return err
	}
	if err := s.PutArray(key+"_row", sample.IntArray1D(v.Row)); err != nil {
		return err
	}
	if err := s.PutArray(key+"_col", sample.IntArray1D(v.Col)); err != nil {
		return err
	}
	return s.PutArray(key+"_data", v.Data)
}
