package sample

import (
	"errors"
	"fmt"
	"sort"
)

// ErrKindMismatch is returned when a key holds a value of a different kind
// than the one requested.
var ErrKindMismatch = errors.New("value kind mismatch")

// Sample stores training data under string keys.
//
// Each key holds exactly one typed value; overwriting replaces the full
// value. Gets of absent keys return (nil, nil). All operations are
// synchronous and complete on the calling goroutine.
type Sample interface {
	// GetScalar returns the scalar stored under key, or nil if absent.
	GetScalar(key string) (*Scalar, error)
	// PutScalar stores a scalar under key. The null scalar is storable.
	PutScalar(key string, v Scalar) error

	// GetVector returns the vector stored under key, or nil if absent.
	GetVector(key string) (*Vector, error)
	// PutVector stores a vector under key. A nil vector is a no-op: there
	// is nothing to store, which is not an error.
	PutVector(key string, v *Vector) error

	// GetVectorList returns the vector list stored under key, or nil if
	// absent.
	GetVectorList(key string) (*VectorList, error)
	// PutVectorList stores a ragged vector list under key.
	PutVectorList(key string, v *VectorList) error

	// GetArray returns the dense array stored under key, or nil if absent.
	GetArray(key string) (*Array, error)
	// PutArray stores a dense array under key.
	PutArray(key string, v *Array) error

	// GetSparse returns the sparse matrix stored under key, or nil if
	// absent.
	GetSparse(key string) (*Sparse, error)
	// PutSparse stores a coordinate-format sparse matrix under key.
	PutSparse(key string, v *Sparse) error
}

// GetSet returns the distinct elements of the vector stored under key.
// An absent key yields an empty set.
func GetSet(s Sample, key string) (map[Scalar]struct{}, error) {
	v, err := s.GetVector(key)
	if err != nil {
		return nil, err
	}
	set := make(map[Scalar]struct{})
	if v == nil {
		return set, nil
	}
	for i := 0; i < v.Len(); i++ {
		set[v.At(i)] = struct{}{}
	}
	return set, nil
}

// PutSet stores a set as a vector under key. Elements must share one scalar
// kind; they are written in a fixed (sorted) order so repeated puts of the
// same set produce the same stored value.
func PutSet(s Sample, key string, set map[Scalar]struct{}) error {
	elems := make([]Scalar, 0, len(set))
	for e := range set {
		elems = append(elems, e)
	}
	sort.Slice(elems, func(i, j int) bool { return elems[i].Key() < elems[j].Key() })

	v, err := vectorFromScalars(key, elems)
	if err != nil {
		return err
	}
	return s.PutVector(key, v)
}

func vectorFromScalars(key string, elems []Scalar) (*Vector, error) {
	if len(elems) == 0 {
		return nil, nil
	}
	kind := elems[0].Kind
	switch kind {
	case ScalarBool:
		out := make([]bool, len(elems))
		for i, e := range elems {
			b, ok := e.AsBool()
			if !ok {
				return nil, fmt.Errorf("sample: key %q: mixed element kinds in set", key)
			}
			out[i] = b
		}
		return Bools(out), nil
	case ScalarInt:
		out := make([]int64, len(elems))
		for i, e := range elems {
			n, ok := e.AsInt64()
			if !ok {
				return nil, fmt.Errorf("sample: key %q: mixed element kinds in set", key)
			}
			out[i] = n
		}
		return Ints(out), nil
	case ScalarFloat:
		out := make([]float64, len(elems))
		for i, e := range elems {
			f, ok := e.AsFloat64()
			if !ok {
				return nil, fmt.Errorf("sample: key %q: mixed element kinds in set", key)
			}
			out[i] = f
		}
		return Floats(out), nil
	case ScalarString:
		out := make([]string, len(elems))
		for i, e := range elems {
			str, ok := e.AsString()
			if !ok {
				return nil, fmt.Errorf("sample: key %q: mixed element kinds in set", key)
			}
			out[i] = str
		}
		return Strings(out), nil
	default:
		return nil, fmt.Errorf("sample: key %q: null elements not allowed in set", key)
	}
}

// ValidateScalar checks that v is a well-formed scalar.
func ValidateScalar(key string, v Scalar) error {
	switch v.Kind {
	case ScalarNull, ScalarBool, ScalarInt, ScalarFloat, ScalarString:
		return nil
	default:
		return fmt.Errorf("sample: key %q: scalar expected, found kind %d", key, v.Kind)
	}
}

// ValidateVector checks that v is well-formed: its payload slice matches
// Kind and the optional Null slice, if present, is ElemString-only and runs
// parallel to Strs.
func ValidateVector(key string, v *Vector) error {
	switch v.Kind {
	case ElemBool:
		if v.Ints != nil || v.Floats != nil || v.Strs != nil || v.Null != nil {
			return fmt.Errorf("sample: key %q: bool vector carries foreign payload", key)
		}
	case ElemInt:
		if v.Bools != nil || v.Floats != nil || v.Strs != nil || v.Null != nil {
			return fmt.Errorf("sample: key %q: int vector carries foreign payload", key)
		}
	case ElemFloat:
		if v.Bools != nil || v.Ints != nil || v.Strs != nil || v.Null != nil {
			return fmt.Errorf("sample: key %q: float vector carries foreign payload", key)
		}
	case ElemString:
		if v.Bools != nil || v.Ints != nil || v.Floats != nil {
			return fmt.Errorf("sample: key %q: string vector carries foreign payload", key)
		}
		if v.Null != nil && len(v.Null) != len(v.Strs) {
			return fmt.Errorf("sample: key %q: null mask length %d does not match %d elements",
				key, len(v.Null), len(v.Strs))
		}
	default:
		return fmt.Errorf("sample: key %q: vector expected, found element kind %d", key, v.Kind)
	}
	return nil
}

// ValidateVectorList checks that every present row is a valid vector and
// that all present rows share the declared element kind.
func ValidateVectorList(key string, vl *VectorList) error {
	for i, row := range vl.Rows {
		if row == nil {
			continue
		}
		if err := ValidateVector(key, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if row.Kind != vl.Kind {
			return fmt.Errorf("sample: key %q: row %d has element kind %s, list declares %s",
				key, i, row.Kind, vl.Kind)
		}
	}
	return nil
}

// ValidateArray checks dtype, shape and payload consistency.
func ValidateArray(key string, a *Array) error {
	if len(a.Shape) < 1 || len(a.Shape) > 2 {
		return fmt.Errorf("sample: key %q: array must be 1-D or 2-D, got %d dims", key, len(a.Shape))
	}
	for _, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("sample: key %q: negative dimension %d", key, d)
		}
	}
	n := a.Len()
	switch a.DType {
	case DTypeBool:
		if len(a.Bools) != n {
			return fmt.Errorf("sample: key %q: bool payload has %d elements, shape wants %d", key, len(a.Bools), n)
		}
	case DTypeInt64:
		if len(a.Ints) != n {
			return fmt.Errorf("sample: key %q: int64 payload has %d elements, shape wants %d", key, len(a.Ints), n)
		}
	case DTypeUint64:
		if len(a.Uints) != n {
			return fmt.Errorf("sample: key %q: uint64 payload has %d elements, shape wants %d", key, len(a.Uints), n)
		}
	case DTypeFloat64:
		if len(a.Floats) != n {
			return fmt.Errorf("sample: key %q: float64 payload has %d elements, shape wants %d", key, len(a.Floats), n)
		}
	case DTypeBytes:
		if a.Width <= 0 {
			return fmt.Errorf("sample: key %q: bytes array requires positive width, got %d", key, a.Width)
		}
		if len(a.Bytes) != n*a.Width {
			return fmt.Errorf("sample: key %q: bytes payload has %d bytes, shape wants %d", key, len(a.Bytes), n*a.Width)
		}
	default:
		return fmt.Errorf("sample: key %q: unsupported dtype %d", key, a.DType)
	}
	return nil
}

// ValidateSparse checks that the index arrays are parallel and the data
// payload is a valid 1-D array of matching length.
func ValidateSparse(key string, sp *Sparse) error {
	if sp.Data == nil {
		return fmt.Errorf("sample: key %q: sparse matrix has no data array", key)
	}
	if err := ValidateArray(key, sp.Data); err != nil {
		return err
	}
	if len(sp.Data.Shape) != 1 {
		return fmt.Errorf("sample: key %q: sparse data must be 1-D, got %d dims", key, len(sp.Data.Shape))
	}
	if len(sp.Row) != len(sp.Col) || len(sp.Row) != sp.Data.Len() {
		return fmt.Errorf("sample: key %q: sparse arrays not parallel: %d rows, %d cols, %d data",
			key, len(sp.Row), len(sp.Col), sp.Data.Len())
	}
	return nil
}
