package sample

import (
	"math"
	"strconv"
)

// ScalarKind identifies the concrete type stored in a Scalar.
type ScalarKind uint8

const (
	// ScalarNull represents an absent value.
	ScalarNull ScalarKind = iota
	// ScalarBool represents a boolean value.
	ScalarBool
	// ScalarInt represents an integer value.
	ScalarInt
	// ScalarFloat represents a real value.
	ScalarFloat
	// ScalarString represents a text value.
	ScalarString
)

// Scalar is a small typed value. The zero value is the null scalar.
//
// Scalar is comparable and can be used directly as a map key, which is what
// the derived set operations rely on.
type Scalar struct {
	Kind ScalarKind
	B    bool
	I    int64
	F    float64
	S    string
}

// Null returns the null Scalar.
func Null() Scalar { return Scalar{Kind: ScalarNull} }

// Bool returns a boolean Scalar.
func Bool(v bool) Scalar { return Scalar{Kind: ScalarBool, B: v} }

// Int returns an integer Scalar.
func Int(v int64) Scalar { return Scalar{Kind: ScalarInt, I: v} }

// Float returns a real Scalar.
func Float(v float64) Scalar { return Scalar{Kind: ScalarFloat, F: v} }

// String returns a text Scalar.
func String(v string) Scalar { return Scalar{Kind: ScalarString, S: v} }

// IsNull reports whether the scalar is the null value.
func (v Scalar) IsNull() bool { return v.Kind == ScalarNull }

// AsBool returns the boolean value if Kind is ScalarBool.
func (v Scalar) AsBool() (bool, bool) {
	if v.Kind != ScalarBool {
		return false, false
	}
	return v.B, true
}

// AsInt64 returns the integer value if Kind is ScalarInt.
func (v Scalar) AsInt64() (int64, bool) {
	if v.Kind != ScalarInt {
		return 0, false
	}
	return v.I, true
}

// AsFloat64 returns the real value if Kind is ScalarFloat.
func (v Scalar) AsFloat64() (float64, bool) {
	if v.Kind != ScalarFloat {
		return 0, false
	}
	return v.F, true
}

// AsString returns the text value if Kind is ScalarString.
func (v Scalar) AsString() (string, bool) {
	if v.Kind != ScalarString {
		return "", false
	}
	return v.S, true
}

// Key returns a stable string representation for ordering and indexing.
func (v Scalar) Key() string {
	switch v.Kind {
	case ScalarNull:
		return "null"
	case ScalarBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case ScalarInt:
		return "i:" + strconv.FormatInt(v.I, 10)
	case ScalarFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F), 16)
	case ScalarString:
		return "s:" + v.S
	default:
		return "invalid"
	}
}

// ElemKind classifies the elements of a Vector.
type ElemKind uint8

const (
	// ElemInvalid represents an invalid element kind.
	ElemInvalid ElemKind = iota
	// ElemBool represents boolean elements.
	ElemBool
	// ElemInt represents integer elements.
	ElemInt
	// ElemFloat represents real elements.
	ElemFloat
	// ElemString represents text elements, optionally absent per entry.
	ElemString
)

// String returns the element kind name.
func (k ElemKind) String() string {
	switch k {
	case ElemBool:
		return "bool"
	case ElemInt:
		return "int"
	case ElemFloat:
		return "float"
	case ElemString:
		return "string"
	default:
		return "invalid"
	}
}

// Vector is an ordered, homogeneous sequence of scalars.
//
// Exactly one payload slice is populated, matching Kind. For ElemString the
// optional Null slice runs parallel to Strs; a true entry marks an element
// that carries no value.
type Vector struct {
	Kind   ElemKind
	Bools  []bool
	Ints   []int64
	Floats []float64
	Strs   []string
	Null   []bool
}

// Bools returns a boolean Vector backed by v.
func Bools(v []bool) *Vector { return &Vector{Kind: ElemBool, Bools: v} }

// Ints returns an integer Vector backed by v.
func Ints(v []int64) *Vector { return &Vector{Kind: ElemInt, Ints: v} }

// Floats returns a real Vector backed by v.
func Floats(v []float64) *Vector { return &Vector{Kind: ElemFloat, Floats: v} }

// Strings returns a text Vector backed by v with every entry present.
func Strings(v []string) *Vector { return &Vector{Kind: ElemString, Strs: v} }

// OptStrings returns a text Vector where null[i] marks absent entries.
func OptStrings(strs []string, null []bool) *Vector {
	return &Vector{Kind: ElemString, Strs: strs, Null: null}
}

// Len returns the number of elements.
func (v *Vector) Len() int {
	switch v.Kind {
	case ElemBool:
		return len(v.Bools)
	case ElemInt:
		return len(v.Ints)
	case ElemFloat:
		return len(v.Floats)
	case ElemString:
		return len(v.Strs)
	default:
		return 0
	}
}

// At returns element i as a Scalar.
func (v *Vector) At(i int) Scalar {
	switch v.Kind {
	case ElemBool:
		return Bool(v.Bools[i])
	case ElemInt:
		return Int(v.Ints[i])
	case ElemFloat:
		return Float(v.Floats[i])
	case ElemString:
		if v.Null != nil && v.Null[i] {
			return Null()
		}
		return String(v.Strs[i])
	default:
		return Null()
	}
}

// VectorList is an ordered sequence of optional vectors, one per entity.
// A nil row means no data for that entity. All present rows share Kind but
// may differ in length (ragged).
type VectorList struct {
	Kind ElemKind
	Rows []*Vector
}

// FloatVectorList builds a real VectorList from raw rows; nil rows mark
// absent entries.
func FloatVectorList(rows [][]float64) *VectorList {
	vl := &VectorList{Kind: ElemFloat, Rows: make([]*Vector, len(rows))}
	for i, r := range rows {
		if r == nil {
			continue
		}
		vl.Rows[i] = Floats(r)
	}
	return vl
}

// IntVectorList builds an integer VectorList from raw rows; nil rows mark
// absent entries.
func IntVectorList(rows [][]int64) *VectorList {
	vl := &VectorList{Kind: ElemInt, Rows: make([]*Vector, len(rows))}
	for i, r := range rows {
		if r == nil {
			continue
		}
		vl.Rows[i] = Ints(r)
	}
	return vl
}

// StringVectorList builds a text VectorList from raw rows; nil rows mark
// absent entries.
func StringVectorList(rows [][]string) *VectorList {
	vl := &VectorList{Kind: ElemString, Rows: make([]*Vector, len(rows))}
	for i, r := range rows {
		if r == nil {
			continue
		}
		vl.Rows[i] = Strings(r)
	}
	return vl
}

// Len returns the number of rows, absent ones included.
func (vl *VectorList) Len() int { return len(vl.Rows) }

// DType identifies the element type of a dense Array.
type DType uint8

const (
	// DTypeInvalid represents an invalid dtype.
	DTypeInvalid DType = iota
	// DTypeBool represents boolean elements.
	DTypeBool
	// DTypeInt64 represents signed integer elements.
	DTypeInt64
	// DTypeUint64 represents unsigned integer elements.
	DTypeUint64
	// DTypeFloat64 represents real elements.
	DTypeFloat64
	// DTypeBytes represents fixed-width text elements.
	DTypeBytes
)

// String returns the dtype name.
func (d DType) String() string {
	switch d {
	case DTypeBool:
		return "bool"
	case DTypeInt64:
		return "int64"
	case DTypeUint64:
		return "uint64"
	case DTypeFloat64:
		return "float64"
	case DTypeBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Array is a dense 1-D or 2-D matrix with a restricted dtype.
//
// Shape has one or two entries (row-major layout for 2-D). Exactly one
// payload slice is populated, matching DType. For DTypeBytes the payload is
// a flat byte slice of Width bytes per element, zero-padded on the right.
type Array struct {
	DType DType
	Shape []int
	Width int

	Bools  []bool
	Ints   []int64
	Uints  []uint64
	Floats []float64
	Bytes  []byte
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	if len(a.Shape) == 0 {
		return 0
	}
	return n
}

// FloatArray1D returns a 1-D float64 Array backed by v.
func FloatArray1D(v []float64) *Array {
	return &Array{DType: DTypeFloat64, Shape: []int{len(v)}, Floats: v}
}

// IntArray1D returns a 1-D int64 Array backed by v.
func IntArray1D(v []int64) *Array {
	return &Array{DType: DTypeInt64, Shape: []int{len(v)}, Ints: v}
}

// Sparse is a coordinate-format sparse matrix: parallel row and column index
// arrays plus a 1-D data array of equal length.
type Sparse struct {
	Row  []int64
	Col  []int64
	Data *Array
}
