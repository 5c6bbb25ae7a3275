package sample

import (
	"errors"
	"fmt"
)

var (
	// ErrNoElemKind is returned when a vector list has no row to infer an
	// element kind from (every row absent or empty).
	ErrNoElemKind = errors.New("vector list is completely empty")

	// ErrBoolVectorList is returned for boolean vector lists, which the
	// packer does not support.
	ErrBoolVectorList = errors.New("bool vector lists cannot be packed")
)

// Packed is a ragged vector list laid out as a rectangular row-major matrix
// plus a per-row length side-array.
//
// Absent rows are recorded with length -1 and filled entirely with the fill
// constant; present rows are right-padded up to Cols. Exactly one payload
// slice is populated, matching Kind.
type Packed struct {
	Kind ElemKind
	Rows int
	Cols int

	Ints   []int64
	Floats []float64
	Strs   []string

	// Lengths holds the original row lengths; -1 marks absent rows.
	Lengths []int64
}

// Pack pads vl into a rectangular matrix so variable-length, possibly-absent
// per-entity rows can live in a fixed-shape backing field.
//
// The fill constant is inferred from the element kind: 0 for int, 0.0 for
// float, "" for text. Packing fails if no row provides a usable element kind.
func Pack(vl *VectorList) (*Packed, error) {
	if vl.Kind == ElemBool {
		return nil, ErrBoolVectorList
	}

	lens := make([]int64, len(vl.Rows))
	maxlen := 0
	usable := false
	for i, row := range vl.Rows {
		if row == nil {
			lens[i] = -1
			continue
		}
		n := row.Len()
		lens[i] = int64(n)
		if n > maxlen {
			maxlen = n
		}
		if n > 0 {
			usable = true
		}
	}
	if !usable {
		return nil, ErrNoElemKind
	}

	p := &Packed{
		Kind:    vl.Kind,
		Rows:    len(vl.Rows),
		Cols:    maxlen,
		Lengths: lens,
	}
	switch vl.Kind {
	case ElemInt:
		p.Ints = make([]int64, p.Rows*p.Cols)
		for i, row := range vl.Rows {
			if row == nil {
				continue
			}
			copy(p.Ints[i*p.Cols:], row.Ints)
		}
	case ElemFloat:
		p.Floats = make([]float64, p.Rows*p.Cols)
		for i, row := range vl.Rows {
			if row == nil {
				continue
			}
			copy(p.Floats[i*p.Cols:], row.Floats)
		}
	case ElemString:
		p.Strs = make([]string, p.Rows*p.Cols)
		for i, row := range vl.Rows {
			if row == nil {
				continue
			}
			for j, s := range row.Strs {
				if row.Null != nil && row.Null[j] {
					continue
				}
				p.Strs[i*p.Cols+j] = s
			}
		}
	default:
		return nil, fmt.Errorf("unsupported element kind %s: %w", vl.Kind, ErrNoElemKind)
	}
	return p, nil
}

// Crop recovers the original ragged vector list: rows with a negative
// recorded length come back absent, all others keep their first Lengths[i]
// elements and drop the padding.
func (p *Packed) Crop() *VectorList {
	vl := &VectorList{Kind: p.Kind, Rows: make([]*Vector, p.Rows)}
	for i := 0; i < p.Rows; i++ {
		n := p.Lengths[i]
		if n < 0 {
			continue
		}
		start := i * p.Cols
		switch p.Kind {
		case ElemInt:
			vl.Rows[i] = Ints(p.Ints[start : start+int(n)])
		case ElemFloat:
			vl.Rows[i] = Floats(p.Floats[start : start+int(n)])
		case ElemString:
			vl.Rows[i] = Strings(p.Strs[start : start+int(n)])
		}
	}
	return vl
}
