package extractor

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlopt/featstore/sample"
)

const (
	// MaxFeatureValue bounds every numeric feature handed to consumers.
	// Non-finite values are clamped to ±MaxFeatureValue; the clamp is
	// policy, not an error path, and downstream models are calibrated to
	// it.
	MaxFeatureValue = 1e20

	// SensitivityEps is the smallest normalized sensitivity gap that
	// yields a log-scaled feature instead of 0.
	SensitivityEps = 0.001
)

// ClampFeature replaces non-finite values with ±MaxFeatureValue. Finite
// values pass through untouched, even when they exceed the bound.
func ClampFeature(v float64) float64 {
	if math.IsInf(v, 1) || math.IsNaN(v) {
		return MaxFeatureValue
	}
	if math.IsInf(v, -1) {
		return -MaxFeatureValue
	}
	return v
}

// Combine horizontally concatenates the named per-entity attributes into one
// dense numeric vector per entity.
//
// Each key resolves to a float/int vector (one value per entity) or a float
// vector list (several values per entity); keys absent from the sample
// contribute nothing, and absent vector-list rows contribute nothing for
// their entity. Row alignment is positional: output row i derives only from
// row i of each input. Every value is clamped via ClampFeature immediately
// before concatenation.
func Combine(s sample.Sample, keys []string) (*sample.VectorList, error) {
	var rows [][]float64

	ensure := func(key string, n int) error {
		if rows == nil {
			rows = make([][]float64, n)
			for i := range rows {
				rows[i] = []float64{}
			}
			return nil
		}
		if n != len(rows) {
			return fmt.Errorf("extractor: key %q has %d rows, expected %d", key, n, len(rows))
		}
		return nil
	}

	for _, key := range keys {
		vec, err := s.GetVector(key)
		switch {
		case err == nil && vec == nil:
			continue
		case err == nil:
			if err := ensure(key, vec.Len()); err != nil {
				return nil, err
			}
			switch vec.Kind {
			case sample.ElemFloat:
				for i, f := range vec.Floats {
					rows[i] = append(rows[i], ClampFeature(f))
				}
			case sample.ElemInt:
				for i, n := range vec.Ints {
					rows[i] = append(rows[i], float64(n))
				}
			default:
				return nil, fmt.Errorf("extractor: key %q: cannot combine %s elements", key, vec.Kind)
			}
		case errors.Is(err, sample.ErrKindMismatch):
			vl, err := s.GetVectorList(key)
			if err != nil {
				return nil, err
			}
			if vl == nil {
				continue
			}
			if vl.Kind != sample.ElemFloat {
				return nil, fmt.Errorf("extractor: key %q: cannot combine %s vector list", key, vl.Kind)
			}
			if err := ensure(key, vl.Len()); err != nil {
				return nil, err
			}
			for i, row := range vl.Rows {
				if row == nil {
					continue
				}
				for _, f := range row.Floats {
					rows[i] = append(rows[i], ClampFeature(f))
				}
			}
		default:
			return nil, err
		}
	}

	out := &sample.VectorList{Kind: sample.ElemFloat, Rows: make([]*sample.Vector, len(rows))}
	for i, r := range rows {
		out.Rows[i] = sample.Floats(r)
	}
	return out, nil
}
