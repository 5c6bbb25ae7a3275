package extractor

import (
	"fmt"
	"math"

	"github.com/mlopt/featstore/sample"
)

// Alvarez, A. M., Louveaux, Q., & Wehenkel, L. (2017). A machine
// learning-based approximation of strong branching. INFORMS Journal on
// Computing, 29(1), 185-195.
//
// extractAlvLouWeh2017 derives the fixed catalogue of per-variable branching
// features from the objective coefficients, the LP fractionality and the
// objective sensitivity ranges, and writes them to
// "<prefix>var_features_AlvLouWeh2017". A sub-feature block is skipped
// entirely when its raw input is absent from the sample.
func extractAlvLouWeh2017(s sample.Sample, prefix string) error {
	objCoeffs, err := getFloats(s, "var_obj_coeffs")
	if err != nil {
		return err
	}
	if objCoeffs == nil {
		return fmt.Errorf("extractor: missing key %q", "var_obj_coeffs")
	}
	objSADown, err := getFloats(s, "lp_var_sa_obj_down")
	if err != nil {
		return err
	}
	objSAUp, err := getFloats(s, "lp_var_sa_obj_up")
	if err != nil {
		return err
	}
	values, err := getFloats(s, "lp_var_values")
	if err != nil {
		return err
	}

	var posSum, negSum float64
	for _, c := range objCoeffs {
		if c > 0 {
			posSum += c
		}
		if c < 0 {
			negSum += -c
		}
	}

	rows := make([]*sample.Vector, len(objCoeffs))
	for i, obj := range objCoeffs {
		f := make([]float64, 0, 7)

		// Feature 1: sign of the objective coefficient.
		f = append(f, sign(obj))

		// Features 2 and 3: magnitude normalized by the positive and
		// negative coefficient sums.
		if posSum > 0 {
			f = append(f, math.Abs(obj)/posSum)
		} else {
			f = append(f, 0.0)
		}
		if negSum > 0 {
			f = append(f, math.Abs(obj)/negSum)
		} else {
			f = append(f, 0.0)
		}

		// Feature 37: fractionality of the LP relaxation value.
		if values != nil {
			v := values[i]
			f = append(f, math.Min(v-math.Floor(v), math.Ceil(v)-v))
		}

		if objSAUp != nil {
			if objSADown == nil {
				return fmt.Errorf("extractor: %q present without %q",
					"lp_var_sa_obj_up", "lp_var_sa_obj_down")
			}

			// Convert inf into large finite numbers.
			sd := math.Max(-MaxFeatureValue, objSADown[i])
			su := math.Min(MaxFeatureValue, objSAUp[i])

			// Features 44 and 46: signs of the sensitivity bounds.
			f = append(f, sign(objSAUp[i]))
			f = append(f, sign(objSADown[i]))

			// Features 47 and 48: log-scaled sensitivity gaps.
			csign := sign(obj)
			if csign != 0 && (obj-sd)/csign > SensitivityEps {
				f = append(f, math.Log((obj-sd)/csign))
			} else {
				f = append(f, 0.0)
			}
			if csign != 0 && (su-obj)/csign > SensitivityEps {
				f = append(f, math.Log((su-obj)/csign))
			} else {
				f = append(f, 0.0)
			}
		}

		// The raw inputs already guarantee finiteness; a violation here
		// is an internal-consistency failure, not recoverable input.
		for _, v := range f {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return fmt.Errorf("extractor: non-finite element in branching features of variable %d: %v", i, f)
			}
		}
		rows[i] = sample.Floats(f)
	}

	return s.PutVectorList(prefix+"var_features_AlvLouWeh2017",
		&sample.VectorList{Kind: sample.ElemFloat, Rows: rows})
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1.0
	case v < 0:
		return -1.0
	default:
		return 0.0
	}
}

// getFloats reads a float vector, returning nil for absent keys.
func getFloats(s sample.Sample, key string) ([]float64, error) {
	v, err := s.GetVector(key)
	if err != nil || v == nil {
		return nil, err
	}
	if v.Kind != sample.ElemFloat {
		return nil, fmt.Errorf("extractor: key %q holds %s elements, want float", key, v.Kind)
	}
	return v.Floats, nil
}
