package container

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopt/featstore/sample"
)

func tempSample(t *testing.T) (*FileSample, string) {
	t.Helper()
	c, path := tempContainer(t)
	t.Cleanup(func() { _ = c.Close() })
	return NewFileSample(c), path
}

func TestFileSample_ScalarRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    sample.Scalar
	}{
		{"null", sample.Null()},
		{"bool", sample.Bool(true)},
		{"int", sample.Int(-123456789)},
		{"float", sample.Float(1e100)}, // scalars keep full precision
		{"string", sample.String("presolve")},
		{"empty string", sample.String("")},
	}

	s, _ := tempSample(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.PutScalar("k_"+tt.name, tt.v))
			got, err := s.GetScalar("k_" + tt.name)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, tt.v, *got)
		})
	}
}

func TestFileSample_IntVectorRoundTrip(t *testing.T) {
	s, _ := tempSample(t)
	want := []int64{0, 1, -1, 1 << 40, -(1 << 40)}
	require.NoError(t, s.PutVector("k", sample.Ints(want)))

	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Equal(t, sample.ElemInt, v.Kind)
	require.Equal(t, want, v.Ints)
}

func TestFileSample_BoolVectorRoundTrip(t *testing.T) {
	s, _ := tempSample(t)
	want := []bool{true, false, false, true}
	require.NoError(t, s.PutVector("k", sample.Bools(want)))

	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Equal(t, sample.ElemBool, v.Kind)
	require.Equal(t, want, v.Bools)
}

func TestFileSample_FloatVectorExactValues(t *testing.T) {
	// Values exactly representable in binary16 survive untouched.
	s, _ := tempSample(t)
	want := []float64{0, 1, -1, 0.5, 1.5, 2048}
	require.NoError(t, s.PutVector("k", sample.Floats(want)))

	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Equal(t, want, v.Floats)
}

func TestFileSample_FloatVectorPrecisionLoss(t *testing.T) {
	// Float vectors are narrowed to half precision on write; the round
	// trip is only accurate to ~3 decimal digits.
	s, _ := tempSample(t)
	want := []float64{0.1, 3.14159, -273.15}
	require.NoError(t, s.PutVector("k", sample.Floats(want)))

	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Len(t, v.Floats, len(want))
	for i := range want {
		require.InEpsilon(t, want[i], v.Floats[i], 1e-3)
	}
}

func TestFileSample_StringVectorNullSentinel(t *testing.T) {
	s, _ := tempSample(t)
	strs := []string{"alpha", "", "gamma"}
	null := []bool{false, true, false}
	require.NoError(t, s.PutVector("k", sample.OptStrings(strs, null)))

	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Equal(t, strs, v.Strs)
	require.Equal(t, null, v.Null)
}

func TestFileSample_EmptyStringBecomesNull(t *testing.T) {
	// The empty string doubles as the null sentinel on disk, so a present
	// empty string is indistinguishable from an absent entry after a round
	// trip.
	s, _ := tempSample(t)
	require.NoError(t, s.PutVector("k", sample.Strings([]string{"a", ""})))

	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Equal(t, []string{"a", ""}, v.Strs)
	require.Equal(t, []bool{false, true}, v.Null)
}

func TestFileSample_LongStringVector(t *testing.T) {
	s, _ := tempSample(t)
	strs := []string{strings.Repeat("x", 300), "short"}
	require.NoError(t, s.PutVector("k", sample.Strings(strs)))

	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Equal(t, strs, v.Strs)
}

func TestFileSample_VectorListRoundTrip(t *testing.T) {
	s, _ := tempSample(t)

	t.Run("floats", func(t *testing.T) {
		rows := [][]float64{{1, 2, 3}, nil, {4, 5}}
		require.NoError(t, s.PutVectorList("f", sample.FloatVectorList(rows)))

		vl, err := s.GetVectorList("f")
		require.NoError(t, err)
		require.Equal(t, 3, vl.Len())
		require.Equal(t, []float64{1, 2, 3}, vl.Rows[0].Floats)
		require.Nil(t, vl.Rows[1])
		require.Equal(t, []float64{4, 5}, vl.Rows[2].Floats)
	})

	t.Run("ints", func(t *testing.T) {
		rows := [][]int64{{10}, {}, {20, 30}}
		require.NoError(t, s.PutVectorList("i", sample.IntVectorList(rows)))

		vl, err := s.GetVectorList("i")
		require.NoError(t, err)
		require.Equal(t, []int64{10}, vl.Rows[0].Ints)
		require.NotNil(t, vl.Rows[1])
		require.Empty(t, vl.Rows[1].Ints)
		require.Equal(t, []int64{20, 30}, vl.Rows[2].Ints)
	})

	t.Run("strings", func(t *testing.T) {
		rows := [][]string{{"eq", "le"}, nil, {"ge"}}
		require.NoError(t, s.PutVectorList("s", sample.StringVectorList(rows)))

		vl, err := s.GetVectorList("s")
		require.NoError(t, err)
		require.Equal(t, []string{"eq", "le"}, vl.Rows[0].Strs)
		require.Nil(t, vl.Rows[1])
		require.Equal(t, []string{"ge"}, vl.Rows[2].Strs)
	})
}

func TestFileSample_ArrayRoundTrip(t *testing.T) {
	s, _ := tempSample(t)

	t.Run("float64 full precision", func(t *testing.T) {
		want := []float64{0.1, 1e-300, 1e300}
		require.NoError(t, s.PutArray("a", sample.FloatArray1D(want)))

		a, err := s.GetArray("a")
		require.NoError(t, err)
		require.Equal(t, sample.DTypeFloat64, a.DType)
		require.Equal(t, []int{3}, a.Shape)
		require.Equal(t, want, a.Floats)
	})

	t.Run("int64 2d", func(t *testing.T) {
		want := &sample.Array{
			DType: sample.DTypeInt64,
			Shape: []int{2, 3},
			Ints:  []int64{1, 2, 3, 4, 5, 6},
		}
		require.NoError(t, s.PutArray("m", want))

		a, err := s.GetArray("m")
		require.NoError(t, err)
		require.Equal(t, []int{2, 3}, a.Shape)
		require.Equal(t, want.Ints, a.Ints)
	})

	t.Run("uint64", func(t *testing.T) {
		want := &sample.Array{
			DType: sample.DTypeUint64,
			Shape: []int{2},
			Uints: []uint64{0, ^uint64(0)},
		}
		require.NoError(t, s.PutArray("u", want))

		a, err := s.GetArray("u")
		require.NoError(t, err)
		require.Equal(t, want.Uints, a.Uints)
	})

	t.Run("bytes", func(t *testing.T) {
		want := &sample.Array{
			DType: sample.DTypeBytes,
			Shape: []int{2},
			Width: 3,
			Bytes: []byte("ab\x00cde"),
		}
		require.NoError(t, s.PutArray("b", want))

		a, err := s.GetArray("b")
		require.NoError(t, err)
		require.Equal(t, 3, a.Width)
		require.Equal(t, want.Bytes, a.Bytes)
	})
}

func TestFileSample_SparseRoundTrip(t *testing.T) {
	s, _ := tempSample(t)
	want := &sample.Sparse{
		Row:  []int64{0, 0, 2},
		Col:  []int64{1, 3, 0},
		Data: sample.FloatArray1D([]float64{1.5, -2.5, 4}),
	}
	require.NoError(t, s.PutSparse("lhs", want))

	// The triplet is stored as three sibling fields.
	require.True(t, s.File().Has("lhs_row"))
	require.True(t, s.File().Has("lhs_col"))
	require.True(t, s.File().Has("lhs_data"))

	got, err := s.GetSparse("lhs")
	require.NoError(t, err)
	require.Equal(t, want.Row, got.Row)
	require.Equal(t, want.Col, got.Col)
	require.Equal(t, want.Data.Floats, got.Data.Floats)
}

func TestFileSample_SparseAbsent(t *testing.T) {
	s, _ := tempSample(t)
	got, err := s.GetSparse("missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFileSample_SparseIncompleteTriplet(t *testing.T) {
	s, _ := tempSample(t)
	require.NoError(t, s.PutArray("lhs_row", sample.IntArray1D([]int64{0})))

	_, err := s.GetSparse("lhs")
	require.Error(t, err)
}

func TestFileSample_KindMismatch(t *testing.T) {
	s, _ := tempSample(t)
	require.NoError(t, s.PutVector("vec", sample.Ints([]int64{1})))
	require.NoError(t, s.PutScalar("sc", sample.Int(1)))

	_, err := s.GetScalar("vec")
	require.ErrorIs(t, err, sample.ErrKindMismatch)

	_, err = s.GetVector("sc")
	require.ErrorIs(t, err, sample.ErrKindMismatch)

	_, err = s.GetVectorList("vec")
	require.ErrorIs(t, err, sample.ErrKindMismatch)
}

func TestFileSample_ReopenPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.fst")
	c, err := Create(path)
	require.NoError(t, err)
	s := NewFileSample(c)

	require.NoError(t, s.PutScalar("mip_lower_bound", sample.Float(12.5)))
	require.NoError(t, s.PutVector("var_types", sample.Strings([]string{"C", "B"})))
	require.NoError(t, s.PutVector("lp_var_values", sample.Floats([]float64{0.5, 1})))
	require.NoError(t, s.PutVectorList("var_features",
		sample.FloatVectorList([][]float64{{1, 2}, nil})))
	require.NoError(t, s.PutSparse("constr_lhs", &sample.Sparse{
		Row:  []int64{0},
		Col:  []int64{1},
		Data: sample.FloatArray1D([]float64{3}),
	}))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	s = NewFileSample(c)

	sc, err := s.GetScalar("mip_lower_bound")
	require.NoError(t, err)
	require.Equal(t, sample.Float(12.5), *sc)

	v, err := s.GetVector("var_types")
	require.NoError(t, err)
	require.Equal(t, []string{"C", "B"}, v.Strs)

	v, err = s.GetVector("lp_var_values")
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 1}, v.Floats)

	vl, err := s.GetVectorList("var_features")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, vl.Rows[0].Floats)
	require.Nil(t, vl.Rows[1])

	sp, err := s.GetSparse("constr_lhs")
	require.NoError(t, err)
	require.Equal(t, []int64{0}, sp.Row)
}

func TestFileSample_PutNilIsNoop(t *testing.T) {
	s, _ := tempSample(t)
	require.NoError(t, s.PutVector("k", nil))
	require.NoError(t, s.PutVectorList("k", nil))
	require.NoError(t, s.PutArray("k", nil))
	require.NoError(t, s.PutSparse("k", nil))
	require.False(t, s.File().Has("k"))
}
