package extractor_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopt/featstore/container"
	"github.com/mlopt/featstore/extractor"
	"github.com/mlopt/featstore/model"
	"github.com/mlopt/featstore/sample"
)

// fakeSolver serves a fixed two-variable, two-constraint model. The flag
// arguments gate which arrays come back, mirroring a real solver wrapper.
type fakeSolver struct{}

func (fakeSolver) GetVariables(withStatic, withSA bool) (*model.Variables, error) {
	v := &model.Variables{
		Values:       []float64{0.5, 1.0},
		ReducedCosts: []float64{0, 0.1},
		BasisStatus:  []string{"B", "N"},
	}
	if withStatic {
		v.Names = []string{"x0", "x1"}
		v.LowerBounds = []float64{0, 0}
		v.UpperBounds = []float64{1, 1}
		v.ObjCoeffs = []float64{3, -2}
		v.Types = []string{"B", "C"}
	}
	if withSA {
		v.SALBDown = []float64{-1, -1}
		v.SALBUp = []float64{1, 1}
		v.SAObjDown = []float64{1, -3}
		v.SAObjUp = []float64{5, -1}
		v.SAUBDown = []float64{0, 0}
		v.SAUBUp = []float64{2, 2}
	}
	return v, nil
}

func (fakeSolver) GetConstraints(withStatic, withSA, withLHS bool) (*model.Constraints, error) {
	c := &model.Constraints{
		DualValues:  []float64{1.5, 0},
		Slacks:      []float64{0, 0.5},
		BasisStatus: []string{"N", "B"},
	}
	if withStatic {
		c.Names = []string{"c1", "c2"}
		c.Senses = []string{"<", "="}
		c.RHS = []float64{4, 1}
	}
	if withSA {
		c.SARHSDown = []float64{3, 0}
		c.SARHSUp = []float64{5, 2}
	}
	if withLHS {
		c.LHS = [][]model.Term{
			{{VarIndex: 0, Coeff: 2}, {VarIndex: 1, Coeff: 1}},
			{{VarIndex: 1, Coeff: 1}},
		}
	}
	return c, nil
}

type fakeInstance struct {
	varFeatures map[string][]float64
	varCats     map[string]string
	constrCats  map[string]string
	features    []float64
	hasLazy     bool
	lazy        map[string]bool
}

func (f *fakeInstance) GetVariableFeatures() map[string][]float64   { return f.varFeatures }
func (f *fakeInstance) GetConstraintFeatures() map[string][]float64 { return nil }
func (f *fakeInstance) GetInstanceFeatures() []float64              { return f.features }
func (f *fakeInstance) GetVariableCategories() map[string]string    { return f.varCats }
func (f *fakeInstance) GetConstraintCategories() map[string]string  { return f.constrCats }
func (f *fakeInstance) HasStaticLazyConstraints() bool              { return f.hasLazy }
func (f *fakeInstance) IsConstraintLazy(name string) bool           { return f.lazy[name] }

func defaultInstance() *fakeInstance {
	return &fakeInstance{
		varFeatures: map[string][]float64{"x0": {1.0}},
		varCats:     map[string]string{"x0": "default"},
		constrCats:  map[string]string{"c2": ""}, // explicit opt-out
		features:    []float64{10, 20},
	}
}

func TestAfterLoad(t *testing.T) {
	s := sample.NewMemorySample()
	require.NoError(t, extractor.New().AfterLoad(defaultInstance(), fakeSolver{}, s))

	names, err := s.GetVector("var_names")
	require.NoError(t, err)
	require.Equal(t, []string{"x0", "x1"}, names.Strs)

	types, err := s.GetVector("var_types")
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C"}, types.Strs)

	// x1 has no registered category: null category, no feature row.
	cats, err := s.GetVector("var_categories")
	require.NoError(t, err)
	require.Equal(t, []string{"default", ""}, cats.Strs)
	require.Equal(t, []bool{false, true}, cats.Null)

	user, err := s.GetVectorList("var_features_user")
	require.NoError(t, err)
	require.Equal(t, []float64{1}, user.Rows[0].Floats)
	require.Nil(t, user.Rows[1])

	// c1 has no registered category and defaults to its own name; c2 is
	// registered as the empty string and opts out.
	ccats, err := s.GetVector("constr_categories")
	require.NoError(t, err)
	require.Equal(t, "c1", ccats.Strs[0])
	require.Equal(t, []bool{false, true}, ccats.Null)

	// No lazy declarations at all.
	lazy, err := s.GetVector("constr_lazy")
	require.NoError(t, err)
	require.Equal(t, []bool{false, false}, lazy.Bools)
	count, err := s.GetScalar("static_lazy_count")
	require.NoError(t, err)
	require.Equal(t, sample.Int(0), *count)

	lhs, err := s.GetSparse("constr_lhs")
	require.NoError(t, err)
	require.Equal(t, []int64{0, 0, 1}, lhs.Row)
	require.Equal(t, []int64{0, 1, 1}, lhs.Col)
	require.Equal(t, []float64{2, 1, 1}, lhs.Data.Floats)

	// Combined static matrix: branching features, user features, bounds
	// and objective, concatenated per variable.
	combined, err := s.GetVectorList("var_features")
	require.NoError(t, err)
	require.Equal(t, 2, combined.Len())
	require.Equal(t, []float64{1, 1, 1.5, 1, 0, 3, 1}, combined.Rows[0].Floats)
	require.Len(t, combined.Rows[1].Floats, 6)
	require.InDelta(t, 2.0/3.0, combined.Rows[1].Floats[1], 1e-12)
}

func TestAfterLoad_LazyConstraints(t *testing.T) {
	inst := defaultInstance()
	inst.constrCats = nil
	inst.hasLazy = true
	inst.lazy = map[string]bool{"c1": true}

	s := sample.NewMemorySample()
	require.NoError(t, extractor.New().AfterLoad(inst, fakeSolver{}, s))

	lazy, err := s.GetVector("constr_lazy")
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, lazy.Bools)

	count, err := s.GetScalar("static_lazy_count")
	require.NoError(t, err)
	require.Equal(t, sample.Int(1), *count)
}

func TestAfterLoad_WithoutLHS(t *testing.T) {
	s := sample.NewMemorySample()
	e := extractor.New(extractor.WithLHS(false))
	require.NoError(t, e.AfterLoad(defaultInstance(), fakeSolver{}, s))

	lhs, err := s.GetSparse("constr_lhs")
	require.NoError(t, err)
	require.Nil(t, lhs)
}

func TestAfterLP(t *testing.T) {
	s := sample.NewMemorySample()
	e := extractor.New()
	require.NoError(t, e.AfterLoad(defaultInstance(), fakeSolver{}, s))

	stats := &model.LPStats{Value: 7.5, WallclockTime: 0.25}
	require.NoError(t, e.AfterLP(fakeSolver{}, stats, s))

	value, err := s.GetScalar("lp_value")
	require.NoError(t, err)
	require.Equal(t, sample.Float(7.5), *value)

	values, err := s.GetVector("lp_var_values")
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 1.0}, values.Floats)

	// Branching features gain the fractionality and sensitivity blocks:
	// 8 entries, then reduced cost, 6 sensitivity ranges, the LP value,
	// user features (x0 only) and the 3 static columns.
	combined, err := s.GetVectorList("lp_var_features")
	require.NoError(t, err)
	require.Equal(t, 2, combined.Len())
	require.Len(t, combined.Rows[0].Floats, 20)
	require.Len(t, combined.Rows[1].Floats, 19)

	// No user constraint features, so: dual, rhs range, slack.
	cfeat, err := s.GetVectorList("lp_constr_features")
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 3, 5, 0}, cfeat.Rows[0].Floats)
	require.Equal(t, []float64{0, 0, 2, 0.5}, cfeat.Rows[1].Floats)

	inst, err := s.GetVector("lp_instance_features")
	require.NoError(t, err)
	require.Equal(t, []float64{10, 20, 7.5, 0.25}, inst.Floats)
}

func TestAfterLP_WithoutSA(t *testing.T) {
	s := sample.NewMemorySample()
	e := extractor.New(extractor.WithSA(false))
	require.NoError(t, e.AfterLoad(defaultInstance(), fakeSolver{}, s))
	require.NoError(t, e.AfterLP(fakeSolver{}, &model.LPStats{Value: 1}, s))

	// No sensitivity arrays: the branching features stop at the
	// fractionality block and the combined matrix shrinks accordingly.
	sa, err := s.GetVector("lp_var_sa_obj_down")
	require.NoError(t, err)
	require.Nil(t, sa)

	combined, err := s.GetVectorList("lp_var_features")
	require.NoError(t, err)
	require.Len(t, combined.Rows[0].Floats, 10)
}

func TestAfterMIP(t *testing.T) {
	s := sample.NewMemorySample()
	e := extractor.New()

	stats := &model.MIPStats{
		LowerBound:    6,
		UpperBound:    7,
		WallclockTime: 1.5,
		Nodes:         42,
		Sense:         "min",
	}
	require.NoError(t, e.AfterMIP(fakeSolver{}, stats, s))

	values, err := s.GetVector("mip_var_values")
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 1.0}, values.Floats)

	slacks, err := s.GetVector("mip_constr_slacks")
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0.5}, slacks.Floats)

	lb, err := s.GetScalar("mip_lower_bound")
	require.NoError(t, err)
	require.Equal(t, sample.Float(6), *lb)

	nodes, err := s.GetScalar("mip_nodes")
	require.NoError(t, err)
	require.Equal(t, sample.Int(42), *nodes)

	sense, err := s.GetScalar("mip_sense")
	require.NoError(t, err)
	require.Equal(t, sample.String("min"), *sense)

	// No warm start: explicit null.
	ws, err := s.GetScalar("mip_warm_start_value")
	require.NoError(t, err)
	require.True(t, ws.IsNull())
}

func TestAfterMIP_WarmStart(t *testing.T) {
	s := sample.NewMemorySample()
	warm := 6.5
	stats := &model.MIPStats{Sense: "max", WarmStartValue: &warm}
	require.NoError(t, extractor.New().AfterMIP(fakeSolver{}, stats, s))

	ws, err := s.GetScalar("mip_warm_start_value")
	require.NoError(t, err)
	require.Equal(t, sample.Float(6.5), *ws)
}

func TestFullFlow_FileBackend(t *testing.T) {
	// The same extraction against the durable backend, with reduced float
	// precision on vectors and feature matrices.
	path := filepath.Join(t.TempDir(), "run.fst")
	c, err := container.Create(path)
	require.NoError(t, err)
	s := container.NewFileSample(c)

	e := extractor.New()
	require.NoError(t, e.AfterLoad(defaultInstance(), fakeSolver{}, s))
	require.NoError(t, e.AfterLP(fakeSolver{}, &model.LPStats{Value: 7.5, WallclockTime: 0.25}, s))
	require.NoError(t, e.AfterMIP(fakeSolver{}, &model.MIPStats{LowerBound: 6, UpperBound: 7, Sense: "min"}, s))
	require.NoError(t, c.Close())

	c, err = container.Open(path)
	require.NoError(t, err)
	defer c.Close()
	s = container.NewFileSample(c)

	combined, err := s.GetVectorList("var_features")
	require.NoError(t, err)
	want := []float64{1, 1, 1.5, 1, 0, 3, 1}
	require.Len(t, combined.Rows[0].Floats, len(want))
	for i := range want {
		require.InDelta(t, want[i], combined.Rows[0].Floats[i], 1e-3)
	}

	cats, err := s.GetVector("constr_categories")
	require.NoError(t, err)
	require.Equal(t, "c1", cats.Strs[0])
	require.Equal(t, []bool{false, true}, cats.Null)

	lb, err := s.GetScalar("mip_lower_bound")
	require.NoError(t, err)
	require.Equal(t, sample.Float(6), *lb)
}
