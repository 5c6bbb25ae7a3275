package extractor

import (
	"fmt"

	featstore "github.com/mlopt/featstore"
	"github.com/mlopt/featstore/model"
	"github.com/mlopt/featstore/sample"
)

// Extractor captures raw per-entity solver attributes and user-supplied
// annotations into a Sample at three checkpoints: after the instance is
// loaded, after the LP relaxation is solved, and after the MIP is solved.
//
// All writes use a fixed key vocabulary (var_*, constr_*, lp_*, mip_*);
// entity index i refers to the same variable or constraint under every key
// of a sample.
type Extractor struct {
	withSA  bool
	withLHS bool
	logger  *featstore.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSA controls whether sensitivity-analysis data is pulled after the LP
// solve. Enabled by default.
func WithSA(enabled bool) Option {
	return func(e *Extractor) { e.withSA = enabled }
}

// WithLHS controls whether constraint left-hand-side coefficients are
// materialized at load time. Enabled by default.
func WithLHS(enabled bool) Option {
	return func(e *Extractor) { e.withLHS = enabled }
}

// WithLogger sets the logger. If unset, logging is disabled.
func WithLogger(l *featstore.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor with sensitivity and LHS extraction enabled.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		withSA:  true,
		withLHS: true,
		logger:  featstore.NoopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AfterLoad captures the static model description: per-variable and
// per-constraint attributes from the solver, user features and categories
// from the instance, the lazy-constraint flags, the static branching
// features and the combined static feature matrix.
func (e *Extractor) AfterLoad(instance model.Instance, solver model.Solver, s sample.Sample) error {
	vars, err := solver.GetVariables(true, false)
	if err != nil {
		return fmt.Errorf("extractor: after load: %w", err)
	}
	constrs, err := solver.GetConstraints(true, false, e.withLHS)
	if err != nil {
		return fmt.Errorf("extractor: after load: %w", err)
	}

	if err := putFloats(s, "var_lower_bounds", vars.LowerBounds); err != nil {
		return err
	}
	if err := putStrings(s, "var_names", vars.Names); err != nil {
		return err
	}
	if err := putFloats(s, "var_obj_coeffs", vars.ObjCoeffs); err != nil {
		return err
	}
	if err := putStrings(s, "var_types", vars.Types); err != nil {
		return err
	}
	if err := putFloats(s, "var_upper_bounds", vars.UpperBounds); err != nil {
		return err
	}
	if err := putStrings(s, "constr_names", constrs.Names); err != nil {
		return err
	}
	if err := putFloats(s, "constr_rhs", constrs.RHS); err != nil {
		return err
	}
	if err := putStrings(s, "constr_senses", constrs.Senses); err != nil {
		return err
	}
	if constrs.LHS != nil {
		if err := s.PutSparse("constr_lhs", lhsToSparse(constrs.LHS)); err != nil {
			return err
		}
	}

	if err := e.extractUserFeaturesVars(instance, s, vars.Names); err != nil {
		return err
	}
	if err := e.extractUserFeaturesConstrs(instance, s, constrs.Names); err != nil {
		return err
	}
	if err := e.extractUserFeaturesInstance(instance, s); err != nil {
		return err
	}
	if err := extractAlvLouWeh2017(s, ""); err != nil {
		return err
	}

	combined, err := Combine(s, []string{
		"var_features_AlvLouWeh2017",
		"var_features_user",
		"var_lower_bounds",
		"var_obj_coeffs",
		"var_upper_bounds",
	})
	if err != nil {
		return err
	}
	if err := s.PutVectorList("var_features", combined); err != nil {
		return err
	}
	e.logger.Debug("after-load checkpoint extracted",
		"variables", vars.Len(), "constraints", constrs.Len())
	return nil
}

// AfterLP captures the LP relaxation solution: solution-dependent variable
// and constraint attributes, the solve stats, the LP-aware branching
// features and the combined LP feature matrices.
func (e *Extractor) AfterLP(solver model.Solver, stats *model.LPStats, s sample.Sample) error {
	vars, err := solver.GetVariables(false, e.withSA)
	if err != nil {
		return fmt.Errorf("extractor: after lp: %w", err)
	}
	constrs, err := solver.GetConstraints(false, e.withSA, false)
	if err != nil {
		return fmt.Errorf("extractor: after lp: %w", err)
	}

	if err := putStrings(s, "lp_var_basis_status", vars.BasisStatus); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_reduced_costs", vars.ReducedCosts); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_sa_lb_down", vars.SALBDown); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_sa_lb_up", vars.SALBUp); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_sa_obj_down", vars.SAObjDown); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_sa_obj_up", vars.SAObjUp); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_sa_ub_down", vars.SAUBDown); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_sa_ub_up", vars.SAUBUp); err != nil {
		return err
	}
	if err := putFloats(s, "lp_var_values", vars.Values); err != nil {
		return err
	}
	if err := putStrings(s, "lp_constr_basis_status", constrs.BasisStatus); err != nil {
		return err
	}
	if err := putFloats(s, "lp_constr_dual_values", constrs.DualValues); err != nil {
		return err
	}
	if err := putFloats(s, "lp_constr_sa_rhs_down", constrs.SARHSDown); err != nil {
		return err
	}
	if err := putFloats(s, "lp_constr_sa_rhs_up", constrs.SARHSUp); err != nil {
		return err
	}
	if err := putFloats(s, "lp_constr_slacks", constrs.Slacks); err != nil {
		return err
	}
	if stats != nil {
		if err := s.PutScalar("lp_value", sample.Float(stats.Value)); err != nil {
			return err
		}
		if err := s.PutScalar("lp_wallclock_time", sample.Float(stats.WallclockTime)); err != nil {
			return err
		}
	}

	if err := extractAlvLouWeh2017(s, "lp_"); err != nil {
		return err
	}

	varFeatures, err := Combine(s, []string{
		"lp_var_features_AlvLouWeh2017",
		"lp_var_reduced_costs",
		"lp_var_sa_lb_down",
		"lp_var_sa_lb_up",
		"lp_var_sa_obj_down",
		"lp_var_sa_obj_up",
		"lp_var_sa_ub_down",
		"lp_var_sa_ub_up",
		"lp_var_values",
		"var_features_user",
		"var_lower_bounds",
		"var_obj_coeffs",
		"var_upper_bounds",
	})
	if err != nil {
		return err
	}
	if err := s.PutVectorList("lp_var_features", varFeatures); err != nil {
		return err
	}

	constrFeatures, err := Combine(s, []string{
		"constr_features_user",
		"lp_constr_dual_values",
		"lp_constr_sa_rhs_down",
		"lp_constr_sa_rhs_up",
		"lp_constr_slacks",
	})
	if err != nil {
		return err
	}
	if err := s.PutVectorList("lp_constr_features", constrFeatures); err != nil {
		return err
	}

	if err := e.putLPInstanceFeatures(s); err != nil {
		return err
	}
	e.logger.Debug("after-lp checkpoint extracted",
		"variables", vars.Len(), "constraints", constrs.Len())
	return nil
}

// AfterMIP captures the MIP solution. Only primal values and slacks are
// available; MIP solutions carry no dual or sensitivity information.
func (e *Extractor) AfterMIP(solver model.Solver, stats *model.MIPStats, s sample.Sample) error {
	vars, err := solver.GetVariables(false, false)
	if err != nil {
		return fmt.Errorf("extractor: after mip: %w", err)
	}
	constrs, err := solver.GetConstraints(false, false, false)
	if err != nil {
		return fmt.Errorf("extractor: after mip: %w", err)
	}

	if err := putFloats(s, "mip_var_values", vars.Values); err != nil {
		return err
	}
	if err := putFloats(s, "mip_constr_slacks", constrs.Slacks); err != nil {
		return err
	}
	if stats != nil {
		if err := s.PutScalar("mip_lower_bound", sample.Float(stats.LowerBound)); err != nil {
			return err
		}
		if err := s.PutScalar("mip_upper_bound", sample.Float(stats.UpperBound)); err != nil {
			return err
		}
		if err := s.PutScalar("mip_wallclock_time", sample.Float(stats.WallclockTime)); err != nil {
			return err
		}
		if err := s.PutScalar("mip_nodes", sample.Int(stats.Nodes)); err != nil {
			return err
		}
		if err := s.PutScalar("mip_sense", sample.String(stats.Sense)); err != nil {
			return err
		}
		ws := sample.Null()
		if stats.WarmStartValue != nil {
			ws = sample.Float(*stats.WarmStartValue)
		}
		if err := s.PutScalar("mip_warm_start_value", ws); err != nil {
			return err
		}
	}
	e.logger.Debug("after-mip checkpoint extracted",
		"variables", vars.Len(), "constraints", constrs.Len())
	return nil
}

// extractUserFeaturesVars stores per-variable categories and user feature
// rows. Variables without a registered category get a null category and an
// absent feature row.
func (e *Extractor) extractUserFeaturesVars(instance model.Instance, s sample.Sample, names []string) error {
	featureMap := instance.GetVariableFeatures()
	categoryMap := instance.GetVariableCategories()

	cats := make([]string, len(names))
	null := make([]bool, len(names))
	rows := make([]*sample.Vector, len(names))
	for i, name := range names {
		category, ok := categoryMap[name]
		if !ok {
			null[i] = true
			continue
		}
		cats[i] = category
		if features, ok := featureMap[name]; ok {
			// Copy: the instance keeps ownership of its slices.
			row := make([]float64, len(features))
			copy(row, features)
			rows[i] = sample.Floats(row)
		}
	}

	if err := s.PutVector("var_categories", sample.OptStrings(cats, null)); err != nil {
		return err
	}
	return putFeatureRows(s, "var_features_user", rows)
}

// extractUserFeaturesConstrs stores per-constraint categories, user feature
// rows and the lazy flags. A constraint with no registered category defaults
// its category to its own name; a category registered as the empty string
// explicitly opts the constraint out.
func (e *Extractor) extractUserFeaturesConstrs(instance model.Instance, s sample.Sample, names []string) error {
	hasStaticLazy := instance.HasStaticLazyConstraints()
	featureMap := instance.GetConstraintFeatures()
	categoryMap := instance.GetConstraintCategories()

	cats := make([]string, len(names))
	null := make([]bool, len(names))
	rows := make([]*sample.Vector, len(names))
	lazy := make([]bool, len(names))
	for i, name := range names {
		category := name
		if registered, ok := categoryMap[name]; ok {
			category = registered
		}
		if category == "" {
			null[i] = true
			continue
		}
		cats[i] = category
		if features, ok := featureMap[name]; ok {
			row := make([]float64, len(features))
			copy(row, features)
			rows[i] = sample.Floats(row)
		}
		if hasStaticLazy {
			lazy[i] = instance.IsConstraintLazy(name)
		}
	}

	if err := s.PutVector("constr_categories", sample.OptStrings(cats, null)); err != nil {
		return err
	}
	if err := putFeatureRows(s, "constr_features_user", rows); err != nil {
		return err
	}
	return s.PutVector("constr_lazy", sample.Bools(lazy))
}

// extractUserFeaturesInstance stores the instance-level user features and
// the total lazy-constraint count.
func (e *Extractor) extractUserFeaturesInstance(instance model.Instance, s sample.Sample) error {
	features := instance.GetInstanceFeatures()
	if features == nil {
		features = []float64{}
	}
	if err := s.PutVector("instance_features_user", sample.Floats(features)); err != nil {
		return err
	}

	lazy, err := s.GetVector("constr_lazy")
	if err != nil {
		return err
	}
	if lazy == nil {
		return fmt.Errorf("extractor: missing key %q", "constr_lazy")
	}
	var count int64
	for _, l := range lazy.Bools {
		if l {
			count++
		}
	}
	return s.PutScalar("static_lazy_count", sample.Int(count))
}

// putLPInstanceFeatures appends the LP objective value and wall-clock time
// to the user instance features.
func (e *Extractor) putLPInstanceFeatures(s sample.Sample) error {
	user, err := getFloats(s, "instance_features_user")
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("extractor: missing key %q", "instance_features_user")
	}
	value, err := s.GetScalar("lp_value")
	if err != nil {
		return err
	}
	elapsed, err := s.GetScalar("lp_wallclock_time")
	if err != nil {
		return err
	}
	if value == nil || elapsed == nil {
		return fmt.Errorf("extractor: missing lp solve stats")
	}

	out := make([]float64, 0, len(user)+2)
	out = append(out, user...)
	out = append(out, ClampFeature(value.F), ClampFeature(elapsed.F))
	return s.PutVector("lp_instance_features", sample.Floats(out))
}

// lhsToSparse flattens per-constraint coefficient lists into a COO matrix
// over constraint rows and variable columns.
func lhsToSparse(lhs [][]model.Term) *sample.Sparse {
	var nnz int
	for _, terms := range lhs {
		nnz += len(terms)
	}
	sp := &sample.Sparse{
		Row: make([]int64, 0, nnz),
		Col: make([]int64, 0, nnz),
	}
	data := make([]float64, 0, nnz)
	for i, terms := range lhs {
		for _, t := range terms {
			sp.Row = append(sp.Row, int64(i))
			sp.Col = append(sp.Col, int64(t.VarIndex))
			data = append(data, t.Coeff)
		}
	}
	sp.Data = sample.FloatArray1D(data)
	return sp
}

// putFeatureRows stores a ragged float vector list unless every row is
// absent, in which case there is nothing to store.
func putFeatureRows(s sample.Sample, key string, rows []*sample.Vector) error {
	usable := false
	for _, r := range rows {
		if r != nil && r.Len() > 0 {
			usable = true
			break
		}
	}
	if !usable {
		return nil
	}
	return s.PutVectorList(key, &sample.VectorList{Kind: sample.ElemFloat, Rows: rows})
}

func putFloats(s sample.Sample, key string, v []float64) error {
	if v == nil {
		return nil
	}
	return s.PutVector(key, sample.Floats(v))
}

func putStrings(s sample.Sample, key string, v []string) error {
	if v == nil {
		return nil
	}
	return s.PutVector(key, sample.Strings(v))
}
