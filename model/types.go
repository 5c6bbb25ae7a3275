package model

// Term is one left-hand-side coefficient of a constraint.
type Term struct {
	// VarIndex is the position of the variable in the Variables arrays.
	VarIndex int
	Coeff    float64
}

// Variables holds per-variable parallel arrays pulled from the solver.
//
// The static arrays are populated when requested with withStatic; the
// solution-dependent arrays only after an LP or MIP solve, and the
// sensitivity (SA*) arrays only for LP solutions with withSA.
type Variables struct {
	Names       []string
	LowerBounds []float64
	UpperBounds []float64
	ObjCoeffs   []float64
	Types       []string

	Values       []float64
	ReducedCosts []float64
	BasisStatus  []string
	SALBDown     []float64
	SALBUp       []float64
	SAObjDown    []float64
	SAObjUp      []float64
	SAUBDown     []float64
	SAUBUp       []float64
}

// Len returns the number of variables.
func (v *Variables) Len() int { return len(v.Names) }

// Constraints holds per-constraint parallel arrays pulled from the solver.
type Constraints struct {
	Names  []string
	Senses []string
	RHS    []float64
	// LHS holds each constraint's left-hand-side coefficients; populated
	// only when requested with withLHS.
	LHS [][]Term

	DualValues  []float64
	Slacks      []float64
	BasisStatus []string
	SARHSDown   []float64
	SARHSUp     []float64
}

// Len returns the number of constraints.
func (c *Constraints) Len() int { return len(c.Names) }

// Solver is the internal-solver collaborator. Implementations wrap a
// concrete MIP solver and expose its loaded model and current solution as
// parallel arrays.
type Solver interface {
	// GetVariables returns the per-variable arrays. withStatic selects the
	// model description (names, bounds, objective, types); withSA adds the
	// sensitivity ranges, which are only meaningful after an LP solve.
	GetVariables(withStatic, withSA bool) (*Variables, error)

	// GetConstraints returns the per-constraint arrays. withLHS controls
	// whether the (potentially large) coefficient lists are materialized.
	GetConstraints(withStatic, withSA, withLHS bool) (*Constraints, error)
}

// Instance is the problem-instance collaborator. It supplies user-defined
// features and categories keyed by entity name; entities missing from a map
// simply have no annotation, which is not an error.
type Instance interface {
	// GetVariableFeatures returns user-supplied numeric feature vectors
	// keyed by variable name.
	GetVariableFeatures() map[string][]float64

	// GetConstraintFeatures returns user-supplied numeric feature vectors
	// keyed by constraint name.
	GetConstraintFeatures() map[string][]float64

	// GetInstanceFeatures returns the instance-level feature vector.
	GetInstanceFeatures() []float64

	// GetVariableCategories returns grouping keys by variable name.
	GetVariableCategories() map[string]string

	// GetConstraintCategories returns grouping keys by constraint name.
	GetConstraintCategories() map[string]string

	// HasStaticLazyConstraints reports whether the instance declares any
	// constraints as lazy at load time.
	HasStaticLazyConstraints() bool

	// IsConstraintLazy reports whether the named constraint is lazy. Only
	// consulted when HasStaticLazyConstraints returns true.
	IsConstraintLazy(name string) bool
}

// LPStats summarizes an LP relaxation solve.
type LPStats struct {
	Value         float64
	WallclockTime float64
}

// MIPStats summarizes a MIP solve.
type MIPStats struct {
	LowerBound     float64
	UpperBound     float64
	WallclockTime  float64
	Nodes          int64
	Sense          string
	WarmStartValue *float64
}
