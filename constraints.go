package multibody

import (
	"math"
	"sort"
)

// Constraint error norms and projection. The engine supplies raw residuals
// and per-equation weights (differing physical units get differing weights);
// this layer reduces them to the scalar an integrator compares against its
// tolerance, and projects the coordinates back onto the constraint manifold
// when asked.

// Projection solver internals: damped Gauss-Newton with a finite-difference
// Jacobian over the constraint-coupled coordinate subset.
const (
	projectionIterations = 20
	projectionDamping    = 1e-12
	jacobianStep         = 1e-6
)

func weightedErrs(errs, weights []float64) []float64 {
	we := make([]float64, len(errs))
	for i, e := range errs {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		we[i] = w * e
	}
	return we
}

// rmsNorm is the weighted root-mean-square over the residual vector; zero for
// an empty vector.
func rmsNorm(we []float64) float64 {
	if len(we) == 0 {
		return 0
	}
	var sum float64
	for _, e := range we {
		sum += e * e
	}
	return math.Sqrt(sum / float64(len(we)))
}

// QConstraintNorm is the weighted norm of the position-level constraint
// violations, available at Position stage.
func (m *MatterSubsystem) QConstraintNorm(s *State) (float64, error) {
	if err := m.need(s, StagePosition, "QConstraintNorm"); err != nil {
		return 0, err
	}
	return rmsNorm(weightedErrs(m.eng.QConstraintErrors(s), m.eng.QConstraintWeights(s))), nil
}

// QConstraintErrors returns the raw (unweighted) position-level residuals.
func (m *MatterSubsystem) QConstraintErrors(s *State) ([]float64, error) {
	if err := m.need(s, StagePosition, "QConstraintErrors"); err != nil {
		return nil, err
	}
	return m.eng.QConstraintErrors(s), nil
}

// UConstraintNorm is the weighted norm of the velocity-level constraint
// violations, available at Velocity stage.
func (m *MatterSubsystem) UConstraintNorm(s *State) (float64, error) {
	if err := m.need(s, StageVelocity, "UConstraintNorm"); err != nil {
		return 0, err
	}
	return rmsNorm(weightedErrs(m.eng.UConstraintErrors(s), m.eng.UConstraintWeights(s))), nil
}

// UConstraintErrors returns the raw velocity-level residuals.
func (m *MatterSubsystem) UConstraintErrors(s *State) ([]float64, error) {
	if err := m.need(s, StageVelocity, "UConstraintErrors"); err != nil {
		return nil, err
	}
	return m.eng.UConstraintErrors(s), nil
}

// UDotConstraintNorm is the weighted norm of the acceleration-level
// constraint violations, available at Acceleration stage.
func (m *MatterSubsystem) UDotConstraintNorm(s *State) (float64, error) {
	if err := m.need(s, StageAcceleration, "UDotConstraintNorm"); err != nil {
		return 0, err
	}
	return rmsNorm(weightedErrs(m.eng.UDotConstraintErrors(s), m.eng.UDotConstraintWeights(s))), nil
}

// UDotConstraintErrors returns the raw acceleration-level residuals.
func (m *MatterSubsystem) UDotConstraintErrors(s *State) ([]float64, error) {
	if err := m.need(s, StageAcceleration, "UDotConstraintErrors"); err != nil {
		return nil, err
	}
	return m.eng.UDotConstraintErrors(s), nil
}

// projSpace abstracts over the q and u coordinate families so one projection
// loop serves both.
type projSpace struct {
	op        string
	stage     Stage
	numCoords int
	errs      func(*State) []float64
	weights   func(*State) []float64
	deps      func(int) []int
	get       func(*State, int) float64
	set       func(*State, int, float64)
}

// ProjectQConstraints drives the weighted position-level constraint norm at
// or below targetTol by adjusting the q's, when the norm exceeds tol. The
// matching component is removed from the q segment of yErr (the integrator's
// local error estimate, laid out {q, u}; pass nil to skip). Returns whether
// any coordinate was changed; leaves the State at Position.
func (m *MatterSubsystem) ProjectQConstraints(s *State, yErr []float64, tol, targetTol float64) (bool, error) {
	if err := m.need(s, StagePosition, "ProjectQConstraints"); err != nil {
		return false, err
	}
	var seg []float64
	if len(yErr) >= m.eng.NumQ() {
		seg = yErr[:m.eng.NumQ()]
	}
	return m.project(s, projSpace{
		op:        "ProjectQConstraints",
		stage:     StagePosition,
		numCoords: m.eng.NumQ(),
		errs:      m.eng.QConstraintErrors,
		weights:   m.eng.QConstraintWeights,
		deps:      m.eng.QConstraintDependencies,
		get:       func(s *State, i int) float64 { return s.q[i] },
		set:       func(s *State, i int, v float64) { s.SetQ(i, v) },
	}, seg, tol, targetTol)
}

// ProjectUConstraints is the velocity-level counterpart: it adjusts the u's,
// removes the matching component from the u segment of yErr, and leaves the
// State at Velocity.
func (m *MatterSubsystem) ProjectUConstraints(s *State, yErr []float64, tol, targetTol float64) (bool, error) {
	if err := m.need(s, StageVelocity, "ProjectUConstraints"); err != nil {
		return false, err
	}
	var seg []float64
	nq, nu := m.eng.NumQ(), m.eng.NumMobilities()
	if len(yErr) >= nq+nu {
		seg = yErr[nq : nq+nu]
	}
	return m.project(s, projSpace{
		op:        "ProjectUConstraints",
		stage:     StageVelocity,
		numCoords: nu,
		errs:      m.eng.UConstraintErrors,
		weights:   m.eng.UConstraintWeights,
		deps:      m.eng.UConstraintDependencies,
		get:       func(s *State, i int) float64 { return s.u[i] },
		set:       func(s *State, i int, v float64) { s.SetU(i, v) },
	}, seg, tol, targetTol)
}

func (m *MatterSubsystem) project(s *State, sp projSpace, yErrSeg []float64, tol, targetTol float64) (bool, error) {
	we := weightedErrs(sp.errs(s), sp.weights(s))
	norm := rmsNorm(we)
	if norm <= tol {
		return false, nil
	}

	cols := depUnion(sp, len(we))
	changed := false
	var jac [][]float64
	for it := 1; it <= projectionIterations; it++ {
		var err error
		jac, err = m.numJacobian(s, sp, cols, len(we))
		if err != nil {
			return changed, err
		}
		step, ok := leastSquaresStep(jac, we)
		if !ok {
			return changed, &NonconvergentProjectionError{
				Op: sp.op, Norm: norm, TargetTol: targetTol, Iterations: it,
			}
		}
		for k, c := range cols {
			sp.set(s, c, sp.get(s, c)-step[k])
		}
		changed = true
		if err := m.Realize(s, sp.stage); err != nil {
			return changed, err
		}
		we = weightedErrs(sp.errs(s), sp.weights(s))
		norm = rmsNorm(we)
		if norm <= targetTol {
			projectOutRowSpace(jac, cols, yErrSeg)
			return true, nil
		}
	}
	return changed, &NonconvergentProjectionError{
		Op: sp.op, Norm: norm, TargetTol: targetTol, Iterations: projectionIterations,
	}
}

// depUnion collects the coordinate indices coupled by any constraint
// equation. An equation declaring nil dependencies couples everything.
func depUnion(sp projSpace, numEqs int) []int {
	seen := make(map[int]bool)
	for eq := 0; eq < numEqs; eq++ {
		deps := sp.deps(eq)
		if deps == nil {
			cols := make([]int, sp.numCoords)
			for i := range cols {
				cols[i] = i
			}
			return cols
		}
		for _, d := range deps {
			if d >= 0 && d < sp.numCoords {
				seen[d] = true
			}
		}
	}
	cols := make([]int, 0, len(seen))
	for d := range seen {
		cols = append(cols, d)
	}
	sort.Ints(cols)
	return cols
}

// numJacobian estimates d(weighted errors)/d(coordinate) by central
// differences, restoring each coordinate and the realization afterwards.
func (m *MatterSubsystem) numJacobian(s *State, sp projSpace, cols []int, numEqs int) ([][]float64, error) {
	jac := make([][]float64, numEqs)
	for i := range jac {
		jac[i] = make([]float64, len(cols))
	}
	for k, c := range cols {
		x0 := sp.get(s, c)
		h := jacobianStep * (1 + math.Abs(x0))

		sp.set(s, c, x0+h)
		if err := m.Realize(s, sp.stage); err != nil {
			sp.set(s, c, x0)
			return nil, err
		}
		plus := weightedErrs(sp.errs(s), sp.weights(s))

		sp.set(s, c, x0-h)
		if err := m.Realize(s, sp.stage); err != nil {
			sp.set(s, c, x0)
			return nil, err
		}
		minus := weightedErrs(sp.errs(s), sp.weights(s))

		sp.set(s, c, x0)
		if err := m.Realize(s, sp.stage); err != nil {
			return nil, err
		}
		for i := 0; i < numEqs; i++ {
			jac[i][k] = (plus[i] - minus[i]) / (2 * h)
		}
	}
	return jac, nil
}

// leastSquaresStep returns the minimum-norm least-squares solution of
// J dx = e. For a wide Jacobian (fewer equations than coordinates) the damped
// normal equations JᵀJ + λI are rank-deficient up to λ, and elimination digs
// the null-space component out of catastrophic cancellation, so the dual form
// dx = Jᵀ(JJᵀ + λI)⁻¹ e is solved instead; the square/tall case keeps the
// primal normal equations.
func leastSquaresStep(jac [][]float64, e []float64) ([]float64, bool) {
	rows := len(jac)
	n := 0
	if rows > 0 {
		n = len(jac[0])
	}
	if n == 0 {
		return nil, false
	}
	if rows < n {
		a := make([][]float64, rows)
		b := make([]float64, rows)
		for i := range a {
			a[i] = make([]float64, rows)
			for j := range a[i] {
				for k := 0; k < n; k++ {
					a[i][j] += jac[i][k] * jac[j][k]
				}
			}
			a[i][i] += projectionDamping
			b[i] = e[i]
		}
		mu, ok := gaussianSolve(a, b)
		if !ok {
			return nil, false
		}
		dx := make([]float64, n)
		for k := 0; k < n; k++ {
			for i := 0; i < rows; i++ {
				dx[k] += jac[i][k] * mu[i]
			}
		}
		return dx, true
	}
	a := make([][]float64, n)
	b := make([]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
	}
	for r := range jac {
		for i := 0; i < n; i++ {
			b[i] += jac[r][i] * e[r]
			for j := 0; j < n; j++ {
				a[i][j] += jac[r][i] * jac[r][j]
			}
		}
	}
	for i := 0; i < n; i++ {
		a[i][i] += projectionDamping
	}
	return gaussianSolve(a, b)
}

// projectOutRowSpace removes from seg its component along the constraint row
// space: seg -= Jᵀ (JJᵀ + λI)⁻¹ J seg, touching only the coupled columns.
func projectOutRowSpace(jac [][]float64, cols []int, seg []float64) {
	mrows := len(jac)
	if mrows == 0 || len(seg) == 0 {
		return
	}
	ysub := make([]float64, len(cols))
	for k, c := range cols {
		if c < len(seg) {
			ysub[k] = seg[c]
		}
	}
	r := make([]float64, mrows)
	for i := range jac {
		for k := range cols {
			r[i] += jac[i][k] * ysub[k]
		}
	}
	a := make([][]float64, mrows)
	for i := range a {
		a[i] = make([]float64, mrows)
		for j := range a[i] {
			for k := range cols {
				a[i][j] += jac[i][k] * jac[j][k]
			}
		}
		a[i][i] += projectionDamping
	}
	mu, ok := gaussianSolve(a, r)
	if !ok {
		return
	}
	for k, c := range cols {
		if c >= len(seg) {
			continue
		}
		var dot float64
		for i := range jac {
			dot += jac[i][k] * mu[i]
		}
		seg[c] -= dot
	}
}

// gaussianSolve solves a dense linear system in place with partial pivoting.
// Reports false when the system is singular to working precision.
func gaussianSolve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-300 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]
		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < n; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}
