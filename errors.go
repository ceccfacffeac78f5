package multibody

import "fmt"

// StageViolationError reports a query invoked before its required stage has
// been realized. Returning a stale cached value instead would be worse, so
// this is never recovered silently.
type StageViolationError struct {
	Op   string
	Need Stage
	Have Stage
}

func (e *StageViolationError) Error() string {
	return fmt.Sprintf("%s: state is at stage %s, needs %s", e.Op, e.Have, e.Need)
}

// InvalidBodyError reports an out-of-range body handle. No partial
// computation is performed.
type InvalidBodyError struct {
	Op        string
	Body      BodyID
	NumBodies int
}

func (e *InvalidBodyError) Error() string {
	return fmt.Sprintf("%s: body %d out of range [0,%d)", e.Op, e.Body, e.NumBodies)
}

// NonconvergentProjectionError reports that a projection solver exhausted its
// iteration budget before reaching the target tolerance. It is distinct from
// the "nothing to project" outcome, which is not an error.
type NonconvergentProjectionError struct {
	Op         string
	Norm       float64
	TargetTol  float64
	Iterations int
}

func (e *NonconvergentProjectionError) Error() string {
	return fmt.Sprintf("%s: norm %g above target %g after %d iterations",
		e.Op, e.Norm, e.TargetTol, e.Iterations)
}

// DegenerateGeometryError reports a distance-based operator applied to
// coincident points, where the separation direction is undefined.
type DegenerateGeometryError struct {
	Op string
}

func (e *DegenerateGeometryError) Error() string {
	return e.Op + ": points are coincident, separation direction undefined"
}
