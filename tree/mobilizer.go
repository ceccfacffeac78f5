package tree

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody/spatial"
)

// Mobilizer defines a body's freedom relative to its parent: the
// cross-mobilizer transform X_MbM as a function of the body's q's, and the
// cross-mobilizer velocity/acceleration (measured and expressed in the
// parent's outboard frame Mb) as functions of the q's, u's and u-dots.
type Mobilizer interface {
	NumQ() int
	NumU() int
	Transform(q []float64) spatial.Transform
	Velocity(q, u []float64) spatial.SpatialVec
	Acceleration(q, u, udot []float64) spatial.SpatialVec

	// PoseToQ and VelocityToU extract coordinates from a requested pose or
	// velocity, as close as the mobilizer's freedom allows. Best effort, no
	// failure.
	PoseToQ(x spatial.Transform, q []float64)
	VelocityToU(v spatial.SpatialVec, u []float64)
}

// Pin is a one-dof rotational mobilizer about a fixed axis: q is the rotation
// angle, u its rate.
type Pin struct {
	Axis mgl64.Vec3
}

// NewPin creates a pin mobilizer about the given axis, normalized.
func NewPin(axis mgl64.Vec3) Pin {
	return Pin{Axis: axis.Normalize()}
}

func (Pin) NumQ() int { return 1 }
func (Pin) NumU() int { return 1 }

func (p Pin) Transform(q []float64) spatial.Transform {
	return spatial.Transform{R: mgl64.QuatRotate(q[0], p.Axis).Mat4().Mat3()}
}

func (p Pin) Velocity(q, u []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Angular: p.Axis.Mul(u[0])}
}

func (p Pin) Acceleration(q, u, udot []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Angular: p.Axis.Mul(udot[0])}
}

func (p Pin) PoseToQ(x spatial.Transform, q []float64) {
	// Angle of the rotation component about the pin axis.
	quat := mgl64.Mat4ToQuat(x.R.Mat4())
	q[0] = 2 * math.Atan2(quat.V.Dot(p.Axis), quat.W)
}

func (p Pin) VelocityToU(v spatial.SpatialVec, u []float64) {
	u[0] = v.Angular.Dot(p.Axis)
}

// Slider is a one-dof translational mobilizer along a fixed axis: q is the
// displacement, u its rate.
type Slider struct {
	Axis mgl64.Vec3
}

// NewSlider creates a slider mobilizer along the given axis, normalized.
func NewSlider(axis mgl64.Vec3) Slider {
	return Slider{Axis: axis.Normalize()}
}

func (Slider) NumQ() int { return 1 }
func (Slider) NumU() int { return 1 }

func (sl Slider) Transform(q []float64) spatial.Transform {
	return spatial.Transform{R: mgl64.Ident3(), P: sl.Axis.Mul(q[0])}
}

func (sl Slider) Velocity(q, u []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Linear: sl.Axis.Mul(u[0])}
}

func (sl Slider) Acceleration(q, u, udot []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Linear: sl.Axis.Mul(udot[0])}
}

func (sl Slider) PoseToQ(x spatial.Transform, q []float64) {
	q[0] = x.P.Dot(sl.Axis)
}

func (sl Slider) VelocityToU(v spatial.SpatialVec, u []float64) {
	u[0] = v.Linear.Dot(sl.Axis)
}

// Weld grants no freedom: the body is rigidly fixed to its parent through the
// mobilizer frames.
type Weld struct{}

func (Weld) NumQ() int { return 0 }
func (Weld) NumU() int { return 0 }

func (Weld) Transform(q []float64) spatial.Transform {
	return spatial.Identity()
}

func (Weld) Velocity(q, u []float64) spatial.SpatialVec {
	return spatial.SpatialVec{}
}

func (Weld) Acceleration(q, u, udot []float64) spatial.SpatialVec {
	return spatial.SpatialVec{}
}

func (Weld) PoseToQ(x spatial.Transform, q []float64)      {}
func (Weld) VelocityToU(v spatial.SpatialVec, u []float64) {}
