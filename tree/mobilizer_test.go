package tree

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody/spatial"
)

const tol = 1e-10

func vecNear(t *testing.T, got, want mgl64.Vec3, context string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("%s = %v, want %v", context, got, want)
			return
		}
	}
}

func TestPinTransform(t *testing.T) {
	p := NewPin(mgl64.Vec3{0, 0, 1})
	x := p.Transform([]float64{math.Pi / 2})

	vecNear(t, x.P, mgl64.Vec3{}, "pin translation")
	vecNear(t, x.Rotate(mgl64.Vec3{1, 0, 0}), mgl64.Vec3{0, 1, 0}, "quarter turn of x")
}

func TestPinAxisNormalized(t *testing.T) {
	p := NewPin(mgl64.Vec3{0, 0, 10})
	if math.Abs(p.Axis.Len()-1) > tol {
		t.Errorf("axis length = %v, want 1", p.Axis.Len())
	}
}

func TestPinPoseRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
	}{
		{"zero", 0},
		{"small", 0.1},
		{"quarter", math.Pi / 2},
		{"negative", -1.2},
		{"near half turn", 3.0},
	}
	p := NewPin(mgl64.Vec3{1, 1, 0})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := make([]float64, 1)
			p.PoseToQ(p.Transform([]float64{tt.angle}), q)
			if math.Abs(q[0]-tt.angle) > 1e-9 {
				t.Errorf("recovered angle = %v, want %v", q[0], tt.angle)
			}
		})
	}
}

func TestPinVelocityAcceleration(t *testing.T) {
	p := NewPin(mgl64.Vec3{0, 1, 0})
	q := []float64{0.3}

	v := p.Velocity(q, []float64{2})
	vecNear(t, v.Angular, mgl64.Vec3{0, 2, 0}, "pin angular velocity")
	vecNear(t, v.Linear, mgl64.Vec3{}, "pin linear velocity")

	a := p.Acceleration(q, []float64{2}, []float64{-3})
	vecNear(t, a.Angular, mgl64.Vec3{0, -3, 0}, "pin angular acceleration")

	u := make([]float64, 1)
	p.VelocityToU(spatial.SpatialVec{Angular: mgl64.Vec3{1, 2, 3}}, u)
	if u[0] != 2 {
		t.Errorf("VelocityToU = %v, want the axis component 2", u[0])
	}
}

func TestSliderTransform(t *testing.T) {
	sl := NewSlider(mgl64.Vec3{3, 0, 0})
	x := sl.Transform([]float64{2.5})

	vecNear(t, x.P, mgl64.Vec3{2.5, 0, 0}, "slider translation")
	vecNear(t, x.Rotate(mgl64.Vec3{0, 1, 0}), mgl64.Vec3{0, 1, 0}, "slider leaves orientation alone")
}

func TestSliderPoseAndVelocityExtraction(t *testing.T) {
	sl := NewSlider(mgl64.Vec3{0, 1, 0})

	q := make([]float64, 1)
	sl.PoseToQ(spatial.Transform{R: mgl64.Ident3(), P: mgl64.Vec3{7, -4, 2}}, q)
	if q[0] != -4 {
		t.Errorf("PoseToQ = %v, want the axis component -4", q[0])
	}

	u := make([]float64, 1)
	sl.VelocityToU(spatial.SpatialVec{Linear: mgl64.Vec3{1, 6, 0}}, u)
	if u[0] != 6 {
		t.Errorf("VelocityToU = %v, want 6", u[0])
	}
}

func TestWeldHasNoFreedom(t *testing.T) {
	w := Weld{}
	if w.NumQ() != 0 || w.NumU() != 0 {
		t.Errorf("weld dims = (%d,%d), want (0,0)", w.NumQ(), w.NumU())
	}
	x := w.Transform(nil)
	vecNear(t, x.P, mgl64.Vec3{}, "weld translation")
	v := w.Velocity(nil, nil)
	vecNear(t, v.Angular, mgl64.Vec3{}, "weld angular velocity")
}
