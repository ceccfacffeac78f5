package tree

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody"
	"github.com/akmonengine/multibody/spatial"
)

func ballMass() spatial.MassProperties {
	return spatial.MassProperties{Mass: 1, Inertia: mgl64.Diag3(mgl64.Vec3{1, 1, 1})}
}

func realize(t *testing.T, sys *System, s *multibody.State, g multibody.Stage) {
	t.Helper()
	if err := multibody.New(sys).Realize(s, g); err != nil {
		t.Fatalf("realize %s: %v", g, err)
	}
}

func TestAddBodyRejectsBadParent(t *testing.T) {
	sys := NewSystem()
	if _, err := sys.AddBody(7, spatial.Identity(), Weld{}, spatial.Identity(), ballMass()); err == nil {
		t.Error("out-of-range parent accepted")
	}
	if _, err := sys.AddBody(-1, spatial.Identity(), Weld{}, spatial.Identity(), ballMass()); err == nil {
		t.Error("negative parent accepted")
	}
}

func TestTopologyCounts(t *testing.T) {
	sys := NewSystem()
	b1, _ := sys.AddBody(multibody.Ground, spatial.Identity(), NewPin(mgl64.Vec3{0, 0, 1}), spatial.Identity(), ballMass())
	b2, _ := sys.AddBody(b1, spatial.Identity(), NewSlider(mgl64.Vec3{1, 0, 0}), spatial.Identity(), ballMass())
	sys.AddParticle(1, mgl64.Vec3{})

	if sys.NumBodies() != 3 {
		t.Errorf("NumBodies = %d, want 3", sys.NumBodies())
	}
	if sys.NumParticles() != 1 {
		t.Errorf("NumParticles = %d, want 1", sys.NumParticles())
	}
	if sys.NumQ() != 2 || sys.NumMobilities() != 2 {
		t.Errorf("counts (%d q, %d u), want (2, 2)", sys.NumQ(), sys.NumMobilities())
	}
	if sys.BodyQIndex(b2) != 1 || sys.BodyUIndex(b2) != 1 {
		t.Errorf("b2 coordinate slots (%d,%d), want (1,1)", sys.BodyQIndex(b2), sys.BodyUIndex(b2))
	}
	if sys.Parent(b2) != b1 {
		t.Errorf("Parent(b2) = %d, want %d", sys.Parent(b2), b1)
	}
	kids := sys.Children(b1)
	if len(kids) != 1 || kids[0] != b2 {
		t.Errorf("Children(b1) = %v, want [%d]", kids, b2)
	}
	if sys.BodyNumQ(multibody.Ground) != 0 {
		t.Errorf("Ground has %d coordinates, want 0", sys.BodyNumQ(multibody.Ground))
	}
}

// TestPendulumLeverArm exercises the mobilizer-frame lever arm: the pin sits
// at the ground origin but the body's inboard frame is offset, so the body
// origin swings on a unit circle.
func TestPendulumLeverArm(t *testing.T) {
	const omega = 2.0
	sys := NewSystem()
	inboard := spatial.Transform{R: mgl64.Ident3(), P: mgl64.Vec3{-1, 0, 0}}
	body, _ := sys.AddBody(multibody.Ground, spatial.Identity(), NewPin(mgl64.Vec3{0, 0, 1}), inboard, ballMass())

	s := sys.NewState()
	realize(t, sys, s, multibody.StageModel)
	s.SetU(0, omega)
	realize(t, sys, s, multibody.StageAcceleration)

	x := sys.BodyTransform(s, body)
	vecNear(t, x.P, mgl64.Vec3{1, 0, 0}, "body origin at q=0")

	v := sys.BodyVelocity(s, body)
	vecNear(t, v.Angular, mgl64.Vec3{0, 0, omega}, "angular velocity")
	vecNear(t, v.Linear, mgl64.Vec3{0, omega, 0}, "origin velocity from the lever arm")

	a := sys.BodyAcceleration(s, body)
	vecNear(t, a.Angular, mgl64.Vec3{}, "angular acceleration at constant rate")
	vecNear(t, a.Linear, mgl64.Vec3{-omega * omega, 0, 0}, "centripetal origin acceleration")
}

func TestPendulumLeverArm_QuarterTurn(t *testing.T) {
	sys := NewSystem()
	inboard := spatial.Transform{R: mgl64.Ident3(), P: mgl64.Vec3{-1, 0, 0}}
	body, _ := sys.AddBody(multibody.Ground, spatial.Identity(), NewPin(mgl64.Vec3{0, 0, 1}), inboard, ballMass())

	s := sys.NewState()
	realize(t, sys, s, multibody.StageModel)
	s.SetQ(0, math.Pi/2)
	realize(t, sys, s, multibody.StagePosition)

	vecNear(t, sys.BodyTransform(s, body).P, mgl64.Vec3{0, 1, 0}, "body origin at q=pi/2")
}

func TestSliderPropagation(t *testing.T) {
	sys := NewSystem()
	body, _ := sys.AddBody(multibody.Ground, spatial.Identity(), NewSlider(mgl64.Vec3{0, 1, 0}), spatial.Identity(), ballMass())
	sys.SetPrescribedUDot(0, -4)

	s := sys.NewState()
	realize(t, sys, s, multibody.StageModel)
	s.SetQ(0, 2)
	s.SetU(0, 3)
	realize(t, sys, s, multibody.StageAcceleration)

	vecNear(t, sys.BodyTransform(s, body).P, mgl64.Vec3{0, 2, 0}, "slider position")
	vecNear(t, sys.BodyVelocity(s, body).Linear, mgl64.Vec3{0, 3, 0}, "slider velocity")
	vecNear(t, sys.BodyAcceleration(s, body).Linear, mgl64.Vec3{0, -4, 0}, "prescribed slider acceleration")
}

// TestPinSliderCoriolis checks the composed propagation for a slider riding a
// spinning pin: the slider's outward rate couples with the pin's angular
// velocity into a Coriolis acceleration.
func TestPinSliderCoriolis(t *testing.T) {
	const (
		omega = 2.0 // pin rate
		vr    = 0.5 // slider rate
		d     = 3.0 // slider displacement
	)
	sys := NewSystem()
	b1, _ := sys.AddBody(multibody.Ground, spatial.Identity(), NewPin(mgl64.Vec3{0, 0, 1}), spatial.Identity(), ballMass())
	b2, _ := sys.AddBody(b1, spatial.Identity(), NewSlider(mgl64.Vec3{1, 0, 0}), spatial.Identity(), ballMass())

	s := sys.NewState()
	realize(t, sys, s, multibody.StageModel)
	s.SetQ(1, d)
	s.SetU(0, omega)
	s.SetU(1, vr)
	realize(t, sys, s, multibody.StageAcceleration)

	vecNear(t, sys.BodyTransform(s, b2).P, mgl64.Vec3{d, 0, 0}, "outer body position")

	v := sys.BodyVelocity(s, b2)
	vecNear(t, v.Angular, mgl64.Vec3{0, 0, omega}, "outer body spins with the pin")
	vecNear(t, v.Linear, mgl64.Vec3{vr, omega * d, 0}, "radial plus tangential velocity")

	a := sys.BodyAcceleration(s, b2)
	vecNear(t, a.Linear, mgl64.Vec3{-omega * omega * d, 2 * omega * vr, 0},
		"centripetal plus Coriolis acceleration")
}

func TestMobilizerGetters(t *testing.T) {
	sys := NewSystem()
	inboard := spatial.Transform{R: mgl64.Ident3(), P: mgl64.Vec3{0, 0.5, 0}}
	outboard := spatial.Transform{R: mgl64.Ident3(), P: mgl64.Vec3{2, 0, 0}}
	body, _ := sys.AddBody(multibody.Ground, outboard, NewPin(mgl64.Vec3{0, 0, 1}), inboard, ballMass())

	s := sys.NewState()
	realize(t, sys, s, multibody.StageModel)
	s.SetQ(0, 0.9)
	s.SetU(0, 1.5)
	realize(t, sys, s, multibody.StageVelocity)

	vecNear(t, sys.MobilizerFrame(s, body).P, inboard.P, "inboard frame")
	vecNear(t, sys.MobilizerFrameOnParent(s, body).P, outboard.P, "outboard frame")

	xm := sys.MobilizerTransform(s, body)
	vecNear(t, xm.Rotate(mgl64.Vec3{1, 0, 0}),
		mgl64.Vec3{math.Cos(0.9), math.Sin(0.9), 0}, "cross-mobilizer rotation")

	vm := sys.MobilizerVelocity(s, body)
	vecNear(t, vm.Angular, mgl64.Vec3{0, 0, 1.5}, "cross-mobilizer velocity")
}

func TestSetMobilizerTransformRecoversQ(t *testing.T) {
	sys := NewSystem()
	body, _ := sys.AddBody(multibody.Ground, spatial.Identity(), NewPin(mgl64.Vec3{0, 0, 1}), spatial.Identity(), ballMass())

	s := sys.NewState()
	realize(t, sys, s, multibody.StageModel)

	sys.SetMobilizerTransform(s, body, spatial.Transform{R: mgl64.Rotate3DZ(1.1)})
	if got := s.Q()[0]; math.Abs(got-1.1) > 1e-9 {
		t.Errorf("q after SetMobilizerTransform = %v, want 1.1", got)
	}

	sys.SetMobilizerVelocity(s, body, spatial.SpatialVec{Angular: mgl64.Vec3{0, 0, -2}})
	if got := s.U()[0]; got != -2 {
		t.Errorf("u after SetMobilizerVelocity = %v, want -2", got)
	}
}

func TestConstraintErrorEvaluation(t *testing.T) {
	sys := NewSystem()
	sys.AddBody(multibody.Ground, spatial.Identity(), NewSlider(mgl64.Vec3{1, 0, 0}), spatial.Identity(), ballMass())
	sys.AddQConstraint(2, []int{0}, func(q []float64, _ float64) float64 { return q[0] - 1 })
	sys.AddUConstraint(1, []int{0}, func(q, u []float64, _ float64) float64 { return u[0] })
	sys.SetPrescribedUDot(0, 0.25)
	sys.AddUDotConstraint(1, func(q, u, udot []float64, _ float64) float64 { return udot[0] })

	s := sys.NewState()
	realize(t, sys, s, multibody.StageModel)
	s.SetQ(0, 1.5)
	s.SetU(0, 0.5)
	realize(t, sys, s, multibody.StageAcceleration)

	if got := sys.QConstraintErrors(s); len(got) != 1 || math.Abs(got[0]-0.5) > tol {
		t.Errorf("q residuals = %v, want [0.5]", got)
	}
	if got := sys.QConstraintWeights(s); len(got) != 1 || got[0] != 2 {
		t.Errorf("q weights = %v, want [2]", got)
	}
	if got := sys.UConstraintErrors(s); len(got) != 1 || math.Abs(got[0]-0.5) > tol {
		t.Errorf("u residuals = %v, want [0.5]", got)
	}
	if got := sys.UDotConstraintErrors(s); len(got) != 1 || math.Abs(got[0]-0.25) > tol {
		t.Errorf("udot residuals = %v, want [0.25]", got)
	}
	if got := sys.QConstraintDependencies(0); len(got) != 1 || got[0] != 0 {
		t.Errorf("q dependencies = %v, want [0]", got)
	}
}
