package spatial

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCrossMat(t *testing.T) {
	v := mgl64.Vec3{1, -2, 3}
	w := mgl64.Vec3{0.5, 4, -1}
	vecNear(t, CrossMat(v).Mul3x1(w), v.Cross(w), "CrossMat(v)*w")
}

func TestPointMassInertia(t *testing.T) {
	// Point mass m at (d, 0, 0): inertia about the origin is m*d² about the
	// y and z axes, zero about x.
	inertia := PointMassInertia(2, mgl64.Vec3{3, 0, 0})
	want := mgl64.Diag3(mgl64.Vec3{0, 18, 18})
	matNear(t, inertia, want, "point mass inertia")
}

func TestReexpressInertia_RoundTrip(t *testing.T) {
	inertia := mgl64.Diag3(mgl64.Vec3{1, 2, 3})
	r := mgl64.Rotate3DX(0.4).Mul3(mgl64.Rotate3DZ(1.3))

	back := ReexpressInertia(ReexpressInertia(inertia, r), r.Transpose())
	matNear(t, back, inertia, "R̃(R I Rᵗ)R̃ᵗ")
}

func TestMassPropertiesReexpress_RoundTrip(t *testing.T) {
	mp := MassProperties{
		Mass:    5,
		COM:     mgl64.Vec3{0.1, -0.2, 0.3},
		Inertia: mgl64.Diag3(mgl64.Vec3{2, 3, 4}).Add(PointMassInertia(5, mgl64.Vec3{0.1, -0.2, 0.3})),
	}
	r := mgl64.Rotate3DY(0.8).Mul3(mgl64.Rotate3DZ(-0.5))

	back := mp.Reexpress(r).Reexpress(r.Transpose())
	if math.Abs(back.Mass-mp.Mass) > tol {
		t.Errorf("mass changed on round trip: %v", back.Mass)
	}
	vecNear(t, back.COM, mp.COM, "COM round trip")
	matNear(t, back.Inertia, mp.Inertia, "inertia round trip")
}

func TestCentralInertia(t *testing.T) {
	// A pure point mass offset from the origin has zero central inertia.
	com := mgl64.Vec3{1, 2, -1}
	mp := MassProperties{
		Mass:    3,
		COM:     com,
		Inertia: PointMassInertia(3, com),
	}
	matNear(t, mp.CentralInertia(), mgl64.Mat3{}, "central inertia of point mass")
}

func TestShiftAbout(t *testing.T) {
	com := mgl64.Vec3{1, 0, 0}
	central := mgl64.Diag3(mgl64.Vec3{1, 1, 1})
	mp := MassProperties{
		Mass:    2,
		COM:     com,
		Inertia: central.Add(PointMassInertia(2, com)),
	}

	// Shifting about the mass center itself recovers the central inertia.
	matNear(t, mp.ShiftAbout(com), central, "shift about COM")

	// Shifting about the origin recovers the origin inertia.
	matNear(t, mp.ShiftAbout(mgl64.Vec3{}), mp.Inertia, "shift about origin")
}

func TestToSpatialMat(t *testing.T) {
	mp := MassProperties{
		Mass:    4,
		COM:     mgl64.Vec3{0.5, 0, 0},
		Inertia: mgl64.Diag3(mgl64.Vec3{1, 2, 2}),
	}
	sm := mp.ToSpatialMat()

	matNear(t, sm.M00, mp.Inertia, "upper-left block")
	matNear(t, sm.M01, CrossMat(mp.COM.Mul(mp.Mass)), "upper-right block")
	matNear(t, sm.M10, sm.M01.Transpose(), "lower-left is transpose of upper-right")
	matNear(t, sm.M11, mgl64.Ident3().Mul(4), "lower-right mass block")
}
