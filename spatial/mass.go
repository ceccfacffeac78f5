package spatial

import "github.com/go-gl/mathgl/mgl64"

// MassProperties holds the mass, mass center location and inertia of a rigid
// body. COM is measured from the body origin; Inertia is taken about the body
// origin. Both are expressed in the same frame, and must always be rotated
// together.
type MassProperties struct {
	Mass    float64
	COM     mgl64.Vec3
	Inertia mgl64.Mat3
}

// SpatialMat is a 6x6 spatial matrix stored as 2x2 blocks of Mat3, the layout
// used for spatial inertia:
//
//	[ I              crossMat(m*c) ]
//	[ crossMat(m*c)ᵗ diag(m)       ]
type SpatialMat struct {
	M00, M01 mgl64.Mat3
	M10, M11 mgl64.Mat3
}

// CrossMat builds the skew-symmetric matrix of v, so CrossMat(v).Mul3x1(w)
// equals v x w.
func CrossMat(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v.Z(), v.Y()},
		mgl64.Vec3{v.Z(), 0, -v.X()},
		mgl64.Vec3{-v.Y(), v.X(), 0},
	)
}

// ReexpressInertia rotates an inertia tensor into another frame. Inertia
// transforms as a rank-2 tensor: I' = R I Rᵗ.
func ReexpressInertia(inertia, r mgl64.Mat3) mgl64.Mat3 {
	return r.Mul3(inertia).Mul3(r.Transpose())
}

// PointMassInertia is the inertia of a point mass at offset d from the
// reference point: m*(|d|² E - d dᵀ). This is also the parallel-axis
// increment when shifting an inertia away from the mass center.
func PointMassInertia(mass float64, d mgl64.Vec3) mgl64.Mat3 {
	e := mgl64.Ident3().Mul(d.Dot(d))
	return e.Sub(d.OuterProd3(d)).Mul(mass)
}

// Reexpress rotates the mass properties into another frame, r being the
// rotation carrying the current frame's axes into the target frame. The mass
// center and the inertia rotate together; the "about" point is unchanged.
func (mp MassProperties) Reexpress(r mgl64.Mat3) MassProperties {
	return MassProperties{
		Mass:    mp.Mass,
		COM:     r.Mul3x1(mp.COM),
		Inertia: ReexpressInertia(mp.Inertia, r),
	}
}

// CentralInertia shifts the inertia from the body origin to the mass center
// by removing the point-mass term.
func (mp MassProperties) CentralInertia() mgl64.Mat3 {
	return mp.Inertia.Sub(PointMassInertia(mp.Mass, mp.COM))
}

// ShiftAbout returns the inertia taken about an arbitrary point p (given from
// the body origin, in the same frame): shift to the mass center first, then
// back out to p.
func (mp MassProperties) ShiftAbout(p mgl64.Vec3) mgl64.Mat3 {
	d := mp.COM.Sub(p)
	return mp.CentralInertia().Add(PointMassInertia(mp.Mass, d))
}

// ToSpatialMat arranges the mass properties as a spatial inertia matrix.
func (mp MassProperties) ToSpatialMat() SpatialMat {
	mc := CrossMat(mp.COM.Mul(mp.Mass))
	return SpatialMat{
		M00: mp.Inertia,
		M01: mc,
		M10: mc.Transpose(),
		M11: mgl64.Ident3().Mul(mp.Mass),
	}
}
