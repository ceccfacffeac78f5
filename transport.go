package multibody

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody/spatial"
)

// Kinematic transport operators: re-express cached Ground-relative positions,
// velocities and accelerations between arbitrary body frames. All of these
// are pure reads over the state cache.

// POSITION //

// BodyTransformInBody returns X_BA, the pose of objectBody's frame measured
// from and expressed in inBody's frame, computed as (X_GB)⁻¹ ∘ X_GA. When
// inBody is Ground the cached transform is returned directly.
func (m *MatterSubsystem) BodyTransformInBody(s *State, objectBody, inBody BodyID) (spatial.Transform, error) {
	if err := m.checkBodies("BodyTransformInBody", objectBody, inBody); err != nil {
		return spatial.Transform{}, err
	}
	if err := m.need(s, StagePosition, "BodyTransformInBody"); err != nil {
		return spatial.Transform{}, err
	}
	xga := m.eng.BodyTransform(s, objectBody)
	if inBody == Ground {
		return xga, nil
	}
	return m.eng.BodyTransform(s, inBody).Inverse().Compose(xga), nil
}

// BodyRotationInBody returns R_BA, the orientation of objectBody's axes in
// inBody's frame.
func (m *MatterSubsystem) BodyRotationInBody(s *State, objectBody, inBody BodyID) (mgl64.Mat3, error) {
	x, err := m.BodyTransformInBody(s, objectBody, inBody)
	return x.R, err
}

// BodyOriginLocationInBody returns objectBody's origin measured from inBody's
// origin, expressed in inBody.
func (m *MatterSubsystem) BodyOriginLocationInBody(s *State, objectBody, inBody BodyID) (mgl64.Vec3, error) {
	x, err := m.BodyTransformInBody(s, objectBody, inBody)
	return x.P, err
}

// BodyPointLocationInBody takes a point fixed on onBody, given from onBody's
// origin in onBody's frame, and returns it from inBody's origin in inBody's
// frame.
func (m *MatterSubsystem) BodyPointLocationInBody(s *State, onBody BodyID, locationOnBody mgl64.Vec3, inBody BodyID) (mgl64.Vec3, error) {
	if err := m.checkBodies("BodyPointLocationInBody", onBody, inBody); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := m.need(s, StagePosition, "BodyPointLocationInBody"); err != nil {
		return mgl64.Vec3{}, err
	}
	pG := m.eng.BodyTransform(s, onBody).Apply(locationOnBody)
	if inBody == Ground {
		return pG, nil
	}
	return m.eng.BodyTransform(s, inBody).InvApply(pG), nil
}

// BodyVectorInBody re-expresses a vector given in onBody's frame into
// inBody's frame.
func (m *MatterSubsystem) BodyVectorInBody(s *State, onBody BodyID, vectorOnBody mgl64.Vec3, inBody BodyID) (mgl64.Vec3, error) {
	if err := m.checkBodies("BodyVectorInBody", onBody, inBody); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := m.need(s, StagePosition, "BodyVectorInBody"); err != nil {
		return mgl64.Vec3{}, err
	}
	vG := m.eng.BodyTransform(s, onBody).Rotate(vectorOnBody)
	if inBody == Ground {
		return vG, nil
	}
	return m.eng.BodyTransform(s, inBody).InvRotate(vG), nil
}

// StationLocation returns the Ground location of a station fixed on a body:
// X_GB * station.
func (m *MatterSubsystem) StationLocation(s *State, b BodyID, stationOnB mgl64.Vec3) (mgl64.Vec3, error) {
	return m.BodyPointLocationInBody(s, b, stationOnB, Ground)
}

// StationLocationInBody returns the location of a station fixed on a body,
// re-measured from and re-expressed in another body's frame.
func (m *MatterSubsystem) StationLocationInBody(s *State, b BodyID, stationOnB mgl64.Vec3, inBody BodyID) (mgl64.Vec3, error) {
	return m.BodyPointLocationInBody(s, b, stationOnB, inBody)
}

// VectorInGround re-expresses a body-frame vector in Ground: R_GB * vector.
func (m *MatterSubsystem) VectorInGround(s *State, b BodyID, vectorOnB mgl64.Vec3) (mgl64.Vec3, error) {
	return m.BodyVectorInBody(s, b, vectorOnB, Ground)
}

// VELOCITY //

// pointVelocityInGround is the transport theorem in Ground: the velocity of a
// point at body-frame location loc, moving on the body at body-frame rate
// locVel, is v_origin + w x r + R_GB*locVel.
func (m *MatterSubsystem) pointVelocityInGround(s *State, b BodyID, loc, locVel mgl64.Vec3) mgl64.Vec3 {
	v := m.eng.BodyVelocity(s, b)
	x := m.eng.BodyTransform(s, b)
	vp := v.Linear.Add(v.Angular.Cross(x.Rotate(loc)))
	if locVel != (mgl64.Vec3{}) {
		vp = vp.Add(x.Rotate(locVel))
	}
	return vp
}

// BodySpatialVelocityInBody returns the spatial velocity of objectBody's
// frame relative to inBody's frame, expressed in inBody: the componentwise
// difference of the cached Ground velocities, with the linear part carried
// from inBody's origin to objectBody's origin by the angular-rate cross term,
// then rotated into inBody.
func (m *MatterSubsystem) BodySpatialVelocityInBody(s *State, objectBody, inBody BodyID) (spatial.SpatialVec, error) {
	if err := m.checkBodies("BodySpatialVelocityInBody", objectBody, inBody); err != nil {
		return spatial.SpatialVec{}, err
	}
	if err := m.need(s, StageVelocity, "BodySpatialVelocityInBody"); err != nil {
		return spatial.SpatialVec{}, err
	}
	vga := m.eng.BodyVelocity(s, objectBody)
	if inBody == Ground {
		return vga, nil
	}
	xgb := m.eng.BodyTransform(s, inBody)
	dv := vga.Sub(m.eng.BodyVelocity(s, inBody))
	r := m.eng.BodyTransform(s, objectBody).P.Sub(xgb.P)
	return spatial.SpatialVec{
		Angular: dv.Angular,
		Linear:  dv.Linear.Add(dv.Angular.Cross(r)),
	}.Reexpress(xgb.R.Transpose()), nil
}

func (m *MatterSubsystem) BodyAngularVelocityInBody(s *State, objectBody, inBody BodyID) (mgl64.Vec3, error) {
	v, err := m.BodySpatialVelocityInBody(s, objectBody, inBody)
	return v.Angular, err
}

func (m *MatterSubsystem) BodyOriginVelocityInBody(s *State, objectBody, inBody BodyID) (mgl64.Vec3, error) {
	v, err := m.BodySpatialVelocityInBody(s, objectBody, inBody)
	return v.Linear, err
}

// BodyFixedPointVelocityInBody returns the velocity of a point fixed on
// objectBody, relative to inBody's frame and expressed in inBody.
func (m *MatterSubsystem) BodyFixedPointVelocityInBody(s *State, objectBody BodyID, locationOnBody mgl64.Vec3, inBody BodyID) (mgl64.Vec3, error) {
	return m.BodyMovingPointVelocityInBody(s, objectBody, locationOnBody, mgl64.Vec3{}, inBody)
}

// BodyMovingPointVelocityInBody is the moving-point form: the point's local
// velocity on objectBody is re-expressed into Ground and added before the
// relative-velocity combination.
func (m *MatterSubsystem) BodyMovingPointVelocityInBody(s *State, objectBody BodyID, locationOnBody, velocityOnBody mgl64.Vec3, inBody BodyID) (mgl64.Vec3, error) {
	if err := m.checkBodies("BodyMovingPointVelocityInBody", objectBody, inBody); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := m.need(s, StageVelocity, "BodyMovingPointVelocityInBody"); err != nil {
		return mgl64.Vec3{}, err
	}
	if inBody == Ground {
		return m.pointVelocityInGround(s, objectBody, locationOnBody, velocityOnBody), nil
	}
	xga := m.eng.BodyTransform(s, objectBody)
	xgb := m.eng.BodyTransform(s, inBody)
	dv := m.eng.BodyVelocity(s, objectBody).Sub(m.eng.BodyVelocity(s, inBody))
	// Offset from inBody's origin to the point, in Ground. Moving away from
	// the origin picks up extra linear velocity from the relative spin.
	r := xga.Apply(locationOnBody).Sub(xgb.P)
	vG := dv.Linear.Add(dv.Angular.Cross(r))
	if velocityOnBody != (mgl64.Vec3{}) {
		vG = vG.Add(xga.Rotate(velocityOnBody))
	}
	return xgb.InvRotate(vG), nil
}

// StationVelocity returns the Ground-frame velocity of a station fixed on a
// body: v + w x r.
func (m *MatterSubsystem) StationVelocity(s *State, b BodyID, stationOnB mgl64.Vec3) (mgl64.Vec3, error) {
	return m.BodyFixedPointVelocityInBody(s, b, stationOnB, Ground)
}

// ACCELERATION //

// pointAccelerationInGround is the transport theorem one derivative up:
// a_origin + alpha x r + w x (w x r), plus the Coriolis term 2 w x v_local
// and the local acceleration when the point moves on its body.
func (m *MatterSubsystem) pointAccelerationInGround(s *State, b BodyID, loc, locVel, locAcc mgl64.Vec3) mgl64.Vec3 {
	a := m.eng.BodyAcceleration(s, b)
	w := m.eng.BodyVelocity(s, b).Angular
	x := m.eng.BodyTransform(s, b)
	r := x.Rotate(loc)
	ap := a.Linear.Add(a.Angular.Cross(r)).Add(w.Cross(w.Cross(r)))
	if locVel != (mgl64.Vec3{}) {
		ap = ap.Add(w.Cross(x.Rotate(locVel)).Mul(2))
	}
	if locAcc != (mgl64.Vec3{}) {
		ap = ap.Add(x.Rotate(locAcc))
	}
	return ap
}

// relativePointAcceleration converts an absolute point acceleration into the
// acceleration observed from inBody's rotating frame, expressed in Ground:
// the coincident-point acceleration of the observer frame and the Coriolis
// coupling with the relative velocity are removed.
func (m *MatterSubsystem) relativePointAcceleration(s *State, apG, pG, vrelG mgl64.Vec3, inBody BodyID) mgl64.Vec3 {
	ab := m.eng.BodyAcceleration(s, inBody)
	wb := m.eng.BodyVelocity(s, inBody).Angular
	r := pG.Sub(m.eng.BodyTransform(s, inBody).P)
	coincident := ab.Linear.Add(ab.Angular.Cross(r)).Add(wb.Cross(wb.Cross(r)))
	return apG.Sub(coincident).Sub(wb.Cross(vrelG).Mul(2))
}

// BodySpatialAccelerationInBody returns the spatial acceleration of
// objectBody's frame relative to inBody's frame, expressed in inBody.
func (m *MatterSubsystem) BodySpatialAccelerationInBody(s *State, objectBody, inBody BodyID) (spatial.SpatialVec, error) {
	if err := m.checkBodies("BodySpatialAccelerationInBody", objectBody, inBody); err != nil {
		return spatial.SpatialVec{}, err
	}
	if err := m.need(s, StageAcceleration, "BodySpatialAccelerationInBody"); err != nil {
		return spatial.SpatialVec{}, err
	}
	aga := m.eng.BodyAcceleration(s, objectBody)
	if inBody == Ground {
		return aga, nil
	}
	xgb := m.eng.BodyTransform(s, inBody)
	agb := m.eng.BodyAcceleration(s, inBody)
	wga := m.eng.BodyVelocity(s, objectBody).Angular
	wgb := m.eng.BodyVelocity(s, inBody).Angular

	// d/dt of the relative angular velocity, taken in the rotating B frame.
	alpha := aga.Angular.Sub(agb.Angular).Sub(wgb.Cross(wga))

	pG := m.eng.BodyTransform(s, objectBody).P
	apG := m.pointAccelerationInGround(s, objectBody, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{})
	dv := m.eng.BodyVelocity(s, objectBody).Sub(m.eng.BodyVelocity(s, inBody))
	vrelG := dv.Linear.Add(dv.Angular.Cross(pG.Sub(xgb.P)))
	lin := m.relativePointAcceleration(s, apG, pG, vrelG, inBody)

	return spatial.SpatialVec{Angular: alpha, Linear: lin}.Reexpress(xgb.R.Transpose()), nil
}

func (m *MatterSubsystem) BodyAngularAccelerationInBody(s *State, objectBody, inBody BodyID) (mgl64.Vec3, error) {
	a, err := m.BodySpatialAccelerationInBody(s, objectBody, inBody)
	return a.Angular, err
}

func (m *MatterSubsystem) BodyOriginAccelerationInBody(s *State, objectBody, inBody BodyID) (mgl64.Vec3, error) {
	a, err := m.BodySpatialAccelerationInBody(s, objectBody, inBody)
	return a.Linear, err
}

// BodyFixedPointAccelerationInBody returns the acceleration of a point fixed
// on objectBody, observed from inBody's frame and expressed in inBody.
func (m *MatterSubsystem) BodyFixedPointAccelerationInBody(s *State, objectBody BodyID, locationOnBody mgl64.Vec3, inBody BodyID) (mgl64.Vec3, error) {
	return m.BodyMovingPointAccelerationInBody(s, objectBody, locationOnBody, mgl64.Vec3{}, mgl64.Vec3{}, inBody)
}

// BodyMovingPointAccelerationInBody is the moving-point form, including the
// Coriolis and centripetal terms and the point's own local acceleration.
func (m *MatterSubsystem) BodyMovingPointAccelerationInBody(s *State, objectBody BodyID, locationOnBody, velocityOnBody, accelerationOnBody mgl64.Vec3, inBody BodyID) (mgl64.Vec3, error) {
	if err := m.checkBodies("BodyMovingPointAccelerationInBody", objectBody, inBody); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := m.need(s, StageAcceleration, "BodyMovingPointAccelerationInBody"); err != nil {
		return mgl64.Vec3{}, err
	}
	apG := m.pointAccelerationInGround(s, objectBody, locationOnBody, velocityOnBody, accelerationOnBody)
	if inBody == Ground {
		return apG, nil
	}
	xga := m.eng.BodyTransform(s, objectBody)
	xgb := m.eng.BodyTransform(s, inBody)
	pG := xga.Apply(locationOnBody)
	dv := m.eng.BodyVelocity(s, objectBody).Sub(m.eng.BodyVelocity(s, inBody))
	vrelG := dv.Linear.Add(dv.Angular.Cross(pG.Sub(xgb.P)))
	if velocityOnBody != (mgl64.Vec3{}) {
		vrelG = vrelG.Add(xga.Rotate(velocityOnBody))
	}
	return xgb.InvRotate(m.relativePointAcceleration(s, apG, pG, vrelG, inBody)), nil
}

// StationAcceleration returns the Ground-frame acceleration of a station
// fixed on a body.
func (m *MatterSubsystem) StationAcceleration(s *State, b BodyID, stationOnB mgl64.Vec3) (mgl64.Vec3, error) {
	return m.BodyFixedPointAccelerationInBody(s, b, stationOnB, Ground)
}

// SCALAR DISTANCE //

// PointToPointDistance returns the separation between a point fixed on bodyA
// and a point fixed on bodyB.
func (m *MatterSubsystem) PointToPointDistance(s *State, bodyA BodyID, locationOnA mgl64.Vec3, bodyB BodyID, locationOnB mgl64.Vec3) (float64, error) {
	if err := m.checkBodies("PointToPointDistance", bodyA, bodyB); err != nil {
		return 0, err
	}
	if err := m.need(s, StagePosition, "PointToPointDistance"); err != nil {
		return 0, err
	}
	pa := m.eng.BodyTransform(s, bodyA).Apply(locationOnA)
	pb := m.eng.BodyTransform(s, bodyB).Apply(locationOnB)
	return pa.Sub(pb).Len(), nil
}

// separation returns the unit vector from PB toward PA and the distance, or a
// DegenerateGeometryError when the points coincide.
func (m *MatterSubsystem) separation(s *State, op string, bodyA BodyID, locA mgl64.Vec3, bodyB BodyID, locB mgl64.Vec3) (mgl64.Vec3, float64, error) {
	r := m.eng.BodyTransform(s, bodyA).Apply(locA).
		Sub(m.eng.BodyTransform(s, bodyB).Apply(locB))
	d := r.Len()
	if d == 0 {
		return mgl64.Vec3{}, 0, &DegenerateGeometryError{Op: op}
	}
	return r.Mul(1 / d), d, nil
}

// PointToPointDistanceRate returns d/dt of the separation between two fixed
// points: the relative point velocity projected onto the unit separation
// vector.
func (m *MatterSubsystem) PointToPointDistanceRate(s *State, bodyA BodyID, locationOnA mgl64.Vec3, bodyB BodyID, locationOnB mgl64.Vec3) (float64, error) {
	return m.MovingPointToPointDistanceRate(s, bodyA, locationOnA, mgl64.Vec3{}, bodyB, locationOnB, mgl64.Vec3{})
}

// MovingPointToPointDistanceRate is the moving-point form of
// PointToPointDistanceRate, with local point velocities given in each body's
// own frame.
func (m *MatterSubsystem) MovingPointToPointDistanceRate(s *State, bodyA BodyID, locationOnA, velocityOnA mgl64.Vec3, bodyB BodyID, locationOnB, velocityOnB mgl64.Vec3) (float64, error) {
	if err := m.checkBodies("MovingPointToPointDistanceRate", bodyA, bodyB); err != nil {
		return 0, err
	}
	if err := m.need(s, StageVelocity, "MovingPointToPointDistanceRate"); err != nil {
		return 0, err
	}
	u, _, err := m.separation(s, "MovingPointToPointDistanceRate", bodyA, locationOnA, bodyB, locationOnB)
	if err != nil {
		return 0, err
	}
	vrel := m.pointVelocityInGround(s, bodyA, locationOnA, velocityOnA).
		Sub(m.pointVelocityInGround(s, bodyB, locationOnB, velocityOnB))
	return vrel.Dot(u), nil
}

// PointToPointDistanceRate2 returns d²/dt² of the separation between two
// fixed points.
func (m *MatterSubsystem) PointToPointDistanceRate2(s *State, bodyA BodyID, locationOnA mgl64.Vec3, bodyB BodyID, locationOnB mgl64.Vec3) (float64, error) {
	return m.MovingPointToPointDistanceRate2(s, bodyA, locationOnA, mgl64.Vec3{}, mgl64.Vec3{}, bodyB, locationOnB, mgl64.Vec3{}, mgl64.Vec3{})
}

// MovingPointToPointDistanceRate2 is the moving-point form: the relative
// acceleration projected onto the separation direction, plus the centripetal
// contribution of the relative tangential velocity over the distance
// (standard range-rate kinematics).
func (m *MatterSubsystem) MovingPointToPointDistanceRate2(s *State, bodyA BodyID, locationOnA, velocityOnA, accelerationOnA mgl64.Vec3, bodyB BodyID, locationOnB, velocityOnB, accelerationOnB mgl64.Vec3) (float64, error) {
	if err := m.checkBodies("MovingPointToPointDistanceRate2", bodyA, bodyB); err != nil {
		return 0, err
	}
	if err := m.need(s, StageAcceleration, "MovingPointToPointDistanceRate2"); err != nil {
		return 0, err
	}
	u, d, err := m.separation(s, "MovingPointToPointDistanceRate2", bodyA, locationOnA, bodyB, locationOnB)
	if err != nil {
		return 0, err
	}
	vrel := m.pointVelocityInGround(s, bodyA, locationOnA, velocityOnA).
		Sub(m.pointVelocityInGround(s, bodyB, locationOnB, velocityOnB))
	arel := m.pointAccelerationInGround(s, bodyA, locationOnA, velocityOnA, accelerationOnA).
		Sub(m.pointAccelerationInGround(s, bodyB, locationOnB, velocityOnB, accelerationOnB))
	ddot := vrel.Dot(u)
	tangential2 := vrel.Dot(vrel) - ddot*ddot
	if tangential2 < 0 {
		tangential2 = 0 // roundoff
	}
	return arel.Dot(u) + tangential2/d, nil
}
