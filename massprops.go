package multibody

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody/spatial"
)

// Mass-property queries: re-express per-body mass, mass center and inertia in
// other frames or about other points, and aggregate them system-wide.

// BodyMassPropertiesInBody returns objectBody's mass properties, still
// measured about objectBody's origin but expressed in inBody's frame. With
// inBody == objectBody no configuration is needed; otherwise the State must
// be at Position so the relative orientation is known. With inBody == Ground
// this is the local spatial-inertia data expressed in Ground.
func (m *MatterSubsystem) BodyMassPropertiesInBody(s *State, objectBody, inBody BodyID) (spatial.MassProperties, error) {
	if err := m.checkBodies("BodyMassPropertiesInBody", objectBody, inBody); err != nil {
		return spatial.MassProperties{}, err
	}
	if err := m.need(s, StageInstance, "BodyMassPropertiesInBody"); err != nil {
		return spatial.MassProperties{}, err
	}
	mp := m.eng.BodyMassProperties(s, objectBody)
	if inBody == objectBody {
		return mp, nil
	}
	if err := m.need(s, StagePosition, "BodyMassPropertiesInBody"); err != nil {
		return spatial.MassProperties{}, err
	}
	rba := m.eng.BodyTransform(s, objectBody).R // R_GA, enough when inBody is Ground
	if inBody != Ground {
		rba = m.eng.BodyTransform(s, inBody).R.Transpose().Mul3(rba) // R_BA = R_BG * R_GA
	}
	return mp.Reexpress(rba), nil
}

// BodySpatialInertiaInGround arranges the body's mass properties, expressed
// in Ground, as a spatial inertia matrix.
func (m *MatterSubsystem) BodySpatialInertiaInGround(s *State, objectBody BodyID) (spatial.SpatialMat, error) {
	mp, err := m.BodyMassPropertiesInBody(s, objectBody, Ground)
	if err != nil {
		return spatial.SpatialMat{}, err
	}
	return mp.ToSpatialMat(), nil
}

// BodyMassCenterLocation returns the body's mass center measured from the
// Ground origin, expressed in Ground.
func (m *MatterSubsystem) BodyMassCenterLocation(s *State, objectBody BodyID) (mgl64.Vec3, error) {
	if err := m.checkBody(objectBody, "BodyMassCenterLocation"); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := m.need(s, StagePosition, "BodyMassCenterLocation"); err != nil {
		return mgl64.Vec3{}, err
	}
	mp := m.eng.BodyMassProperties(s, objectBody)
	return m.eng.BodyTransform(s, objectBody).Apply(mp.COM), nil
}

// BodyMassCenterLocationInBody returns the vector from a given point on
// inBody to objectBody's mass center, expressed in inBody.
func (m *MatterSubsystem) BodyMassCenterLocationInBody(s *State, objectBody, inBody BodyID, fromLocationOnB mgl64.Vec3) (mgl64.Vec3, error) {
	if err := m.checkBodies("BodyMassCenterLocationInBody", objectBody, inBody); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := m.need(s, StagePosition, "BodyMassCenterLocationInBody"); err != nil {
		return mgl64.Vec3{}, err
	}
	mp := m.eng.BodyMassProperties(s, objectBody)
	com, err := m.BodyPointLocationInBody(s, objectBody, mp.COM, inBody)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return com.Sub(fromLocationOnB), nil
}

// BodyCentralInertia returns the body's inertia taken about its own mass
// center, expressed in the body frame.
func (m *MatterSubsystem) BodyCentralInertia(s *State, objectBody BodyID) (mgl64.Mat3, error) {
	mp, err := m.BodyMassProperties(s, objectBody)
	if err != nil {
		return mgl64.Mat3{}, err
	}
	return mp.CentralInertia(), nil
}

// BodyInertiaAboutBodyPoint returns objectBody's inertia taken about a point
// given on inBody, expressed in inBody: central inertia plus the
// parallel-axis term for the offset between the two about-points.
func (m *MatterSubsystem) BodyInertiaAboutBodyPoint(s *State, objectBody, inBody BodyID, aboutLocationOnB mgl64.Vec3) (mgl64.Mat3, error) {
	if err := m.checkBodies("BodyInertiaAboutBodyPoint", objectBody, inBody); err != nil {
		return mgl64.Mat3{}, err
	}
	if err := m.need(s, StageInstance, "BodyInertiaAboutBodyPoint"); err != nil {
		return mgl64.Mat3{}, err
	}
	mp := m.eng.BodyMassProperties(s, objectBody)
	if inBody == objectBody {
		return mp.ShiftAbout(aboutLocationOnB), nil
	}
	if err := m.need(s, StagePosition, "BodyInertiaAboutBodyPoint"); err != nil {
		return mgl64.Mat3{}, err
	}
	xga := m.eng.BodyTransform(s, objectBody)
	centralG := spatial.ReexpressInertia(mp.CentralInertia(), xga.R)
	comG := xga.Apply(mp.COM)
	pointG := m.eng.BodyTransform(s, inBody).Apply(aboutLocationOnB)
	aboutG := centralG.Add(spatial.PointMassInertia(mp.Mass, comG.Sub(pointG)))
	if inBody == Ground {
		return aboutG, nil
	}
	return spatial.ReexpressInertia(aboutG, m.eng.BodyTransform(s, inBody).R.Transpose()), nil
}

// systemMass accumulates total mass, first mass moment and inertia about the
// Ground origin over all bodies and particles, everything in Ground.
func (m *MatterSubsystem) systemMass(s *State) (mass float64, moment mgl64.Vec3, inertia mgl64.Mat3) {
	for b := Ground; int(b) < m.eng.NumBodies(); b++ {
		mp := m.eng.BodyMassProperties(s, b)
		if mp.Mass == 0 {
			continue
		}
		xgb := m.eng.BodyTransform(s, b)
		comG := xgb.Apply(mp.COM)
		mass += mp.Mass
		moment = moment.Add(comG.Mul(mp.Mass))
		centralG := spatial.ReexpressInertia(mp.CentralInertia(), xgb.R)
		inertia = inertia.Add(centralG).Add(spatial.PointMassInertia(mp.Mass, comG))
	}
	masses := m.eng.ParticleMasses(s)
	locs := m.eng.ParticleLocations(s)
	for i, pm := range masses {
		mass += pm
		moment = moment.Add(locs[i].Mul(pm))
		inertia = inertia.Add(spatial.PointMassInertia(pm, locs[i]))
	}
	return mass, moment, inertia
}

// SystemMassPropertiesInGround returns the total mass, the system mass center
// measured from the Ground origin, and the system inertia about the Ground
// origin, expressed in Ground.
func (m *MatterSubsystem) SystemMassPropertiesInGround(s *State) (spatial.MassProperties, error) {
	if err := m.need(s, StagePosition, "SystemMassPropertiesInGround"); err != nil {
		return spatial.MassProperties{}, err
	}
	mass, moment, inertia := m.systemMass(s)
	com := mgl64.Vec3{}
	if mass > 0 {
		com = moment.Mul(1 / mass)
	}
	return spatial.MassProperties{Mass: mass, COM: com, Inertia: inertia}, nil
}

// SystemCentralInertiaInGround returns the system inertia taken about the
// system mass center, expressed in Ground.
func (m *MatterSubsystem) SystemCentralInertiaInGround(s *State) (mgl64.Mat3, error) {
	mp, err := m.SystemMassPropertiesInGround(s)
	if err != nil {
		return mgl64.Mat3{}, err
	}
	return mp.CentralInertia(), nil
}

// SystemMassCenterLocationInGround returns the system mass center measured
// from the Ground origin, expressed in Ground.
func (m *MatterSubsystem) SystemMassCenterLocationInGround(s *State) (mgl64.Vec3, error) {
	mp, err := m.SystemMassPropertiesInGround(s)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return mp.COM, nil
}

// SystemMassCenterVelocityInGround returns d/dt of the system mass center
// location, in Ground. Particles are fixed in Ground and contribute no
// momentum.
func (m *MatterSubsystem) SystemMassCenterVelocityInGround(s *State) (mgl64.Vec3, error) {
	if err := m.need(s, StageVelocity, "SystemMassCenterVelocityInGround"); err != nil {
		return mgl64.Vec3{}, err
	}
	var mass float64
	var momentum mgl64.Vec3
	for b := Ground; int(b) < m.eng.NumBodies(); b++ {
		mp := m.eng.BodyMassProperties(s, b)
		if mp.Mass == 0 {
			continue
		}
		mass += mp.Mass
		momentum = momentum.Add(m.pointVelocityInGround(s, b, mp.COM, mgl64.Vec3{}).Mul(mp.Mass))
	}
	for _, pm := range m.eng.ParticleMasses(s) {
		mass += pm
	}
	if mass == 0 {
		return mgl64.Vec3{}, nil
	}
	return momentum.Mul(1 / mass), nil
}

// SystemMassCenterAccelerationInGround returns d²/dt² of the system mass
// center location, in Ground.
func (m *MatterSubsystem) SystemMassCenterAccelerationInGround(s *State) (mgl64.Vec3, error) {
	if err := m.need(s, StageAcceleration, "SystemMassCenterAccelerationInGround"); err != nil {
		return mgl64.Vec3{}, err
	}
	var mass float64
	var total mgl64.Vec3
	for b := Ground; int(b) < m.eng.NumBodies(); b++ {
		mp := m.eng.BodyMassProperties(s, b)
		if mp.Mass == 0 {
			continue
		}
		mass += mp.Mass
		ac := m.pointAccelerationInGround(s, b, mp.COM, mgl64.Vec3{}, mgl64.Vec3{})
		total = total.Add(ac.Mul(mp.Mass))
	}
	for _, pm := range m.eng.ParticleMasses(s) {
		mass += pm
	}
	if mass == 0 {
		return mgl64.Vec3{}, nil
	}
	return total.Mul(1 / mass), nil
}
