package multibody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody/spatial"
)

// Force accumulation services. The buffers are caller-owned; independent
// force sources accumulate into them additively, and the dynamics solver
// consumes the totals. Nothing is retained here.

// ResetForces sizes the three force buffers to the current topology counts
// and zeroes them. Callable at any stage, idempotent.
func (m *MatterSubsystem) ResetForces(bodyForces *[]spatial.SpatialVec, particleForces *[]mgl64.Vec3, mobilityForces *[]float64) {
	nb, np, nm := m.eng.NumBodies(), m.eng.NumParticles(), m.eng.NumMobilities()
	if cap(*bodyForces) < nb {
		*bodyForces = make([]spatial.SpatialVec, nb)
	}
	*bodyForces = (*bodyForces)[:nb]
	for i := range *bodyForces {
		(*bodyForces)[i] = spatial.SpatialVec{}
	}
	if cap(*particleForces) < np {
		*particleForces = make([]mgl64.Vec3, np)
	}
	*particleForces = (*particleForces)[:np]
	for i := range *particleForces {
		(*particleForces)[i] = mgl64.Vec3{}
	}
	if cap(*mobilityForces) < nm {
		*mobilityForces = make([]float64, nm)
	}
	*mobilityForces = (*mobilityForces)[:nm]
	for i := range *mobilityForces {
		(*mobilityForces)[i] = 0
	}
}

// AddInStationForce adds a force applied at a station on a body into the
// body-force buffer. The station is given in the body frame, the force in
// Ground; the equivalent torque about the body origin needs the current
// orientation, so Position stage is required. Strictly additive: no other
// slot is read or written.
func (m *MatterSubsystem) AddInStationForce(s *State, b BodyID, stationInB, forceInG mgl64.Vec3, bodyForces []spatial.SpatialVec) error {
	if err := m.checkBody(b, "AddInStationForce"); err != nil {
		return err
	}
	if err := m.need(s, StagePosition, "AddInStationForce"); err != nil {
		return err
	}
	if len(bodyForces) != m.eng.NumBodies() {
		return fmt.Errorf("AddInStationForce: body force buffer has %d slots, topology has %d bodies",
			len(bodyForces), m.eng.NumBodies())
	}
	rG := m.eng.BodyTransform(s, b).Rotate(stationInB)
	bodyForces[b].Angular = bodyForces[b].Angular.Add(rG.Cross(forceInG))
	bodyForces[b].Linear = bodyForces[b].Linear.Add(forceInG)
	return nil
}

// AddInBodyTorque adds a pure torque, given in Ground, into the body-force
// buffer.
func (m *MatterSubsystem) AddInBodyTorque(s *State, b BodyID, torqueInG mgl64.Vec3, bodyForces []spatial.SpatialVec) error {
	if err := m.checkBody(b, "AddInBodyTorque"); err != nil {
		return err
	}
	if err := m.need(s, StagePosition, "AddInBodyTorque"); err != nil {
		return err
	}
	if len(bodyForces) != m.eng.NumBodies() {
		return fmt.Errorf("AddInBodyTorque: body force buffer has %d slots, topology has %d bodies",
			len(bodyForces), m.eng.NumBodies())
	}
	bodyForces[b].Angular = bodyForces[b].Angular.Add(torqueInG)
	return nil
}

// AddInMobilityForce adds a scalar generalized force along one axis of the
// body's mobilizer into the mobility-force buffer.
func (m *MatterSubsystem) AddInMobilityForce(s *State, b BodyID, axis int, f float64, mobilityForces []float64) error {
	if err := m.checkBody(b, "AddInMobilityForce"); err != nil {
		return err
	}
	if err := m.need(s, StagePosition, "AddInMobilityForce"); err != nil {
		return err
	}
	if axis < 0 || axis >= m.eng.BodyNumU(b) {
		return fmt.Errorf("AddInMobilityForce: body %d has no mobility axis %d", b, axis)
	}
	if len(mobilityForces) != m.eng.NumMobilities() {
		return fmt.Errorf("AddInMobilityForce: mobility force buffer has %d slots, topology has %d mobilities",
			len(mobilityForces), m.eng.NumMobilities())
	}
	mobilityForces[m.eng.BodyUIndex(b)+axis] += f
	return nil
}
