package multibody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody/spatial"
)

// MatterSubsystem is the query layer over a body-tree Engine: it gates every
// access by realization stage, converts cached Ground-relative quantities
// into quantities expressed in arbitrary body frames, and accumulates applied
// forces into caller-owned buffers. It holds no data of its own.
type MatterSubsystem struct {
	eng Engine
}

// New wraps an Engine in the query layer.
func New(eng Engine) *MatterSubsystem {
	return &MatterSubsystem{eng: eng}
}

// Engine returns the underlying concrete implementation.
func (m *MatterSubsystem) Engine() Engine { return m.eng }

// Realize advances the State through stage g, one stage at a time. Realizing
// at or below the current stage is a no-op.
func (m *MatterSubsystem) Realize(s *State, g Stage) error {
	if g < StageTopology || g > StageAcceleration {
		return fmt.Errorf("realize: no such stage %d", int(g))
	}
	for st := s.stage + 1; st <= g; st++ {
		if err := m.eng.RealizeStage(s, st); err != nil {
			return fmt.Errorf("realize %s: %w", st, err)
		}
		s.advance(st)
	}
	return nil
}

// need reports a StageViolation when the State has not reached stage g.
func (m *MatterSubsystem) need(s *State, g Stage, op string) error {
	if s.stage < g {
		return &StageViolationError{Op: op, Need: g, Have: s.stage}
	}
	return nil
}

func (m *MatterSubsystem) checkBody(b BodyID, op string) error {
	if b < Ground || int(b) >= m.eng.NumBodies() {
		return &InvalidBodyError{Op: op, Body: b, NumBodies: m.eng.NumBodies()}
	}
	return nil
}

func (m *MatterSubsystem) checkBodies(op string, bodies ...BodyID) error {
	for _, b := range bodies {
		if err := m.checkBody(b, op); err != nil {
			return err
		}
	}
	return nil
}

// TOPOLOGY //

func (m *MatterSubsystem) NumBodies() int     { return m.eng.NumBodies() }
func (m *MatterSubsystem) NumParticles() int  { return m.eng.NumParticles() }
func (m *MatterSubsystem) NumMobilities() int { return m.eng.NumMobilities() }
func (m *MatterSubsystem) NumQ() int          { return m.eng.NumQ() }

func (m *MatterSubsystem) NumQConstraintEquations() int { return m.eng.NumQConstraintEquations() }
func (m *MatterSubsystem) NumUConstraintEquations() int { return m.eng.NumUConstraintEquations() }
func (m *MatterSubsystem) NumUDotConstraintEquations() int {
	return m.eng.NumUDotConstraintEquations()
}

// Parent returns the body's inboard neighbor. Ground is its own parent.
func (m *MatterSubsystem) Parent(b BodyID) (BodyID, error) {
	if err := m.checkBody(b, "Parent"); err != nil {
		return 0, err
	}
	return m.eng.Parent(b), nil
}

func (m *MatterSubsystem) Children(b BodyID) ([]BodyID, error) {
	if err := m.checkBody(b, "Children"); err != nil {
		return nil, err
	}
	return m.eng.Children(b), nil
}

// BodyNumQ is the number of generalized coordinates of the body's mobilizer.
func (m *MatterSubsystem) BodyNumQ(b BodyID) (int, error) {
	if err := m.checkBody(b, "BodyNumQ"); err != nil {
		return 0, err
	}
	return m.eng.BodyNumQ(b), nil
}

// BodyNumU is the number of mobilities (degrees of freedom) of the body's
// mobilizer.
func (m *MatterSubsystem) BodyNumU(b BodyID) (int, error) {
	if err := m.checkBody(b, "BodyNumU"); err != nil {
		return 0, err
	}
	return m.eng.BodyNumU(b), nil
}

// MODEL-STAGE RESPONSES AND SOLVERS //

// MobilizerQ reads one generalized coordinate by body and local axis.
func (m *MatterSubsystem) MobilizerQ(s *State, b BodyID, axis int) (float64, error) {
	if err := m.checkBody(b, "MobilizerQ"); err != nil {
		return 0, err
	}
	if err := m.need(s, StageModel, "MobilizerQ"); err != nil {
		return 0, err
	}
	if axis < 0 || axis >= m.eng.BodyNumQ(b) {
		return 0, fmt.Errorf("MobilizerQ: body %d has no coordinate axis %d", b, axis)
	}
	return s.q[m.eng.BodyQIndex(b)+axis], nil
}

// MobilizerU reads one generalized rate by body and local axis.
func (m *MatterSubsystem) MobilizerU(s *State, b BodyID, axis int) (float64, error) {
	if err := m.checkBody(b, "MobilizerU"); err != nil {
		return 0, err
	}
	if err := m.need(s, StageModel, "MobilizerU"); err != nil {
		return 0, err
	}
	if axis < 0 || axis >= m.eng.BodyNumU(b) {
		return 0, fmt.Errorf("MobilizerU: body %d has no mobility axis %d", b, axis)
	}
	return s.u[m.eng.BodyUIndex(b)+axis], nil
}

// SetMobilizerQ writes one generalized coordinate, invalidating Position and
// everything above it.
func (m *MatterSubsystem) SetMobilizerQ(s *State, b BodyID, axis int, v float64) error {
	if err := m.checkBody(b, "SetMobilizerQ"); err != nil {
		return err
	}
	if err := m.need(s, StageModel, "SetMobilizerQ"); err != nil {
		return err
	}
	if axis < 0 || axis >= m.eng.BodyNumQ(b) {
		return fmt.Errorf("SetMobilizerQ: body %d has no coordinate axis %d", b, axis)
	}
	s.SetQ(m.eng.BodyQIndex(b)+axis, v)
	return nil
}

// SetMobilizerU writes one generalized rate, invalidating Velocity and
// everything above it.
func (m *MatterSubsystem) SetMobilizerU(s *State, b BodyID, axis int, v float64) error {
	if err := m.checkBody(b, "SetMobilizerU"); err != nil {
		return err
	}
	if err := m.need(s, StageModel, "SetMobilizerU"); err != nil {
		return err
	}
	if axis < 0 || axis >= m.eng.BodyNumU(b) {
		return fmt.Errorf("SetMobilizerU: body %d has no mobility axis %d", b, axis)
	}
	s.SetU(m.eng.BodyUIndex(b)+axis, v)
	return nil
}

// SetMobilizerPosition sets the body's mobilizer coordinates as close as the
// mobilizer's freedom allows to the given cross-mobilizer transform X_MbM.
// Callable at Time or above; since it changes the configuration it leaves the
// State no higher than Time.
func (m *MatterSubsystem) SetMobilizerPosition(s *State, b BodyID, x spatial.Transform) error {
	if err := m.checkBody(b, "SetMobilizerPosition"); err != nil {
		return err
	}
	if err := m.need(s, StageTime, "SetMobilizerPosition"); err != nil {
		return err
	}
	m.eng.SetMobilizerTransform(s, b, x)
	s.Invalidate(StageTime)
	return nil
}

// SetMobilizerVelocity sets the body's mobilizer rates as close as possible
// to the given cross-mobilizer velocity V_MbM. Callable at Position or above;
// leaves the State no higher than Position.
func (m *MatterSubsystem) SetMobilizerVelocity(s *State, b BodyID, v spatial.SpatialVec) error {
	if err := m.checkBody(b, "SetMobilizerVelocity"); err != nil {
		return err
	}
	if err := m.need(s, StagePosition, "SetMobilizerVelocity"); err != nil {
		return err
	}
	m.eng.SetMobilizerVelocity(s, b, v)
	s.Invalidate(StagePosition)
	return nil
}

// INSTANCE-STAGE RESPONSES //

// BodyMassProperties returns the body's mass, mass center and inertia about
// the body origin, expressed in the body frame.
func (m *MatterSubsystem) BodyMassProperties(s *State, b BodyID) (spatial.MassProperties, error) {
	if err := m.checkBody(b, "BodyMassProperties"); err != nil {
		return spatial.MassProperties{}, err
	}
	if err := m.need(s, StageInstance, "BodyMassProperties"); err != nil {
		return spatial.MassProperties{}, err
	}
	return m.eng.BodyMassProperties(s, b), nil
}

func (m *MatterSubsystem) ParticleMasses(s *State) ([]float64, error) {
	if err := m.need(s, StageInstance, "ParticleMasses"); err != nil {
		return nil, err
	}
	return m.eng.ParticleMasses(s), nil
}

// MobilizerFrame returns X_BM, the body's inboard mobilizer frame.
func (m *MatterSubsystem) MobilizerFrame(s *State, b BodyID) (spatial.Transform, error) {
	if err := m.checkBody(b, "MobilizerFrame"); err != nil {
		return spatial.Transform{}, err
	}
	if err := m.need(s, StageInstance, "MobilizerFrame"); err != nil {
		return spatial.Transform{}, err
	}
	return m.eng.MobilizerFrame(s, b), nil
}

// MobilizerFrameOnParent returns X_PMb, the corresponding outboard frame on
// the body's parent.
func (m *MatterSubsystem) MobilizerFrameOnParent(s *State, b BodyID) (spatial.Transform, error) {
	if err := m.checkBody(b, "MobilizerFrameOnParent"); err != nil {
		return spatial.Transform{}, err
	}
	if err := m.need(s, StageInstance, "MobilizerFrameOnParent"); err != nil {
		return spatial.Transform{}, err
	}
	return m.eng.MobilizerFrameOnParent(s, b), nil
}

// POSITION-STAGE RESPONSES //

// BodyTransform returns X_GB, the body frame measured from and expressed in
// Ground, straight from the state cache.
func (m *MatterSubsystem) BodyTransform(s *State, b BodyID) (spatial.Transform, error) {
	if err := m.checkBody(b, "BodyTransform"); err != nil {
		return spatial.Transform{}, err
	}
	if err := m.need(s, StagePosition, "BodyTransform"); err != nil {
		return spatial.Transform{}, err
	}
	return m.eng.BodyTransform(s, b), nil
}

// BodyRotation returns R_GB.
func (m *MatterSubsystem) BodyRotation(s *State, b BodyID) (mgl64.Mat3, error) {
	x, err := m.BodyTransform(s, b)
	return x.R, err
}

// BodyLocation returns the body origin measured from the Ground origin.
func (m *MatterSubsystem) BodyLocation(s *State, b BodyID) (mgl64.Vec3, error) {
	x, err := m.BodyTransform(s, b)
	return x.P, err
}

// MobilizerTransform returns the cross-mobilizer transform X_MbM.
func (m *MatterSubsystem) MobilizerTransform(s *State, b BodyID) (spatial.Transform, error) {
	if err := m.checkBody(b, "MobilizerTransform"); err != nil {
		return spatial.Transform{}, err
	}
	if err := m.need(s, StagePosition, "MobilizerTransform"); err != nil {
		return spatial.Transform{}, err
	}
	return m.eng.MobilizerTransform(s, b), nil
}

func (m *MatterSubsystem) ParticleLocations(s *State) ([]mgl64.Vec3, error) {
	if err := m.need(s, StagePosition, "ParticleLocations"); err != nil {
		return nil, err
	}
	return m.eng.ParticleLocations(s), nil
}

// VELOCITY-STAGE RESPONSES //

// BodyVelocity returns V_GB = {w_GB, v_GB}, the body frame's spatial velocity
// in Ground, from the state cache.
func (m *MatterSubsystem) BodyVelocity(s *State, b BodyID) (spatial.SpatialVec, error) {
	if err := m.checkBody(b, "BodyVelocity"); err != nil {
		return spatial.SpatialVec{}, err
	}
	if err := m.need(s, StageVelocity, "BodyVelocity"); err != nil {
		return spatial.SpatialVec{}, err
	}
	return m.eng.BodyVelocity(s, b), nil
}

func (m *MatterSubsystem) BodyAngularVelocity(s *State, b BodyID) (mgl64.Vec3, error) {
	v, err := m.BodyVelocity(s, b)
	return v.Angular, err
}

func (m *MatterSubsystem) BodyLinearVelocity(s *State, b BodyID) (mgl64.Vec3, error) {
	v, err := m.BodyVelocity(s, b)
	return v.Linear, err
}

// MobilizerVelocity returns the cross-mobilizer velocity V_MbM, measured and
// expressed in the parent's outboard frame Mb.
func (m *MatterSubsystem) MobilizerVelocity(s *State, b BodyID) (spatial.SpatialVec, error) {
	if err := m.checkBody(b, "MobilizerVelocity"); err != nil {
		return spatial.SpatialVec{}, err
	}
	if err := m.need(s, StageVelocity, "MobilizerVelocity"); err != nil {
		return spatial.SpatialVec{}, err
	}
	return m.eng.MobilizerVelocity(s, b), nil
}

// ACCELERATION-STAGE RESPONSES //

// BodyAcceleration returns A_GB = {alpha_GB, a_GB} from the state cache.
func (m *MatterSubsystem) BodyAcceleration(s *State, b BodyID) (spatial.SpatialVec, error) {
	if err := m.checkBody(b, "BodyAcceleration"); err != nil {
		return spatial.SpatialVec{}, err
	}
	if err := m.need(s, StageAcceleration, "BodyAcceleration"); err != nil {
		return spatial.SpatialVec{}, err
	}
	return m.eng.BodyAcceleration(s, b), nil
}
