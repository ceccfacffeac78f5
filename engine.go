package multibody

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody/spatial"
)

// Engine is the minimal interface a concrete body-tree implementation must
// provide: topology queries, staged cache responses and the mobilizer
// mutators. The MatterSubsystem query layer is built entirely on top of it
// and performs all stage and body-handle checking, so Engine methods may
// assume their preconditions hold.
//
// Staged responses read the cache the engine filled in during RealizeStage;
// "in Ground" quantities are measured with respect to the Ground frame and
// expressed in Ground unless stated otherwise.
type Engine interface {
	// Topology. Valid without any State. Body 0 is Ground.
	NumBodies() int
	NumParticles() int
	NumMobilities() int
	NumQ() int
	NumQConstraintEquations() int
	NumUConstraintEquations() int
	NumUDotConstraintEquations() int
	Parent(b BodyID) BodyID
	Children(b BodyID) []BodyID
	BodyNumQ(b BodyID) int
	BodyNumU(b BodyID) int
	BodyQIndex(b BodyID) int // offset of the body's first q in the global q vector
	BodyUIndex(b BodyID) int // offset of the body's first u in the global u vector

	// RealizeStage computes and caches every quantity whose validity starts
	// at stage g. The caller guarantees the State has been realized through
	// stage g-1.
	RealizeStage(s *State, g Stage) error

	// Instance-stage responses.
	BodyMassProperties(s *State, b BodyID) spatial.MassProperties
	ParticleMasses(s *State) []float64
	MobilizerFrame(s *State, b BodyID) spatial.Transform         // X_BM, inboard frame on the body
	MobilizerFrameOnParent(s *State, b BodyID) spatial.Transform // X_PMb, outboard frame on the parent

	// Position-stage responses.
	BodyTransform(s *State, b BodyID) spatial.Transform      // X_GB
	MobilizerTransform(s *State, b BodyID) spatial.Transform // X_MbM, cross-mobilizer
	ParticleLocations(s *State) []mgl64.Vec3
	QConstraintErrors(s *State) []float64
	QConstraintWeights(s *State) []float64

	// Velocity-stage responses.
	BodyVelocity(s *State, b BodyID) spatial.SpatialVec
	MobilizerVelocity(s *State, b BodyID) spatial.SpatialVec // V_MbM, measured and expressed in Mb
	UConstraintErrors(s *State) []float64
	UConstraintWeights(s *State) []float64

	// Acceleration-stage responses.
	BodyAcceleration(s *State, b BodyID) spatial.SpatialVec
	UDotConstraintErrors(s *State) []float64
	UDotConstraintWeights(s *State) []float64

	// Constraint sparsity, consumed by the projection solvers: the q (resp.
	// u) indices constraint equation eq couples. A nil result means "all".
	QConstraintDependencies(eq int) []int
	UConstraintDependencies(eq int) []int

	// Best-effort mobilizer solvers. Write only the addressed body's q's
	// (resp. u's), through State.SetQ/SetU so the stage drops accordingly,
	// getting as close to the requested pose (resp. velocity) as the
	// mobilizer's freedom allows.
	SetMobilizerTransform(s *State, b BodyID, x spatial.Transform)
	SetMobilizerVelocity(s *State, b BodyID, v spatial.SpatialVec)
}
