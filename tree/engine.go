// Package tree provides a concrete body-tree engine behind the multibody
// query layer: an arena of bodies connected to their parents by mobilizers,
// with kinematics propagated root-to-leaf at each realization stage.
// Accelerations are prescribed by the caller; solving the equations of motion
// for them belongs to a dynamics solver, not to this engine.
package tree

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/multibody"
	"github.com/akmonengine/multibody/spatial"
)

// QConstraintFunc is one scalar position-level constraint equation; a
// satisfied constraint returns zero.
type QConstraintFunc func(q []float64, t float64) float64

// UConstraintFunc is one scalar velocity-level constraint equation.
type UConstraintFunc func(q, u []float64, t float64) float64

// UDotConstraintFunc is one scalar acceleration-level constraint equation.
type UDotConstraintFunc func(q, u, udot []float64, t float64) float64

type qConstraint struct {
	weight float64
	deps   []int
	fn     QConstraintFunc
}

type uConstraint struct {
	weight float64
	deps   []int
	fn     UConstraintFunc
}

type udotConstraint struct {
	weight float64
	fn     UDotConstraintFunc
}

type bodyNode struct {
	parent   multibody.BodyID
	children []multibody.BodyID
	mob      Mobilizer
	inboard  spatial.Transform // X_BM, mobilizer frame on the body
	outboard spatial.Transform // X_PMb, outboard frame on the parent
	mass     spatial.MassProperties
	qIndex   int
	uIndex   int
}

// System is an arena-indexed body tree implementing multibody.Engine. Body 0
// is Ground. Topology is fixed once States are created from it.
type System struct {
	bodies []bodyNode
	nq, nu int

	particleMasses []float64
	particleLocs   []mgl64.Vec3

	qConstraints    []qConstraint
	uConstraints    []uConstraint
	udotConstraints []udotConstraint
	qWeights        []float64
	uWeights        []float64
	udotWeights     []float64

	// Prescribed generalized accelerations, consumed at Acceleration stage.
	udot []float64
}

// stateCache holds the derived per-body quantities for one State. The State
// owns it; the System only knows its layout.
type stateCache struct {
	bodyTransform []spatial.Transform  // X_GB
	mobTransform  []spatial.Transform  // X_MbM
	bodyVelocity  []spatial.SpatialVec // V_GB
	mobVelocity   []spatial.SpatialVec // V_MbM in Mb
	bodyAccel     []spatial.SpatialVec // A_GB
	qerr          []float64
	uerr          []float64
	udoterr       []float64
}

// NewSystem creates a body tree containing only Ground.
func NewSystem() *System {
	return &System{
		bodies: []bodyNode{{
			parent:   multibody.Ground,
			mob:      Weld{},
			inboard:  spatial.Identity(),
			outboard: spatial.Identity(),
		}},
	}
}

// AddBody appends a body under parent, connected through mob between the
// parent's outboard frame (X_PMb) and the body's inboard frame (X_BM), with
// the given mass properties. Returns the new body's handle.
func (sys *System) AddBody(parent multibody.BodyID, outboard spatial.Transform, mob Mobilizer, inboard spatial.Transform, mass spatial.MassProperties) (multibody.BodyID, error) {
	if parent < multibody.Ground || int(parent) >= len(sys.bodies) {
		return 0, fmt.Errorf("tree: parent body %d out of range [0,%d)", parent, len(sys.bodies))
	}
	id := multibody.BodyID(len(sys.bodies))
	sys.bodies = append(sys.bodies, bodyNode{
		parent:   parent,
		mob:      mob,
		inboard:  inboard,
		outboard: outboard,
		mass:     mass,
		qIndex:   sys.nq,
		uIndex:   sys.nu,
	})
	sys.bodies[parent].children = append(sys.bodies[parent].children, id)
	sys.nq += mob.NumQ()
	sys.nu += mob.NumU()
	return id, nil
}

// AddParticle registers a point mass at a fixed Ground location.
func (sys *System) AddParticle(mass float64, locationInG mgl64.Vec3) {
	sys.particleMasses = append(sys.particleMasses, mass)
	sys.particleLocs = append(sys.particleLocs, locationInG)
}

// AddQConstraint registers a position-level constraint equation with its
// norm weight and the q indices it couples (nil means all).
func (sys *System) AddQConstraint(weight float64, deps []int, fn QConstraintFunc) {
	sys.qConstraints = append(sys.qConstraints, qConstraint{weight: weight, deps: deps, fn: fn})
	sys.qWeights = append(sys.qWeights, weight)
}

// AddUConstraint registers a velocity-level constraint equation with its norm
// weight and the u indices it couples (nil means all).
func (sys *System) AddUConstraint(weight float64, deps []int, fn UConstraintFunc) {
	sys.uConstraints = append(sys.uConstraints, uConstraint{weight: weight, deps: deps, fn: fn})
	sys.uWeights = append(sys.uWeights, weight)
}

// AddUDotConstraint registers an acceleration-level constraint equation.
func (sys *System) AddUDotConstraint(weight float64, fn UDotConstraintFunc) {
	sys.udotConstraints = append(sys.udotConstraints, udotConstraint{weight: weight, fn: fn})
	sys.udotWeights = append(sys.udotWeights, weight)
}

// SetPrescribedUDot sets one generalized acceleration, used when realizing
// Acceleration stage. Prescribed u-dots are system-wide inputs; states
// realized afterwards all see the new value.
func (sys *System) SetPrescribedUDot(i int, v float64) {
	for len(sys.udot) < sys.nu {
		sys.udot = append(sys.udot, 0)
	}
	sys.udot[i] = v
}

func (sys *System) prescribedUDot() []float64 {
	for len(sys.udot) < sys.nu {
		sys.udot = append(sys.udot, 0)
	}
	return sys.udot
}

// NewState creates a State sized for this topology.
func (sys *System) NewState() *multibody.State {
	return multibody.NewState(sys.nq, sys.nu)
}

// TOPOLOGY //

func (sys *System) NumBodies() int     { return len(sys.bodies) }
func (sys *System) NumParticles() int  { return len(sys.particleMasses) }
func (sys *System) NumMobilities() int { return sys.nu }
func (sys *System) NumQ() int          { return sys.nq }

func (sys *System) NumQConstraintEquations() int    { return len(sys.qConstraints) }
func (sys *System) NumUConstraintEquations() int    { return len(sys.uConstraints) }
func (sys *System) NumUDotConstraintEquations() int { return len(sys.udotConstraints) }

func (sys *System) Parent(b multibody.BodyID) multibody.BodyID { return sys.bodies[b].parent }

func (sys *System) Children(b multibody.BodyID) []multibody.BodyID { return sys.bodies[b].children }

func (sys *System) BodyNumQ(b multibody.BodyID) int   { return sys.bodies[b].mob.NumQ() }
func (sys *System) BodyNumU(b multibody.BodyID) int   { return sys.bodies[b].mob.NumU() }
func (sys *System) BodyQIndex(b multibody.BodyID) int { return sys.bodies[b].qIndex }
func (sys *System) BodyUIndex(b multibody.BodyID) int { return sys.bodies[b].uIndex }

// REALIZATION //

func (sys *System) cache(s *multibody.State) *stateCache {
	c, _ := s.Cache().(*stateCache)
	if c == nil {
		c = &stateCache{}
		s.SetCache(c)
	}
	return c
}

func (sys *System) RealizeStage(s *multibody.State, g multibody.Stage) error {
	switch g {
	case multibody.StageModel:
		c := sys.cache(s)
		n := len(sys.bodies)
		c.bodyTransform = make([]spatial.Transform, n)
		c.mobTransform = make([]spatial.Transform, n)
		c.bodyVelocity = make([]spatial.SpatialVec, n)
		c.mobVelocity = make([]spatial.SpatialVec, n)
		c.bodyAccel = make([]spatial.SpatialVec, n)
		c.qerr = make([]float64, len(sys.qConstraints))
		c.uerr = make([]float64, len(sys.uConstraints))
		c.udoterr = make([]float64, len(sys.udotConstraints))
	case multibody.StageInstance, multibody.StageTime, multibody.StageDynamics:
		// Frames, masses and force models are fixed topology-side inputs
		// here; nothing to derive.
	case multibody.StagePosition:
		sys.realizePosition(s)
	case multibody.StageVelocity:
		sys.realizeVelocity(s)
	case multibody.StageAcceleration:
		sys.realizeAcceleration(s)
	}
	return nil
}

// bodyQ and bodyU slice out one body's coordinates.
func (sys *System) bodyQ(s *multibody.State, i int) []float64 {
	n := &sys.bodies[i]
	return s.Q()[n.qIndex : n.qIndex+n.mob.NumQ()]
}

func (sys *System) bodyU(s *multibody.State, i int) []float64 {
	n := &sys.bodies[i]
	return s.U()[n.uIndex : n.uIndex+n.mob.NumU()]
}

func (sys *System) bodyUDot(i int) []float64 {
	n := &sys.bodies[i]
	udot := sys.prescribedUDot()
	return udot[n.uIndex : n.uIndex+n.mob.NumU()]
}

func (sys *System) realizePosition(s *multibody.State) {
	c := sys.cache(s)
	c.bodyTransform[0] = spatial.Identity()
	c.mobTransform[0] = spatial.Identity()
	for i := 1; i < len(sys.bodies); i++ {
		n := &sys.bodies[i]
		xmbm := n.mob.Transform(sys.bodyQ(s, i))
		c.mobTransform[i] = xmbm
		xpb := n.outboard.Compose(xmbm).Compose(n.inboard.Inverse())
		c.bodyTransform[i] = c.bodyTransform[n.parent].Compose(xpb)
	}
	for k, qc := range sys.qConstraints {
		c.qerr[k] = qc.fn(s.Q(), s.Time())
	}
}

// relativeVelocity returns body i's spatial velocity relative to its parent,
// expressed in the parent frame: the mobilizer velocity carried through the
// outboard frame, with the lever arm from the mobilizer frame to the body
// origin accounted for.
func (sys *System) relativeVelocity(s *multibody.State, c *stateCache, i int) spatial.SpatialVec {
	n := &sys.bodies[i]
	vmbm := n.mob.Velocity(sys.bodyQ(s, i), sys.bodyU(s, i))
	c.mobVelocity[i] = vmbm
	arm := c.mobTransform[i].R.Mul3x1(n.inboard.Inverse().P)
	return spatial.SpatialVec{
		Angular: n.outboard.Rotate(vmbm.Angular),
		Linear:  n.outboard.Rotate(vmbm.Linear.Add(vmbm.Angular.Cross(arm))),
	}
}

func (sys *System) realizeVelocity(s *multibody.State) {
	c := sys.cache(s)
	c.bodyVelocity[0] = spatial.SpatialVec{}
	c.mobVelocity[0] = spatial.SpatialVec{}
	for i := 1; i < len(sys.bodies); i++ {
		n := &sys.bodies[i]
		xgp := c.bodyTransform[n.parent]
		vgp := c.bodyVelocity[n.parent]
		rel := sys.relativeVelocity(s, c, i).Reexpress(xgp.R)
		r := c.bodyTransform[i].P.Sub(xgp.P)
		c.bodyVelocity[i] = spatial.SpatialVec{
			Angular: vgp.Angular.Add(rel.Angular),
			Linear:  vgp.Linear.Add(vgp.Angular.Cross(r)).Add(rel.Linear),
		}
	}
	for k, uc := range sys.uConstraints {
		c.uerr[k] = uc.fn(s.Q(), s.U(), s.Time())
	}
}

func (sys *System) realizeAcceleration(s *multibody.State) {
	c := sys.cache(s)
	c.bodyAccel[0] = spatial.SpatialVec{}
	for i := 1; i < len(sys.bodies); i++ {
		n := &sys.bodies[i]
		xgp := c.bodyTransform[n.parent]
		vgp := c.bodyVelocity[n.parent]
		agp := c.bodyAccel[n.parent]

		vmbm := c.mobVelocity[i]
		ambm := n.mob.Acceleration(sys.bodyQ(s, i), sys.bodyU(s, i), sys.bodyUDot(i))
		arm := c.mobTransform[i].R.Mul3x1(n.inboard.Inverse().P)
		relAcc := spatial.SpatialVec{
			Angular: n.outboard.Rotate(ambm.Angular),
			Linear: n.outboard.Rotate(ambm.Linear.
				Add(ambm.Angular.Cross(arm)).
				Add(vmbm.Angular.Cross(vmbm.Angular.Cross(arm)))),
		}.Reexpress(xgp.R)
		relVel := sys.relativeVelocity(s, c, i).Reexpress(xgp.R)

		r := c.bodyTransform[i].P.Sub(xgp.P)
		c.bodyAccel[i] = spatial.SpatialVec{
			Angular: agp.Angular.Add(relAcc.Angular).Add(vgp.Angular.Cross(relVel.Angular)),
			Linear: agp.Linear.
				Add(agp.Angular.Cross(r)).
				Add(vgp.Angular.Cross(vgp.Angular.Cross(r))).
				Add(vgp.Angular.Cross(relVel.Linear).Mul(2)).
				Add(relAcc.Linear),
		}
	}
	udot := sys.prescribedUDot()
	for k, ac := range sys.udotConstraints {
		c.udoterr[k] = ac.fn(s.Q(), s.U(), udot, s.Time())
	}
}

// STAGED RESPONSES //

func (sys *System) BodyMassProperties(s *multibody.State, b multibody.BodyID) spatial.MassProperties {
	return sys.bodies[b].mass
}

func (sys *System) ParticleMasses(s *multibody.State) []float64 { return sys.particleMasses }

func (sys *System) MobilizerFrame(s *multibody.State, b multibody.BodyID) spatial.Transform {
	return sys.bodies[b].inboard
}

func (sys *System) MobilizerFrameOnParent(s *multibody.State, b multibody.BodyID) spatial.Transform {
	return sys.bodies[b].outboard
}

func (sys *System) BodyTransform(s *multibody.State, b multibody.BodyID) spatial.Transform {
	return sys.cache(s).bodyTransform[b]
}

func (sys *System) MobilizerTransform(s *multibody.State, b multibody.BodyID) spatial.Transform {
	return sys.cache(s).mobTransform[b]
}

func (sys *System) ParticleLocations(s *multibody.State) []mgl64.Vec3 { return sys.particleLocs }

func (sys *System) QConstraintErrors(s *multibody.State) []float64 { return sys.cache(s).qerr }

func (sys *System) QConstraintWeights(s *multibody.State) []float64 { return sys.qWeights }

func (sys *System) BodyVelocity(s *multibody.State, b multibody.BodyID) spatial.SpatialVec {
	return sys.cache(s).bodyVelocity[b]
}

func (sys *System) MobilizerVelocity(s *multibody.State, b multibody.BodyID) spatial.SpatialVec {
	return sys.cache(s).mobVelocity[b]
}

func (sys *System) UConstraintErrors(s *multibody.State) []float64 { return sys.cache(s).uerr }

func (sys *System) UConstraintWeights(s *multibody.State) []float64 { return sys.uWeights }

func (sys *System) BodyAcceleration(s *multibody.State, b multibody.BodyID) spatial.SpatialVec {
	return sys.cache(s).bodyAccel[b]
}

func (sys *System) UDotConstraintErrors(s *multibody.State) []float64 { return sys.cache(s).udoterr }

func (sys *System) UDotConstraintWeights(s *multibody.State) []float64 { return sys.udotWeights }

func (sys *System) QConstraintDependencies(eq int) []int { return sys.qConstraints[eq].deps }

func (sys *System) UConstraintDependencies(eq int) []int { return sys.uConstraints[eq].deps }

// SOLVERS //

func (sys *System) SetMobilizerTransform(s *multibody.State, b multibody.BodyID, x spatial.Transform) {
	n := &sys.bodies[b]
	q := make([]float64, n.mob.NumQ())
	copy(q, sys.bodyQ(s, int(b)))
	n.mob.PoseToQ(x, q)
	for k, v := range q {
		s.SetQ(n.qIndex+k, v)
	}
}

func (sys *System) SetMobilizerVelocity(s *multibody.State, b multibody.BodyID, v spatial.SpatialVec) {
	n := &sys.bodies[b]
	u := make([]float64, n.mob.NumU())
	copy(u, sys.bodyU(s, int(b)))
	n.mob.VelocityToU(v, u)
	for k, val := range u {
		s.SetU(n.uIndex+k, val)
	}
}

// Interface conformance.
var _ multibody.Engine = (*System)(nil)
