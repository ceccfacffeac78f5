package multibody

// State is the mutable container for one simulation run: the realization
// stage marker, the inputs (time, generalized coordinates q, generalized
// rates u) and an engine-owned cache of derived quantities. A State is never
// shared between runs; concurrent readers are safe only while nobody mutates.
type State struct {
	stage Stage
	time  float64
	q     []float64
	u     []float64
	cache any
}

// NewState creates a fresh State for a topology with nq coordinates and nu
// rates. The stage starts at Topology.
func NewState(nq, nu int) *State {
	return &State{
		stage: StageTopology,
		q:     make([]float64, nq),
		u:     make([]float64, nu),
	}
}

func (s *State) Stage() Stage { return s.stage }

func (s *State) Time() float64 { return s.time }

// SetTime sets the current time. Time is a Time-stage quantity, so the stage
// drops back to Instance.
func (s *State) SetTime(t float64) {
	s.time = t
	s.Invalidate(StageTime.prev())
}

func (s *State) NumQ() int { return len(s.q) }
func (s *State) NumU() int { return len(s.u) }

// Q exposes the generalized coordinates for reading. Callers must go through
// SetQ to write, or the stage marker gets out of sync with the cache.
func (s *State) Q() []float64 { return s.q }

// U exposes the generalized rates for reading.
func (s *State) U() []float64 { return s.u }

// SetQ writes one generalized coordinate, invalidating Position and every
// stage above it.
func (s *State) SetQ(i int, v float64) {
	s.q[i] = v
	s.Invalidate(StagePosition.prev())
}

// SetU writes one generalized rate, invalidating Velocity and every stage
// above it.
func (s *State) SetU(i int, v float64) {
	s.u[i] = v
	s.Invalidate(StageVelocity.prev())
}

// Invalidate lowers the current stage to g if it is above g. Realized stages
// at or below g stay valid.
func (s *State) Invalidate(g Stage) {
	if s.stage > g {
		s.stage = g
	}
}

// advance is called by Realize after the engine has filled in stage g.
func (s *State) advance(g Stage) { s.stage = g }

// Cache returns the engine-owned derived-quantity cache. Opaque here: only
// the engine that realized the State knows its layout.
func (s *State) Cache() any { return s.cache }

// SetCache installs the engine-owned cache.
func (s *State) SetCache(c any) { s.cache = c }
