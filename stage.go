package multibody

// Stage is a checkpoint in a simulation step. Cached quantities become valid
// once the owning stage is realized, and stay valid until an input belonging
// to a lower stage is changed.
type Stage int

// Stages in realization order. Realizing a stage requires the previous one.
const (
	StageTopology Stage = iota
	StageModel
	StageInstance
	StageTime
	StagePosition
	StageVelocity
	StageDynamics
	StageAcceleration
)

var stageNames = [...]string{
	"Topology",
	"Model",
	"Instance",
	"Time",
	"Position",
	"Velocity",
	"Dynamics",
	"Acceleration",
}

func (g Stage) String() string {
	if g < StageTopology || g > StageAcceleration {
		return "InvalidStage"
	}
	return stageNames[g]
}

// prev is the stage below g, used when a mutation of a stage-g quantity
// invalidates g and everything above it.
func (g Stage) prev() Stage {
	return g - 1
}
