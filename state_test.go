package multibody

import "testing"

func TestStageOrdering(t *testing.T) {
	order := []Stage{
		StageTopology, StageModel, StageInstance, StageTime,
		StagePosition, StageVelocity, StageDynamics, StageAcceleration,
	}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("stage %s should order below %s", order[i-1], order[i])
		}
	}
}

func TestStageString(t *testing.T) {
	if got := StagePosition.String(); got != "Position" {
		t.Errorf("StagePosition.String() = %q, want %q", got, "Position")
	}
	if got := Stage(99).String(); got != "InvalidStage" {
		t.Errorf("Stage(99).String() = %q, want %q", got, "InvalidStage")
	}
}

func TestNewStateStartsAtTopology(t *testing.T) {
	s := NewState(3, 2)
	if s.Stage() != StageTopology {
		t.Errorf("fresh state at stage %s, want Topology", s.Stage())
	}
	if s.NumQ() != 3 || s.NumU() != 2 {
		t.Errorf("state sized (%d,%d), want (3,2)", s.NumQ(), s.NumU())
	}
}

func TestMutationInvalidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*State)
		want   Stage
	}{
		{"SetQ drops to Time", func(s *State) { s.SetQ(0, 1.5) }, StageTime},
		{"SetU drops to Position", func(s *State) { s.SetU(0, -2) }, StagePosition},
		{"SetTime drops to Instance", func(s *State) { s.SetTime(0.1) }, StageInstance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(1, 1)
			s.advance(StageAcceleration)
			tt.mutate(s)
			if s.Stage() != tt.want {
				t.Errorf("stage after mutation = %s, want %s", s.Stage(), tt.want)
			}
		})
	}
}

func TestInvalidationLeavesLowerStagesAlone(t *testing.T) {
	s := NewState(1, 1)
	s.advance(StageInstance)

	// A Position-stage mutation on a state that never reached Position
	// must not raise the stage.
	s.SetQ(0, 2)
	if s.Stage() != StageInstance {
		t.Errorf("stage = %s, want Instance", s.Stage())
	}

	// Explicit invalidation above the current stage is a no-op.
	s.Invalidate(StageAcceleration)
	if s.Stage() != StageInstance {
		t.Errorf("stage after no-op invalidate = %s, want Instance", s.Stage())
	}
}

func TestWeightedNormReduction(t *testing.T) {
	if got := rmsNorm(nil); got != 0 {
		t.Errorf("rmsNorm(nil) = %v, want 0", got)
	}

	we := weightedErrs([]float64{3, -4}, []float64{1, 1})
	if got, want := rmsNorm(we), 3.5355339059327378; got-want > 1e-12 || want-got > 1e-12 {
		t.Errorf("rmsNorm = %v, want %v", got, want)
	}

	// Missing weights default to 1; explicit weights scale.
	weighted := rmsNorm(weightedErrs([]float64{1}, []float64{2}))
	unweighted := rmsNorm(weightedErrs([]float64{1}, nil))
	if weighted != 2*unweighted {
		t.Errorf("weight 2 should double the single-component norm: %v vs %v", weighted, unweighted)
	}

	// Norm grows monotonically in any single component's magnitude.
	small := rmsNorm(weightedErrs([]float64{1, 1}, nil))
	big := rmsNorm(weightedErrs([]float64{1, 2}, nil))
	if big <= small {
		t.Errorf("norm not monotone: %v then %v", small, big)
	}
}
