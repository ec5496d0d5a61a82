package sim

import "fmt"

// Phase is the step of a generation a node is currently in
type Phase int32

// Phases in the order a generation passes through them
const (
	PhaseExchange Phase = iota
	PhaseBuild
	PhaseApply
	PhaseBarrier
	PhaseRender
	PhaseAdvance
	PhaseDone
)

var phaseNames = [...]string{"exchange", "build", "apply", "barrier", "render", "advance", "done"}

func (phase Phase) String() string {
	if phase < 0 || int(phase) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int32(phase))
	}
	return phaseNames[phase]
}
