package rule

import (
	"fmt"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
)

// Rule is a per-cell transition. Apply reads the cell's state and its
// assembled neighbors and writes the next state and presentation tag.
// The neighbor array is never modified.
type Rule interface {
	Name() string
	Apply(cell *grid.Cell)
	// Adjustable parameters, in display order
	Params() []Param
	// Display character of each state code
	Glyphs() []rune
}

// Param is a named rule parameter
type Param struct {
	Name  string
	Value float64
}

// Kind selects a rule variant
type Kind string

const (
	KindForestFire Kind = "forest-fire"
	KindConway     Kind = "conway"
)

// Parameter names accepted by New
const (
	ParamIgnition = "ignition"
	ParamGrowth   = "growth"
	ParamUnder    = "under"
	ParamOver     = "over"
	ParamBirth    = "birth"
)

// Construct the rule of a run. Missing Conway thresholds default to 2, 3 and 3.
func New(kind Kind, params map[string]float64, tosser *Tosser) (Rule, error) {
	switch kind {
	case KindForestFire:
		if tosser == nil {
			return nil, fmt.Errorf("rule %s needs a random source", kind)
		}
		return NewForestFire(params[ParamIgnition], params[ParamGrowth], tosser), nil
	case KindConway:
		get := func(name string, fallback int) int {
			if v, ok := params[name]; ok {
				return int(v)
			}
			return fallback
		}
		return NewConway(get(ParamUnder, 2), get(ParamOver, 3), get(ParamBirth, 3)), nil
	}
	return nil, fmt.Errorf("unknown rule %q", kind)
}
