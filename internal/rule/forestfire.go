package rule

import (
	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
)

// ForestFire burns fuel that touches fire, ignites fuel spontaneously with
// probability Ignition and regrows empty ground with probability
// Growth * (fuel neighbors + 1).
type ForestFire struct {
	Ignition float64
	Growth   float64
	tosser   *Tosser
}

func NewForestFire(ignition, growth float64, tosser *Tosser) *ForestFire {
	return &ForestFire{Ignition: ignition, Growth: growth, tosser: tosser}
}

func (f *ForestFire) Name() string { return "Forest Fire" }

func (f *ForestFire) Params() []Param {
	return []Param{{"Ignition", f.Ignition}, {"Growth", f.Growth}}
}

func (f *ForestFire) Glyphs() []rune { return []rune{' ', 'T', 'X'} }

func (f *ForestFire) Apply(cell *grid.Cell) {
	switch cell.State {
	case grid.Burning:
		cell.State, cell.Color = grid.Empty, 1
	case grid.Fuel:
		// Contact ignition is certain and takes priority over the random trial
		if cell.Neighbors.Any(grid.Burning) || f.tosser.Toss(f.Ignition) {
			cell.State, cell.Color = grid.Burning, 2
		}
	case grid.Empty:
		density := cell.Neighbors.Count(grid.Fuel)
		if f.tosser.Toss(f.Growth * float64(density+1)) {
			cell.State, cell.Color = grid.Fuel, 1
		}
	}
}
