package rule

import (
	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
)

// Conway is the Game of Life with adjustable thresholds
type Conway struct {
	Under int // Live cells with fewer live neighbors die
	Over  int // Live cells with more live neighbors die
	Birth int // Dead cells with exactly this many live neighbors are born
}

func NewConway(under, over, birth int) *Conway {
	return &Conway{Under: under, Over: over, Birth: birth}
}

func (c *Conway) Name() string { return "Conway's Game of Life" }

func (c *Conway) Params() []Param {
	return []Param{
		{"Under-Population", float64(c.Under)},
		{"Over-Population", float64(c.Over)},
		{"Reproduction", float64(c.Birth)},
	}
}

func (c *Conway) Glyphs() []rune { return []rune{' ', 'o'} }

func (c *Conway) Apply(cell *grid.Cell) {
	alive := cell.Neighbors.Count(grid.Alive)
	if cell.State == grid.Alive {
		if alive < c.Under || alive > c.Over {
			cell.State, cell.Color = grid.Dead, 0
		}
	} else if alive == c.Birth {
		cell.State, cell.Color = grid.Alive, 1
	}
}
