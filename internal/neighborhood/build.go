package neighborhood

import (
	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/halo"
)

// Build fills the neighbor array of every owned cell. Rows above the first
// owned band come from h.Top, rows below the last from h.Bottom; a nil halo
// band or a column outside the grid yields grid.OutOfBounds.
func Build(bands []*grid.Band, h halo.Halo) {
	for i, band := range bands {
		above := h.Top
		if i > 0 {
			above = bands[i-1]
		}
		below := h.Bottom
		if i < len(bands)-1 {
			below = bands[i+1]
		}
		for j := 0; j != band.Len(); j++ {
			fill(band.Cell(j), above, band, below, j)
		}
	}
}

// Get positions of eight surrounding cells from the row above, the cell's own row and the row below
func fill(cell *grid.Cell, above, row, below *grid.Band, j int) {
	for _, d := range grid.Directions {
		var source *grid.Band
		switch d.DY() {
		case -1:
			source = above
		case 0:
			source = row
		case 1:
			source = below
		}
		cell.Neighbors[d] = at(source, j+d.DX())
	}
}

// State of column j in band, OutOfBounds when either is outside the grid
func at(band *grid.Band, j int) grid.State {
	if band == nil || j < 0 || j >= band.Len() {
		return grid.OutOfBounds
	}
	return band.Get(j)
}
