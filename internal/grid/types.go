// Definitions of cell, neighborhood and band types shared by every rank

package grid

// State is the integer code of a single automaton cell
type State int

// Forest fire states
const (
	Empty   State = 0
	Fuel    State = 1
	Burning State = 2
)

// Conway states
const (
	Dead  State = 0
	Alive State = 1
)

// OutOfBounds marks a neighbor position outside the grid. It is never a valid cell state.
const OutOfBounds State = 3

// Direction indexes the eight neighbors of a cell, top-left to bottom-right
type Direction int

const (
	NW Direction = iota
	N
	NE
	W
	E
	SW
	S
	SE
)

// Directions lists every neighbor position in storage order
var Directions = [8]Direction{NW, N, NE, W, E, SW, S, SE}

var directionNames = [8]string{"NW", "N", "NE", "W", "E", "SW", "S", "SE"}

func (d Direction) String() string {
	if d < NW || d > SE {
		return "Direction(?)"
	}
	return directionNames[d]
}

// Column offset of a direction relative to the cell (-1, 0 or +1)
func (d Direction) DX() int {
	switch d {
	case NW, W, SW:
		return -1
	case NE, E, SE:
		return 1
	}
	return 0
}

// Row offset of a direction relative to the cell (-1, 0 or +1)
func (d Direction) DY() int {
	switch d {
	case NW, N, NE:
		return -1
	case SW, S, SE:
		return 1
	}
	return 0
}

// Neighborhood holds the assembled states of the eight surrounding cells
type Neighborhood [8]State

// Count returns how many neighbors are in state s
func (n *Neighborhood) Count(s State) int {
	count := 0
	for _, v := range n {
		if v == s {
			count++
		}
	}
	return count
}

// Any reports whether at least one neighbor is in state s
func (n *Neighborhood) Any(s State) bool {
	for _, v := range n {
		if v == s {
			return true
		}
	}
	return false
}

// Cell is one automaton state plus its neighbors. Neighbors is only valid
// between neighborhood assembly and rule application of the same generation.
type Cell struct {
	State     State
	Neighbors Neighborhood
	Color     int // Presentation tag, never read by rules
}
