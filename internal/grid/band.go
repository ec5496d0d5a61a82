package grid

// Band is one grid row. Owned bands live for the whole run on the rank that
// owns them; imported bands are rebuilt from a received boundary row every
// generation and dropped once neighborhoods are assembled.
type Band struct {
	cells    []Cell
	snapshot []State // States as of the last Sync, read by transmission and display
}

// Make band from state codes, color of each cell starts equal to its state
func NewBand(states []State) *Band {
	band := &Band{
		cells:    make([]Cell, len(states)),
		snapshot: make([]State, len(states)),
	}
	for j, s := range states {
		band.cells[j] = Cell{State: s, Color: int(s)}
	}
	copy(band.snapshot, states)
	return band
}

// Make band from a received payload of integer codes
func BandFromInts(values []int) *Band {
	states := make([]State, len(values))
	for j, v := range values {
		states[j] = State(v)
	}
	return NewBand(states)
}

// Width of the band (grid width)
func (band *Band) Len() int {
	return len(band.cells)
}

// Cell returns a pointer to the cell at column j
func (band *Band) Cell(j int) *Cell {
	return &band.cells[j]
}

// Get returns the snapshot state at column j
func (band *Band) Get(j int) State {
	return band.snapshot[j]
}

// Color returns the live presentation tag at column j
func (band *Band) Color(j int) int {
	return band.cells[j].Color
}

// States returns a copy of the snapshot
func (band *Band) States() []State {
	out := make([]State, len(band.snapshot))
	copy(out, band.snapshot)
	return out
}

// Ints returns the snapshot as integer codes for transmission
func (band *Band) Ints() []int {
	out := make([]int, len(band.snapshot))
	for j, s := range band.snapshot {
		out[j] = int(s)
	}
	return out
}

// Colors returns the presentation tags of every cell
func (band *Band) Colors() []int {
	out := make([]int, len(band.cells))
	for j := range band.cells {
		out[j] = band.cells[j].Color
	}
	return out
}

// Sync refreshes the snapshot from the live cell states
func (band *Band) Sync() {
	for j := range band.cells {
		band.snapshot[j] = band.cells[j].State
	}
}
