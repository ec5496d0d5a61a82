package sim

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/halo"
	"github.com/jrgoulet/cellular-automata-sim/internal/neighborhood"
	"github.com/jrgoulet/cellular-automata-sim/internal/partition"
	"github.com/jrgoulet/cellular-automata-sim/internal/render"
	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
	"github.com/jrgoulet/cellular-automata-sim/internal/transport"
)

// Params of a run, identical on every rank
type Params struct {
	Generations int
	Delay       time.Duration   // Pause after each displayed generation
	Renderer    render.Renderer // Receives the assembled frames on rank 0, may be nil
	Logger      *log.Logger     // Nil discards
}

// Logger with the rank prefix used by every process of a run
func RankLogger(w io.Writer, rank int) *log.Logger {
	return log.New(w, fmt.Sprintf("[rank %02d] ", rank), log.Ltime|log.Lmicroseconds)
}

// Node runs the generations of one rank. Owned bands are only touched by
// the goroutine calling Step or Run.
type Node struct {
	ch        transport.Channel
	part      partition.Partition
	width     int
	height    int
	rule      rule.Rule
	bands     []*grid.Band
	exchanger *halo.Exchanger
	params    Params
	logger    *log.Logger

	generation int
	phase      atomic.Int32
	frame      render.Frame // Last assembled frame (rank 0 only)
}

// Create the node of ch's rank from the full initial grid. Only the rows of
// the rank's partition are kept.
func NewNode(ch transport.Channel, world [][]grid.State, r rule.Rule, params Params) (*Node, error) {
	height := len(world)
	if height == 0 || len(world[0]) == 0 {
		return nil, errors.New("sim: empty grid")
	}
	width := len(world[0])
	for y, row := range world {
		if len(row) != width {
			return nil, fmt.Errorf("sim: row %d has %d cells, want %d", y, len(row), width)
		}
	}
	if params.Generations < 1 {
		return nil, fmt.Errorf("sim: generation count %d must be at least 1", params.Generations)
	}
	logger := params.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	part := partition.New(ch.Size(), ch.Rank(), height)
	node := &Node{
		ch:         ch,
		part:       part,
		width:      width,
		height:     height,
		rule:       r,
		bands:      make([]*grid.Band, 0, part.Rows()),
		exchanger:  halo.NewExchanger(ch, part, width),
		params:     params,
		logger:     logger,
		generation: 1,
	}
	for y := part.Start; y < part.End; y++ {
		node.bands = append(node.bands, grid.NewBand(world[y]))
	}
	if part.Empty() {
		logger.Printf("Init: no rows assigned (%d ranks, %d rows)", ch.Size(), height)
	} else {
		logger.Printf("Init: rows [%d, %d) of %dx%d, top %d bottom %d",
			part.Start, part.End, width, height, part.Top, part.Bottom)
	}
	return node, nil
}

func (node *Node) setPhase(phase Phase) {
	node.phase.Store(int32(phase))
}

// Phase the node is currently in, safe to call from any goroutine
func (node *Node) Phase() Phase {
	return Phase(node.phase.Load())
}

// Generation being computed, or the last generation plus one once done
func (node *Node) CurrentGeneration() int {
	return node.generation
}

func (node *Node) Partition() partition.Partition {
	return node.part
}

// Snapshot of the i-th owned row (0 is the partition's first row)
func (node *Node) Row(i int) []grid.State {
	return node.bands[i].States()
}

// State code of a cell in the i-th owned row
func (node *Node) NodeState(i, col int) int {
	return int(node.bands[i].Get(col))
}

// Presentation tag of a cell in the i-th owned row
func (node *Node) NodeColor(i, col int) int {
	return node.bands[i].Color(col)
}

// Last frame assembled by rank 0. Other ranks return an empty frame.
func (node *Node) Frame() render.Frame {
	return node.frame
}

// Step computes one generation: exchange halos, build neighborhoods, apply
// the rule, synchronize every rank and hand the grid to rank 0 for display.
func (node *Node) Step() error {
	var timings [PhaseDone]time.Duration
	mark := time.Now()
	enter := func(phase Phase) {
		now := time.Now()
		timings[node.Phase()] = now.Sub(mark)
		mark = now
		node.setPhase(phase)
	}

	node.setPhase(PhaseExchange)
	var top, bottom *grid.Band
	if len(node.bands) != 0 {
		top, bottom = node.bands[0], node.bands[len(node.bands)-1]
	}
	h, err := node.exchanger.Exchange(top, bottom)
	if err != nil {
		return fmt.Errorf("generation %d: %w", node.generation, err)
	}

	enter(PhaseBuild)
	neighborhood.Build(node.bands, h)

	enter(PhaseApply)
	for _, band := range node.bands {
		for j := 0; j != band.Len(); j++ {
			node.rule.Apply(band.Cell(j))
		}
	}
	for _, band := range node.bands {
		band.Sync()
	}

	enter(PhaseBarrier)
	if err := transport.Barrier(node.ch); err != nil {
		return fmt.Errorf("generation %d: %w", node.generation, err)
	}

	enter(PhaseRender)
	if err := node.display(); err != nil {
		return fmt.Errorf("generation %d: %w", node.generation, err)
	}
	if node.params.Delay > 0 {
		time.Sleep(node.params.Delay)
	}

	enter(PhaseAdvance)
	node.logger.Printf("Generation %d: exchange %v build %v apply %v barrier %v render %v",
		node.generation, timings[PhaseExchange], timings[PhaseBuild], timings[PhaseApply],
		timings[PhaseBarrier], timings[PhaseRender])
	node.generation++
	return nil
}

// Run steps through every remaining generation
func (node *Node) Run() error {
	for node.generation <= node.params.Generations {
		if err := node.Step(); err != nil {
			return err
		}
	}
	node.setPhase(PhaseDone)
	node.logger.Printf("Done: %d generations", node.params.Generations)
	return nil
}

// Send every owned row to rank 0 as states followed by colors. Rank 0
// assembles the frame in row order and renders it.
func (node *Node) display() error {
	if node.ch.Rank() != 0 {
		for _, band := range node.bands {
			if err := node.ch.Send(0, append(band.Ints(), band.Colors()...), transport.TagDisplay); err != nil {
				return fmt.Errorf("send display row: %w", err)
			}
		}
		return nil
	}

	frame := render.Frame{
		Generation: node.generation,
		Rule:       node.rule.Name(),
		Params:     node.rule.Params(),
		Glyphs:     node.rule.Glyphs(),
		States:     make([][]grid.State, 0, node.height),
		Colors:     make([][]int, 0, node.height),
		Owners:     make([]int, 0, node.height),
	}
	for _, band := range node.bands {
		frame.States = append(frame.States, band.States())
		frame.Colors = append(frame.Colors, band.Colors())
		frame.Owners = append(frame.Owners, 0)
	}
	for source := 1; source < partition.Workers(node.ch.Size(), node.height); source++ {
		rows := partition.New(node.ch.Size(), source, node.height).Rows()
		for k := 0; k != rows; k++ {
			received, err := node.ch.Recv(source, 2*node.width, transport.TagDisplay)
			if err != nil {
				return fmt.Errorf("receive display row from rank %d: %w", source, err)
			}
			states := make([]grid.State, node.width)
			for j := range states {
				states[j] = grid.State(received[j])
			}
			frame.States = append(frame.States, states)
			frame.Colors = append(frame.Colors, received[node.width:])
			frame.Owners = append(frame.Owners, source)
		}
	}
	node.frame = frame
	if node.params.Renderer != nil {
		return node.params.Renderer.Render(frame)
	}
	return nil
}
