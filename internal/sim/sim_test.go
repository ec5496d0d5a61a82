package sim

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/partition"
	"github.com/jrgoulet/cellular-automata-sim/internal/render"
	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
	"github.com/jrgoulet/cellular-automata-sim/internal/transport"
)

// Build a grid from rows of '.' (0), 'o' or 'T' (1) and 'X' (2)
func world(rows ...string) [][]grid.State {
	out := make([][]grid.State, len(rows))
	for i, row := range rows {
		out[i] = make([]grid.State, len(row))
		for j, ch := range row {
			switch ch {
			case 'o', 'T':
				out[i][j] = 1
			case 'X':
				out[i][j] = 2
			}
		}
	}
	return out
}

func randomWorld(width, height int, seed int64) [][]grid.State {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]grid.State, height)
	for i := range out {
		out[i] = make([]grid.State, width)
		for j := range out[i] {
			if rng.Intn(3) == 0 {
				out[i][j] = 1
			}
		}
	}
	return out
}

func life(int) rule.Rule { return rule.NewConway(2, 3, 3) }

func equalGrid(a, b [][]grid.State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestBlockStillLife(t *testing.T) {
	block := world(
		"........",
		"........",
		"........",
		"...oo...",
		"...oo...",
		"........",
		"........",
		"........",
	)
	for _, size := range []int{1, 2, 3, 4, 8} {
		frame, err := RunLocal(block, size, life, Params{Generations: 5})
		if err != nil {
			t.Fatalf("%d ranks: %v", size, err)
		}
		if frame.Generation != 5 {
			t.Errorf("%d ranks: last frame is generation %d", size, frame.Generation)
		}
		if !equalGrid(frame.States, block) {
			t.Errorf("%d ranks: block changed to %v", size, frame.States)
		}
	}
}

// Splitting the grid over any number of ranks gives the single rank result
func TestDistributedMatchesSingleRank(t *testing.T) {
	start := randomWorld(12, 10, 1)
	want, err := RunLocal(start, 1, life, Params{Generations: 20})
	if err != nil {
		t.Fatal(err)
	}
	for size := 2; size <= 14; size++ {
		got, err := RunLocal(start, size, life, Params{Generations: 20})
		if err != nil {
			t.Fatalf("%d ranks: %v", size, err)
		}
		if !equalGrid(got.States, want.States) {
			t.Errorf("%d ranks: grid differs from single rank run", size)
		}
	}
}

// Ranks as separate TCP endpoints on loopback, each closing its endpoint as
// soon as its own run ends
func TestTCPMatchesSingleRank(t *testing.T) {
	start := randomWorld(9, 11, 5)
	want, err := RunLocal(start, 1, life, Params{Generations: 15})
	if err != nil {
		t.Fatal(err)
	}
	for _, size := range []int{2, 3, 5, 12} {
		listeners := make([]net.Listener, size)
		peers := make([]string, size)
		for rank := range listeners {
			listener, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatal(err)
			}
			listeners[rank] = listener
			peers[rank] = listener.Addr().String()
		}
		rec := &recorder{}
		nodes := make([]*Node, size)
		errs := make([]error, size)
		var wg sync.WaitGroup
		for rank := range nodes {
			endpoint := transport.NewTCP(rank, listeners[rank], peers, nil)
			params := Params{Generations: 15}
			if rank == 0 {
				params.Renderer = rec
			}
			node, err := NewNode(endpoint, start, life(rank), params)
			if err != nil {
				t.Fatal(err)
			}
			nodes[rank] = node
			wg.Add(1)
			go func(rank int) {
				defer wg.Done()
				defer endpoint.Close()
				errs[rank] = node.Run()
			}(rank)
		}
		wg.Wait()
		for rank, err := range errs {
			if err != nil {
				t.Fatalf("%d ranks, rank %d: %v", size, rank, err)
			}
		}
		if len(rec.generations) != 15 {
			t.Errorf("%d ranks: rendered %d generations", size, len(rec.generations))
		}
		if !equalGrid(nodes[0].Frame().States, want.States) {
			t.Errorf("%d ranks: grid differs from single rank run", size)
		}
	}
}

func TestOnlyRankZeroDisplays(t *testing.T) {
	params := Params{Generations: 3, Delay: time.Second, Renderer: &recorder{}}
	root := rankParams(params, 0, io.Discard)
	if root.Delay != time.Second || root.Renderer == nil || root.Logger == nil {
		t.Errorf("rank 0 lost its display parameters: %+v", root)
	}
	for rank := 1; rank != 4; rank++ {
		p := rankParams(params, rank, io.Discard)
		if p.Delay != 0 || p.Renderer != nil || p.Generations != 3 {
			t.Errorf("rank %d: %+v", rank, p)
		}
	}
}

func TestFireSpreadsAcrossPartitions(t *testing.T) {
	start := world(
		"TTTTT",
		"TTTTT",
		"TTXTT",
		"TTTTT",
		"TTTTT",
		"TTTTT",
	)
	fire := func(rank int) rule.Rule {
		return rule.NewForestFire(0, 0, rule.NewTosser(int64(rank)))
	}
	expect := map[int][]string{
		1: {"TTTTT", "TXXXT", "TX.XT", "TXXXT", "TTTTT", "TTTTT"},
		2: {"XXXXX", "X...X", "X...X", "X...X", "XXXXX", "TTTTT"},
		3: {".....", ".....", ".....", ".....", ".....", "XXXXX"},
		4: {".....", ".....", ".....", ".....", ".....", "....."},
	}
	for _, size := range []int{1, 2, 3, 6, 7} {
		for generations, rows := range expect {
			frame, err := RunLocal(start, size, fire, Params{Generations: generations})
			if err != nil {
				t.Fatalf("%d ranks: %v", size, err)
			}
			if want := world(rows...); !equalGrid(frame.States, want) {
				t.Errorf("%d ranks, generation %d: got %v, want %v", size, generations, frame.States, want)
			}
		}
	}
}

func TestFrameOwnersAndColors(t *testing.T) {
	start := randomWorld(6, 14, 2)
	frame, err := RunLocal(start, 4, life, Params{Generations: 1})
	if err != nil {
		t.Fatal(err)
	}
	if frame.Height() != 14 || frame.Width() != 6 {
		t.Fatalf("frame is %dx%d", frame.Width(), frame.Height())
	}
	for y := 0; y != 14; y++ {
		if want := partition.Owner(4, 14, y); frame.Owners[y] != want {
			t.Errorf("row %d owned by %d, want %d", y, frame.Owners[y], want)
		}
		for x := 0; x != 6; x++ {
			// Conway tags always follow the state
			if frame.Colors[y][x] != int(frame.States[y][x]) {
				t.Errorf("cell (%d,%d) state %d color %d", y, x, frame.States[y][x], frame.Colors[y][x])
			}
		}
	}
	if frame.Rule != "Conway's Game of Life" || len(frame.Glyphs) != 2 || len(frame.Params) != 3 {
		t.Errorf("unexpected rule description %q %q %v", frame.Rule, frame.Glyphs, frame.Params)
	}
}

type recorder struct {
	generations []int
	failAt      int
	closed      bool
}

func (r *recorder) Render(frame render.Frame) error {
	r.generations = append(r.generations, frame.Generation)
	if frame.Generation == r.failAt {
		return render.ErrClosed
	}
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestRendererSeesEveryGeneration(t *testing.T) {
	rec := &recorder{}
	_, err := RunLocal(randomWorld(5, 5, 3), 3, life, Params{Generations: 7, Renderer: rec})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(rec.generations) != "[1 2 3 4 5 6 7]" {
		t.Fatalf("rendered generations %v", rec.generations)
	}
}

func TestRendererErrorStopsEveryRank(t *testing.T) {
	rec := &recorder{failAt: 2}
	_, err := RunLocal(randomWorld(5, 9, 4), 4, life, Params{Generations: 50, Renderer: rec})
	if !errors.Is(err, render.ErrClosed) {
		t.Fatalf("got %v, want render.ErrClosed", err)
	}
	if len(rec.generations) != 2 {
		t.Errorf("rendered %v after failure", rec.generations)
	}
}

func TestNodeAccessors(t *testing.T) {
	start := world(
		".....",
		".ooo.",
		".....",
	)
	endpoints := transport.NewLocal(1)
	defer endpoints[0].Close()
	node, err := NewNode(endpoints[0], start, rule.NewConway(2, 3, 3), Params{Generations: 2})
	if err != nil {
		t.Fatal(err)
	}
	if node.CurrentGeneration() != 1 || node.Phase() != PhaseExchange {
		t.Fatalf("fresh node at generation %d phase %v", node.CurrentGeneration(), node.Phase())
	}
	if err := node.Step(); err != nil {
		t.Fatal(err)
	}
	// Blinker turns vertical
	if node.NodeState(0, 2) != 1 || node.NodeState(1, 1) != 0 || node.NodeState(2, 2) != 1 {
		t.Errorf("unexpected grid after one step: %v %v %v", node.Row(0), node.Row(1), node.Row(2))
	}
	if node.NodeColor(0, 2) != 1 || node.NodeColor(1, 1) != 0 {
		t.Error("colors do not follow births and deaths")
	}
	if node.CurrentGeneration() != 2 || node.Phase() != PhaseAdvance {
		t.Errorf("after one step: generation %d phase %v", node.CurrentGeneration(), node.Phase())
	}
	if err := node.Run(); err != nil {
		t.Fatal(err)
	}
	if node.Phase() != PhaseDone || node.CurrentGeneration() != 3 {
		t.Errorf("after run: generation %d phase %v", node.CurrentGeneration(), node.Phase())
	}
	if !equalGrid(node.Frame().States, start) {
		t.Errorf("blinker did not return after two steps: %v", node.Frame().States)
	}
}

func TestNewNodeRejectsBadInput(t *testing.T) {
	endpoints := transport.NewLocal(1)
	defer endpoints[0].Close()
	cases := []struct {
		name   string
		world  [][]grid.State
		params Params
	}{
		{"empty", nil, Params{Generations: 1}},
		{"ragged", [][]grid.State{{0, 0}, {0}}, Params{Generations: 1}},
		{"no generations", world("..", ".."), Params{}},
	}
	for _, c := range cases {
		if _, err := NewNode(endpoints[0], c.world, life(0), c.params); err == nil {
			t.Errorf("%s: accepted", c.name)
		}
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseBarrier.String() != "barrier" || Phase(42).String() != "phase(42)" {
		t.Fatal("unexpected phase names")
	}
}
