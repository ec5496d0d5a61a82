package sim

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/render"
	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
	"github.com/jrgoulet/cellular-automata-sim/internal/transport"
)

// RunLocal runs size ranks as goroutines connected by an in-process mesh and
// returns the last frame assembled by rank 0. newRule is called once per rank
// so that every rank owns its own random source. The first failing rank
// closes the mesh, which unblocks and fails every other rank.
func RunLocal(world [][]grid.State, size int, newRule func(rank int) rule.Rule, params Params) (render.Frame, error) {
	if size < 1 {
		return render.Frame{}, fmt.Errorf("sim: rank count %d must be at least 1", size)
	}
	endpoints := transport.NewLocal(size)
	var output io.Writer = io.Discard
	if params.Logger != nil {
		output = params.Logger.Writer()
	}

	nodes := make([]*Node, size)
	for rank, ch := range endpoints {
		node, err := NewNode(ch, world, newRule(rank), rankParams(params, rank, output))
		if err != nil {
			return render.Frame{}, err
		}
		nodes[rank] = node
	}

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			for _, ch := range endpoints {
				ch.Close()
			}
		})
	}
	errs := make([]error, size)
	var wg sync.WaitGroup
	for rank, node := range nodes {
		wg.Add(1)
		go func(rank int, node *Node) {
			defer wg.Done()
			if err := node.Run(); err != nil {
				errs[rank] = fmt.Errorf("rank %d: %w", rank, err)
				shutdown()
			}
		}(rank, node)
	}
	wg.Wait()
	shutdown()

	// Report the root cause rather than the ranks woken by the shutdown
	for _, err := range errs {
		if err != nil && !errors.Is(err, transport.ErrClosed) {
			return nodes[0].Frame(), err
		}
	}
	return nodes[0].Frame(), errors.Join(errs...)
}

// Parameters of one goroutine rank. Only rank 0 displays, so only rank 0
// keeps the renderer and the delay.
func rankParams(params Params, rank int, output io.Writer) Params {
	p := params
	p.Logger = RankLogger(output, rank)
	if rank != 0 {
		p.Renderer = nil
		p.Delay = 0
	}
	return p
}
