package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/jrgoulet/cellular-automata-sim/internal/config"
	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/render"
	"github.com/jrgoulet/cellular-automata-sim/internal/render/sdl"
	"github.com/jrgoulet/cellular-automata-sim/internal/render/term"
	"github.com/jrgoulet/cellular-automata-sim/internal/report"
	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
	"github.com/jrgoulet/cellular-automata-sim/internal/sim"
	"github.com/jrgoulet/cellular-automata-sim/internal/transport"
)

const name = "forest"

// Pixels per cell in the SDL window
const windowCellSize = 6

func init() {
	// SDL calls must come from the main OS thread
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Parse(name, os.Args[1:], nil)
	if err != nil {
		if rank := os.Getenv(config.EnvRank); rank == "" || rank == "0" {
			config.Usage(os.Stderr, name, err)
		}
		os.Exit(2)
	}

	var output io.Writer = os.Stderr
	switch {
	case cfg.Quiet:
		output = io.Discard
	case cfg.Log != "":
		file, err := os.Create(cfg.Log)
		if err != nil {
			log.Fatalf("Cannot open log file: %v", err)
		}
		defer file.Close()
		output = file
	case cfg.Render == config.RenderTerm:
		// Log lines would tear the terminal display
		output = io.Discard
	}
	logger := sim.RankLogger(output, cfg.Rank)

	if err := run(cfg, logger); err != nil {
		if errors.Is(err, render.ErrClosed) {
			logger.Print("Display closed, stopping")
			return
		}
		logger.Printf("Run failed: %v", err)
		log.New(os.Stderr, logger.Prefix(), logger.Flags()).Fatalf("Run failed: %v", err)
	}
}

// Outputs of rank 0
type outputs struct {
	renderer render.Renderer
	window   *sdl.Window
	census   *report.Census
}

func openOutputs(cfg *config.Config, width, height int) (*outputs, error) {
	out := &outputs{census: report.NewCensus()}
	renderers := []render.Renderer{out.census}
	switch cfg.Render {
	case config.RenderText:
		renderers = append(renderers, render.NewText(os.Stdout))
	case config.RenderTerm:
		renderers = append(renderers, term.New())
	case config.RenderSDL:
		window, err := sdl.New(width, height, windowCellSize)
		if err != nil {
			return nil, err
		}
		out.window = window
		renderers = append(renderers, window)
	}
	if cfg.Video != "" {
		recorder, err := report.NewRecorder(cfg.Video, width, height)
		if err != nil {
			return nil, err
		}
		renderers = append(renderers, recorder)
	}
	out.renderer = render.Multi(renderers...)
	return out, nil
}

// Finish the outputs of rank 0 after the last generation
func (out *outputs) close(cfg *config.Config, logger *log.Logger, complete bool) error {
	if err := out.renderer.Close(); err != nil {
		return err
	}
	if !complete {
		return nil
	}
	if n := len(out.census.Generations); n != 0 {
		logger.Print("Census ", out.census.Line(n-1))
	}
	if cfg.Chart != "" {
		if err := report.SaveChart(cfg.Chart, out.census); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		logger.Printf("Chart written to %s", cfg.Chart)
	}
	return nil
}

// Read the initial grid. With map generation rank 0 writes the map first and
// then tells every other rank it can be read.
func loadWorld(cfg *config.Config, ch transport.Channel, tosser *rule.Tosser) ([][]grid.State, error) {
	if cfg.GenerateMap {
		if ch == nil || ch.Rank() == 0 {
			world := config.GenerateMap(cfg.Width, cfg.Height, cfg.Density, tosser)
			if err := config.WriteMap(cfg.MapFile, world, cfg.Rule); err != nil {
				return nil, err
			}
		}
		if ch != nil {
			if _, err := transport.Broadcast(ch, 0, []int{0}, 1, transport.TagSetup); err != nil {
				return nil, fmt.Errorf("wait for generated map: %w", err)
			}
		}
	}
	return config.ReadMap(cfg.MapFile, cfg.Rule)
}

func run(cfg *config.Config, logger *log.Logger) error {
	logger.Printf("Init: %s, %d generations, %d ranks, seed %d", cfg.Rule, cfg.Generations, cfg.Ranks(), cfg.Seed)

	var ch transport.Channel
	if cfg.Distributed() {
		endpoint, err := transport.ListenTCP(cfg.Rank, cfg.Peers, logger)
		if err != nil {
			return err
		}
		defer endpoint.Close()
		ch = endpoint
	}

	tossers := make([]*rule.Tosser, cfg.Ranks())
	for rank := range tossers {
		tossers[rank] = rule.NewTosser(cfg.Seed + int64(rank))
	}
	world, err := loadWorld(cfg, ch, tossers[cfg.Rank])
	if err != nil {
		return err
	}
	newRule := func(rank int) rule.Rule {
		r, err := rule.New(cfg.Rule, cfg.RuleParams(), tossers[rank])
		if err != nil {
			// Kind was validated with the rest of the configuration
			panic(err)
		}
		return r
	}

	params := sim.Params{Generations: cfg.Generations, Delay: cfg.Delay, Logger: logger}
	var out *outputs
	if ch == nil || ch.Rank() == 0 {
		out, err = openOutputs(cfg, len(world[0]), len(world))
		if err != nil {
			return err
		}
		params.Renderer = out.renderer
	}
	if cfg.Render == config.RenderNone || (ch != nil && ch.Rank() != 0) {
		// Nothing is displayed by this process
		params.Delay = 0
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		if ch == nil {
			_, runErr = sim.RunLocal(world, cfg.Ranks(), newRule, params)
		} else if node, err := sim.NewNode(ch, world, newRule(cfg.Rank), params); err != nil {
			runErr = err
		} else {
			runErr = node.Run()
		}
		if out != nil {
			// The renderer is closed on failure too, so that the terminal is restored
			if err := out.close(cfg, logger, runErr == nil); runErr == nil {
				runErr = err
			}
		}
	}()
	if out != nil && out.window != nil {
		out.window.Loop(60, done)
	}
	<-done
	return runErr
}
