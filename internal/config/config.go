package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
)

// Argument validation messages
const (
	ErrorArgCount    = "Improper argument count"
	ErrorGenerations = "Generation count must be at least 1"
	ErrorIgnition    = "Ignition probability must be between 0 and 1"
	ErrorGrowth      = "Growth probability must be between 0 and 1"
	ErrorWidth       = "Width must be at least 5"
	ErrorHeight      = "Height must be at least 5"
	ErrorDensity     = "Density must be between 0 and 1"
	ErrorArgTypes    = "Improper argument types"
	ErrorFile        = "An error occurred while accessing the input file."
)

// Environment variables read when the matching flag is not given
const (
	EnvPeers = "FOREST_PEERS"
	EnvRank  = "FOREST_RANK"
)

// ErrUsage is wrapped by every configuration error that should be followed by the usage text
var ErrUsage = errors.New("config: invalid arguments")

// UsageError carries one validation message
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func (e *UsageError) Unwrap() error { return ErrUsage }

func usageError(message string) error {
	return &UsageError{Message: message}
}

// Renderer names accepted by -render
const (
	RenderText = "text"
	RenderTerm = "term"
	RenderSDL  = "sdl"
	RenderNone = "none"
)

// Config is the validated command line of one process
type Config struct {
	MapFile     string
	Generations int
	Rule        rule.Kind
	Ignition    float64
	Growth      float64
	Under       int
	Over        int
	Birth       int

	// Map generation, only when GenerateMap is set
	GenerateMap bool
	Width       int
	Height      int
	Density     float64

	Seed  int64 // 0 selects a time based seed
	Local int   // Number of in-process ranks, unused with Peers
	Rank  int
	Peers []string

	Render string
	Delay  time.Duration
	Chart  string
	Video  string
	Log    string
	Quiet  bool
}

func newFlagSet(name string, cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.MapFile, "map", "", "map `file` to read, or to write when generating")
	fs.IntVar(&cfg.Generations, "generations", 100, "number of generations")
	fs.Func("rule", "rule: forest-fire or conway (default forest-fire)", func(s string) error {
		cfg.Rule = rule.Kind(s)
		return nil
	})
	fs.Float64Var(&cfg.Ignition, "ignition", 0.0001, "forest fire ignition probability")
	fs.Float64Var(&cfg.Growth, "growth", 0.001, "forest fire growth probability")
	fs.IntVar(&cfg.Under, "under", 2, "conway under-population threshold")
	fs.IntVar(&cfg.Over, "over", 3, "conway over-population threshold")
	fs.IntVar(&cfg.Birth, "birth", 3, "conway reproduction threshold")
	fs.IntVar(&cfg.Width, "width", 0, "width of a generated map")
	fs.IntVar(&cfg.Height, "height", 0, "height of a generated map")
	fs.Float64Var(&cfg.Density, "density", 0, "fuel density of a generated map")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 for a time based seed")
	fs.IntVar(&cfg.Local, "local", 0, "run this many ranks as goroutines in one process")
	fs.IntVar(&cfg.Rank, "rank", 0, "rank of this process (env "+EnvRank+")")
	fs.Func("peers", "comma separated `addresses` of every rank (env "+EnvPeers+")", func(s string) error {
		cfg.Peers = splitPeers(s)
		return nil
	})
	fs.StringVar(&cfg.Render, "render", RenderText, "display: text, term, sdl or none")
	fs.DurationVar(&cfg.Delay, "delay", 40*time.Millisecond, "pause after each displayed generation")
	fs.StringVar(&cfg.Chart, "chart", "", "write a population chart PNG to `file`")
	fs.StringVar(&cfg.Video, "video", "", "record the run as an MJPEG AVI to `file`")
	fs.StringVar(&cfg.Log, "log", "", "write the log to `file` instead of stderr")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "discard the log")
	return fs
}

func splitPeers(s string) []string {
	var peers []string
	for _, peer := range strings.Split(s, ",") {
		if peer = strings.TrimSpace(peer); peer != "" {
			peers = append(peers, peer)
		}
	}
	return peers
}

// Parse and validate the command line. getenv supplies the environment
// fallbacks, os.Getenv when nil.
func Parse(name string, args []string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := &Config{Rule: rule.KindForestFire}
	fs := newFlagSet(name, cfg)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, usageError("")
		}
		return nil, usageError(ErrorArgTypes + ": " + err.Error())
	}
	if fs.NArg() != 0 {
		return nil, usageError(ErrorArgCount)
	}

	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })
	cfg.GenerateMap = given["width"] || given["height"] || given["density"]
	if !given["peers"] {
		cfg.Peers = splitPeers(getenv(EnvPeers))
	}
	if !given["rank"] {
		if env := getenv(EnvRank); env != "" {
			rank, err := strconv.Atoi(env)
			if err != nil {
				return nil, usageError(fmt.Sprintf("%s: %s=%q", ErrorArgTypes, EnvRank, env))
			}
			cfg.Rank = rank
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg, nil
}

// Validate checks every field in the order the messages are documented
func (cfg *Config) Validate() error {
	if cfg.MapFile == "" {
		return usageError(ErrorArgCount)
	}
	if cfg.Generations < 1 {
		return usageError(ErrorGenerations)
	}
	switch cfg.Rule {
	case rule.KindForestFire:
		if cfg.Ignition < 0 || cfg.Ignition > 1 {
			return usageError(ErrorIgnition)
		}
		if cfg.Growth < 0 || cfg.Growth > 1 {
			return usageError(ErrorGrowth)
		}
	case rule.KindConway:
		for _, threshold := range []int{cfg.Under, cfg.Over, cfg.Birth} {
			if threshold < 0 || threshold > 8 {
				return usageError("Conway thresholds must be between 0 and 8")
			}
		}
	default:
		return usageError(fmt.Sprintf("Unknown rule %q", cfg.Rule))
	}
	if cfg.GenerateMap {
		if cfg.Width < 5 {
			return usageError(ErrorWidth)
		}
		if cfg.Height < 5 {
			return usageError(ErrorHeight)
		}
		if cfg.Density < 0 || cfg.Density > 1 {
			return usageError(ErrorDensity)
		}
	}
	if len(cfg.Peers) != 0 {
		if cfg.Local != 0 {
			return usageError("Use either -local or -peers")
		}
		if cfg.Rank < 0 || cfg.Rank >= len(cfg.Peers) {
			return usageError(fmt.Sprintf("Rank must be between 0 and %d", len(cfg.Peers)-1))
		}
	} else if cfg.Local < 0 {
		return usageError("Local rank count must be at least 1")
	} else if cfg.Rank != 0 {
		return usageError("A rank other than 0 needs -peers")
	}
	switch cfg.Render {
	case RenderText, RenderTerm, RenderSDL, RenderNone:
	default:
		return usageError(fmt.Sprintf("Unknown renderer %q", cfg.Render))
	}
	if cfg.Delay < 0 {
		return usageError("Delay must not be negative")
	}
	return nil
}

// Number of ranks taking part in the run
func (cfg *Config) Ranks() int {
	if len(cfg.Peers) != 0 {
		return len(cfg.Peers)
	}
	return max(cfg.Local, 1)
}

// Whether ranks are connected over TCP
func (cfg *Config) Distributed() bool {
	return len(cfg.Peers) != 0
}

// Parameters handed to rule.New
func (cfg *Config) RuleParams() map[string]float64 {
	return map[string]float64{
		rule.ParamIgnition: cfg.Ignition,
		rule.ParamGrowth:   cfg.Growth,
		rule.ParamUnder:    float64(cfg.Under),
		rule.ParamOver:     float64(cfg.Over),
		rule.ParamBirth:    float64(cfg.Birth),
	}
}

// Usage prints the message of err, if any, followed by the usage text
func Usage(w io.Writer, name string, err error) {
	var usage *UsageError
	if errors.As(err, &usage) && usage.Message != "" {
		fmt.Fprintln(w, usage.Message)
	}
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "Mode 1: %s -map FILE -generations N [-ignition P] [-growth G]\n", name)
	fmt.Fprintf(w, "Mode 2: %s -map FILE -generations N [-ignition P] [-growth G] -width W -height H -density D\n", name)
	fs := newFlagSet(name, &Config{})
	fs.SetOutput(w)
	fs.PrintDefaults()
}
