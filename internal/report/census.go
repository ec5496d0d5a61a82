package report

import (
	"fmt"

	"github.com/jrgoulet/cellular-automata-sim/internal/render"
)

// Census counts the cells of every state in each rendered generation. It is
// a render.Renderer so it can be attached next to the display.
type Census struct {
	Rule        string
	Glyphs      []rune
	Cells       int     // Cells per generation
	Generations []int   // Generation of each sample
	Counts      [][]int // Counts[k][s] is the number of cells in state s in sample k
}

func NewCensus() *Census {
	return &Census{}
}

func (c *Census) Render(frame render.Frame) error {
	if c.Rule == "" {
		c.Rule = frame.Rule
		c.Glyphs = frame.Glyphs
	}
	counts := make([]int, len(frame.Glyphs))
	cells := 0
	for _, row := range frame.States {
		for _, s := range row {
			if s < 0 || int(s) >= len(counts) {
				return fmt.Errorf("report: generation %d has unknown state %d", frame.Generation, s)
			}
			counts[s]++
			cells++
		}
	}
	c.Cells = cells
	c.Generations = append(c.Generations, frame.Generation)
	c.Counts = append(c.Counts, counts)
	return nil
}

func (c *Census) Close() error { return nil }

// Count of state s over all samples
func (c *Census) Series(s int) []float64 {
	out := make([]float64, len(c.Counts))
	for k, counts := range c.Counts {
		if s < len(counts) {
			out[k] = float64(counts[s])
		}
	}
	return out
}

// Sample k as "G: n  0:[ ]=12 1:[T]=30"
func (c *Census) Line(k int) string {
	line := fmt.Sprintf("G: %d ", c.Generations[k])
	for s, count := range c.Counts[k] {
		line += fmt.Sprintf(" %d:[%c]=%d", s, c.Glyphs[s], count)
	}
	return line
}
