package render

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
)

// ErrClosed is returned by Render after the user closed the display
var ErrClosed = errors.New("render: display closed")

// Frame is the whole grid of one generation as assembled on rank 0
type Frame struct {
	Generation int
	Rule       string
	Params     []rule.Param
	Glyphs     []rune
	States     [][]grid.State
	Colors     [][]int
	Owners     []int // Rank owning each row
}

// Renderer draws frames. Render is called once per generation from the
// orchestrating goroutine and Close once after the last generation.
type Renderer interface {
	Render(frame Frame) error
	Close() error
}

// Presentation tag colors
var Palette = []color.RGBA{
	{0, 0, 0, 255},
	{0, 200, 0, 255},
	{220, 0, 220, 255},
}

// Color of a presentation tag, unknown tags are white
func PaletteColor(tag int) color.RGBA {
	if tag < 0 || tag >= len(Palette) {
		return color.RGBA{255, 255, 255, 255}
	}
	return Palette[tag]
}

// Pixel color of a cell, cells in state 0 are drawn as background
func (frame *Frame) Pixel(i, j int) color.RGBA {
	if frame.States[i][j] == 0 {
		return Palette[0]
	}
	return PaletteColor(frame.Colors[i][j])
}

func (frame *Frame) Height() int { return len(frame.States) }

func (frame *Frame) Width() int {
	if len(frame.States) == 0 {
		return 0
	}
	return len(frame.States[0])
}

// Display character of a state
func (frame *Frame) Glyph(s grid.State) rune {
	if s < 0 || int(s) >= len(frame.Glyphs) {
		return '?'
	}
	return frame.Glyphs[s]
}

// Header line: generation, rule name, parameters and state legend
func (frame *Frame) Header() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "G: %d %s | ", frame.Generation, frame.Rule)
	for _, p := range frame.Params {
		fmt.Fprintf(&sb, "%s: %g | ", p.Name, p.Value)
	}
	sb.WriteString("States:")
	for i, g := range frame.Glyphs {
		fmt.Fprintf(&sb, " %d:[%c]", i, g)
	}
	return sb.String()
}

// Row line with 1-based row number and owning rank
func (frame *Frame) Line(i int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%02d|", i+1)
	for _, s := range frame.States[i] {
		sb.WriteRune(frame.Glyph(s))
	}
	fmt.Fprintf(&sb, "|T%02d", frame.Owners[i])
	return sb.String()
}

type multi []Renderer

// Multi fans frames out to several renderers, stopping at the first error
func Multi(renderers ...Renderer) Renderer {
	out := make(multi, 0, len(renderers))
	for _, r := range renderers {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Render(frame Frame) error {
	for _, r := range m {
		if err := r.Render(frame); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
