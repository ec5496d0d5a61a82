package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
)

// Map file errors
var (
	ErrEmptyMap = errors.New("config: map has no cells")
)

// State code of a map character
func decode(kind rule.Kind, ch rune) grid.State {
	switch {
	case ch == 'T':
		return 1
	case ch == 'X' && kind == rule.KindForestFire:
		return 2
	case ch == 'o' && kind == rule.KindConway:
		return 1
	}
	return 0
}

// Map character of a state code
func encode(kind rule.Kind, s grid.State) byte {
	switch {
	case s == 1 && kind == rule.KindConway:
		return 'o'
	case s == 1:
		return 'T'
	case s == 2:
		return 'X'
	}
	return ' '
}

// ParseMap reads one grid row per line. The first line sets the width,
// shorter lines are padded with state 0 and longer lines are truncated. A
// trailing empty line is ignored.
func ParseMap(r io.Reader, kind rule.Kind) ([][]grid.State, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) != 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, ErrEmptyMap
	}

	width := len([]rune(lines[0]))
	world := make([][]grid.State, len(lines))
	for i, line := range lines {
		world[i] = make([]grid.State, width)
		j := 0
		for _, ch := range line {
			if j == width {
				break
			}
			world[i][j] = decode(kind, ch)
			j++
		}
	}
	return world, nil
}

// ReadMap opens and parses a map file
func ReadMap(path string, kind rule.Kind) ([][]grid.State, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorFile, err)
	}
	defer file.Close()
	world, err := ParseMap(file, kind)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", ErrorFile, path, err)
	}
	return world, nil
}

// GenerateMap makes a height x width grid where each cell is in state 1
// with probability density
func GenerateMap(width, height int, density float64, tosser *rule.Tosser) [][]grid.State {
	world := make([][]grid.State, height)
	for i := range world {
		world[i] = make([]grid.State, width)
		for j := range world[i] {
			if tosser.Toss(density) {
				world[i][j] = 1
			}
		}
	}
	return world
}

// FormatMap writes world in the format read by ParseMap
func FormatMap(w io.Writer, world [][]grid.State, kind rule.Kind) error {
	out := bufio.NewWriter(w)
	for _, row := range world {
		for _, s := range row {
			out.WriteByte(encode(kind, s))
		}
		out.WriteByte('\n')
	}
	return out.Flush()
}

// WriteMap writes world to a map file
func WriteMap(path string, world [][]grid.State, kind rule.Kind) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFile, err)
	}
	if err := FormatMap(file, world, kind); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", ErrorFile, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFile, err)
	}
	return nil
}
