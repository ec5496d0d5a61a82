package render

import (
	"bufio"
	"io"
)

// Text prints every frame as plain lines, one snapshot after another
type Text struct {
	w *bufio.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w)}
}

func (t *Text) Render(frame Frame) error {
	t.w.WriteString(frame.Header())
	t.w.WriteByte('\n')
	for i := 0; i != frame.Height(); i++ {
		t.w.WriteString(frame.Line(i))
		t.w.WriteByte('\n')
	}
	t.w.WriteByte('\n')
	return t.w.Flush()
}

func (t *Text) Close() error {
	t.w.WriteString("Simulation Complete!\n")
	return t.w.Flush()
}
