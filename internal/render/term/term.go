package term

import (
	"fmt"
	"sync"

	tl "github.com/JoelOtter/termloop"

	"github.com/jrgoulet/cellular-automata-sim/internal/render"
)

var termColors = []tl.Attr{tl.ColorBlack, tl.ColorGreen, tl.ColorMagenta}

func termColor(tag int) tl.Attr {
	if tag < 0 || tag >= len(termColors) {
		return tl.ColorWhite
	}
	return termColors[tag]
}

// board is the termloop entity drawing the latest frame
type board struct {
	mutex    sync.Mutex
	frame    *render.Frame
	complete bool
}

func (b *board) Tick(event tl.Event) {}

func (b *board) Draw(screen *tl.Screen) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.frame == nil {
		return
	}
	frame := b.frame
	tl.NewText(0, 0, frame.Header(), tl.ColorWhite, tl.ColorBlack).Draw(screen)
	for i := 0; i != frame.Height(); i++ {
		line := []rune(frame.Line(i))
		offset := len(fmt.Sprintf("%02d|", i+1))
		for x, ch := range line {
			cell := tl.Cell{Fg: tl.ColorWhite, Bg: tl.ColorBlack, Ch: ch}
			if j := x - offset; j >= 0 && j < frame.Width() {
				cell.Fg = termColor(frame.Colors[i][j])
			}
			screen.RenderCell(x, i+1, &cell)
		}
	}
	if b.complete {
		tl.NewText(0, frame.Height()+2, "Simulation Complete! Press Ctrl+C to exit.",
			tl.ColorWhite, tl.ColorBlack).Draw(screen)
	}
}

// Term draws frames in the terminal with termloop. The game loop runs in its
// own goroutine and ends when the user presses Ctrl+C.
type Term struct {
	game  *tl.Game
	board *board
	done  chan struct{}
}

var _ render.Renderer = (*Term)(nil)

func New() *Term {
	game := tl.NewGame()
	level := tl.NewBaseLevel(tl.Cell{Bg: tl.ColorBlack, Fg: tl.ColorWhite})
	b := &board{}
	level.AddEntity(b)
	game.Screen().SetLevel(level)
	t := &Term{game: game, board: b, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		game.Start()
	}()
	return t
}

func (t *Term) Render(frame render.Frame) error {
	select {
	case <-t.done:
		return render.ErrClosed
	default:
	}
	t.board.mutex.Lock()
	t.board.frame = &frame
	t.board.mutex.Unlock()
	return nil
}

// Close shows the completion message and waits for the user to leave
func (t *Term) Close() error {
	t.board.mutex.Lock()
	t.board.complete = true
	t.board.mutex.Unlock()
	<-t.done
	return nil
}
