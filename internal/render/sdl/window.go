package sdl

import (
	"fmt"
	"sync"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/jrgoulet/cellular-automata-sim/internal/render"
)

// Window draws frames in an SDL window, one square of cellSize pixels per
// cell. SDL must be driven from the main OS thread: New and Loop are called
// there while Render and Close may be called from any goroutine.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	cellSize int32

	mutex    sync.Mutex
	frame    *render.Frame
	dirty    bool
	closed   bool // Window closed by the user
	complete chan struct{}
}

var _ render.Renderer = (*Window)(nil)

// New opens a window sized for a width x height grid
func New(width, height int, cellSize int32) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	w, h := int32(width)*cellSize, int32(height)*cellSize
	window, err := sdl.CreateWindow("Cellular Automaton", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl create window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl create renderer: %w", err)
	}
	if err := renderer.SetLogicalSize(w, h); err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl logical size: %w", err)
	}
	return &Window{
		window:   window,
		renderer: renderer,
		cellSize: cellSize,
		complete: make(chan struct{}),
	}, nil
}

func (w *Window) Render(frame render.Frame) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return render.ErrClosed
	}
	w.frame = &frame
	w.dirty = true
	return nil
}

// Close tells Loop that no more frames follow
func (w *Window) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	select {
	case <-w.complete:
	default:
		close(w.complete)
		w.dirty = true
	}
	return nil
}

// Loop polls SDL events and redraws at fps until the user closes the window.
// Once done is closed the last frame stays on screen. The SDL resources are
// released on return.
func (w *Window) Loop(fps int, done <-chan struct{}) {
	defer w.destroy()
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-done:
			done = nil
			w.draw()
		case <-ticker.C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				if _, ok := event.(*sdl.QuitEvent); ok {
					w.mutex.Lock()
					w.closed = true
					w.mutex.Unlock()
					return
				}
			}
			w.draw()
		}
	}
}

func (w *Window) draw() {
	w.mutex.Lock()
	frame, dirty := w.frame, w.dirty
	w.dirty = false
	w.mutex.Unlock()
	if !dirty || frame == nil {
		return
	}
	select {
	case <-w.complete:
		w.window.SetTitle(fmt.Sprintf("Generation %d - Simulation Complete!", frame.Generation))
	default:
		w.window.SetTitle(frame.Header())
	}
	w.renderer.SetDrawColor(0, 0, 0, 255)
	w.renderer.Clear()
	rect := sdl.Rect{W: w.cellSize, H: w.cellSize}
	for i := 0; i != frame.Height(); i++ {
		for j := 0; j != frame.Width(); j++ {
			c := frame.Pixel(i, j)
			w.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
			rect.X, rect.Y = int32(j)*w.cellSize, int32(i)*w.cellSize
			w.renderer.FillRect(&rect)
		}
	}
	w.renderer.Present()
}

func (w *Window) destroy() {
	w.renderer.Destroy()
	w.window.Destroy()
	sdl.Quit()
}
