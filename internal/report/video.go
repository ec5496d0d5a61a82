package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/icza/mjpeg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jrgoulet/cellular-automata-sim/internal/render"
)

const (
	CellPixels  = 4  // Side of one cell in the video
	LabelHeight = 16 // Strip above the grid holding the generation label
	VideoFPS    = 10
)

// Recorder writes every rendered frame into an MJPEG AVI file
type Recorder struct {
	writer        mjpeg.AviWriter
	width, height int // Grid size in cells
	img           *image.RGBA
	buf           bytes.Buffer
	options       jpeg.Options
}

// Create the video file for a width x height grid
func NewRecorder(path string, width, height int) (*Recorder, error) {
	w, h := width*CellPixels, height*CellPixels+LabelHeight
	writer, err := mjpeg.New(path, int32(w), int32(h), VideoFPS)
	if err != nil {
		return nil, fmt.Errorf("report: create video %s: %w", path, err)
	}
	return &Recorder{
		writer:  writer,
		width:   width,
		height:  height,
		img:     image.NewRGBA(image.Rect(0, 0, w, h)),
		options: jpeg.Options{Quality: 90},
	}, nil
}

func (rec *Recorder) Render(frame render.Frame) error {
	if frame.Width() != rec.width || frame.Height() != rec.height {
		return fmt.Errorf("report: frame is %dx%d, video is %dx%d",
			frame.Width(), frame.Height(), rec.width, rec.height)
	}
	draw.Draw(rec.img, rec.img.Bounds(), image.NewUniform(render.Palette[0]), image.Point{}, draw.Src)
	for i := 0; i != rec.height; i++ {
		for j := 0; j != rec.width; j++ {
			c := frame.Pixel(i, j)
			if c == render.Palette[0] {
				continue
			}
			x, y := j*CellPixels, LabelHeight+i*CellPixels
			draw.Draw(rec.img, image.Rect(x, y, x+CellPixels, y+CellPixels), image.NewUniform(c), image.Point{}, draw.Src)
		}
	}
	label := &font.Drawer{
		Dst:  rec.img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(2), Y: fixed.I(LabelHeight - 4)},
	}
	label.DrawString(fmt.Sprintf("G: %d", frame.Generation))

	rec.buf.Reset()
	if err := jpeg.Encode(&rec.buf, rec.img, &rec.options); err != nil {
		return fmt.Errorf("report: encode generation %d: %w", frame.Generation, err)
	}
	if err := rec.writer.AddFrame(rec.buf.Bytes()); err != nil {
		return fmt.Errorf("report: add generation %d: %w", frame.Generation, err)
	}
	return nil
}

// Close finalizes the AVI index
func (rec *Recorder) Close() error {
	return rec.writer.Close()
}
