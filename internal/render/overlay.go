// Package render draws the rep-counter overlay onto frames and encodes them
// for transport.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"math"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	White = color.RGBA{255, 255, 255, 255}
	Green = color.RGBA{0, 200, 0, 255}
	Blue  = color.RGBA{25, 117, 245, 255}
)

// State is what the overlay shows for one frame.
type State struct {
	Label string
	Reps  int
	Stage string
	// Progress is a percentage in [0, 100].
	Progress float64
}

// Layout of the overlay in pixels, anchored at the top-left corner.
var (
	repsBox     = image.Rect(0, 0, 255, 73)
	progressBar = image.Rect(50, 350, 250, 370)
)

// Overlay returns a copy of frame with the counter, stage, title and progress
// bar drawn on it. Anything outside the frame is clipped.
func Overlay(frame image.Image, st State) *image.RGBA {
	b := frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)

	w := b.Dx()
	fill(dst, image.Rect(w/2-150, 0, w/2+250, 73), Blue)
	drawText(dst, strings.ToUpper(st.Label)+" Tracker", w/2-100, 50, 2)

	fill(dst, repsBox, Blue)
	drawText(dst, "REPS", 15, 25, 1)
	drawText(dst, strconv.Itoa(st.Reps), 10, 60, 2)
	drawText(dst, "STAGE", 95, 25, 1)
	drawText(dst, st.Stage, 95, 60, 2)

	pct := clamp(st.Progress)
	filled := progressBar
	filled.Max.X = progressBar.Min.X + int(pct*2)
	fill(dst, filled, Green)
	outline(dst, progressBar, 2, White)
	drawText(dst, fmt.Sprintf("%d%%", int(pct)), 50, 400, 2)

	return dst
}

func clamp(pct float64) float64 {
	switch {
	case pct < 0 || math.IsNaN(pct):
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

func outline(dst draw.Image, r image.Rectangle, thickness int, c color.Color) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// drawText draws s in white with its baseline at (x, y), magnified by scale.
func drawText(dst draw.Image, s string, x, y, scale int) {
	if s == "" {
		return
	}
	f := basicfont.Face7x13
	if scale <= 1 {
		d := font.Drawer{Dst: dst, Src: image.NewUniform(White), Face: f, Dot: fixed.P(x, y)}
		d.DrawString(s)
		return
	}

	width := font.MeasureString(f, s).Ceil()
	glyphs := image.NewRGBA(image.Rect(0, 0, width, f.Height))
	d := font.Drawer{Dst: glyphs, Src: image.NewUniform(White), Face: f, Dot: fixed.P(0, f.Ascent)}
	d.DrawString(s)

	target := image.Rect(x, y-f.Ascent*scale, x+width*scale, y+(f.Height-f.Ascent)*scale)
	xdraw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

// EncodeJPEG writes img as a JPEG. quality outside 1..100 means the default.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encoding jpeg: %w", err)
	}
	return nil
}
