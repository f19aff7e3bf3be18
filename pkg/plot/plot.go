// Package plot draws the best score at each optimiser level as a PNG.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/golang/freetype"
	"github.com/golang/freetype/raster"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	width     = 640
	height    = 400
	left      = 90 // margins
	right     = 30
	top       = 50
	bottom    = 50
	fontSize  = 12
	markSize  = 3
	lineWidth = 1
)

var (
	ErrEmpty     = errors.New("plot: no scores")
	ErrNotFinite = errors.New("plot: score is not finite")
	lineColor    = color.RGBA{R: 0x1f, G: 0x4e, B: 0xa0, A: 0xff}
	axisColor    = color.Gray{Y: 0x40}
)

// pen draws on an image with the freetype rasterizer.
type pen struct {
	r *raster.Rasterizer
	p *raster.RGBAPainter
}

func newPen(img *image.RGBA) *pen {
	r := raster.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	r.UseNonZeroWinding = true
	return &pen{r: r, p: raster.NewRGBAPainter(img)}
}

// pt is the centre of pixel (x, y).
func pt(x, y int) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.I(x) + 32, Y: fixed.I(y) + 32}
}

// stroke draws a polyline through pts, one pixel wide.
func (pn *pen) stroke(c color.Color, pts ...image.Point) {
	var path raster.Path
	path.Start(pt(pts[0].X, pts[0].Y))
	for _, q := range pts[1:] {
		path.Add1(pt(q.X, q.Y))
	}
	pn.r.Clear()
	pn.r.AddStroke(path, fixed.I(lineWidth), raster.SquareCapper, raster.RoundJoiner)
	pn.p.SetColor(c)
	pn.r.Rasterize(pn.p)
}

// square fills a square with half side h centred on q.
func (pn *pen) square(c color.Color, q image.Point, h int) {
	pn.r.Clear()
	pn.r.Start(pt(q.X-h, q.Y-h))
	pn.r.Add1(pt(q.X+h, q.Y-h))
	pn.r.Add1(pt(q.X+h, q.Y+h))
	pn.r.Add1(pt(q.X-h, q.Y+h))
	pn.r.Add1(pt(q.X-h, q.Y-h))
	pn.p.SetColor(c)
	pn.r.Rasterize(pn.p)
}

// scale maps scores onto pixel rows. Lower scores go lower.
type scale struct {
	lo, hi float64
}

func (s scale) y(v float64) int {
	f := (v - s.lo) / (s.hi - s.lo)
	return height - bottom - int(math.Round(f*float64(height-top-bottom)))
}

func xpos(i, n int) int {
	if n == 1 {
		return left + (width-left-right)/2
	}
	return left + i*(width-left-right)/(n-1)
}

// Trace writes a PNG of levelBest, one marker per level joined by
// lines, with the title, the score range and the number of levels
// written on it.
func Trace(w io.Writer, levelBest []float64, title string) error {
	if len(levelBest) == 0 {
		return ErrEmpty
	}
	sc := scale{lo: math.Inf(1), hi: math.Inf(-1)}
	for i, v := range levelBest {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("level %d: %w", i, ErrNotFinite)
		}
		sc.lo, sc.hi = math.Min(sc.lo, v), math.Max(sc.hi, v)
	}
	if sc.hi == sc.lo {
		pad := math.Max(1, math.Abs(sc.lo)/10)
		sc.lo, sc.hi = sc.lo-pad, sc.hi+pad
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	pn := newPen(img)
	pn.stroke(axisColor, image.Pt(left, top), image.Pt(left, height-bottom),
		image.Pt(width-right, height-bottom))

	n := len(levelBest)
	pts := make([]image.Point, n)
	for i, v := range levelBest {
		pts[i] = image.Pt(xpos(i, n), sc.y(v))
	}
	if n > 1 {
		pn.stroke(lineColor, pts...)
	}
	for _, q := range pts {
		pn.square(lineColor, q, markSize)
	}

	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return fmt.Errorf("plot font: %w", err)
	}
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(fontSize)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.Black)
	labels := []struct {
		s    string
		x, y int
	}{
		{title, left, top / 2},
		{fmt.Sprintf("%.4g", sc.hi), 4, top + fontSize/2},
		{fmt.Sprintf("%.4g", sc.lo), 4, height - bottom},
		{fmt.Sprintf("level 0 .. %d", n-1), left, height - bottom/3},
	}
	for _, l := range labels {
		if _, err := c.DrawString(l.s, freetype.Pt(l.x, l.y)); err != nil {
			return fmt.Errorf("plot label: %w", err)
		}
	}
	return png.Encode(w, img)
}
