package document

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	colorBlack     = color.RGBA{A: 255}
	colorWhite     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorGray      = color.RGBA{R: 107, G: 114, B: 128, A: 255}
	colorBoxFill   = color.RGBA{R: 252, G: 252, B: 253, A: 255}
	colorRuleLight = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	colorRuleMid   = color.RGBA{R: 204, G: 204, B: 204, A: 255}
)

// canvas paints in logical page pixels; every coordinate is multiplied by scale
type canvas struct {
	img   *image.RGBA
	scale float64
	faces *faceCache
	ops   []func()
}

func newCanvas(fonts *FontSet, scale float64) *canvas {
	return &canvas{scale: scale, faces: newFaceCache(fonts)}
}

func (c *canvas) px(v float64) int {
	return int(math.Round(v * c.scale))
}

// queue records a paint operation until the page height is known
func (c *canvas) queue(op func()) {
	c.ops = append(c.ops, op)
}

// paint allocates the raster and runs the queued operations in order
func (c *canvas) paint(width, height float64) *image.RGBA {
	c.img = image.NewRGBA(image.Rect(0, 0, c.px(width), c.px(height)))
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(colorWhite), image.Point{}, draw.Src)
	for _, op := range c.ops {
		op()
	}
	return c.img
}

func (c *canvas) close() {
	c.faces.close()
}

func (c *canvas) face(size float64, bold bool) font.Face {
	return c.faces.face(size*c.scale, bold)
}

// width measures s in logical pixels
func (c *canvas) width(s string, size float64, bold bool) float64 {
	adv := font.MeasureString(c.face(size, bold), s)
	return float64(adv.Ceil()) / c.scale
}

func (c *canvas) text(x, baseline float64, s string, size float64, bold bool, col color.Color) {
	c.queue(func() {
		d := &font.Drawer{
			Dst:  c.img,
			Src:  image.NewUniform(col),
			Face: c.face(size, bold),
			Dot:  fixed.P(c.px(x), c.px(baseline)),
		}
		d.DrawString(s)
	})
}

func (c *canvas) centered(cx, baseline float64, s string, size float64, bold bool, col color.Color) {
	c.text(cx-c.width(s, size, bold)/2, baseline, s, size, bold, col)
}

func (c *canvas) rule(x0, x1, y, thickness float64, col color.Color) {
	c.queue(func() {
		r := image.Rect(c.px(x0), c.px(y), c.px(x1), c.px(y+thickness))
		draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
	})
}

// box fills and strokes a rectangle whose bottom edge is only known once the
// content inside it has been laid out
func (c *canvas) box(x0, y0, x1 float64, y1 *float64, thickness float64, fill, stroke color.Color) {
	c.queue(func() {
		r := image.Rect(c.px(x0), c.px(y0), c.px(x1), c.px(*y1))
		draw.Draw(c.img, r, image.NewUniform(fill), image.Point{}, draw.Src)

		uc := image.NewUniform(stroke)
		t := c.px(thickness)
		draw.Draw(c.img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), uc, image.Point{}, draw.Src)
		draw.Draw(c.img, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), uc, image.Point{}, draw.Src)
		draw.Draw(c.img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), uc, image.Point{}, draw.Src)
		draw.Draw(c.img, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), uc, image.Point{}, draw.Src)
	})
}

// picture scales src to fit inside the box, preserving aspect ratio, centred
func (c *canvas) picture(src image.Image, x0, y0, maxW, maxH float64) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}

	k := math.Min(maxW/float64(b.Dx()), maxH/float64(b.Dy()))
	w, h := float64(b.Dx())*k, float64(b.Dy())*k
	left := x0 + (maxW-w)/2
	top := y0 + (maxH-h)/2

	c.queue(func() {
		dst := image.Rect(c.px(left), c.px(top), c.px(left+w), c.px(top+h))
		draw.CatmullRom.Scale(c.img, dst, src, b, draw.Over, nil)
	})
}

// wrap breaks s into lines no wider than maxWidth. Words are kept together when
// possible; text without spaces, such as Thai, is broken between runes.
func (c *canvas) wrap(s string, maxWidth, size float64, bold bool) []string {
	if s == "" {
		return []string{""}
	}

	var lines []string
	var line []rune
	for _, r := range s {
		candidate := append(append([]rune{}, line...), r)
		if len(line) > 0 && c.width(string(candidate), size, bold) > maxWidth {
			cut := len(line)
			if r != ' ' {
				for i := len(line) - 1; i > 0; i-- {
					if line[i] == ' ' {
						cut = i + 1
						break
					}
				}
			}
			lines = append(lines, string(line[:cut]))
			line = append([]rune{}, line[cut:]...)
			if r == ' ' && len(line) == 0 {
				continue
			}
		}
		line = append(line, r)
	}
	return append(lines, string(line))
}
