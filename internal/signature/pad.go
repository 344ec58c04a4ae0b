// Package signature captures freehand signatures and produces trimmed PNG images of the ink.
package signature

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Point is a pointer position in surface pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CaptureKind tags the outcome of a pad operation
type CaptureKind int

const (
	// CaptureEmpty means no ink exists; the owner must not store anything
	CaptureEmpty CaptureKind = iota
	// CaptureSaved carries a trimmed PNG of the ink
	CaptureSaved
	// CaptureCleared means the surface was wiped; the owner drops its stored image
	CaptureCleared
)

func (k CaptureKind) String() string {
	switch k {
	case CaptureSaved:
		return "saved"
	case CaptureCleared:
		return "cleared"
	default:
		return "empty"
	}
}

// Capture is the result of a stroke completion or clear
type Capture struct {
	Kind    CaptureKind
	DataURL string
	Width   int
	Height  int
}

// Options configures the drawing surface
type Options struct {
	Width    int
	Height   int
	PenColor color.RGBA
	PenWidth float64
}

// DefaultOptions matches the on-screen pad: 400x150, navy ink
func DefaultOptions() Options {
	return Options{
		Width:    400,
		Height:   150,
		PenColor: color.RGBA{R: 0, G: 0, B: 128, A: 255},
		PenWidth: 2.5,
	}
}

// Pad is a bounded drawing surface holding the strokes drawn so far
type Pad struct {
	mu      sync.Mutex
	opts    Options
	strokes [][]Point
}

// NewPad creates an empty pad
func NewPad(opts Options) *Pad {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.PenWidth <= 0 {
		opts.PenWidth = DefaultOptions().PenWidth
	}
	if opts.PenColor.A == 0 {
		opts.PenColor = DefaultOptions().PenColor
	}
	return &Pad{opts: opts}
}

// AddStroke records one stroke. Points are clamped to the surface.
func (p *Pad) AddStroke(points []Point) {
	if len(points) == 0 {
		return
	}

	stroke := make([]Point, len(points))
	for i, pt := range points {
		stroke[i] = Point{
			X: clamp(pt.X, 0, float64(p.opts.Width)),
			Y: clamp(pt.Y, 0, float64(p.opts.Height)),
		}
	}

	p.mu.Lock()
	p.strokes = append(p.strokes, stroke)
	p.mu.Unlock()
}

// IsEmpty reports whether any ink exists
func (p *Pad) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.strokes) == 0
}

// EndStroke is the stroke-completion event. An empty surface yields CaptureEmpty.
func (p *Pad) EndStroke() Capture {
	p.mu.Lock()
	strokes := p.strokes
	p.mu.Unlock()

	if len(strokes) == 0 {
		return Capture{Kind: CaptureEmpty}
	}

	trimmed, ok := Trim(p.rasterize(strokes))
	if !ok {
		return Capture{Kind: CaptureEmpty}
	}

	dataURL, err := EncodeDataURL(trimmed)
	if err != nil {
		return Capture{Kind: CaptureEmpty}
	}

	b := trimmed.Bounds()
	return Capture{Kind: CaptureSaved, DataURL: dataURL, Width: b.Dx(), Height: b.Dy()}
}

// Clear wipes the surface
func (p *Pad) Clear() Capture {
	p.mu.Lock()
	p.strokes = nil
	p.mu.Unlock()
	return Capture{Kind: CaptureCleared}
}

// rasterize paints every stroke onto a transparent canvas the size of the surface
func (p *Pad) rasterize(strokes [][]Point) *image.RGBA {
	w, h := p.opts.Width, p.opts.Height
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	ink := image.NewUniform(p.opts.PenColor)
	r := vector.NewRasterizer(w, h)
	radius := p.opts.PenWidth / 2

	fill := func(poly []Point) {
		r.Reset(w, h)
		r.DrawOp = draw.Over
		r.MoveTo(float32(poly[0].X), float32(poly[0].Y))
		for _, pt := range poly[1:] {
			r.LineTo(float32(pt.X), float32(pt.Y))
		}
		r.ClosePath()
		r.Draw(dst, dst.Bounds(), ink, image.Point{})
	}

	for _, stroke := range strokes {
		for i, pt := range stroke {
			fill(disc(pt, radius))
			if i > 0 {
				if seg := segment(stroke[i-1], pt, radius); seg != nil {
					fill(seg)
				}
			}
		}
	}
	return dst
}

// disc approximates a round pen tip
func disc(c Point, r float64) []Point {
	const sides = 12
	poly := make([]Point, sides)
	for i := range poly {
		a := 2 * math.Pi * float64(i) / sides
		poly[i] = Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return poly
}

// segment is the quad covering a pen movement from a to b
func segment(a, b Point, r float64) []Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	nx, ny := -dy/length*r, dx/length*r
	return []Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
