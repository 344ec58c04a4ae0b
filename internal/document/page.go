// Package document renders the printable confirmation form as a fixed-layout raster page.
package document

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/signature"
)

// Logical page geometry: A4 at 96 px per inch
const (
	PageWidth   = 794.0
	PageHeight  = 1123.0
	pagePadding = 57.0

	// Placeholder fills empty respondent fields so the blank form stays legible
	Placeholder = "................"

	Title          = "แบบตอบรับเข้าร่วมโครงการ"
	signatureTitle = "ลงชื่อรับรองข้อมูล"
)

// RecordSource supplies the record to project at snapshot time
type RecordSource interface {
	Record() entity.FormRecord
}

// RecordFunc adapts a function to RecordSource
type RecordFunc func() entity.FormRecord

// Record returns f()
func (f RecordFunc) Record() entity.FormRecord { return f() }

// SnapshotOptions controls rasterisation
type SnapshotOptions struct {
	// Scale oversamples the logical page; 2 gives print legibility
	Scale float64
	// Logging enables diagnostic logs for this snapshot
	Logging bool
}

// Container is a rendered element that can be snapshotted by identity
type Container interface {
	Snapshot(ctx context.Context, opts SnapshotOptions) (*image.RGBA, error)
}

// Page is the read-only projection of a FormRecord onto the confirmation document
type Page struct {
	source RecordSource
	fonts  *FontSet
	logger *zap.Logger
}

// NewPage creates a page bound to a record source
func NewPage(source RecordSource, fonts *FontSet, logger *zap.Logger) *Page {
	if fonts == nil {
		fonts = DefaultFonts()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{source: source, fonts: fonts, logger: logger}
}

// Snapshot rasterises the page for the current record. The result depends only on the record.
func (p *Page) Snapshot(ctx context.Context, opts SnapshotOptions) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	start := time.Now()
	record := p.source.Record()

	c := newCanvas(p.fonts, scale)
	defer c.close()

	height := layout(c, record, p.logger)
	img := c.paint(PageWidth, height)

	if opts.Logging {
		p.logger.Debug("Document rendered",
			zap.Float64("scale", scale),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()),
			zap.Duration("elapsed", time.Since(start)))
	}

	return img, nil
}

// orPlaceholder substitutes the dotted placeholder for empty values
func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// layout queues the whole document and returns the page height in logical pixels.
// Content taller than A4 grows the page instead of paginating.
func layout(c *canvas, r entity.FormRecord, logger *zap.Logger) float64 {
	left := pagePadding
	right := PageWidth - pagePadding
	contentW := right - left
	y := pagePadding

	// Header: title, organizer, rule
	c.centered(PageWidth/2, y+30, Title, 30, true, colorBlack)
	y += 45 + 8
	for _, line := range c.wrap(r.Organizer, contentW, 18, true) {
		c.centered(PageWidth/2, y+18, line, 18, true, colorBlack)
		y += 27
	}
	y += 20
	c.rule(left, right, y, 2, colorBlack)
	y += 2 + 40

	// Project, schedule, location
	const labelW = 160.0
	rows := []struct{ label, value string }{
		{"โครงการ:", r.ProjectName},
		{"วัน/เวลา:", r.EventDate},
		{"สถานที่:", r.Location},
	}
	for i, row := range rows {
		if i > 0 {
			y += 16
		}
		c.text(left, y+16, row.label, 16, true, colorBlack)
		for _, line := range c.wrap(row.value, contentW-labelW, 16, false) {
			c.text(left+labelW, y+16, line, 16, false, colorBlack)
			y += 24
		}
	}

	// Respondent box
	y += 40
	boxTop := y
	var boxBottom float64
	c.box(left, boxTop, right, &boxBottom, 2, colorBoxFill, colorBlack)

	inLeft := left + 2 + 32
	inRight := right - 2 - 32
	y += 2 + 32
	c.text(inLeft, y+20, "ข้อมูลผู้ตอบรับ", 20, true, colorBlack)
	y += 30 + 8
	c.rule(inLeft, inRight, y, 2, colorRuleLight)
	y += 2 + 24

	colW := (inRight - inLeft) / 2
	y = field(c, inLeft, y, colW, "ชื่อ-นามสกุล:", r.FullName, func(top float64) float64 {
		return field(c, inLeft+colW, top, colW, "ตำแหน่ง:", r.Position, nil)
	})
	y += 24
	y = field(c, inLeft, y, inRight-inLeft, "สังกัด:", r.Department, nil)
	y += 24
	y = field(c, inLeft, y, colW, "รูปแบบ:", string(r.AttendanceType), nil)
	y += 32 + 2
	boxBottom = y

	// Signature block, right aligned
	y += 80
	blockLeft := right - 300
	center := blockLeft + 150
	c.centered(center, y+18, signatureTitle, 18, true, colorBlack)
	y += 27 + 12

	const sigAreaH = 80.0
	if r.SignatureData != "" {
		if img, err := signature.DecodeDataURL(r.SignatureData); err == nil {
			c.picture(img, blockLeft+16, y+(sigAreaH-64)/2, 300-32, 64)
		} else {
			logger.Warn("Signature image could not be decoded", zap.Error(err))
		}
	}
	y += sigAreaH
	c.rule(blockLeft+16, blockLeft+300-16, y, 2, colorRuleMid)
	y += 2 + 12

	c.centered(center, y+18, "( "+orPlaceholder(r.FullName)+" )", 18, true, colorBlack)
	y += 27 + 12
	c.centered(center, y+16, "ลงวันที่: "+r.SubmissionDate, 16, true, colorGray)
	y += 24

	if bottom := y + pagePadding; bottom > PageHeight {
		return bottom
	}
	return PageHeight
}

// field draws "label value" starting at top and returns the y below it.
// sibling, when set, lays out a second column on the same row.
func field(c *canvas, x, top, width float64, label, value string, sibling func(top float64) float64) float64 {
	c.text(x, top+16, label, 16, true, colorBlack)
	valueX := x + c.width(label, 16, true) + 6

	y := top
	for _, line := range c.wrap(orPlaceholder(value), width-(valueX-x)-8, 16, false) {
		c.text(valueX, y+16, line, 16, false, colorBlack)
		y += 24
	}

	if sibling != nil {
		if other := sibling(top); other > y {
			y = other
		}
	}
	return y
}
