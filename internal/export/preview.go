package export

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Preview is the first page of an exported PDF rendered back to an image
type Preview struct {
	PNG   []byte
	Pages int
}

// Previewer renders exported PDFs back to images with MuPDF, so the reviewer sees
// exactly what the organizer will receive
type Previewer struct {
	dpi    float64
	logger *zap.Logger
}

// NewPreviewer creates a previewer rendering at dpi
func NewPreviewer(dpi float64, logger *zap.Logger) *Previewer {
	if dpi <= 0 {
		dpi = 72
	}
	return &Previewer{dpi: dpi, logger: logger}
}

// Render renders page one of blob to PNG
func (p *Previewer) Render(blob *Blob) (*Preview, error) {
	doc, err := fitz.NewFromMemory(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	img, err := doc.ImageDPI(0, p.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	p.logger.Debug("PDF preview rendered",
		zap.Int("pages", pages),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return &Preview{PNG: buf.Bytes(), Pages: pages}, nil
}
