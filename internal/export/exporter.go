// Package export turns a rendered document container into a single-page A4 PDF.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/document"
)

// MediaTypePDF is the media type of every exported blob
const MediaTypePDF = "application/pdf"

// OversampleScale is the rasterisation factor used for print legibility
const OversampleScale = 2.0

// Blob is an exported binary document
type Blob struct {
	Data      []byte
	MediaType string
}

// Size returns the blob length in bytes
func (b *Blob) Size() int {
	return len(b.Data)
}

// Resolver finds a rendered container by its stable identity
type Resolver interface {
	Lookup(id string) (document.Container, bool)
}

// Downloader delivers a finished blob to the user and reports where it went
// (a file path, or a one-shot link)
type Downloader interface {
	Download(ctx context.Context, fileName string, blob *Blob) (string, error)
}

// Exporter snapshots containers and wraps the raster in a PDF page
type Exporter struct {
	resolver Resolver
	logger   *zap.Logger
	stamp    time.Time
}

// NewExporter creates an exporter. PDF dates are pinned to the creation time of the
// exporter so that exporting an unchanged container twice yields identical bytes.
func NewExporter(resolver Resolver, logger *zap.Logger) *Exporter {
	return &Exporter{
		resolver: resolver,
		logger:   logger,
		stamp:    time.Now().UTC().Truncate(time.Second),
	}
}

// ExportBlob renders the container with the given identity into a PDF.
// A missing container yields nil with no error: there is nothing to export.
func (e *Exporter) ExportBlob(ctx context.Context, containerID string) (*Blob, error) {
	container, ok := e.resolver.Lookup(containerID)
	if !ok {
		e.logger.Debug("Export target not found", zap.String("container_id", containerID))
		return nil, nil
	}

	raster, err := container.Snapshot(ctx, document.SnapshotOptions{
		Scale:   OversampleScale,
		Logging: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize container: %w", err)
	}

	var img bytes.Buffer
	if err := png.Encode(&img, raster); err != nil {
		return nil, fmt.Errorf("failed to encode raster: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(e.stamp)
	pdf.SetModificationDate(e.stamp)
	pdf.SetTitle(document.Title, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	b := raster.Bounds()
	placedH := float64(b.Dy()) * pageW / float64(b.Dx())

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("document", opts, &img)
	// One full-width image at the origin. Content taller than a page is not paginated.
	pdf.ImageOptions("document", 0, 0, pageW, placedH, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	e.logger.Debug("Document exported",
		zap.String("container_id", containerID),
		zap.Int("raster_width", b.Dx()),
		zap.Int("raster_height", b.Dy()),
		zap.Float64("placed_height_mm", placedH),
		zap.Int("bytes", out.Len()))

	return &Blob{Data: out.Bytes(), MediaType: MediaTypePDF}, nil
}

// DownloadBlob exports the container and hands the PDF to sink exactly once.
// Nothing to export is a no-op with an empty location.
func (e *Exporter) DownloadBlob(ctx context.Context, containerID, fileName string, sink Downloader) (string, error) {
	blob, err := e.ExportBlob(ctx, containerID)
	if err != nil {
		return "", err
	}
	if blob == nil {
		return "", nil
	}
	return sink.Download(ctx, fileName, blob)
}
