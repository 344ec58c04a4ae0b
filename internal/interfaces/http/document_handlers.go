package http

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/export"
)

const maxSnapshotScale = 4

// DocumentPNG handles GET /api/sessions/:id/document.png?scale=1
func (h *Handlers) DocumentPNG(c *gin.Context) {
	scale := 1.0
	if raw := c.Query("scale"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > maxSnapshotScale {
			h.badRequest(c, "scale must be in (0, 4]")
			return
		}
		scale = v
	}

	img, err := current(c).Snapshot(c.Request.Context(), scale)
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// DocumentPDF handles GET /api/sessions/:id/document.pdf
func (h *Handlers) DocumentPDF(c *gin.Context) {
	s := current(c)
	blob, err := s.ExportPDF(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if blob == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "nothing to export"})
		return
	}
	attachment(c, s.Record().DownloadFileName(), blob.MediaType, blob.Data)
}

// PreviewPNG handles GET /api/sessions/:id/preview.png
func (h *Handlers) PreviewPNG(c *gin.Context) {
	blob, err := current(c).ExportPDF(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if blob == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "nothing to export"})
		return
	}

	preview, err := h.deps.Previewer.Render(blob)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("X-Page-Count", strconv.Itoa(preview.Pages))
	c.Data(http.StatusOK, "image/png", preview.PNG)
}

// Download handles GET /api/downloads/:token. Each link works once.
func (h *Handlers) Download(c *gin.Context) {
	fileName, blob, ok := h.deps.Links.Take(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "download link expired or unknown"})
		return
	}

	h.logger.Debug("Download link redeemed",
		zap.String("file_name", fileName),
		zap.Int("size", blob.Size()))
	mediaType := blob.MediaType
	if mediaType == "" {
		mediaType = export.MediaTypePDF
	}
	attachment(c, fileName, mediaType, blob.Data)
}
