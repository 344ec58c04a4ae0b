package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/event-regform/internal/domain/entity"
)

// CreateSession handles POST /api/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	s := h.deps.Store.Create()
	c.JSON(http.StatusCreated, Response{Success: true, Data: sessionResponse(s)})
}

// GetSession handles GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	h.ok(c, sessionResponse(current(c)))
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *Handlers) DeleteSession(c *gin.Context) {
	h.deps.Store.Delete(current(c).ID)
	c.Status(http.StatusNoContent)
}

// UpdateField handles PATCH /api/sessions/:id/fields
func (h *Handlers) UpdateField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	// The store accepts any attendance value; unknown modes stop here
	if req.Field == entity.FieldAttendanceType {
		v, ok := req.Value.(string)
		if !ok || !entity.AttendanceType(v).IsValid() {
			h.badRequest(c, "attendanceType must be Onsite or Rerun")
			return
		}
	}

	s := current(c)
	if _, err := s.Update(req.Field, req.Value); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, sessionResponse(s))
}

// DrawStrokes handles POST /api/sessions/:id/signature/strokes
func (h *Handlers) DrawStrokes(c *gin.Context) {
	var req StrokesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	capture, err := current(c).DrawStrokes(req.Strokes)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, captureResponse(capture))
}

// UploadSignature handles POST /api/sessions/:id/signature
func (h *Handlers) UploadSignature(c *gin.Context) {
	var req UploadSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	capture, err := current(c).UploadSignature(req.DataURL)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, captureResponse(capture))
}

// ClearSignature handles DELETE /api/sessions/:id/signature
func (h *Handlers) ClearSignature(c *gin.Context) {
	capture, err := current(c).ClearSignature()
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, captureResponse(capture))
}

// Review handles POST /api/sessions/:id/review
func (h *Handlers) Review(c *gin.Context) {
	s := current(c)
	if err := s.Review(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, sessionResponse(s))
}

// Edit handles POST /api/sessions/:id/edit
func (h *Handlers) Edit(c *gin.Context) {
	s := current(c)
	if err := s.Edit(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, sessionResponse(s))
}

// ComposeDraft handles POST /api/sessions/:id/draft
func (h *Handlers) ComposeDraft(c *gin.Context) {
	text, err := current(c).ComposeDraft(c.Request.Context(), h.deps.Composer)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"draft": text})
}

// SetDraft handles PUT /api/sessions/:id/draft
func (h *Handlers) SetDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	current(c).SetDraft(req.Text)
	h.ok(c, gin.H{"draft": req.Text})
}
