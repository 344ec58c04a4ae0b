package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/event-regform/internal/dispatch"
	"github.com/garyjia/event-regform/internal/roster"
)

// Providers handles GET /api/sessions/:id/providers
func (h *Handlers) Providers(c *gin.Context) {
	h.ok(c, gin.H{"providers": current(c).Providers()})
}

// Dispatch handles POST /api/sessions/:id/dispatch
func (h *Handlers) Dispatch(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	s := current(c)
	result, err := s.Dispatch(c.Request.Context(), dispatch.Provider(req.Provider))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := DispatchResponse{
		Outcome:     result.Outcome.String(),
		Provider:    string(result.Provider),
		State:       string(s.DispatchState()),
		FileName:    result.FileName,
		ComposeURL:  result.ComposeURL,
		DownloadURL: result.DownloadLocation,
	}
	if result.Outcome == dispatch.OutcomeSent {
		resp.ClipboardText = s.Draft()
	}
	h.ok(c, resp)
}

// ConfirmDispatch handles POST /api/sessions/:id/dispatch/confirm
func (h *Handlers) ConfirmDispatch(c *gin.Context) {
	s := current(c)
	confirmed := s.ConfirmDispatch(c.Request.Context())
	h.ok(c, gin.H{"confirmed": confirmed, "state": s.DispatchState()})
}

// ListSubmissions handles GET /api/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	if h.deps.Submissions == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "dispatch log disabled"})
		return
	}

	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}

	subs, err := h.deps.Submissions.List(c.Request.Context(), req.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"submissions": subs, "count": len(subs)})
}

// Roster handles GET /api/submissions/roster.xlsx
func (h *Handlers) Roster(c *gin.Context) {
	if h.deps.Submissions == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "dispatch log disabled"})
		return
	}

	subs, err := h.deps.Submissions.List(c.Request.Context(), 0)
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.deps.Roster.Write(&buf, subs); err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, "roster.xlsx", roster.MediaType, buf.Bytes())
}
