package http

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/dispatch"
	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/domain/workflow"
	"github.com/garyjia/event-regform/internal/export"
	"github.com/garyjia/event-regform/internal/roster"
	"github.com/garyjia/event-regform/internal/session"
	"github.com/garyjia/event-regform/internal/signature"
)

const sessionKey = "session"

// SubmissionLister reads the dispatch log
type SubmissionLister interface {
	List(ctx context.Context, limit int) ([]*entity.Submission, error)
}

// Deps are the collaborators of the handlers. Submissions may be nil when the
// dispatch log is disabled.
type Deps struct {
	Store       *session.Store
	Composer    session.DraftComposer
	Links       *export.LinkStore
	Previewer   *export.Previewer
	Submissions SubmissionLister
	Roster      *roster.Builder
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Deps
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, logger *zap.Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Sessions  int    `json:"sessions"`
}

// SessionResponse is the full state of a session
type SessionResponse struct {
	ID             string            `json:"id"`
	Record         entity.FormRecord `json:"record"`
	ReadyForReview bool              `json:"ready_for_review"`
	CanReview      bool              `json:"can_review"`
	Step           string            `json:"step"`
	DispatchState  string            `json:"dispatch_state"`
	Draft          string            `json:"draft"`
	Drafting       bool              `json:"drafting"`
	CreatedAt      string            `json:"created_at"`
}

// CaptureResponse reports a signature pad outcome
type CaptureResponse struct {
	Kind    string `json:"kind"`
	DataURL string `json:"data_url,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// DispatchResponse tells the client what to do to finish a dispatch: copy the
// clipboard text, fetch the download and open the compose URL
type DispatchResponse struct {
	Outcome       string `json:"outcome"`
	Provider      string `json:"provider"`
	State         string `json:"state"`
	FileName      string `json:"file_name"`
	ComposeURL    string `json:"compose_url,omitempty"`
	DownloadURL   string `json:"download_url,omitempty"`
	ClipboardText string `json:"clipboard_text,omitempty"`
}

// UpdateFieldRequest replaces one form field
type UpdateFieldRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}

// StrokesRequest carries pointer strokes drawn on the pad
type StrokesRequest struct {
	Strokes [][]signature.Point `json:"strokes"`
}

// UploadSignatureRequest carries a canvas export
type UploadSignatureRequest struct {
	DataURL string `json:"data_url" binding:"required"`
}

// DraftRequest replaces the draft text
type DraftRequest struct {
	Text string `json:"text"`
}

// DispatchRequest selects the send path
type DispatchRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// ListSubmissionsRequest represents query parameters for listing submissions
type ListSubmissionsRequest struct {
	Limit int `form:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
			Sessions:  h.deps.Store.Len(),
		},
	})
}

// loadSession resolves :id and stores the session in the context
func (h *Handlers) loadSession(c *gin.Context) {
	s, err := h.deps.Store.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		c.Abort()
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (h *Handlers) ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// fail maps domain errors onto status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrUnknownField),
		errors.Is(err, entity.ErrInvalidValue),
		errors.Is(err, signature.ErrInvalidDataURL),
		errors.Is(err, dispatch.ErrUnknownProvider),
		errors.Is(err, dispatch.ErrProviderUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrGuardFailed),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, session.ErrDraftInProgress),
		errors.Is(err, session.ErrNotReviewing),
		errors.Is(err, session.ErrReviewLocked),
		errors.Is(err, session.ErrIncomplete),
		errors.Is(err, dispatch.ErrDispatchInProgress):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func sessionResponse(s *session.Session) SessionResponse {
	record := s.Record()
	return SessionResponse{
		ID:             s.ID,
		Record:         record,
		ReadyForReview: record.ReadyForReview(),
		CanReview:      s.CanReview(),
		Step:           s.Step().String(),
		DispatchState:  string(s.DispatchState()),
		Draft:          s.Draft(),
		Drafting:       s.Drafting(),
		CreatedAt:      s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func captureResponse(capture signature.Capture) CaptureResponse {
	return CaptureResponse{
		Kind:    capture.Kind.String(),
		DataURL: capture.DataURL,
		Width:   capture.Width,
		Height:  capture.Height,
	}
}

// attachment sends data as a download named fileName
func attachment(c *gin.Context, fileName, mediaType string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	c.Data(http.StatusOK, mediaType, data)
}
