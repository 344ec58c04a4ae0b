// Package session keeps the tab-scoped state of each registration in progress.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/dispatch"
	"github.com/garyjia/event-regform/internal/document"
	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/domain/workflow"
	"github.com/garyjia/event-regform/internal/export"
	"github.com/garyjia/event-regform/internal/signature"
)

var (
	// ErrNotFound is returned for an unknown session id
	ErrNotFound = errors.New("session not found")

	// ErrDraftInProgress is returned when a draft is requested while one is being composed
	ErrDraftInProgress = errors.New("draft already in progress")

	// ErrNotReviewing is returned when dispatch is requested outside the review step
	ErrNotReviewing = errors.New("form is not in review")

	// ErrReviewLocked is returned for record writes during the review step
	ErrReviewLocked = errors.New("form is locked for review")

	// ErrIncomplete is returned when an incomplete record is dispatched
	ErrIncomplete = errors.New("form is incomplete")
)

// DraftComposer writes the cover message for a record
type DraftComposer interface {
	ComposeDraft(ctx context.Context, record entity.FormRecord) string
}

// Journal records dispatches that reached the organizer
type Journal interface {
	Append(ctx context.Context, sessionID string, result dispatch.Result) error
}

// Session is one registration in progress
type Session struct {
	ID        string
	CreatedAt time.Time

	lastSeen time.Time // guarded by the store

	mu       sync.RWMutex
	record   entity.FormRecord
	draft    string
	drafting bool

	pad          *signature.Pad
	steps        workflow.StateMachine
	registry     *document.Registry
	exporter     *export.Exporter
	orchestrator *dispatch.Orchestrator
	journal      Journal
	logger       *zap.Logger
}

// Record returns a copy of the current record
func (s *Session) Record() entity.FormRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Draft returns the current draft text, empty when none was composed
func (s *Session) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Drafting reports whether a draft is being composed
func (s *Session) Drafting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafting
}

// Step returns the current form step
func (s *Session) Step() workflow.State {
	return s.steps.State()
}

// DispatchState returns the current dispatch state
func (s *Session) DispatchState() dispatch.State {
	return s.orchestrator.State()
}

// CanReview reports whether the review step is offered right now
func (s *Session) CanReview() bool {
	return s.steps.CanFire(workflow.TriggerReview) && s.Record().ReadyForReview()
}

// writable rejects record writes outside data entry. It must be called without
// s.mu held; the step guard reads the record.
func (s *Session) writable() error {
	if s.steps.State() != workflow.StateEditing {
		return ErrReviewLocked
	}
	return nil
}

// Update replaces one field. Unknown fields and values of the wrong kind leave the
// record unchanged, and so does any write during review.
func (s *Session) Update(field string, value interface{}) (entity.FormRecord, error) {
	if err := s.writable(); err != nil {
		return s.Record(), err
	}
	if err := checkImageField(field, value); err != nil {
		return s.Record(), err
	}
	return s.update(field, value)
}

func (s *Session) update(field string, value interface{}) (entity.FormRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.record.With(field, value)
	if err != nil {
		return s.record, err
	}
	s.record = next
	return next, nil
}

// checkImageField bounds the images that arrive as data URLs
func checkImageField(field string, value interface{}) error {
	v, ok := value.(string)
	if !ok || v == "" {
		return nil
	}
	switch field {
	case entity.FieldSignatureData:
		return signature.CheckDataURL(v, signature.SignatureLimits)
	case entity.FieldPaymentSlip:
		return signature.CheckDataURL(v, signature.SlipLimits)
	}
	return nil
}

// SetDraft replaces the draft text, as when the user edits it by hand
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// DrawStrokes records strokes on the pad and completes the last one
func (s *Session) DrawStrokes(strokes [][]signature.Point) (signature.Capture, error) {
	if err := s.writable(); err != nil {
		return signature.Capture{}, err
	}
	for _, stroke := range strokes {
		s.pad.AddStroke(stroke)
	}
	return s.applyCapture(s.pad.EndStroke()), nil
}

// UploadSignature stores a canvas image sent by the client, trimmed to its ink
func (s *Session) UploadSignature(dataURL string) (signature.Capture, error) {
	if err := s.writable(); err != nil {
		return signature.Capture{}, err
	}
	capture, err := signature.TrimDataURL(dataURL)
	if err != nil {
		return capture, err
	}
	return s.applyCapture(capture), nil
}

// ClearSignature wipes the pad and the stored signature
func (s *Session) ClearSignature() (signature.Capture, error) {
	if err := s.writable(); err != nil {
		return signature.Capture{}, err
	}
	return s.applyCapture(s.pad.Clear()), nil
}

func (s *Session) applyCapture(c signature.Capture) signature.Capture {
	switch c.Kind {
	case signature.CaptureSaved:
		_, _ = s.update(entity.FieldSignatureData, c.DataURL)
	case signature.CaptureCleared:
		_, _ = s.update(entity.FieldSignatureData, "")
	}
	return c
}

// Review moves to the review step when the record is complete
func (s *Session) Review(ctx context.Context) error {
	return s.steps.Fire(ctx, workflow.TriggerReview)
}

// Edit goes back to data entry
func (s *Session) Edit(ctx context.Context) error {
	return s.steps.Fire(ctx, workflow.TriggerEdit)
}

// ComposeDraft asks composer for a cover message and stores it.
// Only one draft may be composed at a time.
func (s *Session) ComposeDraft(ctx context.Context, composer DraftComposer) (string, error) {
	s.mu.Lock()
	if s.drafting {
		s.mu.Unlock()
		return "", ErrDraftInProgress
	}
	s.drafting = true
	record := s.record
	s.mu.Unlock()

	text := composer.ComposeDraft(ctx, record)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
	s.drafting = false
	return text, nil
}

// Snapshot renders the document page
func (s *Session) Snapshot(ctx context.Context, scale float64) (*image.RGBA, error) {
	c, ok := s.registry.Lookup(document.DefaultContainerID)
	if !ok {
		return nil, fmt.Errorf("document container %q not mounted", document.DefaultContainerID)
	}
	return c.Snapshot(ctx, document.SnapshotOptions{Scale: scale, Logging: true})
}

// ExportPDF exports the document page. A nil blob means there was nothing to export.
func (s *Session) ExportPDF(ctx context.Context) (*export.Blob, error) {
	return s.exporter.ExportBlob(ctx, document.DefaultContainerID)
}

// Download exports the document page and hands it to sink under the stand-alone file name
func (s *Session) Download(ctx context.Context, sink export.Downloader) (string, error) {
	return s.exporter.DownloadBlob(ctx, document.DefaultContainerID, s.Record().DownloadFileName(), sink)
}

// Providers lists the send paths available to this session
func (s *Session) Providers() []dispatch.Provider {
	return s.orchestrator.Providers()
}

// Dispatch sends the form through provider. It is only offered during review.
func (s *Session) Dispatch(ctx context.Context, provider dispatch.Provider) (dispatch.Result, error) {
	if s.steps.State() != workflow.StateReviewing {
		return dispatch.Result{}, ErrNotReviewing
	}
	// A write that raced the review step can still leave the record incomplete
	if !s.Record().ReadyForReview() {
		return dispatch.Result{}, ErrIncomplete
	}
	result, err := s.orchestrator.Dispatch(ctx, provider)
	if err != nil || result.Outcome != dispatch.OutcomeSent || s.journal == nil {
		return result, err
	}

	if err := s.journal.Append(ctx, s.ID, result); err != nil {
		s.logger.Error("Failed to record dispatch",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
	return result, nil
}

// ConfirmDispatch acknowledges a successful dispatch
func (s *Session) ConfirmDispatch(ctx context.Context) bool {
	return s.orchestrator.Confirm(ctx)
}

// Close unmounts the document page
func (s *Session) Close() {
	s.registry.Unmount(document.DefaultContainerID)
}
