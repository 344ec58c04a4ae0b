// Package dispatch delivers the exported form to the organizer through a native
// share target or a pre-filled web-mail compose window.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/export"
)

// State is the dispatch progress shown to the user
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateSending    State = "sending"
	StateSuccess    State = "success"
)

const (
	eventGenerate = "generate"
	eventSend     = "send"
	eventSucceed  = "succeed"
	eventAbort    = "abort"
	eventConfirm  = "confirm"
)

const (
	// ShareTitle is the title of every share request
	ShareTitle = "แบบตอบรับเข้าร่วมโครงการ"

	defaultMailBody = "เรียน ผู้จัดงาน..."
)

var (
	// ErrDispatchInProgress is returned when a dispatch starts while another is running
	// or waiting for confirmation
	ErrDispatchInProgress = errors.New("dispatch already in progress")

	// ErrProviderUnavailable is returned for a provider this environment cannot serve
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUnknownProvider is returned for a provider name that does not exist
	ErrUnknownProvider = errors.New("unknown provider")
)

// Outcome is how a dispatch ended
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeAborted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeAborted:
		return "aborted"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Result describes a finished dispatch
type Result struct {
	Outcome          Outcome
	Provider         Provider
	FileName         string
	ComposeURL       string
	DownloadLocation string
	Record           entity.FormRecord
}

// Source supplies the record and the current draft of a session
type Source interface {
	Record() entity.FormRecord
	Draft() string
}

// Config holds the recipient and container settings
type Config struct {
	ContainerID          string
	OrganizerAddress     string
	InstitutionalBaseURL string
}

// Deps are the collaborators of an orchestrator. Clipboard, Sharer and Opener may be nil.
type Deps struct {
	Exporter   Exporter
	Downloader export.Downloader
	Clipboard  Clipboard
	Sharer     Sharer
	Opener     URLOpener
}

// Orchestrator runs the dispatch state machine of one session
type Orchestrator struct {
	mu       sync.Mutex
	machine  *fsm.FSM
	source   Source
	deps     Deps
	cfg      Config
	logger   *zap.Logger
	observer func(State)
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(source Source, deps Deps, cfg Config, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		source: source,
		deps:   deps,
		cfg:    cfg,
		logger: logger,
	}

	o.machine = fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventGenerate, Src: []string{string(StateIdle)}, Dst: string(StateGenerating)},
			{Name: eventSend, Src: []string{string(StateGenerating)}, Dst: string(StateSending)},
			{Name: eventSucceed, Src: []string{string(StateSending)}, Dst: string(StateSuccess)},
			{Name: eventAbort, Src: []string{string(StateGenerating), string(StateSending)}, Dst: string(StateIdle)},
			{Name: eventConfirm, Src: []string{string(StateSuccess)}, Dst: string(StateIdle)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				o.logger.Debug("Dispatch state changed",
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
					zap.String("event", e.Event))
				if o.observer != nil {
					o.observer(State(e.Dst))
				}
			},
		},
	)

	return o
}

// Observe registers fn to be called with every state entered. fn runs with the
// orchestrator locked and must not call back into it.
func (o *Orchestrator) Observe(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observer = fn
}

// State returns the current state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State(o.machine.Current())
}

// Providers lists the providers this orchestrator can serve
func (o *Orchestrator) Providers() []Provider {
	providers := make([]Provider, 0, 4)
	if o.canShare() {
		providers = append(providers, ProviderShare)
	}
	return append(providers, ProviderGmail, ProviderOutlook, ProviderInstitutional)
}

func (o *Orchestrator) canShare() bool {
	return o.deps.Sharer != nil && o.deps.Sharer.CanShare()
}

// Confirm acknowledges a successful dispatch and returns to idle.
// It reports false when there was nothing to acknowledge.
func (o *Orchestrator) Confirm(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.machine.Current() != string(StateSuccess) {
		return false
	}
	return o.fire(ctx, eventConfirm) == nil
}

// Dispatch exports the form and delivers it through provider
func (o *Orchestrator) Dispatch(ctx context.Context, provider Provider) (Result, error) {
	if !provider.IsValid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if provider == ProviderShare && !o.canShare() {
		return Result{}, fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}

	if err := o.start(ctx); err != nil {
		return Result{}, err
	}

	record := o.source.Record()
	result := Result{Provider: provider, FileName: record.DispatchFileName(), Record: record}

	blob, err := o.deps.Exporter.ExportBlob(ctx, o.cfg.ContainerID)
	if err != nil || blob == nil {
		if err != nil {
			o.logger.Error("Export failed", zap.Error(err))
		} else {
			o.logger.Warn("Nothing to export", zap.String("container_id", o.cfg.ContainerID))
		}
		o.step(ctx, eventAbort)
		result.Outcome = OutcomeAborted
		return result, nil
	}

	file := File{Name: result.FileName, MediaType: blob.MediaType, Data: blob.Data}

	draft := o.source.Draft()
	if draft != "" && o.deps.Clipboard != nil {
		if err := o.deps.Clipboard.WriteText(draft); err != nil {
			o.logger.Warn("Failed to copy draft to clipboard", zap.Error(err))
		}
	}

	o.step(ctx, eventSend)

	if provider == ProviderShare {
		return o.share(ctx, result, file, record, draft), nil
	}
	return o.webMail(ctx, result, blob, record, draft)
}

func (o *Orchestrator) share(ctx context.Context, result Result, file File, record entity.FormRecord, draft string) Result {
	text := draft
	if text == "" {
		text = "ส่งใบตอบรับของ " + record.FullName
	}

	outcome := o.deps.Sharer.Share(ctx, ShareRequest{
		Files: []File{file},
		Title: ShareTitle,
		Text:  text,
	})
	if outcome != ShareCompleted {
		o.logger.Info("Share did not complete", zap.Int("outcome", int(outcome)))
		o.step(ctx, eventAbort)
		result.Outcome = OutcomeCancelled
		return result
	}

	o.step(ctx, eventSucceed)
	result.Outcome = OutcomeSent
	return result
}

func (o *Orchestrator) webMail(ctx context.Context, result Result, blob *export.Blob, record entity.FormRecord, draft string) (Result, error) {
	location, err := o.deps.Downloader.Download(ctx, result.FileName, blob)
	if err != nil {
		o.logger.Error("Download failed", zap.String("file_name", result.FileName), zap.Error(err))
		o.step(ctx, eventAbort)
		result.Outcome = OutcomeAborted
		return result, nil
	}
	result.DownloadLocation = location

	body := draft
	if body == "" {
		body = defaultMailBody
	}
	result.ComposeURL = ComposeURL(result.Provider, Message{
		To:      o.cfg.OrganizerAddress,
		Subject: "ใบตอบรับ: " + record.ProjectName + " - " + record.FullName,
		Body:    body,
	}, o.cfg.InstitutionalBaseURL)

	if o.deps.Opener != nil {
		if err := o.deps.Opener.Open(ctx, result.ComposeURL); err != nil {
			o.logger.Warn("Failed to open compose window", zap.Error(err))
		}
	}

	o.step(ctx, eventSucceed)
	result.Outcome = OutcomeSent

	o.logger.Info("Dispatch completed",
		zap.String("provider", string(result.Provider)),
		zap.String("file_name", result.FileName),
		zap.String("location", location))
	return result, nil
}

func (o *Orchestrator) start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.machine.Current() != string(StateIdle) {
		return ErrDispatchInProgress
	}
	return o.fire(ctx, eventGenerate)
}

// step fires a transition that is always legal from the current state
func (o *Orchestrator) step(ctx context.Context, event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.fire(ctx, event); err != nil {
		o.logger.Error("Dispatch transition failed", zap.String("event", event), zap.Error(err))
	}
}

// fire runs event on the machine; callers hold mu
func (o *Orchestrator) fire(ctx context.Context, event string) error {
	// The caller's context may already be cancelled; the transition must still happen.
	if err := o.machine.Event(context.WithoutCancel(ctx), event); err != nil {
		return fmt.Errorf("dispatch event %s: %w", event, err)
	}
	return nil
}
