package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/dispatch"
	"github.com/garyjia/event-regform/internal/document"
	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/domain/workflow"
	"github.com/garyjia/event-regform/internal/export"
	"github.com/garyjia/event-regform/internal/signature"
)

// Options configures every session created by a store
type Options struct {
	Defaults entity.EventDefaults
	Fonts    *document.FontSet
	Pad      signature.Options

	// Dispatch collaborators shared by all sessions. The exporter is per session.
	Downloader           export.Downloader
	Clipboard            dispatch.Clipboard
	Sharer               dispatch.Sharer
	Opener               dispatch.URLOpener
	OrganizerAddress     string
	InstitutionalBaseURL string

	Journal Journal

	// IdleTTL evicts sessions not fetched for this long. Zero keeps them until deleted.
	IdleTTL time.Duration
}

// Store owns the sessions of a running service
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore(opts Options, logger *zap.Logger) *Store {
	if opts.Fonts == nil {
		opts.Fonts = document.DefaultFonts()
	}
	if opts.Pad.Width == 0 {
		opts.Pad = signature.DefaultOptions()
	}
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a new session with an empty record
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		record:    entity.NewFormRecord(st.opts.Defaults, now),
		pad:       signature.NewPad(st.opts.Pad),
		registry:  document.NewRegistry(),
		journal:   st.opts.Journal,
	}
	s.logger = st.logger.With(zap.String("session_id", s.ID))

	s.steps = workflow.NewFormSteps(func(ctx context.Context) bool {
		return s.Record().ReadyForReview()
	})

	s.registry.Mount(document.DefaultContainerID, document.NewPage(s, st.opts.Fonts, s.logger))
	s.exporter = export.NewExporter(s.registry, s.logger)
	s.orchestrator = dispatch.NewOrchestrator(s, dispatch.Deps{
		Exporter:   s.exporter,
		Downloader: st.opts.Downloader,
		Clipboard:  st.opts.Clipboard,
		Sharer:     st.opts.Sharer,
		Opener:     st.opts.Opener,
	}, dispatch.Config{
		ContainerID:          document.DefaultContainerID,
		OrganizerAddress:     st.opts.OrganizerAddress,
		InstitutionalBaseURL: st.opts.InstitutionalBaseURL,
	}, s.logger)

	st.mu.Lock()
	expired := st.sweep(now)
	s.lastSeen = now
	st.sessions[s.ID] = s
	st.mu.Unlock()

	for _, old := range expired {
		old.Close()
	}

	st.logger.Info("Session created", zap.String("session_id", s.ID))
	return s
}

// Get returns the session with id and marks it as seen. An idle session past its
// TTL is evicted and reported as not found.
func (st *Store) Get(id string) (*Session, error) {
	now := st.now()

	st.mu.Lock()
	s, ok := st.sessions[id]
	if !ok {
		st.mu.Unlock()
		return nil, ErrNotFound
	}
	if st.expired(s, now) {
		delete(st.sessions, id)
		st.mu.Unlock()
		st.logger.Info("Session expired", zap.String("session_id", id))
		s.Close()
		return nil, ErrNotFound
	}
	s.lastSeen = now
	st.mu.Unlock()

	return s, nil
}

// Delete closes and forgets the session with id
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.opts.IdleTTL > 0 && now.Sub(s.lastSeen) > st.opts.IdleTTL
}

// sweep drops idle sessions and returns them for closing outside the lock.
// Callers hold mu.
func (st *Store) sweep(now time.Time) []*Session {
	var expired []*Session
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			expired = append(expired, s)
		}
	}
	if len(expired) > 0 {
		st.logger.Info("Idle sessions evicted", zap.Int("count", len(expired)))
	}
	return expired
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
