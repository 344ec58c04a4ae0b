// Package container wires the registration service together.
// Components are built in dependency order and torn down in reverse.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/config"
	"github.com/garyjia/event-regform/internal/dispatch"
	"github.com/garyjia/event-regform/internal/draft"
	"github.com/garyjia/event-regform/internal/export"
	"github.com/garyjia/event-regform/internal/repository"
	"github.com/garyjia/event-regform/internal/roster"
	"github.com/garyjia/event-regform/internal/session"
	"github.com/garyjia/event-regform/pkg/database"
)

// Overrides replace the host collaborators of a dispatch. The HTTP service leaves
// them nil and hands the clipboard text and compose URL back to the client.
type Overrides struct {
	Downloader export.Downloader
	Clipboard  dispatch.Clipboard
	Opener     dispatch.URLOpener
	Sharer     dispatch.Sharer
}

// Container owns every long-lived component
type Container struct {
	config    *config.Config
	overrides Overrides
	logger    *zap.Logger

	db          *database.DB
	submissions *repository.SubmissionRepository

	composer  *draft.Composer
	links     *export.LinkStore
	previewer *export.Previewer
	roster    *roster.Builder
	store     *session.Store

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a container. Call Start to build the components.
func NewContainer(cfg *config.Config, overrides Overrides, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Container{
		config:    cfg,
		overrides: overrides,
		logger:    logger,
	}, nil
}

// Start builds the components:
// 1. Dispatch log (optional)
// 2. Draft composer and share channel
// 3. Renderer fonts and session store
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	db, submissions, err := ProvideSubmissionLog(&c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatch log: %w", err)
	}
	c.db, c.submissions = db, submissions

	c.composer = ProvideComposer(&c.config.OpenAI, c.logger)

	sharer := c.overrides.Sharer
	if sharer == nil {
		sharer = ProvideSharer(&c.config.Lark, c.logger)
	}

	fonts, err := ProvideFonts(&c.config.Document, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to load fonts: %w", err)
	}

	c.links = export.NewLinkStore("/api/downloads/", c.config.Downloads.LinkTTL)
	c.previewer = export.NewPreviewer(c.config.Document.PreviewDPI, c.logger)
	c.roster = roster.NewBuilder(c.logger)

	downloader := c.overrides.Downloader
	if downloader == nil {
		downloader = c.links
	}

	opts := session.Options{
		Defaults:             c.config.Event.Defaults(),
		IdleTTL:              c.config.Server.SessionTTL,
		Fonts:                fonts,
		Downloader:           downloader,
		Clipboard:            c.overrides.Clipboard,
		Sharer:               sharer,
		Opener:               c.overrides.Opener,
		OrganizerAddress:     c.config.Email.OrganizerAddress,
		InstitutionalBaseURL: c.config.Email.InstitutionalBaseURL,
	}
	// A nil repository must stay a nil interface
	if c.submissions != nil {
		opts.Journal = c.submissions
	}
	c.store = session.NewStore(opts, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully",
		zap.Bool("dispatch_log", c.submissions != nil),
		zap.Bool("share", sharer.CanShare()),
		zap.Bool("draft_model", c.config.OpenAI.APIKey != ""))
	return nil
}

// Close releases the components in reverse order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	err := c.closeDatabase()

	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	c.db = nil
	return err
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case !c.ready.Load():
		status.Overall = false
		status.Components["store"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		return status
	case c.db == nil:
		status.Components["database"] = ComponentHealth{Healthy: true, Message: "disabled"}
	default:
		if err := c.db.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			health := ComponentHealth{Healthy: true}
			if version, err := database.NewMigrator(c.db, c.logger).Version(); err == nil {
				health.Message = fmt.Sprintf("schema version %d", version)
			}
			status.Components["database"] = health
		}
	}

	status.Components["store"] = ComponentHealth{
		Healthy: true,
		Message: fmt.Sprintf("sessions: %d", c.store.Len()),
	}
	return status
}

// Store returns the session store
func (c *Container) Store() *session.Store { return c.store }

// Composer returns the draft composer
func (c *Container) Composer() *draft.Composer { return c.composer }

// Links returns the one-shot download links
func (c *Container) Links() *export.LinkStore { return c.links }

// Previewer returns the page previewer
func (c *Container) Previewer() *export.Previewer { return c.previewer }

// Roster returns the roster builder
func (c *Container) Roster() *roster.Builder { return c.roster }

// Submissions returns the dispatch log, nil when disabled
func (c *Container) Submissions() *repository.SubmissionRepository { return c.submissions }
