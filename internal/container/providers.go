package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/config"
	"github.com/garyjia/event-regform/internal/document"
	"github.com/garyjia/event-regform/internal/draft"
	"github.com/garyjia/event-regform/internal/lark"
	"github.com/garyjia/event-regform/internal/repository"
	"github.com/garyjia/event-regform/migrations"
	"github.com/garyjia/event-regform/pkg/database"
)

// ProvideSubmissionLog opens the dispatch log and applies pending migrations.
// An empty database path disables the log and returns nils.
func ProvideSubmissionLog(cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, *repository.SubmissionRepository, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("database config is required")
	}
	if cfg.Path == "" {
		logger.Info("Dispatch log disabled")
		return nil, nil, nil
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(migrations.FS)
	}
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, repository.NewSubmissionRepository(db.DB, logger), nil
}

// ProvideComposer creates the draft composer
func ProvideComposer(cfg *config.OpenAIConfig, logger *zap.Logger) *draft.Composer {
	if cfg.APIKey == "" {
		logger.Warn("No OpenAI API key configured, drafts use the fixed template")
	}
	return draft.NewComposer(draft.Options{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}, logger)
}

// ProvideSharer creates the Lark share channel. It reports CanShare false when
// credentials or a recipient are missing.
func ProvideSharer(cfg *config.LarkConfig, logger *zap.Logger) *lark.Sharer {
	return lark.NewSharer(lark.Config{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		BaseURL:       cfg.BaseURL,
		ReceiveIDType: cfg.ReceiveIDType,
		ReceiveID:     cfg.ReceiveID,
	}, logger)
}

// ProvideFonts loads the renderer fonts
func ProvideFonts(cfg *config.DocumentConfig, logger *zap.Logger) (*document.FontSet, error) {
	if cfg.FontRegular == "" || cfg.FontBold == "" {
		logger.Warn("Document fonts not configured, Thai text will not render",
			zap.String("font_regular", cfg.FontRegular),
			zap.String("font_bold", cfg.FontBold))
	}
	return document.LoadFonts(cfg.FontRegular, cfg.FontBold)
}
