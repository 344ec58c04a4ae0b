// Command regform fills in a registration form from a YAML file, renders it to
// PDF and hands it to the organizer through a mail provider or the share channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/config"
	"github.com/garyjia/event-regform/internal/container"
	"github.com/garyjia/event-regform/internal/dispatch"
	"github.com/garyjia/event-regform/internal/platform"
	"github.com/garyjia/event-regform/internal/storage"
	"github.com/garyjia/event-regform/pkg/utils"
)

type options struct {
	configPath    string
	recordPath    string
	signaturePath string
	provider      string
	outDir        string
	noBrowser     bool
	saveDraft     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "configs/config.yaml", "path to the configuration file")
	flag.StringVar(&opts.recordPath, "record", "", "YAML file with the form fields")
	flag.StringVar(&opts.signaturePath, "signature", "", "PNG image of the signature")
	flag.StringVar(&opts.provider, "provider", "", "share, gmail, outlook or institutional; empty lists the available ones")
	flag.StringVar(&opts.outDir, "out", "", "directory for downloaded PDFs (default downloads.dir)")
	flag.BoolVar(&opts.noBrowser, "no-browser", false, "print the compose URL instead of opening it")
	flag.BoolVar(&opts.saveDraft, "save-draft", false, "also write the draft next to the PDF")
	flag.Parse()

	if opts.recordPath == "" {
		fmt.Fprintln(os.Stderr, "regform: -record is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "regform: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	// Keep stdout for the result
	if cfg.Logger.OutputPath == "" || cfg.Logger.OutputPath == "stdout" {
		cfg.Logger.OutputPath = "stderr"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	outDir := opts.outDir
	if outDir == "" {
		outDir = cfg.Downloads.Dir
	}

	downloads := storage.NewLocalFileStorage(outDir, logger)
	overrides := container.Overrides{
		Downloader: downloads,
		Clipboard:  platform.Clipboard{},
		Opener:     platform.NewBrowser(),
	}
	if opts.noBrowser {
		overrides.Opener = platform.Printer{Print: func(format string, args ...interface{}) {
			fmt.Fprintf(out, format, args...)
		}}
	}

	c, err := container.NewContainer(cfg, overrides, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	s := c.Store().Create()
	defer c.Store().Delete(s.ID)

	if err := applyRecordFile(s, opts.recordPath); err != nil {
		return fmt.Errorf("record %s: %w", opts.recordPath, err)
	}
	if opts.signaturePath != "" {
		capture, err := applySignatureFile(s, opts.signaturePath)
		if err != nil {
			return fmt.Errorf("signature %s: %w", opts.signaturePath, err)
		}
		logger.Info("Signature attached",
			zap.Int("width", capture.Width),
			zap.Int("height", capture.Height))
	}

	if err := s.Review(ctx); err != nil {
		return fmt.Errorf("form is incomplete: %w", err)
	}

	if opts.provider == "" {
		names := make([]string, 0, 4)
		for _, p := range s.Providers() {
			names = append(names, string(p))
		}
		fmt.Fprintf(out, "Providers: %s\n", strings.Join(names, ", "))
		return nil
	}

	draft, err := s.ComposeDraft(ctx, c.Composer())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Draft:\n%s\n\n", draft)
	if opts.saveDraft {
		name := storage.SanitizeFileName("draft_" + s.Record().FullName + ".txt")
		if err := downloads.SaveFile(filepath.Join(outDir, name), []byte(draft)); err != nil {
			return err
		}
	}

	result, err := s.Dispatch(ctx, dispatch.Provider(opts.provider))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Outcome: %s\n", result.Outcome)
	if result.DownloadLocation != "" {
		fmt.Fprintf(out, "Saved: %s\n", result.DownloadLocation)
	}
	if result.Outcome == dispatch.OutcomeSent {
		s.ConfirmDispatch(ctx)
	}
	return nil
}
