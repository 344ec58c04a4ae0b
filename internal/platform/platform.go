// Package platform provides the desktop side effects of a local dispatch:
// the system clipboard and the default browser.
package platform

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
)

// Clipboard writes to the system clipboard
type Clipboard struct{}

// WriteText replaces the clipboard contents with text
func (Clipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard unsupported on this system")
	}
	return clipboard.WriteAll(text)
}

// Browser opens URLs in the default browser
type Browser struct {
	// command builds the launcher invocation; replaced in tests
	command func(ctx context.Context, url string) *exec.Cmd
}

// NewBrowser creates a browser opener for the running OS
func NewBrowser() *Browser {
	return &Browser{command: launcher}
}

// Open starts the browser without waiting for it to exit
func (b *Browser) Open(ctx context.Context, url string) error {
	cmd := b.command(ctx, url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func launcher(ctx context.Context, url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "open", url)
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.CommandContext(ctx, "xdg-open", url)
	}
}

// Printer writes URLs to the terminal instead of opening them
type Printer struct {
	Print func(format string, args ...interface{})
}

// Open prints url
func (p Printer) Open(ctx context.Context, url string) error {
	p.Print("Compose URL: %s\n", url)
	return nil
}
