package dispatch

import (
	"context"

	"github.com/garyjia/event-regform/internal/export"
)

// Exporter produces the PDF of a mounted container
type Exporter interface {
	ExportBlob(ctx context.Context, containerID string) (*export.Blob, error)
}

// Clipboard receives the draft text so the user can paste it into the mail body
type Clipboard interface {
	WriteText(text string) error
}

// File is a named attachment
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// ShareRequest is handed to a native share target
type ShareRequest struct {
	Files []File
	Title string
	Text  string
}

// ShareOutcome is how a share attempt ended
type ShareOutcome int

const (
	ShareCompleted ShareOutcome = iota
	ShareCancelled
	ShareFailed
)

// Sharer is a native share target. CanShare reports whether files can be shared at all.
type Sharer interface {
	CanShare() bool
	Share(ctx context.Context, req ShareRequest) ShareOutcome
}

// URLOpener opens a compose URL for the user
type URLOpener interface {
	Open(ctx context.Context, url string) error
}
