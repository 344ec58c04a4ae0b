package lark

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/dispatch"
)

// Sharer delivers the form to the organizer's Lark inbox: every file as a file
// message, followed by the title and text as a text message
type Sharer struct {
	api           *MessageAPI
	receiveIDType string
	receiveID     string
	logger        *zap.Logger
}

// NewSharer creates a sharer for cfg. The sharer reports itself unavailable
// when cfg is not Enabled.
func NewSharer(cfg Config, logger *zap.Logger) *Sharer {
	s := &Sharer{
		receiveIDType: cfg.ReceiveIDType,
		receiveID:     cfg.ReceiveID,
		logger:        logger,
	}
	if s.receiveIDType == "" {
		s.receiveIDType = "email"
	}
	if cfg.Enabled() {
		s.api = NewMessageAPI(NewClient(cfg, logger), logger)
	}
	return s
}

// CanShare reports whether the sharer is configured
func (s *Sharer) CanShare() bool {
	return s.api != nil
}

// Share sends req to the organizer
func (s *Sharer) Share(ctx context.Context, req dispatch.ShareRequest) dispatch.ShareOutcome {
	if s.api == nil {
		return dispatch.ShareFailed
	}

	for _, f := range req.Files {
		fileKey, err := s.api.UploadFile(ctx, f.Name, f.Data)
		if err != nil {
			return s.outcome(ctx, err)
		}
		if _, err := s.api.SendFile(ctx, s.receiveIDType, s.receiveID, fileKey); err != nil {
			return s.outcome(ctx, err)
		}
	}

	text := req.Title
	if req.Text != "" {
		text += "\n\n" + req.Text
	}
	if _, err := s.api.SendText(ctx, s.receiveIDType, s.receiveID, text); err != nil {
		return s.outcome(ctx, err)
	}

	s.logger.Info("Form shared via Lark",
		zap.String("receive_id", s.receiveID),
		zap.Int("files", len(req.Files)))
	return dispatch.ShareCompleted
}

func (s *Sharer) outcome(ctx context.Context, err error) dispatch.ShareOutcome {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		s.logger.Info("Share cancelled", zap.Error(err))
		return dispatch.ShareCancelled
	}
	s.logger.Error("Share failed", zap.Error(err))
	return dispatch.ShareFailed
}
