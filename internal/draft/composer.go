// Package draft writes the formal cover message that accompanies a dispatched form.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/domain/entity"
)

var (
	errNoChoices    = errors.New("no choices in completion")
	errBlankContent = errors.New("completion content is blank")
)

// ChatCompleter is the part of the OpenAI client the composer needs
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures the remote model
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Composer asks a language model for a cover message and falls back to a fixed
// template whenever the model cannot answer
type Composer struct {
	client ChatCompleter
	opts   Options
	logger *zap.Logger
}

// NewComposer creates a composer backed by an OpenAI-compatible endpoint.
// Without an API key the composer always returns the fallback.
func NewComposer(opts Options, logger *zap.Logger) *Composer {
	var client ChatCompleter
	if opts.APIKey != "" {
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		client = openai.NewClientWithConfig(cfg)
	}
	return NewComposerWithClient(client, opts, logger)
}

// NewComposerWithClient creates a composer around an existing client
func NewComposerWithClient(client ChatCompleter, opts Options, logger *zap.Logger) *Composer {
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	return &Composer{client: client, opts: opts, logger: logger}
}

// ComposeDraft returns the cover message for record. It never fails.
func (c *Composer) ComposeDraft(ctx context.Context, record entity.FormRecord) string {
	text, err := c.complete(ctx, record)
	if err != nil {
		c.logger.Warn("Draft generation failed, using fallback",
			zap.String("full_name", record.FullName),
			zap.Error(err))
		return FallbackDraft(record.FullName)
	}

	c.logger.Info("Draft generated",
		zap.String("full_name", record.FullName),
		zap.Int("length", len(text)))
	return text
}

func (c *Composer) complete(ctx context.Context, record entity.FormRecord) (string, error) {
	if c.client == nil {
		return "", errors.New("no API key configured")
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(record),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errBlankContent
	}
	return content, nil
}

// BuildPrompt builds the instruction sent to the model
func BuildPrompt(r entity.FormRecord) string {
	return fmt.Sprintf(`เขียนเนื้อหาอีเมลภาษาไทยแบบเป็นทางการ เพื่อส่งใบตอบรับเข้าร่วมโครงการ "%s"
ถึงผู้จัดงาน (%s)
จากผู้สมัครชื่อ %s ตำแหน่ง %s สังกัด %s
เนื้อหาต้องระบุว่าได้แนบใบตอบรับมาพร้อมนี้แล้ว และขอให้ตอบกลับเพื่อยืนยันการลงทะเบียน
ใช้น้ำเสียงสุภาพ เป็นทางการแบบราชการ`,
		r.ProjectName, r.Organizer, r.FullName, r.Position, r.Department)
}

// FallbackDraft is the fixed message used when the model is unavailable
func FallbackDraft(fullName string) string {
	return "เรียน ทีมงานผู้จัดโครงการ\n\nข้าพเจ้า " + fullName +
		" ขอส่งใบตอบรับเข้าร่วมโครงการแนบมาพร้อมกับอีเมลฉบับนี้\n\nจึงเรียนมาเพื่อโปรดพิจารณาลงทะเบียน"
}
