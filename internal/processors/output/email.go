package output

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
	"github.com/bakkerme/boatwatch/internal/outputs/email"
)

const defaultEmailSubject = "boatwatch"

// EmailProcessor mails new listings. Bodies are written as Markdown and sent
// as HTML with the Markdown source as the plain-text part.
type EmailProcessor struct {
	name      string
	config    config.EmailOutput
	sender    email.Sender
	converter goldmark.Markdown
}

func NewEmailProcessor(cfg *config.EmailOutput, sender email.Sender) (*EmailProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("email config is required")
	}
	return &EmailProcessor{
		name:      "email",
		config:    *cfg,
		sender:    sender,
		converter: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

func (p *EmailProcessor) Name() string {
	return p.name
}

func (p *EmailProcessor) Validate() error {
	if p.sender == nil {
		return fmt.Errorf("email sender is required")
	}
	if p.config.To == "" {
		return fmt.Errorf("email to is required")
	}
	return nil
}

func (p *EmailProcessor) NotifyItem(ctx context.Context, listing core.Listing) error {
	return p.deliver(ctx, "item", listing, listing.Title)
}

func (p *EmailProcessor) NotifyBatch(ctx context.Context, listings []core.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	return p.deliver(ctx, "batch", listings, fmt.Sprintf("%d new listings", len(listings)))
}

func (p *EmailProcessor) NotifyError(ctx context.Context, message string) error {
	return p.deliver(ctx, "error", message, "error")
}

func (p *EmailProcessor) NotifyStatus(ctx context.Context, stats core.StoreStats) error {
	return p.deliver(ctx, "status", newStatusView(stats), "status")
}

func (p *EmailProcessor) deliver(ctx context.Context, templateName string, data interface{}, topic string) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("email processor validation failed: %w", err)
	}
	markdown, err := renderMarkdownTemplate(templateName, data)
	if err != nil {
		return err
	}
	var html bytes.Buffer
	if err := p.converter.Convert([]byte(markdown), &html); err != nil {
		return fmt.Errorf("render email html: %w", err)
	}
	return p.sender.Send(ctx, email.Message{
		From:     p.config.From,
		To:       p.config.To,
		Subject:  p.subject(topic),
		Body:     html.String(),
		TextBody: markdown,
	})
}

func (p *EmailProcessor) subject(topic string) string {
	prefix := p.config.Subject
	if prefix == "" {
		prefix = defaultEmailSubject
	}
	if topic == "" {
		return prefix
	}
	return prefix + ": " + topic
}
