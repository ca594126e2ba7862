package output

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
	"github.com/bakkerme/boatwatch/internal/outputs/telegram"
)

// TelegramProcessor posts new listings to a Telegram chat.
type TelegramProcessor struct {
	name   string
	config config.TelegramOutput
	sender telegram.Sender
	logger *slog.Logger
}

func NewTelegramProcessor(cfg *config.TelegramOutput, sender telegram.Sender, logger *slog.Logger) (*TelegramProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramProcessor{
		name:   "telegram",
		config: *cfg,
		sender: sender,
		logger: logger,
	}, nil
}

func (p *TelegramProcessor) Name() string {
	return p.name
}

func (p *TelegramProcessor) Validate() error {
	if p.sender == nil {
		return fmt.Errorf("telegram sender is required")
	}
	if p.config.ChatID == 0 {
		return fmt.Errorf("telegram chat_id is required")
	}
	return nil
}

// NotifyItem sends one listing, as a photo with caption when the listing has
// an image. A failed photo send is retried once as plain text.
func (p *TelegramProcessor) NotifyItem(ctx context.Context, listing core.Listing) error {
	if err := p.Validate(); err != nil {
		return err
	}
	text, err := FormatItemHTML(listing)
	if err != nil {
		return err
	}
	message := p.message(text)
	if listing.ImageURL != "" && utf8.RuneCountInString(text) <= telegram.MaxCaptionLength {
		photo := message
		photo.PhotoURL = listing.ImageURL
		err := p.sender.Send(ctx, photo)
		if err == nil {
			return nil
		}
		core.Logger(ctx, p.logger).Warn("photo send failed, falling back to text",
			slog.String("listing_id", listing.ID),
			slog.Any("error", err),
		)
	}
	if err := p.sender.Send(ctx, message); err != nil {
		return fmt.Errorf("send listing %s: %w", listing.ID, err)
	}
	return nil
}

func (p *TelegramProcessor) NotifyBatch(ctx context.Context, listings []core.Listing) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(listings) == 0 {
		return nil
	}
	texts, err := FormatBatchHTML(listings, telegram.MaxTextLength)
	if err != nil {
		return err
	}
	for _, text := range texts {
		message := p.message(text)
		if err := p.sender.Send(ctx, message); err != nil {
			return fmt.Errorf("send batch summary: %w", err)
		}
	}
	return nil
}

func (p *TelegramProcessor) NotifyError(ctx context.Context, text string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	rendered, err := FormatErrorHTML(text)
	if err != nil {
		return err
	}
	if err := p.sender.Send(ctx, p.message(rendered)); err != nil {
		return fmt.Errorf("send error alert: %w", err)
	}
	return nil
}

func (p *TelegramProcessor) NotifyStatus(ctx context.Context, stats core.StoreStats) error {
	if err := p.Validate(); err != nil {
		return err
	}
	rendered, err := FormatStatusHTML(stats)
	if err != nil {
		return err
	}
	if err := p.sender.Send(ctx, p.message(rendered)); err != nil {
		return fmt.Errorf("send status: %w", err)
	}
	return nil
}

func (p *TelegramProcessor) message(text string) telegram.Message {
	return telegram.Message{
		ChatID:         p.config.ChatID,
		Text:           text,
		DisablePreview: p.config.DisablePreview,
	}
}
