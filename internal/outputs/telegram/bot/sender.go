package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bakkerme/boatwatch/internal/outputs/telegram"
)

type Sender struct {
	api *tgbotapi.BotAPI
}

// NewSender creates a Bot API sender. The token is not checked against the
// API until the first message is sent. An empty endpoint selects the public
// Bot API.
func NewSender(token, endpoint string, timeout time.Duration) (*Sender, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	api.SetAPIEndpoint(endpoint)
	return &Sender{api: api}, nil
}

func (s *Sender) Send(ctx context.Context, message telegram.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var chattable tgbotapi.Chattable
	if message.PhotoURL != "" {
		photo := tgbotapi.NewPhoto(message.ChatID, tgbotapi.FileURL(message.PhotoURL))
		photo.Caption = message.Text
		photo.ParseMode = tgbotapi.ModeHTML
		chattable = photo
	} else {
		text := tgbotapi.NewMessage(message.ChatID, message.Text)
		text.ParseMode = tgbotapi.ModeHTML
		text.DisableWebPagePreview = message.DisablePreview
		chattable = text
	}

	if _, err := s.api.Send(chattable); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
