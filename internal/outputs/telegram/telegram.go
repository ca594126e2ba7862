package telegram

import "context"

// Telegram message size limits, in characters.
const (
	MaxTextLength    = 4096
	MaxCaptionLength = 1024
)

// Message is one HTML-formatted chat message. When PhotoURL is set the text
// is sent as the photo caption.
type Message struct {
	ChatID         int64
	Text           string
	PhotoURL       string
	DisablePreview bool
}

type Sender interface {
	Send(ctx context.Context, message Message) error
}
