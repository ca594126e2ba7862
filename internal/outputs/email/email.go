package email

import "context"

// Message is one e-mail. Body is HTML; TextBody, when set, is sent as the
// plain-text alternative.
type Message struct {
	From     string
	To       string
	Subject  string
	Body     string
	TextBody string
}

type Sender interface {
	Send(ctx context.Context, message Message) error
}
