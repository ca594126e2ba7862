package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/boatwatch/internal/outputs/telegram"
)

type Sender struct {
	mu       sync.Mutex
	Messages []telegram.Message
	Err      error
	// PhotoErr fails only messages that carry a photo.
	PhotoErr error
}

func (s *Sender) Send(ctx context.Context, message telegram.Message) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if message.PhotoURL != "" && s.PhotoErr != nil {
		return s.PhotoErr
	}
	s.Messages = append(s.Messages, message)
	return nil
}

func (s *Sender) Sent() []telegram.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]telegram.Message(nil), s.Messages...)
}
