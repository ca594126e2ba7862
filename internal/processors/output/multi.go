package output

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bakkerme/boatwatch/internal/core"
)

// Multi fans every notification out to several notifiers. All notifiers are
// attempted; their errors are joined.
type Multi struct {
	notifiers []core.Notifier
}

func NewMulti(notifiers ...core.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return strings.Join(names, "+")
}

func (m *Multi) NotifyItem(ctx context.Context, listing core.Listing) error {
	return m.each(func(n core.Notifier) error { return n.NotifyItem(ctx, listing) })
}

func (m *Multi) NotifyBatch(ctx context.Context, listings []core.Listing) error {
	return m.each(func(n core.Notifier) error { return n.NotifyBatch(ctx, listings) })
}

func (m *Multi) NotifyError(ctx context.Context, message string) error {
	return m.each(func(n core.Notifier) error { return n.NotifyError(ctx, message) })
}

// NotifyStatus reaches only the notifiers that implement core.StatusNotifier.
func (m *Multi) NotifyStatus(ctx context.Context, stats core.StoreStats) error {
	return m.each(func(n core.Notifier) error {
		status, ok := n.(core.StatusNotifier)
		if !ok {
			return nil
		}
		return status.NotifyStatus(ctx, stats)
	})
}

func (m *Multi) each(fn func(core.Notifier) error) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := fn(n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
