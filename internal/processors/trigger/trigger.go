package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bakkerme/boatwatch/internal/core"
)

// IntervalProcessor fires once at start and then on a fixed interval, or on
// a cron schedule when one is set. Events go through a channel of depth one
// with a non-blocking send: firings that arrive while a cycle is still
// running collapse into a single pending event.
type IntervalProcessor struct {
	name     string
	interval time.Duration
	schedule string
	timezone string

	mu       sync.Mutex
	cron     *cron.Cron
	events   chan core.TriggerEvent
	stopOnce sync.Once
	now      func() time.Time
}

func NewIntervalProcessor(interval time.Duration) *IntervalProcessor {
	return &IntervalProcessor{
		name:     "interval",
		interval: interval,
		now:      time.Now,
	}
}

// NewCronProcessor fires on a standard five-field cron schedule.
func NewCronProcessor(schedule, timezone string) *IntervalProcessor {
	return &IntervalProcessor{
		name:     "cron",
		schedule: schedule,
		timezone: timezone,
		now:      time.Now,
	}
}

func (c *IntervalProcessor) Name() string {
	return c.name
}

func (c *IntervalProcessor) Validate() error {
	if c.schedule == "" && c.interval <= 0 {
		return fmt.Errorf("trigger interval must be positive")
	}
	if c.schedule != "" {
		if _, err := cron.ParseStandard(c.schedule); err != nil {
			return fmt.Errorf("invalid cron schedule: %w", err)
		}
	}
	if c.timezone != "" {
		if _, err := time.LoadLocation(c.timezone); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}
	return nil
}

func (c *IntervalProcessor) Start(ctx context.Context) (<-chan core.TriggerEvent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	location := time.UTC
	if c.timezone != "" {
		tz, err := time.LoadLocation(c.timezone)
		if err != nil {
			return nil, err
		}
		location = tz
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = make(chan core.TriggerEvent, 1)
	c.cron = cron.New(cron.WithLocation(location))
	if c.schedule != "" {
		if _, err := c.cron.AddFunc(c.schedule, c.fire); err != nil {
			return nil, err
		}
	} else {
		c.cron.Schedule(cron.Every(c.interval), cron.FuncJob(c.fire))
	}

	c.fire()
	c.cron.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return c.events, nil
}

func (c *IntervalProcessor) fire() {
	select {
	case c.events <- core.TriggerEvent{Name: c.name, Timestamp: core.NewTimestamp(c.now())}:
	default:
	}
}

func (c *IntervalProcessor) Stop() error {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		scheduler, events := c.cron, c.events
		c.mu.Unlock()
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		if events != nil {
			close(events)
		}
	})
	return nil
}
