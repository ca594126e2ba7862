package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
	"github.com/bakkerme/boatwatch/internal/dedupe"
	"github.com/bakkerme/boatwatch/internal/observability/metrics"
	"github.com/bakkerme/boatwatch/internal/outputs/email"
	"github.com/bakkerme/boatwatch/internal/outputs/email/smtp"
	"github.com/bakkerme/boatwatch/internal/outputs/telegram"
	"github.com/bakkerme/boatwatch/internal/outputs/telegram/bot"
	"github.com/bakkerme/boatwatch/internal/processors/filter"
	"github.com/bakkerme/boatwatch/internal/processors/output"
	"github.com/bakkerme/boatwatch/internal/processors/source"
	"github.com/bakkerme/boatwatch/internal/processors/trigger"
	"github.com/bakkerme/boatwatch/internal/runner"
	"github.com/bakkerme/boatwatch/internal/runner/snapshot"
	"github.com/bakkerme/boatwatch/internal/sources/boats"
	boatsimpl "github.com/bakkerme/boatwatch/internal/sources/boats/impl"
	"github.com/bakkerme/boatwatch/internal/sources/feed"
	feedimpl "github.com/bakkerme/boatwatch/internal/sources/feed/impl"
)

type Factory struct {
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
	SMTPDefaults     config.SMTPEnvConfig
	TelegramDefaults config.TelegramEnvConfig
	BoatsScraper     boats.Scraper
	FeedFetcher      feed.Fetcher
	// Senders left nil are built from the merged YAML config and env defaults,
	// so per-notifier overrides in the document take effect.
	EmailSender    email.Sender
	TelegramSender telegram.Sender
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		Logger:           logger,
		SMTPDefaults:     env.SMTP,
		TelegramDefaults: env.Telegram,
		BoatsScraper:     boatsimpl.NewScraper(env.Boats.HTTPTimeout, env.Boats.UserAgent),
		FeedFetcher:      feedimpl.NewFetcher(env.Feed.HTTPTimeout, env.Feed.UserAgent),
	}
}

// NewTrigger returns a cron trigger when the document sets a schedule and an
// interval trigger otherwise.
func (f *Factory) NewTrigger(cfg config.WatchConfig) core.Trigger {
	if cfg.Schedule != "" {
		return trigger.NewCronProcessor(cfg.Schedule, cfg.Timezone)
	}
	return trigger.NewIntervalProcessor(cfg.Interval.Std())
}

func (f *Factory) NewBoatsSource(cfg *config.BoatsSource) (core.ListingSource, error) {
	processor, err := source.NewBoatsProcessor(cfg, f.BoatsScraper, f.Logger)
	if err != nil {
		return nil, err
	}
	return snapshot.WrapSource(processor, cfg.Snapshot), nil
}

func (f *Factory) NewFeedSource(cfg *config.FeedSource) (core.ListingSource, error) {
	processor, err := source.NewFeedProcessor(cfg, f.FeedFetcher, f.Logger)
	if err != nil {
		return nil, err
	}
	return snapshot.WrapSource(processor, cfg.Snapshot), nil
}

func (f *Factory) NewSources(doc *config.Document) ([]core.ListingSource, error) {
	sources := make([]core.ListingSource, 0, len(doc.Sources))
	for i, cfg := range doc.Sources {
		var (
			src core.ListingSource
			err error
		)
		switch {
		case cfg.Boats != nil:
			src, err = f.NewBoatsSource(cfg.Boats)
		case cfg.Feed != nil:
			src, err = f.NewFeedSource(cfg.Feed)
		default:
			err = fmt.Errorf("unsupported source type")
		}
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// NewFilters returns the country exclusion followed by the document's rules.
func (f *Factory) NewFilters(doc *config.Document) ([]core.ListingFilter, error) {
	filters := []core.ListingFilter{filter.NewCountryExclusion(f.Logger)}
	for i := range doc.Rules {
		rule, err := filter.NewRuleProcessor(&doc.Rules[i], f.Logger)
		if err != nil {
			return nil, err
		}
		filters = append(filters, rule)
	}
	return filters, nil
}

func (f *Factory) NewTelegramOutput(cfg *config.TelegramOutput) (core.Notifier, error) {
	merged := f.mergeTelegramConfig(cfg)
	sender := f.TelegramSender
	if sender == nil {
		built, err := bot.NewSender(merged.Token, f.TelegramDefaults.APIEndpoint, f.TelegramDefaults.HTTPTimeout)
		if err != nil {
			return nil, err
		}
		sender = built
	}
	processor, err := output.NewTelegramProcessor(merged, sender, f.Logger)
	if err != nil {
		return nil, err
	}
	if err := processor.Validate(); err != nil {
		return nil, err
	}
	return processor, nil
}

func (f *Factory) mergeTelegramConfig(cfg *config.TelegramOutput) *config.TelegramOutput {
	merged := config.TelegramOutput{}
	if cfg != nil {
		merged = *cfg
	}
	if merged.Token == "" {
		merged.Token = f.TelegramDefaults.Token
	}
	if merged.ChatID == 0 {
		merged.ChatID = f.TelegramDefaults.ChatID
	}
	return &merged
}

func (f *Factory) NewEmailOutput(cfg *config.EmailOutput) (core.Notifier, error) {
	merged := f.mergeEmailConfig(cfg)
	sender := f.EmailSender
	if sender == nil {
		smtpSender, err := smtp.NewSender(smtp.Options{
			Host:               merged.SMTPHost,
			Port:               merged.SMTPPort,
			Username:           merged.SMTPUser,
			Password:           merged.SMTPPassword,
			TLSMode:            merged.TLSMode,
			InsecureSkipVerify: f.SMTPDefaults.InsecureSkipVerify,
			Timeout:            f.SMTPDefaults.Timeout,
		})
		if err != nil {
			return nil, err
		}
		sender = smtpSender
	}
	return output.NewEmailProcessor(merged, sender)
}

func (f *Factory) mergeEmailConfig(cfg *config.EmailOutput) *config.EmailOutput {
	if cfg == nil {
		return &config.EmailOutput{}
	}
	merged := *cfg
	if merged.SMTPHost == "" {
		merged.SMTPHost = f.SMTPDefaults.Host
	}
	if merged.SMTPPort == 0 {
		merged.SMTPPort = f.SMTPDefaults.Port
	}
	if merged.SMTPUser == "" {
		merged.SMTPUser = f.SMTPDefaults.User
	}
	if merged.SMTPPassword == "" {
		merged.SMTPPassword = f.SMTPDefaults.Password
	}
	if merged.TLSMode == "" {
		merged.TLSMode = f.SMTPDefaults.TLSMode
	}
	return &merged
}

// NewNotifier builds every configured notifier. Several notifiers are
// combined with output.Multi.
func (f *Factory) NewNotifier(doc *config.Document) (core.Notifier, error) {
	notifiers := make([]core.Notifier, 0, len(doc.Notify))
	for i, cfg := range doc.Notify {
		var (
			n   core.Notifier
			err error
		)
		switch {
		case cfg.Telegram != nil:
			n, err = f.NewTelegramOutput(cfg.Telegram)
		case cfg.Email != nil:
			n, err = f.NewEmailOutput(cfg.Email)
		default:
			err = fmt.Errorf("unsupported notifier type")
		}
		if err != nil {
			return nil, fmt.Errorf("notify %d: %w", i, err)
		}
		notifiers = append(notifiers, n)
	}
	if len(notifiers) == 1 {
		return notifiers[0], nil
	}
	return output.NewMulti(notifiers...), nil
}

func (f *Factory) NewPersister(cfg config.StoreConfig) (dedupe.Persister, error) {
	switch cfg.Driver {
	case config.StoreDriverJSON, "":
		return dedupe.NewJSONFile(cfg.Path)
	case config.StoreDriverSQLite:
		return dedupe.NewSQLiteStore(cfg.Path, cfg.Table)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func (f *Factory) OpenStore(ctx context.Context, cfg config.StoreConfig) (*dedupe.Store, error) {
	persister, err := f.NewPersister(cfg)
	if err != nil {
		return nil, err
	}
	return dedupe.Open(ctx, persister, f.Logger)
}

// NewRunner wires a runner for doc around an already opened store.
func (f *Factory) NewRunner(doc *config.Document, store runner.Store) (*runner.Runner, error) {
	sources, err := f.NewSources(doc)
	if err != nil {
		return nil, err
	}
	filters, err := f.NewFilters(doc)
	if err != nil {
		return nil, err
	}
	notifier, err := f.NewNotifier(doc)
	if err != nil {
		return nil, err
	}
	return runner.New(runner.Config{
		Policy:     SearchPolicy(doc.Watch),
		Sources:    sources,
		Filters:    filters,
		Store:      store,
		Notifier:   notifier,
		Metrics:    f.Metrics,
		ItemDelay:  doc.Watch.ItemDelay.Std(),
		BatchDelay: doc.Watch.BatchDelay.Std(),
		Logger:     f.Logger,
	})
}

func SearchPolicy(cfg config.WatchConfig) core.SearchPolicy {
	return core.SearchPolicy{
		PriceThreshold:    cfg.PriceThreshold,
		HighValueCutoff:   cfg.HighValueCutoff,
		HomeCountry:       cfg.HomeCountry,
		ExcludedCountries: append([]string(nil), cfg.ExcludedCountries...),
	}
}
