package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document represents the top-level structure of a boatwatch.yaml file.
type Document struct {
	Watch   WatchConfig    `yaml:"watch"`
	Store   StoreConfig    `yaml:"store"`
	Sources []SourceConfig `yaml:"sources"`
	Rules   []RuleConfig   `yaml:"rules,omitempty"`
	Notify  []NotifyConfig `yaml:"notify"`
}

// WatchConfig holds the search thresholds and the cycle cadence.
type WatchConfig struct {
	Name     string   `yaml:"name"`
	Interval Duration `yaml:"interval"`
	// Schedule is an optional cron expression that replaces Interval.
	Schedule          string   `yaml:"schedule,omitempty"`
	Timezone          string   `yaml:"timezone,omitempty"`
	PriceThreshold    int      `yaml:"price_threshold"`
	HighValueCutoff   int      `yaml:"high_value_cutoff"`
	HomeCountry       string   `yaml:"home_country"`
	ExcludedCountries []string `yaml:"excluded_countries"`
	// ItemDelay spaces out single-listing notifications.
	ItemDelay Duration `yaml:"item_delay"`
	// BatchDelay is waited before the summary notification.
	BatchDelay      Duration `yaml:"batch_delay"`
	AnnounceStartup bool     `yaml:"announce_startup,omitempty"`
}

// StoreConfig selects the dedup persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "json" or "sqlite"
	Path   string `yaml:"path"`
	Table  string `yaml:"table,omitempty"`
}

const (
	StoreDriverJSON   = "json"
	StoreDriverSQLite = "sqlite"
)

// SnapshotConfig records or replays a source's results on disk.
type SnapshotConfig struct {
	Snapshot bool   `yaml:"snapshot"`
	Restore  bool   `yaml:"restore"`
	Path     string `yaml:"path"`
}

// SourceConfig wraps different source types.
type SourceConfig struct {
	Boats *BoatsSource `yaml:"boats,omitempty"`
	Feed  *FeedSource  `yaml:"feed,omitempty"`
}

// BoatsSource scrapes the boats.com search result pages.
type BoatsSource struct {
	BaseURL     string          `yaml:"base_url,omitempty"`
	BoatType    string          `yaml:"boat_type,omitempty"`
	ListingType string          `yaml:"listing_type,omitempty"`
	UserAgent   string          `yaml:"user_agent,omitempty"`
	Snapshot    *SnapshotConfig `yaml:"snapshot,omitempty"`
}

// FeedSource reads listings from RSS/Atom feeds, one URL per region.
type FeedSource struct {
	Name        string          `yaml:"name"`
	DomesticURL string          `yaml:"domestic_url"`
	GlobalURL   string          `yaml:"global_url"`
	Limit       int             `yaml:"limit,omitempty"`
	UserAgent   string          `yaml:"user_agent,omitempty"`
	Snapshot    *SnapshotConfig `yaml:"snapshot,omitempty"`
}

// RuleConfig is an expression evaluated against every fetched listing.
type RuleConfig struct {
	Name   string `yaml:"name"`
	Rule   string `yaml:"rule"`
	Result string `yaml:"result"` // "drop" or "pass"
}

// NotifyConfig wraps different notifier types.
type NotifyConfig struct {
	Telegram *TelegramOutput `yaml:"telegram,omitempty"`
	Email    *EmailOutput    `yaml:"email,omitempty"`
}

// TelegramOutput sends messages to one chat. Empty fields fall back to the environment.
type TelegramOutput struct {
	Token          string `yaml:"token,omitempty"`
	ChatID         int64  `yaml:"chat_id,omitempty"`
	DisablePreview bool   `yaml:"disable_preview,omitempty"`
}

// EmailOutput defines email delivery configuration.
type EmailOutput struct {
	To           string `yaml:"to"`
	From         string `yaml:"from"`
	Subject      string `yaml:"subject"`
	SMTPHost     string `yaml:"smtp_host,omitempty"`
	SMTPPort     int    `yaml:"smtp_port,omitempty"`
	SMTPUser     string `yaml:"smtp_user,omitempty"`
	SMTPPassword string `yaml:"smtp_password,omitempty"`
	TLSMode      string `yaml:"tls_mode,omitempty"`
}

const (
	DefaultPriceThreshold  = 600000
	DefaultHighValueCutoff = 600000
	DefaultHomeCountry     = "IT"
	DefaultInterval        = 12 * time.Hour
	DefaultItemDelay       = 500 * time.Millisecond
	DefaultBatchDelay      = time.Second
	DefaultStorePath       = "yachts_database.json"
	DefaultBoatsBaseURL    = "https://www.boats.com"
)

// DefaultExcludedCountries are matched case-insensitively against listing locations.
var DefaultExcludedCountries = []string{"United States", "USA", "America"}

// DefaultDocument is used when no configuration file exists: one boats.com
// source, a JSON store and a Telegram notifier configured from the environment.
func DefaultDocument() *Document {
	doc := &Document{
		Sources: []SourceConfig{{Boats: &BoatsSource{}}},
		Notify:  []NotifyConfig{{Telegram: &TelegramOutput{}}},
	}
	doc.ApplyDefaults()
	return doc
}

// Load reads a document from path. A missing file yields DefaultDocument.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultDocument(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document and fills in defaults.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse boatwatch document: %w", err)
	}
	doc.ApplyDefaults()
	return &doc, nil
}

// ApplyDefaults fills every unset field with the built-in default.
func (d *Document) ApplyDefaults() {
	w := &d.Watch
	if w.Name == "" {
		w.Name = "motor-yachts"
	}
	if w.Interval == 0 {
		w.Interval = Duration(DefaultInterval)
	}
	if w.PriceThreshold == 0 {
		w.PriceThreshold = DefaultPriceThreshold
	}
	if w.HighValueCutoff == 0 {
		w.HighValueCutoff = DefaultHighValueCutoff
	}
	if w.HomeCountry == "" {
		w.HomeCountry = DefaultHomeCountry
	}
	if w.ExcludedCountries == nil {
		w.ExcludedCountries = append([]string(nil), DefaultExcludedCountries...)
	}
	if w.ItemDelay == 0 {
		w.ItemDelay = Duration(DefaultItemDelay)
	}
	if w.BatchDelay == 0 {
		w.BatchDelay = Duration(DefaultBatchDelay)
	}

	if d.Store.Driver == "" {
		d.Store.Driver = StoreDriverJSON
	}
	if d.Store.Path == "" {
		d.Store.Path = DefaultStorePath
	}

	for _, source := range d.Sources {
		if source.Boats != nil && source.Boats.BaseURL == "" {
			source.Boats.BaseURL = DefaultBoatsBaseURL
		}
		if source.Boats != nil && source.Boats.BoatType == "" {
			source.Boats.BoatType = "motorYacht"
		}
		if source.Boats != nil && source.Boats.ListingType == "" {
			source.Boats.ListingType = "private"
		}
	}
	for i := range d.Rules {
		if d.Rules[i].Result == "" {
			d.Rules[i].Result = "drop"
		}
	}
}

// Validate performs validation on the document.
func (d *Document) Validate() error {
	w := d.Watch
	if w.PriceThreshold < 0 {
		return fmt.Errorf("watch: price_threshold must be >= 0")
	}
	if w.HighValueCutoff < 0 {
		return fmt.Errorf("watch: high_value_cutoff must be >= 0")
	}
	if w.Interval.Std() < time.Second {
		return fmt.Errorf("watch: interval must be at least 1s")
	}
	if w.Timezone != "" {
		if _, err := time.LoadLocation(w.Timezone); err != nil {
			return fmt.Errorf("watch: invalid timezone %q", w.Timezone)
		}
	}
	if w.ItemDelay < 0 || w.BatchDelay < 0 {
		return fmt.Errorf("watch: notification delays must be >= 0")
	}
	for i, country := range w.ExcludedCountries {
		if strings.TrimSpace(country) == "" {
			return fmt.Errorf("watch: excluded_countries[%d] is empty", i)
		}
	}

	switch d.Store.Driver {
	case StoreDriverJSON, StoreDriverSQLite:
	default:
		return fmt.Errorf("store: unsupported driver %q (expected json or sqlite)", d.Store.Driver)
	}

	if len(d.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i, source := range d.Sources {
		if source.Boats == nil && source.Feed == nil {
			return fmt.Errorf("source %d: unsupported source type", i)
		}
		if source.Boats != nil {
			if err := validateURL(fmt.Sprintf("source %d boats: base_url", i), source.Boats.BaseURL); err != nil {
				return err
			}
			if err := validateSnapshotConfig(fmt.Sprintf("source %d boats", i), source.Boats.Snapshot); err != nil {
				return err
			}
		}
		if source.Feed != nil {
			if source.Feed.DomesticURL == "" && source.Feed.GlobalURL == "" {
				return fmt.Errorf("source %d feed: domestic_url or global_url is required", i)
			}
			for label, raw := range map[string]string{"domestic_url": source.Feed.DomesticURL, "global_url": source.Feed.GlobalURL} {
				if raw == "" {
					continue
				}
				if err := validateURL(fmt.Sprintf("source %d feed: %s", i, label), raw); err != nil {
					return err
				}
			}
			if err := validateSnapshotConfig(fmt.Sprintf("source %d feed", i), source.Feed.Snapshot); err != nil {
				return err
			}
		}
	}

	for i, rule := range d.Rules {
		if rule.Name == "" || rule.Rule == "" {
			return fmt.Errorf("rule %d: name and rule are required", i)
		}
		if rule.Result != "pass" && rule.Result != "drop" {
			return fmt.Errorf("rule %d: result must be 'pass' or 'drop'", i)
		}
	}

	if len(d.Notify) == 0 {
		return fmt.Errorf("at least one notifier is required")
	}
	for i, notify := range d.Notify {
		if notify.Telegram == nil && notify.Email == nil {
			return fmt.Errorf("notify %d: unsupported notifier type", i)
		}
		if notify.Email != nil {
			if notify.Email.To == "" {
				return fmt.Errorf("notify %d email: 'to' field is required", i)
			}
			if _, err := mail.ParseAddressList(notify.Email.To); err != nil {
				return fmt.Errorf("notify %d email: invalid to address", i)
			}
			if notify.Email.From != "" {
				if _, err := mail.ParseAddress(notify.Email.From); err != nil {
					return fmt.Errorf("notify %d email: invalid from address", i)
				}
			}
		}
	}
	return nil
}

func validateURL(label, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: invalid url %q", label, raw)
	}
	return nil
}

func validateSnapshotConfig(label string, cfg *SnapshotConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.Snapshot && cfg.Restore {
		return fmt.Errorf("%s: snapshot and restore cannot both be true", label)
	}
	if (cfg.Snapshot || cfg.Restore) && cfg.Path == "" {
		return fmt.Errorf("%s: snapshot path is required", label)
	}
	return nil
}
