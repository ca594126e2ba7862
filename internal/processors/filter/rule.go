package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
)

const (
	ResultDrop = "drop"
	ResultPass = "pass"
)

// RuleProcessor evaluates a boolean expression against each listing. With
// result "drop" matching listings are removed; with "pass" only matching
// listings are kept.
type RuleProcessor struct {
	name    string
	config  config.RuleConfig
	program *vm.Program
	logger  *slog.Logger
}

func NewRuleProcessor(cfg *config.RuleConfig, logger *slog.Logger) (*RuleProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rule config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	program, err := expr.Compile(cfg.Rule, expr.Env(ruleEnv(core.Listing{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile rule %s: %w", cfg.Name, err)
	}
	return &RuleProcessor{
		name:    cfg.Name,
		config:  *cfg,
		program: program,
		logger:  logger,
	}, nil
}

func (p *RuleProcessor) Name() string {
	return p.name
}

func (p *RuleProcessor) Validate() error {
	if p.config.Name == "" || p.config.Rule == "" {
		return fmt.Errorf("rule name and expression are required")
	}
	if p.config.Result != ResultDrop && p.config.Result != ResultPass {
		return fmt.Errorf("rule %s: result must be %q or %q", p.name, ResultPass, ResultDrop)
	}
	return nil
}

// Filter keeps listings the rule lets through. A listing whose evaluation
// fails is kept and the failure logged.
func (p *RuleProcessor) Filter(ctx context.Context, query core.QuerySpec, listings []core.Listing) ([]core.Listing, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := core.Logger(ctx, p.logger)
	filtered := make([]core.Listing, 0, len(listings))
	for _, listing := range listings {
		result, err := expr.Run(p.program, ruleEnv(listing))
		if err != nil {
			logger.Warn("rule evaluation failed",
				slog.String("rule", p.name),
				slog.String("listing_id", listing.ID),
				slog.Any("error", err),
			)
			filtered = append(filtered, listing)
			continue
		}
		matched, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("rule %s did not return bool", p.name)
		}
		if matched == (p.config.Result == ResultPass) {
			filtered = append(filtered, listing)
			continue
		}
		logger.Debug("listing dropped by rule",
			slog.String("rule", p.name),
			slog.String("listing_id", listing.ID),
			slog.String("query", query.String()),
		)
	}
	return filtered, nil
}

func ruleEnv(listing core.Listing) map[string]interface{} {
	return map[string]interface{}{
		"title": map[string]interface{}{
			"value":  listing.Title,
			"length": len(listing.Title),
		},
		"description": map[string]interface{}{
			"value":  listing.Description,
			"length": len(listing.Description),
		},
		"price":         listing.PriceValue,
		"price_display": listing.PriceDisplay,
		"location":      listing.Location,
		"year":          listing.Year,
		"length":        listing.Length,
		"link":          listing.Link,
		"has_image":     listing.ImageURL != "",
		"region":        string(listing.Region),
		"source":        listing.Source,
	}
}
