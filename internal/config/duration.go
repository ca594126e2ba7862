package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// longUnits are accepted on top of the units time.ParseDuration knows.
var longUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// parseDurationExtended parses "90m", "12h", "1d12h", "1.5d" or "2w".
// A bare number is read as hours, so "12" means 12h.
func parseDurationExtended(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("duration %q must not be negative", raw)
	}
	if hours, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(hours * float64(time.Hour)), nil
	}
	if !strings.ContainsAny(s, "dw") {
		return time.ParseDuration(s)
	}

	var total time.Duration
	rest := s
	for rest != "" {
		n := numberPrefix(rest)
		if n == 0 || n == len(rest) {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		value, err := strconv.ParseFloat(rest[:n], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		if unit, ok := longUnits[rest[n]]; ok {
			total += time.Duration(value * float64(unit))
			rest = rest[n+1:]
			continue
		}
		// Hand the next number+unit pair to the standard parser.
		end := n
		for end < len(rest) && (rest[end] < '0' || rest[end] > '9') && rest[end] != '.' {
			end++
		}
		part, err := time.ParseDuration(rest[:end])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		total += part
		rest = rest[end:]
	}
	return total, nil
}

func numberPrefix(s string) int {
	i := 0
	dot := false
	for i < len(s) {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case c == '.' && !dot:
			dot = true
		default:
			return i
		}
		i++
	}
	return i
}

// Duration is a time.Duration that unmarshals from YAML values such as "12h", "1d" or 12.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	parsed, err := parseDurationExtended(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
