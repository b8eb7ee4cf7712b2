package tracking

import (
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Status is the display status of a tracked order. It is one of the
// canonical values below, or the carrier's own wording when no rule matched.
type Status string

const (
	StatusDelivered     Status = "Delivered"
	StatusInTransit     Status = "In Transit"
	StatusReturned      Status = "Returned"
	StatusTrackingError Status = "Tracking Error"
	StatusUnknown       Status = "Unknown"
)

// Canonical reports whether s is one of the fixed status values.
func (s Status) Canonical() bool {
	switch s {
	case StatusDelivered, StatusInTransit, StatusReturned, StatusTrackingError, StatusUnknown:
		return true
	default:
		return false
	}
}

// Rule maps any of its keywords to a status.
type Rule struct {
	Status   Status   `yaml:"status"`
	Keywords []string `yaml:"keywords"`
}

// Matches reports whether normalized (already upper-cased) contains one of
// the rule's keywords.
func (r Rule) Matches(normalized string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// Classifier maps raw carrier descriptions to statuses using an ordered
// rule list.
type Classifier struct {
	rules  []Rule
	logger *otelzap.Logger
}

// NewClassifier creates a classifier. Keywords are upper-cased so rule data
// can be written in any case.
func NewClassifier(rules []Rule, logger *otelzap.Logger) *Classifier {
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToUpper(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized[i] = Rule{Status: r.Status, Keywords: kws}
	}
	return &Classifier{rules: normalized, logger: logger}
}

// Classify returns the status of the first matching rule. Empty input is
// StatusUnknown. Unmatched input is returned verbatim as the status and
// logged as a warning.
func (c *Classifier) Classify(raw string) Status {
	if strings.TrimSpace(raw) == "" {
		return StatusUnknown
	}

	normalized := strings.ToUpper(raw)
	for _, r := range c.rules {
		if r.Matches(normalized) {
			return r.Status
		}
	}

	c.logger.Warn("Unmapped carrier status", zap.String("raw_status", raw))
	return Status(raw)
}
