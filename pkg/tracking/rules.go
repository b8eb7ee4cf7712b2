package tracking

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

type ruleSet struct {
	Carrier string `yaml:"carrier"`
	Rules   []Rule `yaml:"rules"`
}

// ParseRules decodes a YAML rule set.
func ParseRules(data []byte) ([]Rule, error) {
	var set ruleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decoding status rules: %w", err)
	}
	if len(set.Rules) == 0 {
		return nil, errors.New("status rules: no rules defined")
	}
	for i, r := range set.Rules {
		if r.Status == "" {
			return nil, fmt.Errorf("status rules: rule %d has no status", i)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("status rules: rule %d (%s) has no keywords", i, r.Status)
		}
	}
	return set.Rules, nil
}

// LoadRules reads a YAML rule set from path.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading status rules: %w", err)
	}
	return ParseRules(data)
}

// DefaultRules returns the built-in Correos rule set.
func DefaultRules() []Rule {
	rules, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(err)
	}
	return rules
}
