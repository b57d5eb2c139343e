// Package tabular provides an in-memory rate table backend.
package tabular

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tournevent/freightquote/pkg/freight"
)

// Table is the serialized form of a complete rate table.
type Table struct {
	Channels []freight.Channel         `yaml:"channels"`
	Zones    []freight.DestinationZone `yaml:"zones"`
	Origins  []freight.OriginGroup     `yaml:"origins"`
	Bands    []freight.RateBand        `yaml:"bands"`
	Rules    []Rule                    `yaml:"rules"`
}

// Rule is a special rule with structured params.
type Rule struct {
	Channel     string           `yaml:"channel"`
	Type        freight.RuleType `yaml:"type"`
	Description string           `yaml:"description"`
	Params      map[string]any   `yaml:"params"`
}

// Parse decodes a YAML rate table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rate table: %w", err)
	}
	return &t, nil
}

// LoadFile reads and decodes a YAML rate table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate table: %w", err)
	}
	return Parse(data)
}

// specialRules converts the YAML rules to freight rules with JSON params.
func (t *Table) specialRules() ([]freight.SpecialRule, error) {
	rules := make([]freight.SpecialRule, 0, len(t.Rules))
	for i, r := range t.Rules {
		var params []byte
		if len(r.Params) > 0 {
			b, err := json.Marshal(r.Params)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): encoding params: %w", i, r.Channel, err)
			}
			params = b
		}
		rules = append(rules, freight.SpecialRule{
			ChannelID:   r.Channel,
			Type:        r.Type,
			Description: r.Description,
			Params:      params,
		})
	}
	return rules, nil
}
