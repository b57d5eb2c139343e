package tabular

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/tournevent/freightquote/pkg/freight"
)

// snapshot is an immutable, indexed view of a Table.
type snapshot struct {
	channels map[string][]freight.Channel         // by destination country
	bands    map[string][]freight.RateBand        // by channel ID, declared order
	rules    map[string][]freight.SpecialRule     // by channel ID, declared order
	zones    map[string][]freight.DestinationZone // by country
	origins  []freight.OriginGroup
}

// Source serves reference data and rates from an in-memory table. Readers
// always see one complete table; Replace swaps it atomically.
type Source struct {
	current atomic.Pointer[snapshot]
	logger  *otelzap.Logger
}

var _ freight.Store = (*Source)(nil)

// New creates a Source over table.
func New(table *Table, logger *otelzap.Logger) (*Source, error) {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	s := &Source{logger: logger}
	if err := s.Replace(table); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace validates table and makes it current. On error the previous
// table stays in effect.
func (s *Source) Replace(table *Table) error {
	snap, err := index(table)
	if err != nil {
		return fmt.Errorf("invalid rate table: %w", err)
	}
	s.current.Store(snap)

	s.logger.Info("Rate table loaded",
		zap.Int("channels", len(table.Channels)),
		zap.Int("bands", len(table.Bands)),
		zap.Int("rules", len(table.Rules)),
		zap.Int("zones", len(table.Zones)),
		zap.Int("origins", len(table.Origins)),
	)
	return nil
}

func index(t *Table) (*snapshot, error) {
	if t == nil {
		return nil, errors.New("nil table")
	}
	if err := freight.ValidateBands(t.Bands); err != nil {
		return nil, err
	}
	rules, err := t.specialRules()
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		channels: make(map[string][]freight.Channel),
		bands:    make(map[string][]freight.RateBand),
		rules:    make(map[string][]freight.SpecialRule),
		zones:    make(map[string][]freight.DestinationZone),
		origins:  append([]freight.OriginGroup(nil), t.Origins...),
	}

	known := make(map[string]bool, len(t.Channels))
	for _, ch := range t.Channels {
		if ch.ID == "" {
			return nil, fmt.Errorf("channel without ID for %s", ch.DestinationCountry)
		}
		if known[ch.ID] {
			return nil, fmt.Errorf("duplicate channel %s", ch.ID)
		}
		known[ch.ID] = true
		snap.channels[ch.DestinationCountry] = append(snap.channels[ch.DestinationCountry], ch)
	}
	for _, b := range t.Bands {
		if !known[b.ChannelID] {
			return nil, fmt.Errorf("band references unknown channel %s", b.ChannelID)
		}
		snap.bands[b.ChannelID] = append(snap.bands[b.ChannelID], b)
	}
	for _, r := range rules {
		if !known[r.ChannelID] {
			return nil, fmt.Errorf("rule references unknown channel %s", r.ChannelID)
		}
		snap.rules[r.ChannelID] = append(snap.rules[r.ChannelID], r)
	}
	for _, z := range t.Zones {
		snap.zones[z.Country] = append(snap.zones[z.Country], z)
	}
	return snap, nil
}

// Channels implements freight.ReferenceData.
func (s *Source) Channels(_ context.Context, country string) ([]freight.Channel, error) {
	return s.current.Load().channels[country], nil
}

// RateBands implements freight.ReferenceData.
func (s *Source) RateBands(_ context.Context, channelID string) ([]freight.RateBand, error) {
	return s.current.Load().bands[channelID], nil
}

// SpecialRules implements freight.ReferenceData.
func (s *Source) SpecialRules(_ context.Context, channelID string) ([]freight.SpecialRule, error) {
	return s.current.Load().rules[channelID], nil
}

// Zones implements freight.ReferenceData.
func (s *Source) Zones(_ context.Context, country string) ([]freight.DestinationZone, error) {
	return s.current.Load().zones[country], nil
}

// OriginGroups implements freight.ReferenceData.
func (s *Source) OriginGroups(_ context.Context) ([]freight.OriginGroup, error) {
	return s.current.Load().origins, nil
}

// Lookup implements freight.RateSource.
func (s *Source) Lookup(_ context.Context, channelID, originGroup, zoneCode string, chargeableKg float64) (*freight.Rate, error) {
	return freight.LookupBands(s.current.Load().bands[channelID], channelID, originGroup, zoneCode, chargeableKg), nil
}
