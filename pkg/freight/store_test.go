package freight_test

import (
	"context"
	"sync"

	"github.com/tournevent/freightquote/pkg/freight"
)

// memStore is an in-memory freight.Store for tests. err, when set, is
// returned by every method named in failOn (all methods when empty).
type memStore struct {
	mu       sync.Mutex
	channels []freight.Channel
	bands    []freight.RateBand
	rules    []freight.SpecialRule
	zones    []freight.DestinationZone
	origins  []freight.OriginGroup
	err      error
	failOn   map[string]bool
	lookups  int
}

func (s *memStore) fail(method string) error {
	if s.err == nil {
		return nil
	}
	if len(s.failOn) == 0 || s.failOn[method] {
		return s.err
	}
	return nil
}

func (s *memStore) Channels(_ context.Context, country string) ([]freight.Channel, error) {
	if err := s.fail("Channels"); err != nil {
		return nil, err
	}
	var out []freight.Channel
	for _, ch := range s.channels {
		if ch.DestinationCountry == country {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *memStore) RateBands(_ context.Context, channelID string) ([]freight.RateBand, error) {
	if err := s.fail("RateBands"); err != nil {
		return nil, err
	}
	var out []freight.RateBand
	for _, b := range s.bands {
		if b.ChannelID == channelID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) SpecialRules(_ context.Context, channelID string) ([]freight.SpecialRule, error) {
	if err := s.fail("SpecialRules"); err != nil {
		return nil, err
	}
	var out []freight.SpecialRule
	for _, r := range s.rules {
		if r.ChannelID == channelID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Zones(_ context.Context, country string) ([]freight.DestinationZone, error) {
	if err := s.fail("Zones"); err != nil {
		return nil, err
	}
	var out []freight.DestinationZone
	for _, z := range s.zones {
		if z.Country == country {
			out = append(out, z)
		}
	}
	return out, nil
}

func (s *memStore) OriginGroups(context.Context) ([]freight.OriginGroup, error) {
	if err := s.fail("OriginGroups"); err != nil {
		return nil, err
	}
	return s.origins, nil
}

func (s *memStore) Lookup(_ context.Context, channelID, originGroup, zoneCode string, chargeableKg float64) (*freight.Rate, error) {
	s.mu.Lock()
	s.lookups++
	s.mu.Unlock()
	if err := s.fail("Lookup"); err != nil {
		return nil, err
	}
	return freight.LookupBands(s.bands, channelID, originGroup, zoneCode, chargeableKg), nil
}

func ptr(v float64) *float64 {
	return &v
}
