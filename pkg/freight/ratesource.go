package freight

import (
	"context"
	"fmt"
)

// Tier is the specificity level at which a rate band matched.
type Tier int

const (
	TierNone       Tier = 0
	TierOriginZone Tier = 1 // channel + origin + zone + weight
	TierZone       Tier = 2 // channel + zone + weight
	TierChannel    Tier = 3 // channel + weight
)

// Rate is the result of a successful rate lookup.
type Rate struct {
	PricePerKg float64
	Band       RateBand
	Tier       Tier
}

// RateSource resolves a per-kilogram rate. Lookup returns (nil, nil) when no
// band can price the shipment; errors are reserved for store failures.
type RateSource interface {
	Lookup(ctx context.Context, channelID, originGroup, zoneCode string, chargeableKg float64) (*Rate, error)
}

// SelectBand applies the tiered fallback over the bands of one channel.
// Empty originGroup or zoneCode leave that axis unconstrained. Within a tier
// the band with the largest WeightMin wins; equal WeightMin keeps declared
// order.
func SelectBand(bands []RateBand, originGroup, zoneCode string, weight float64) (RateBand, Tier, bool) {
	tiers := []struct {
		tier   Tier
		origin string
		zone   string
	}{
		{TierOriginZone, originGroup, zoneCode},
		{TierZone, "", zoneCode},
		{TierChannel, "", ""},
	}

	for _, t := range tiers {
		best := -1
		for i, b := range bands {
			if t.origin != "" && b.OriginGroupCode != t.origin {
				continue
			}
			if t.zone != "" && b.ZoneCode != t.zone {
				continue
			}
			if !b.Covers(weight) {
				continue
			}
			if best < 0 || b.WeightMin > bands[best].WeightMin {
				best = i
			}
		}
		if best >= 0 {
			return bands[best], t.tier, true
		}
	}
	return RateBand{}, TierNone, false
}

// LookupBands is the RateSource algorithm shared by every backend: it
// selects a band for channelID from bands and converts it to a Rate.
func LookupBands(bands []RateBand, channelID, originGroup, zoneCode string, weight float64) *Rate {
	own := bands[:0:0]
	for _, b := range bands {
		if b.ChannelID == channelID {
			own = append(own, b)
		}
	}
	band, tier, ok := SelectBand(own, originGroup, zoneCode, weight)
	if !ok {
		return nil
	}
	return &Rate{PricePerKg: band.PricePerKg, Band: band, Tier: tier}
}

// CoversWeight reports whether any band could price weight, ignoring origin
// and zone.
func CoversWeight(bands []RateBand, weight float64) bool {
	for _, b := range bands {
		if b.Covers(weight) {
			return true
		}
	}
	return false
}

// ValidateBands rejects inverted weight windows and bands that would make
// the fallback order ambiguous (same channel, origin, zone and WeightMin).
func ValidateBands(bands []RateBand) error {
	type key struct {
		channel, origin, zone string
		min                   float64
	}
	seen := make(map[key]int, len(bands))
	for i, b := range bands {
		if b.ChannelID == "" {
			return fmt.Errorf("band %d: missing channel", i)
		}
		if b.PricePerKg < 0 {
			return fmt.Errorf("band %d (%s): negative price", i, b.ChannelID)
		}
		if b.WeightMax != nil && b.WeightMin > *b.WeightMax {
			return fmt.Errorf("band %d (%s): weight min %.2f exceeds max %.2f",
				i, b.ChannelID, b.WeightMin, *b.WeightMax)
		}
		k := key{b.ChannelID, b.OriginGroupCode, b.ZoneCode, b.WeightMin}
		if j, dup := seen[k]; dup {
			return fmt.Errorf("bands %d and %d (%s): ambiguous tier at %.2fkg for origin %q zone %q",
				j, i, b.ChannelID, b.WeightMin, b.OriginGroupCode, b.ZoneCode)
		}
		seen[k] = i
	}
	return nil
}
