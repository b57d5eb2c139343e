package freight

import (
	"context"
	"strings"
)

// ZoneResolver maps a destination to a pricing zone.
type ZoneResolver struct {
	data ReferenceData
}

// NewZoneResolver creates a ZoneResolver over data.
func NewZoneResolver(data ReferenceData) *ZoneResolver {
	return &ZoneResolver{data: data}
}

// Resolve returns the zone for (country, postalCode), or nil when none
// applies. country must already be normalized.
func (r *ZoneResolver) Resolve(ctx context.Context, country, postalCode string) (*DestinationZone, error) {
	zones, err := r.data.Zones(ctx, country)
	if err != nil {
		return nil, asDataUnavailable("zones", err)
	}
	return ResolveZone(zones, postalCode), nil
}

// ResolveZone selects the longest matching postal prefix. Without a postal
// code it returns the country-default zone, falling back to a catch-all
// (empty prefix) zone.
func ResolveZone(zones []DestinationZone, postalCode string) *DestinationZone {
	postalCode = strings.ToUpper(strings.TrimSpace(postalCode))

	if postalCode == "" {
		var catchAll *DestinationZone
		for i := range zones {
			if zones[i].Default {
				z := zones[i]
				return &z
			}
			if zones[i].PostalPrefix == "" && catchAll == nil {
				catchAll = &zones[i]
			}
		}
		if catchAll == nil {
			return nil
		}
		z := *catchAll
		return &z
	}

	best := -1
	for i, z := range zones {
		prefix := strings.ToUpper(z.PostalPrefix)
		if !strings.HasPrefix(postalCode, prefix) {
			continue
		}
		if best < 0 || len(prefix) > len(zones[best].PostalPrefix) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	z := zones[best]
	return &z
}
