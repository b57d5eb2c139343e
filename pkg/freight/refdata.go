package freight

import (
	"context"
)

// ReferenceData reads the long-lived reference tables. Implementations
// return ErrDataUnavailable-coded errors when the backing store fails and
// must present a consistent snapshot for the duration of a call.
type ReferenceData interface {
	// Channels returns every channel, active or not, for a destination country.
	Channels(ctx context.Context, country string) ([]Channel, error)

	// RateBands returns the rate bands of a channel in declared order.
	RateBands(ctx context.Context, channelID string) ([]RateBand, error)

	// SpecialRules returns the surcharge rules of a channel in declared order.
	SpecialRules(ctx context.Context, channelID string) ([]SpecialRule, error)

	// Zones returns the destination zones of a country.
	Zones(ctx context.Context, country string) ([]DestinationZone, error)

	// OriginGroups returns all origin groups in priority order.
	OriginGroups(ctx context.Context) ([]OriginGroup, error)
}

// Store is a reference-data backend that can also price lookups.
type Store interface {
	ReferenceData
	RateSource
}
