package freight_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tournevent/freightquote/pkg/freight"
	"github.com/tournevent/freightquote/pkg/freight/tabular"
)

func engineStore() *memStore {
	return &memStore{
		channels: []freight.Channel{
			{ID: "US_SEA_FAST", Name: "Fast Sea", DestinationCountry: "US", Mode: freight.ModeSea, Methods: []string{"sea"}, Active: true},
			{ID: "US_SEA_SLOW", Name: "Slow Sea", DestinationCountry: "US", Mode: freight.ModeSea, Methods: []string{"sea"}, Active: true},
			{ID: "US_AIR", Name: "Air", DestinationCountry: "US", Mode: freight.ModeAir, Methods: []string{"air"}, Active: true},
		},
		bands: []freight.RateBand{
			{ChannelID: "US_SEA_FAST", OriginGroupCode: "east", ZoneCode: "W", WeightMin: 21, PricePerKg: 18},
			{ChannelID: "US_SEA_FAST", OriginGroupCode: "south", ZoneCode: "W", WeightMin: 21, PricePerKg: 16},
			{ChannelID: "US_SEA_SLOW", ZoneCode: "W", WeightMin: 21, PricePerKg: 14},
			{ChannelID: "US_AIR", OriginGroupCode: "east", ZoneCode: "E", WeightMin: 12, PricePerKg: 50},
		},
		zones: []freight.DestinationZone{
			{Country: "US", ZoneCode: "E", ZoneName: "East", PostalPrefix: "0"},
			{Country: "US", ZoneCode: "W", ZoneName: "West", PostalPrefix: "9", Default: true},
		},
		origins: []freight.OriginGroup{
			{Code: "east", MemberCities: []string{"义乌"}},
			{Code: "south", MemberCities: []string{"深圳"}},
		},
	}
}

func newEngine(store freight.Store, parallelism int, schedule freight.Schedule) *freight.Engine {
	return freight.NewEngine(freight.Config{
		DefaultOrigin: "east",
		Parallelism:   parallelism,
		Schedule:      schedule,
	}, store, store, nil, nil)
}

func findQuote(t *testing.T, quotes []freight.Quote, channelID string) freight.Quote {
	t.Helper()
	for _, q := range quotes {
		if q.ChannelID == channelID {
			return q
		}
	}
	require.Failf(t, "quote not found", "channel %s", channelID)
	return freight.Quote{}
}

func channelIDs(quotes []freight.Quote) []string {
	ids := make([]string, 0, len(quotes))
	for _, q := range quotes {
		ids = append(ids, q.ChannelID)
	}
	return ids
}

func TestEngine_ComputeQuotes(t *testing.T) {
	engine := newEngine(engineStore(), 1, freight.Schedule{})

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "美国",
		PostalCode:         "94105",
		ActualWeightKg:     ptr(25),
		Dimensions:         &freight.Dimensions{Length: 25, Width: 25, Height: 18},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"US_SEA_SLOW", "US_SEA_FAST", "US_AIR"}, channelIDs(quotes))

	fast := quotes[1]
	assert.Equal(t, 18.0, fast.PricePerKg)
	assert.Equal(t, 450.0, fast.BasePrice)
	assert.Equal(t, 450.0, fast.TotalPrice)
	assert.Equal(t, 25.0, fast.ChargeableWeightKg)
	assert.Equal(t, freight.DefaultCurrency, fast.Currency)
	assert.Equal(t, "West", fast.ZoneLabel)
	assert.Empty(t, fast.Surcharges.Items)
}

func TestEngine_OriginAndZoneSteerPricing(t *testing.T) {
	engine := newEngine(engineStore(), 1, freight.Schedule{})
	ctx := context.Background()

	quotes, err := engine.ComputeQuotes(ctx, freight.ShipmentRequest{
		DestinationCountry: "US",
		PostalCode:         "02110",
		OriginCity:         "Yiwu",
		ActualWeightKg:     ptr(30),
	})
	require.NoError(t, err)
	for _, q := range quotes {
		assert.Equal(t, "East", q.ZoneLabel)
	}
	assert.Equal(t, 50.0, findQuote(t, quotes, "US_AIR").PricePerKg)

	quotes, err = engine.ComputeQuotes(ctx, freight.ShipmentRequest{
		DestinationCountry: "US",
		OriginCity:         "深圳",
		ActualWeightKg:     ptr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, 16.0, findQuote(t, quotes, "US_SEA_FAST").PricePerKg)

	// Channel tier prices a zone the channel never names.
	assert.Equal(t, 50.0, findQuote(t, quotes, "US_AIR").PricePerKg)
}

func TestEngine_MethodFilter(t *testing.T) {
	engine := newEngine(engineStore(), 1, freight.Schedule{})

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry:       "US",
		PostalCode:               "01001",
		ActualWeightKg:           ptr(30),
		RequestedShippingMethods: []string{"air"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"US_AIR"}, channelIDs(quotes))
}

func TestEngine_GirthSurchargeOnce(t *testing.T) {
	engine := newEngine(engineStore(), 1, freight.DefaultSchedule())

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "US",
		ActualWeightKg:     ptr(21),
		Dimensions:         &freight.Dimensions{Length: 100, Width: 50, Height: 50},
	})
	require.NoError(t, err)
	require.NotEmpty(t, quotes)

	for _, q := range quotes {
		var girth int
		for _, it := range q.Surcharges.Items {
			if it.Label == "excess girth 300cm>266cm" {
				girth++
				assert.Equal(t, 180.0, it.Amount)
			}
		}
		assert.Equal(t, 1, girth, q.ChannelID)
		assert.InDelta(t, q.BasePrice+q.Surcharges.Total, q.TotalPrice, 1e-9)
	}
}

func TestEngine_CustomRate(t *testing.T) {
	store := engineStore()
	engine := newEngine(store, 1, freight.Schedule{})

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "US",
		ActualWeightKg:     ptr(10),
		CustomRatePerKg:    ptr(18),
	})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, freight.CustomChannelID, q.ChannelID)
	assert.Equal(t, freight.ModeCustom, q.Mode)
	assert.Equal(t, 18.0, q.PricePerKg)
	assert.True(t, q.Custom)
	assert.Equal(t, 180.0, q.TotalPrice)
	assert.Zero(t, store.lookups, "custom rates bypass the rate source")
}

func TestEngine_InvalidRequests(t *testing.T) {
	engine := newEngine(engineStore(), 1, freight.Schedule{})

	tests := []struct {
		name string
		req  freight.ShipmentRequest
	}{
		{"no weight or dimensions", freight.ShipmentRequest{DestinationCountry: "US"}},
		{"negative weight", freight.ShipmentRequest{DestinationCountry: "US", ActualWeightKg: ptr(-2)}},
		{"missing country", freight.ShipmentRequest{ActualWeightKg: ptr(5)}},
		{"NaN dimensions", freight.ShipmentRequest{
			DestinationCountry: "US",
			PostalCode:         "94105",
			ActualWeightKg:     ptr(25),
			Dimensions:         &freight.Dimensions{Length: math.NaN(), Width: 10, Height: 10},
		}},
		{"infinite weight", freight.ShipmentRequest{DestinationCountry: "US", PostalCode: "94105", ActualWeightKg: ptr(math.Inf(1))}},
		{"zero custom rate", freight.ShipmentRequest{DestinationCountry: "US", ActualWeightKg: ptr(5), CustomRatePerKg: ptr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ComputeQuotes(context.Background(), tt.req)
			assert.ErrorIs(t, err, freight.ErrInvalidShipment)
		})
	}
}

func TestEngine_EmptyResultIsNotAnError(t *testing.T) {
	engine := newEngine(engineStore(), 1, freight.Schedule{})

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "Aruba",
		ActualWeightKg:     ptr(5),
	})
	require.NoError(t, err)
	assert.NotNil(t, quotes)
	assert.Empty(t, quotes)
}

func TestEngine_StoreErrorAborts(t *testing.T) {
	for _, method := range []string{"Channels", "Zones", "OriginGroups", "Lookup", "SpecialRules"} {
		t.Run(method, func(t *testing.T) {
			store := engineStore()
			store.err = errors.New("connection reset")
			store.failOn = map[string]bool{method: true}

			quotes, err := newEngine(store, 4, freight.Schedule{}).ComputeQuotes(context.Background(), freight.ShipmentRequest{
				DestinationCountry: "US",
				ActualWeightKg:     ptr(30),
			})
			assert.ErrorIs(t, err, freight.ErrDataUnavailable)
			assert.Nil(t, quotes)
		})
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	store := engineStore()
	store.err = context.Canceled

	_, err := newEngine(store, 1, freight.Schedule{}).ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "US",
		ActualWeightKg:     ptr(30),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, freight.ErrDataUnavailable)
}

func TestEngine_MalformedRuleIsLoggedAndSkipped(t *testing.T) {
	store := engineStore()
	store.rules = []freight.SpecialRule{
		{ChannelID: "US_SEA_FAST", Type: freight.RuleFlat, Params: []byte(`not json`)},
		{ChannelID: "US_SEA_FAST", Type: freight.RuleFlat, Description: "pickup", Params: []byte(`{"amount":20}`)},
	}
	core, logs := observer.New(zap.WarnLevel)
	engine := freight.NewEngine(freight.Config{DefaultOrigin: "east"}, store, store, otelzap.New(zap.New(core)), nil)

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "US",
		ActualWeightKg:     ptr(25),
	})
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "US_SEA_FAST", quotes[1].ChannelID)
	assert.Equal(t, 470.0, quotes[1].TotalPrice)
	assert.Equal(t, 1, logs.FilterMessage("Skipping malformed special rule").Len())
}

func TestEngine_ParallelMatchesSequential(t *testing.T) {
	src, err := tabular.New(tabular.DefaultTable(), nil)
	require.NoError(t, err)

	req := freight.ShipmentRequest{
		DestinationCountry: "US",
		PostalCode:         "10001",
		ActualWeightKg:     ptr(60),
		Dimensions:         &freight.Dimensions{Length: 80, Width: 60, Height: 50},
	}
	sequential, err := newEngine(src, 1, freight.DefaultSchedule()).ComputeQuotes(context.Background(), req)
	require.NoError(t, err)
	parallel, err := newEngine(src, 8, freight.DefaultSchedule()).ComputeQuotes(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestEngine_DefaultTable(t *testing.T) {
	src, err := tabular.New(tabular.DefaultTable(), nil)
	require.NoError(t, err)
	engine := newEngine(src, 4, freight.DefaultSchedule())

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "United States",
		ActualWeightKg:     ptr(50),
	})
	require.NoError(t, err)
	require.Len(t, quotes, 5)

	for i := 1; i < len(quotes); i++ {
		assert.LessOrEqual(t, quotes[i-1].TotalPrice, quotes[i].TotalPrice)
	}

	cheapest := quotes[0]
	assert.Equal(t, "US_SEA_REGULAR", cheapest.ChannelID)
	assert.Equal(t, 13.8, cheapest.PricePerKg)
	assert.InDelta(t, 13.8*50+150, cheapest.TotalPrice, 1e-9)
	require.Len(t, cheapest.Surcharges.Items, 1)
	assert.Equal(t, "overweight 50-80kg", cheapest.Surcharges.Items[0].Label)

	seaOnly, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry:       "US",
		ActualWeightKg:           ptr(50),
		RequestedShippingMethods: []string{"海运"},
	})
	require.NoError(t, err)
	assert.Len(t, seaOnly, 4)
	assert.NotContains(t, channelIDs(seaOnly), "US_AIR_EXPRESS")
}

func TestEngine_EuropeanChannelsByCountry(t *testing.T) {
	src, err := tabular.New(tabular.DefaultTable(), nil)
	require.NoError(t, err)
	engine := newEngine(src, 1, freight.Schedule{})

	quotes, err := engine.ComputeQuotes(context.Background(), freight.ShipmentRequest{
		DestinationCountry: "Poland",
		ActualWeightKg:     ptr(60),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"EU_SEA_PL", "EU_RAIL_PL", "EU_TRUCK_PL"}, channelIDs(quotes))
	assert.Equal(t, 12.3, quotes[0].PricePerKg)
}
