// Package postgres serves reference data and rates from PostgreSQL.
//
// Expected tables:
//
//	freight_channels  (id, name, mode, destination_country, service_label, transit_time,
//	                   schedule, compensation, methods text[], active, sort_order)
//	destination_zones (country, zone_code, zone_name, postal_prefix, is_default)
//	origin_groups     (code, region_label, member_cities text[], priority)
//	rate_bands        (id, channel_id, origin_group, zone_code, weight_min, weight_max, price_per_kg)
//	special_rules     (id, channel_id, rule_type, description, params jsonb)
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/freightquote/pkg/freight"
)

// Querier is the subset of pgxpool.Pool used by Source.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source implements freight.Store over a PostgreSQL database.
type Source struct {
	db     Querier
	logger *otelzap.Logger
}

var _ freight.Store = (*Source)(nil)

// New creates a Source.
func New(db Querier, logger *otelzap.Logger) *Source {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Source{db: db, logger: logger}
}

const (
	channelsSQL = `
		SELECT id, name, mode, destination_country,
		       COALESCE(service_label, ''), COALESCE(transit_time, ''),
		       COALESCE(schedule, ''), COALESCE(compensation, ''),
		       COALESCE(methods, '{}'), active
		FROM freight_channels
		WHERE destination_country = $1
		ORDER BY sort_order, id`

	bandColumns = `
		SELECT channel_id, COALESCE(origin_group, ''), COALESCE(zone_code, ''),
		       weight_min::float8, weight_max::float8, price_per_kg::float8
		FROM rate_bands`

	rateBandsSQL = bandColumns + `
		WHERE channel_id = $1
		ORDER BY id`

	// Candidates for one lookup; heaviest WeightMin first, ties by declaration.
	lookupSQL = bandColumns + `
		WHERE channel_id = $1
		  AND weight_min <= $2
		  AND (weight_max IS NULL OR weight_max >= $2)
		ORDER BY weight_min DESC, id`

	rulesSQL = `
		SELECT channel_id, rule_type, COALESCE(description, ''), params
		FROM special_rules
		WHERE channel_id = $1
		ORDER BY id`

	zonesSQL = `
		SELECT country, zone_code, COALESCE(zone_name, ''), COALESCE(postal_prefix, ''), is_default
		FROM destination_zones
		WHERE country = $1`

	originsSQL = `
		SELECT code, COALESCE(region_label, ''), COALESCE(member_cities, '{}')
		FROM origin_groups
		ORDER BY priority, code`
)

// Channels implements freight.ReferenceData.
func (s *Source) Channels(ctx context.Context, country string) ([]freight.Channel, error) {
	return query(ctx, s, "channels", channelsSQL, func(row pgx.CollectableRow) (freight.Channel, error) {
		var ch freight.Channel
		var mode string
		err := row.Scan(&ch.ID, &ch.Name, &mode, &ch.DestinationCountry,
			&ch.ServiceLabel, &ch.TransitTimeLabel, &ch.Schedule, &ch.Compensation,
			&ch.Methods, &ch.Active)
		ch.Mode = freight.Mode(mode)
		return ch, err
	}, country)
}

// RateBands implements freight.ReferenceData.
func (s *Source) RateBands(ctx context.Context, channelID string) ([]freight.RateBand, error) {
	return query(ctx, s, "rate bands", rateBandsSQL, scanBand, channelID)
}

// SpecialRules implements freight.ReferenceData.
func (s *Source) SpecialRules(ctx context.Context, channelID string) ([]freight.SpecialRule, error) {
	return query(ctx, s, "special rules", rulesSQL, func(row pgx.CollectableRow) (freight.SpecialRule, error) {
		var r freight.SpecialRule
		var ruleType string
		err := row.Scan(&r.ChannelID, &ruleType, &r.Description, &r.Params)
		r.Type = freight.RuleType(ruleType)
		return r, err
	}, channelID)
}

// Zones implements freight.ReferenceData.
func (s *Source) Zones(ctx context.Context, country string) ([]freight.DestinationZone, error) {
	return query(ctx, s, "zones", zonesSQL, func(row pgx.CollectableRow) (freight.DestinationZone, error) {
		var z freight.DestinationZone
		err := row.Scan(&z.Country, &z.ZoneCode, &z.ZoneName, &z.PostalPrefix, &z.Default)
		return z, err
	}, country)
}

// OriginGroups implements freight.ReferenceData.
func (s *Source) OriginGroups(ctx context.Context) ([]freight.OriginGroup, error) {
	return query(ctx, s, "origin groups", originsSQL, func(row pgx.CollectableRow) (freight.OriginGroup, error) {
		var g freight.OriginGroup
		err := row.Scan(&g.Code, &g.RegionLabel, &g.MemberCities)
		return g, err
	})
}

// Lookup implements freight.RateSource. The weight window is filtered in
// SQL; the origin/zone fallback runs over the candidates.
func (s *Source) Lookup(ctx context.Context, channelID, originGroup, zoneCode string, chargeableKg float64) (*freight.Rate, error) {
	bands, err := query(ctx, s, "rates", lookupSQL, scanBand, channelID, chargeableKg)
	if err != nil {
		return nil, err
	}
	return freight.LookupBands(bands, channelID, originGroup, zoneCode, chargeableKg), nil
}

func scanBand(row pgx.CollectableRow) (freight.RateBand, error) {
	var b freight.RateBand
	err := row.Scan(&b.ChannelID, &b.OriginGroupCode, &b.ZoneCode, &b.WeightMin, &b.WeightMax, &b.PricePerKg)
	return b, err
}

func query[T any](ctx context.Context, s *Source, what, sql string, fn pgx.RowToFunc[T], args ...any) ([]T, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		s.logger.Ctx(ctx).Error("Reference data query failed", zap.String("table", what), zap.Error(err))
		return nil, freight.NewError(freight.CodeDataUnavailable, "reading "+what).WithCause(err)
	}
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		s.logger.Ctx(ctx).Error("Reference data scan failed", zap.String("table", what), zap.Error(err))
		return nil, freight.NewError(freight.CodeDataUnavailable, "reading "+what).WithCause(err)
	}
	return out, nil
}
