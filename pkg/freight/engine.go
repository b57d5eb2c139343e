// Package freight computes priced freight offers from reference rate tables.
package freight

import (
	"context"
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCurrency is the pricing currency of the built-in tables.
const DefaultCurrency = "CNY"

// Config holds engine configuration.
type Config struct {
	DefaultOrigin string   // origin group code of the primary hub
	Currency      string   // label attached to quotes
	Parallelism   int      // channels priced concurrently; <= 1 is sequential
	Schedule      Schedule // surcharge defaults
}

// Engine computes quotes for shipment requests.
type Engine struct {
	cfg        Config
	data       ReferenceData
	rates      RateSource
	catalog    *Catalog
	zones      *ZoneResolver
	origins    *OriginResolver
	surcharges *SurchargeEngine
	normalizer Normalizer
	remote     RemoteClassifier
	logger     *otelzap.Logger
	tracer     trace.Tracer
}

// NewEngine creates a new quoting engine.
func NewEngine(cfg Config, data ReferenceData, rates RateSource, logger *otelzap.Logger, tracer trace.Tracer) *Engine {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("freight")
	}

	return &Engine{
		cfg:        cfg,
		data:       data,
		rates:      rates,
		catalog:    NewCatalog(data),
		zones:      NewZoneResolver(data),
		origins:    NewOriginResolver(data, cfg.DefaultOrigin),
		surcharges: NewSurchargeEngine(cfg.Schedule),
		normalizer: DefaultNormalizer(),
		remote:     DefaultRemoteClassifier(),
		logger:     logger,
		tracer:     tracer,
	}
}

// WithNormalizer replaces the country/city normalizer.
func (e *Engine) WithNormalizer(n Normalizer) *Engine {
	e.normalizer = n
	return e
}

// WithRemoteClassifier replaces the remote-area classifier.
func (e *Engine) WithRemoteClassifier(c RemoteClassifier) *Engine {
	e.remote = c
	return e
}

// NormalizeCountry maps a country name or alias to its canonical code
// using the engine's normalizer.
func (e *Engine) NormalizeCountry(raw string) string {
	return e.normalizer.Country(raw)
}

// ComputeChargeableWeight returns the billable weight for display layers.
func (e *Engine) ComputeChargeableWeight(actualKg *float64, dims *Dimensions) (float64, error) {
	return ChargeableWeight(actualKg, dims)
}

// ComputeQuotes returns the priced offers for req, cheapest first. An empty
// result is not an error. Malformed requests fail with ErrInvalidShipment
// and store failures with ErrDataUnavailable.
func (e *Engine) ComputeQuotes(ctx context.Context, req ShipmentRequest) ([]Quote, error) {
	ctx, span := e.tracer.Start(ctx, "freight.ComputeQuotes")
	defer span.End()

	quotes, err := e.computeQuotes(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("freight.quotes", len(quotes)))
	return quotes, nil
}

func (e *Engine) computeQuotes(ctx context.Context, req ShipmentRequest) ([]Quote, error) {
	if req.CustomRatePerKg != nil && !(*req.CustomRatePerKg > 0) {
		return nil, invalidShipment("custom rate must be positive")
	}
	weight, err := ChargeableWeight(req.ActualWeightKg, req.Dimensions)
	if err != nil {
		return nil, err
	}
	country := e.normalizer.Country(req.DestinationCountry)
	if country == "" {
		return nil, invalidShipment("destination country is required")
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("freight.country", country),
		attribute.Float64("freight.chargeable_kg", weight),
	)

	var (
		zone   *DestinationZone
		origin OriginGroup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		z, err := e.zones.Resolve(gctx, country, req.PostalCode)
		zone = z
		return err
	})
	g.Go(func() error {
		o, err := e.origins.Resolve(gctx, e.normalizer.City(req.OriginCity))
		origin = o
		return err
	})
	if err := g.Wait(); err != nil {
		e.logger.Ctx(ctx).Error("Failed to resolve destination or origin", zap.Error(err))
		return nil, err
	}

	in := FeeInput{
		ActualWeightKg:     req.ActualWeightKg,
		ChargeableWeightKg: weight,
		Dimensions:         req.Dimensions,
		Cargo:              cargoText(req),
		Remote:             e.remote.IsRemote(country, req.PostalCode),
		CustomsDeclaration: req.CustomsDeclaration,
	}

	if req.CustomRatePerKg != nil {
		in.ChannelID = CustomChannelID
		fees, _ := e.surcharges.ComputeFees(in, nil)
		custom := Channel{ID: CustomChannelID, Name: "Custom rate", Mode: ModeCustom}
		q := AssembleQuote(custom, *req.CustomRatePerKg, weight, fees, zone, e.cfg.Currency)
		q.Custom = true
		return []Quote{q}, nil
	}

	candidates, err := e.catalog.ListCandidates(ctx, country, req.RequestedShippingMethods, weight)
	if err != nil {
		e.logger.Ctx(ctx).Error("Failed to list candidate channels", zap.Error(err))
		return nil, err
	}

	zoneCode := ""
	if zone != nil {
		zoneCode = zone.ZoneCode
	}

	e.logger.Ctx(ctx).Debug("Pricing candidate channels",
		zap.String("country", country),
		zap.String("zone", zoneCode),
		zap.String("origin", origin.Code),
		zap.Float64("chargeable_kg", weight),
		zap.Int("candidates", len(candidates)),
	)

	priced := make([]*Quote, len(candidates))
	if e.cfg.Parallelism > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Parallelism)
		for i, ch := range candidates {
			g.Go(func() error {
				q, err := e.priceChannel(gctx, ch, origin.Code, zoneCode, zone, in)
				priced[i] = q
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, ch := range candidates {
			q, err := e.priceChannel(ctx, ch, origin.Code, zoneCode, zone, in)
			if err != nil {
				return nil, err
			}
			priced[i] = q
		}
	}

	quotes := make([]Quote, 0, len(priced))
	for _, q := range priced {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return RankQuotes(quotes), nil
}

// priceChannel returns nil without error when no band prices the shipment.
func (e *Engine) priceChannel(ctx context.Context, ch Channel, originCode, zoneCode string, zone *DestinationZone, in FeeInput) (*Quote, error) {
	ctx, span := e.tracer.Start(ctx, "freight.PriceChannel",
		trace.WithAttributes(attribute.String("freight.channel", ch.ID)))
	defer span.End()

	rate, err := e.rates.Lookup(ctx, ch.ID, originCode, zoneCode, in.ChargeableWeightKg)
	if err != nil {
		span.RecordError(err)
		return nil, asDataUnavailable("rates", err)
	}
	if rate == nil {
		e.logger.Ctx(ctx).Debug("No rate band for channel", zap.String("channel", ch.ID))
		return nil, nil
	}
	span.SetAttributes(attribute.Int("freight.tier", int(rate.Tier)))

	rules, err := e.data.SpecialRules(ctx, ch.ID)
	if err != nil {
		span.RecordError(err)
		return nil, asDataUnavailable("special rules", err)
	}

	in.ChannelID = ch.ID
	fees, ruleErrs := e.surcharges.ComputeFees(in, rules)
	for _, re := range ruleErrs {
		e.logger.Ctx(ctx).Warn("Skipping malformed special rule",
			zap.String("channel", ch.ID),
			zap.Error(re),
		)
	}

	q := AssembleQuote(ch, rate.PricePerKg, in.ChargeableWeightKg, fees, zone, e.cfg.Currency)
	return &q, nil
}

func cargoText(req ShipmentRequest) string {
	if _, ok := CategorizeCargo(req.CargoCategory); ok {
		return req.CargoCategory
	}
	return req.Material
}

// asDataUnavailable wraps store failures. Context errors and errors already
// coded pass through unchanged.
func asDataUnavailable(what string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return dataUnavailable(what, err)
}
