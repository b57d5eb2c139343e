package graphql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/freightquote/internal/api"
	"github.com/tournevent/freightquote/internal/telemetry"
	"github.com/tournevent/freightquote/pkg/freight"
)

// Engine computes quotes. *freight.Engine implements it.
type Engine interface {
	ComputeQuotes(ctx context.Context, req freight.ShipmentRequest) ([]freight.Quote, error)
	ComputeChargeableWeight(actualKg *float64, dims *freight.Dimensions) (float64, error)
	NormalizeCountry(raw string) string
}

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers and is shared with the
// REST handlers.
type Resolver struct {
	Engine  Engine
	Logger  *otelzap.Logger
	Metrics *telemetry.Metrics
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(engine Engine, logger *otelzap.Logger, metrics *telemetry.Metrics) *Resolver {
	return &Resolver{
		Engine:  engine,
		Logger:  logger,
		Metrics: metrics,
	}
}

// Query returns the query resolver.
func (r *Resolver) Query() *QueryResolver {
	return &QueryResolver{r}
}

// QueryResolver resolves top-level query fields.
type QueryResolver struct {
	*Resolver
}

// Health reports liveness.
func (r *QueryResolver) Health(_ context.Context) (string, error) {
	return "ok", nil
}

// Quotes prices a shipment across every eligible channel.
func (r *QueryResolver) Quotes(ctx context.Context, input api.QuoteInput) (*api.QuoteResponse, error) {
	start := time.Now()
	requestID := requestID(ctx)

	resp, err := r.quotes(ctx, requestID, input)
	r.Metrics.RecordRequest("quotes", api.StatusLabel(err), time.Since(start).Seconds())
	if err != nil {
		r.logFailure(ctx, "quotes", requestID, err)
		return nil, err
	}

	r.Logger.Ctx(ctx).Info("Quotes computed",
		zap.String("request_id", requestID),
		zap.String("country", input.DestinationCountry),
		zap.Float64("chargeable_kg", resp.ChargeableWeightKg),
		zap.Int("quotes", len(resp.Quotes)),
	)
	return resp, nil
}

func (r *QueryResolver) quotes(ctx context.Context, requestID string, input api.QuoteInput) (*api.QuoteResponse, error) {
	if err := api.Validate(input); err != nil {
		return nil, err
	}
	req := input.ToShipmentRequest()

	weight, err := r.Engine.ComputeChargeableWeight(req.ActualWeightKg, req.Dimensions)
	if err != nil {
		return nil, err
	}
	quotes, err := r.Engine.ComputeQuotes(ctx, req)
	if err != nil {
		return nil, err
	}
	r.Metrics.RecordQuotes(r.metricCountry(input.DestinationCountry, quotes), len(quotes))

	return &api.QuoteResponse{
		RequestID:          requestID,
		ChargeableWeightKg: weight,
		Quotes:             quotes,
	}, nil
}

// ChargeableWeight returns the billable weight of a package.
func (r *QueryResolver) ChargeableWeight(ctx context.Context, input api.WeightInput) (*api.WeightResponse, error) {
	start := time.Now()
	requestID := requestID(ctx)

	resp, err := r.chargeableWeight(requestID, input)
	r.Metrics.RecordRequest("chargeable_weight", api.StatusLabel(err), time.Since(start).Seconds())
	if err != nil {
		r.logFailure(ctx, "chargeable_weight", requestID, err)
		return nil, err
	}
	return resp, nil
}

func (r *QueryResolver) chargeableWeight(requestID string, input api.WeightInput) (*api.WeightResponse, error) {
	if err := api.Validate(input); err != nil {
		return nil, err
	}
	actual, dims := input.Model()
	weight, err := r.Engine.ComputeChargeableWeight(actual, dims)
	if err != nil {
		return nil, err
	}

	resp := &api.WeightResponse{RequestID: requestID, ChargeableWeightKg: weight}
	if dims != nil {
		v := freight.VolumetricWeight(*dims)
		resp.VolumetricWeightKg = &v
	}
	return resp, nil
}

func (r *Resolver) logFailure(ctx context.Context, operation, requestID string, err error) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("request_id", requestID),
		zap.Error(err),
	}
	switch api.StatusLabel(err) {
	case "invalid":
		r.Logger.Ctx(ctx).Debug("Rejected request", fields...)
	default:
		r.Logger.Ctx(ctx).Error("Request failed", fields...)
	}
}

func requestID(ctx context.Context) string {
	if id := api.RequestIDFrom(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// metricCountry keeps the country label bounded to channels actually served.
func (r *Resolver) metricCountry(raw string, quotes []freight.Quote) string {
	for _, q := range quotes {
		if q.ChannelID != freight.CustomChannelID {
			return r.Engine.NormalizeCountry(raw)
		}
	}
	if len(quotes) > 0 {
		return "custom"
	}
	return "none"
}
