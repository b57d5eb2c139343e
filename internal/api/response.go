package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tournevent/freightquote/pkg/freight"
)

// QuoteResponse lists quotes cheapest first.
type QuoteResponse struct {
	RequestID          string          `json:"requestId"`
	ChargeableWeightKg float64         `json:"chargeableWeightKg"`
	Quotes             []freight.Quote `json:"quotes"`
}

// WeightResponse reports the billable weight.
type WeightResponse struct {
	RequestID          string   `json:"requestId"`
	ChargeableWeightKg float64  `json:"chargeableWeightKg"`
	VolumetricWeightKg *float64 `json:"volumetricWeightKg,omitempty"`
}

// ErrorBody is the error envelope of the REST surface.
type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"requestId,omitempty"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Classify maps err to an HTTP status and a client-safe detail.
func Classify(err error) (int, ErrorDetail) {
	var fe *freight.Error
	switch {
	case errors.Is(err, freight.ErrInvalidShipment) && errors.As(err, &fe):
		msg := fe.Message
		if fe.Cause != nil {
			msg += ": " + fe.Cause.Error()
		}
		return http.StatusBadRequest, ErrorDetail{Code: fe.Code, Message: msg}
	case errors.Is(err, freight.ErrDataUnavailable):
		return http.StatusServiceUnavailable, ErrorDetail{Code: freight.CodeDataUnavailable, Message: "reference data unavailable"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorDetail{Code: "CANCELED", Message: "request canceled"}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: "INTERNAL", Message: "internal error"}
	}
}

// StatusLabel is the metrics label for a request outcome.
func StatusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, freight.ErrInvalidShipment):
		return "invalid"
	case errors.Is(err, freight.ErrDataUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

type requestIDKey struct{}

// WithRequestID stores a request ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
