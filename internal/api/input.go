// Package api holds the transport-neutral request and response shapes shared
// by the REST and GraphQL surfaces.
package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tournevent/freightquote/pkg/freight"
)

// DimensionsInput are package dimensions in centimeters.
type DimensionsInput struct {
	Length float64 `json:"length" validate:"gte=0"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// QuoteInput is a quote request.
type QuoteInput struct {
	DestinationCountry string           `json:"destinationCountry" validate:"required,max=64"`
	PostalCode         string           `json:"postalCode" validate:"max=16"`
	City               string           `json:"city" validate:"max=128"`
	WeightKg           *float64         `json:"weightKg" validate:"omitempty,gte=0"`
	Dimensions         *DimensionsInput `json:"dimensions"`
	ShippingMethods    []string         `json:"shippingMethods" validate:"max=10,dive,max=64"`
	OriginCity         string           `json:"originCity" validate:"max=128"`
	CargoCategory      string           `json:"cargoCategory" validate:"max=64"`
	Material           string           `json:"material" validate:"max=256"`
	CustomRatePerKg    *float64         `json:"customRatePerKg" validate:"omitempty,gt=0"`
	CustomsDeclaration bool             `json:"customsDeclaration"`
}

// ToShipmentRequest converts the input to the engine's request type.
func (in QuoteInput) ToShipmentRequest() freight.ShipmentRequest {
	return freight.ShipmentRequest{
		DestinationCountry:       in.DestinationCountry,
		PostalCode:               in.PostalCode,
		City:                     in.City,
		ActualWeightKg:           in.WeightKg,
		Dimensions:               in.Dimensions.toModel(),
		RequestedShippingMethods: in.ShippingMethods,
		OriginCity:               in.OriginCity,
		CargoCategory:            in.CargoCategory,
		Material:                 in.Material,
		CustomRatePerKg:          in.CustomRatePerKg,
		CustomsDeclaration:       in.CustomsDeclaration,
	}
}

// WeightInput is a chargeable-weight request.
type WeightInput struct {
	WeightKg   *float64         `json:"weightKg" validate:"omitempty,gte=0"`
	Dimensions *DimensionsInput `json:"dimensions"`
}

// Model returns the engine arguments.
func (in WeightInput) Model() (*float64, *freight.Dimensions) {
	return in.WeightKg, in.Dimensions.toModel()
}

func (d *DimensionsInput) toModel() *freight.Dimensions {
	if d == nil {
		return nil
	}
	return &freight.Dimensions{Length: d.Length, Width: d.Width, Height: d.Height}
}

var validate = validator.New()

// Validate checks struct tags and reports failures as ErrInvalidShipment.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return freight.NewError(freight.CodeInvalidShipment, "invalid request").WithCause(err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return freight.NewError(freight.CodeInvalidShipment, strings.Join(msgs, "; "))
}

// fieldError converts a single validation failure into a readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
