package freight

// Mode is the transport mode of a channel.
type Mode string

const (
	ModeSea     Mode = "sea"
	ModeAir     Mode = "air"
	ModeRail    Mode = "rail"
	ModeTruck   Mode = "truck"
	ModeExpress Mode = "express"
	ModeCustom  Mode = "custom"
)

// CargoCategory is a surcharge-bearing class of goods.
type CargoCategory string

const (
	CargoProtective CargoCategory = "protective" // masks, protective clothing
	CargoSanitizer  CargoCategory = "sanitizer"
	CargoTextile    CargoCategory = "textile" // textiles, footwear
)

// RuleType identifies the kind of a SpecialRule.
type RuleType string

const (
	RuleOverweight     RuleType = "overweight"
	RuleOversize       RuleType = "oversize"
	RuleGirth          RuleType = "girth"
	RuleRemote         RuleType = "remote"
	RuleCargoSurcharge RuleType = "cargoSurcharge"
	RulePerKg          RuleType = "perKg"
	RuleFlat           RuleType = "flat"
)

// CustomChannelID is the channel ID carried by the single quote produced
// for a caller-supplied rate.
const CustomChannelID = "CUSTOM_PRICE"

// Dimensions are package dimensions in centimeters.
type Dimensions struct {
	Length float64 `json:"length" yaml:"length"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// ShipmentRequest is one pricing query.
type ShipmentRequest struct {
	DestinationCountry       string
	PostalCode               string
	City                     string
	ActualWeightKg           *float64
	Dimensions               *Dimensions
	RequestedShippingMethods []string
	OriginCity               string // empty = primary hub
	CargoCategory            string
	Material                 string
	CustomRatePerKg          *float64
	CustomsDeclaration       bool
}

// Channel is a sellable carrier/service offering.
type Channel struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Mode               Mode     `yaml:"mode"`
	DestinationCountry string   `yaml:"country"`
	ServiceLabel       string   `yaml:"service"`
	TransitTimeLabel   string   `yaml:"transit"`
	Schedule           string   `yaml:"schedule"`
	Compensation       string   `yaml:"compensation"`
	Methods            []string `yaml:"methods"` // enumerated method tags, e.g. "sea", "matson"
	Active             bool     `yaml:"active"`
}

// OriginGroup is a cluster of shipping-origin cities.
type OriginGroup struct {
	Code         string   `yaml:"code"`
	RegionLabel  string   `yaml:"region"`
	MemberCities []string `yaml:"cities"`
}

// DestinationZone is a pricing subdivision of a country. An empty
// PostalPrefix matches every postal code of the country. Default marks the
// zone used when no postal code is supplied.
type DestinationZone struct {
	Country      string `yaml:"country"`
	ZoneCode     string `yaml:"code"`
	ZoneName     string `yaml:"name"`
	PostalPrefix string `yaml:"prefix"`
	Default      bool   `yaml:"default"`
}

// RateBand is a per-kilogram price tier. Empty OriginGroupCode or ZoneCode
// make the band unspecific on that axis. A nil WeightMax is open-ended.
type RateBand struct {
	ChannelID       string   `yaml:"channel"`
	OriginGroupCode string   `yaml:"origin"`
	ZoneCode        string   `yaml:"zone"`
	WeightMin       float64  `yaml:"min"`
	WeightMax       *float64 `yaml:"max"`
	PricePerKg      float64  `yaml:"price"`
}

// Covers reports whether weight lies in the band; both ends are inclusive.
func (b RateBand) Covers(weight float64) bool {
	if weight < b.WeightMin {
		return false
	}
	return b.WeightMax == nil || weight <= *b.WeightMax
}

// SpecialRule is a channel-scoped surcharge trigger. Params is the raw JSON
// rule payload, decoded according to Type.
type SpecialRule struct {
	ChannelID   string
	Type        RuleType
	Description string
	Params      []byte
}

// FeeItem is one itemized surcharge.
type FeeItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Surcharges is an itemized fee list with its total.
type Surcharges struct {
	Items []FeeItem `json:"items"`
	Total float64   `json:"total"`
}

// Quote is one priced offer. Quotes are values and never mutated after
// assembly.
type Quote struct {
	ChannelID          string     `json:"channelId"`
	ChannelName        string     `json:"channelName"`
	Mode               Mode       `json:"mode"`
	ServiceLabel       string     `json:"serviceLabel,omitempty"`
	TransitTimeLabel   string     `json:"transitTimeLabel,omitempty"`
	Schedule           string     `json:"schedule,omitempty"`
	Compensation       string     `json:"compensation,omitempty"`
	ChargeableWeightKg float64    `json:"chargeableWeightKg"`
	PricePerKg         float64    `json:"pricePerKg"`
	BasePrice          float64    `json:"basePrice"`
	Surcharges         Surcharges `json:"surcharges"`
	TotalPrice         float64    `json:"totalPrice"`
	Currency           string     `json:"currency"`
	ZoneLabel          string     `json:"zoneLabel,omitempty"`
	Custom             bool       `json:"custom,omitempty"`
}
