package freight

import (
	"context"
	"strings"
)

// methodKeywords maps request keywords to enumerated method tags.
var methodKeywords = map[string]string{
	"sea": "sea", "ocean": "sea", "sea shipping": "sea", "海运": "sea", "海派": "sea",
	"air": "air", "air shipping": "air", "空运": "air", "空派": "air",
	"rail": "rail", "railway": "rail", "铁路": "rail",
	"truck": "truck", "卡航": "truck", "卡车": "truck",
	"express": "express", "courier": "express", "快递": "express",
}

// MethodTag returns the enumerated tag for a requested shipping method.
func MethodTag(method string) (string, bool) {
	tag, ok := methodKeywords[strings.ToLower(strings.TrimSpace(method))]
	return tag, ok
}

// MatchesMethod reports whether ch serves the requested method. Known
// keywords match exactly against the channel mode and method tags; other
// input falls back to a case-insensitive substring match on the channel's
// name, service label, mode and tags.
func MatchesMethod(ch Channel, method string) bool {
	m := strings.ToLower(strings.TrimSpace(method))
	if m == "" {
		return false
	}
	if tag, ok := MethodTag(m); ok {
		if string(ch.Mode) == tag {
			return true
		}
		for _, t := range ch.Methods {
			if strings.EqualFold(t, tag) {
				return true
			}
		}
		return false
	}

	fields := append([]string{ch.Name, ch.ServiceLabel, string(ch.Mode)}, ch.Methods...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), m) {
			return true
		}
	}
	return false
}

// Catalog enumerates candidate channels for a destination.
type Catalog struct {
	data ReferenceData
}

// NewCatalog creates a Catalog over data.
func NewCatalog(data ReferenceData) *Catalog {
	return &Catalog{data: data}
}

// ListCandidates returns the active channels of country that match at least
// one requested method (all when none requested) and own at least one band
// whose weight window covers chargeableKg. Order follows the reference data.
func (c *Catalog) ListCandidates(ctx context.Context, country string, methods []string, chargeableKg float64) ([]Channel, error) {
	channels, err := c.data.Channels(ctx, country)
	if err != nil {
		return nil, asDataUnavailable("channels", err)
	}

	methods = nonBlank(methods)
	candidates := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if !ch.Active || ch.DestinationCountry != country {
			continue
		}
		if len(methods) > 0 && !matchesAny(ch, methods) {
			continue
		}
		bands, err := c.data.RateBands(ctx, ch.ID)
		if err != nil {
			return nil, asDataUnavailable("rate bands", err)
		}
		if !CoversWeight(bands, chargeableKg) {
			continue
		}
		candidates = append(candidates, ch)
	}
	return candidates, nil
}

func matchesAny(ch Channel, methods []string) bool {
	for _, m := range methods {
		if MatchesMethod(ch, m) {
			return true
		}
	}
	return false
}

func nonBlank(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
