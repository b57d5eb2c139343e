package freight

import (
	"math"
	"sort"
)

// AssembleQuote prices ch at pricePerKg and attaches display metadata.
// Money amounts are rounded to cents and TotalPrice is the sum of the
// rounded base and surcharges.
func AssembleQuote(ch Channel, pricePerKg, chargeableKg float64, fees Surcharges, zone *DestinationZone, currency string) Quote {
	base := roundCents(pricePerKg * chargeableKg)
	fees = roundFees(fees)
	q := Quote{
		ChannelID:          ch.ID,
		ChannelName:        ch.Name,
		Mode:               ch.Mode,
		ServiceLabel:       ch.ServiceLabel,
		TransitTimeLabel:   ch.TransitTimeLabel,
		Schedule:           ch.Schedule,
		Compensation:       ch.Compensation,
		ChargeableWeightKg: chargeableKg,
		PricePerKg:         pricePerKg,
		BasePrice:          base,
		Surcharges:         fees,
		TotalPrice:         roundCents(base + fees.Total),
		Currency:           currency,
	}
	if zone != nil {
		q.ZoneLabel = zone.ZoneName
		if q.ZoneLabel == "" {
			q.ZoneLabel = zone.ZoneCode
		}
	}
	return q
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundFees(fees Surcharges) Surcharges {
	out := Surcharges{Items: make([]FeeItem, len(fees.Items))}
	for i, item := range fees.Items {
		item.Amount = roundCents(item.Amount)
		out.Items[i] = item
		out.Total += item.Amount
	}
	out.Total = roundCents(out.Total)
	return out
}

// RankQuotes sorts quotes ascending by total price in place; ties keep their
// input order. A nil input yields an empty, non-nil slice.
func RankQuotes(quotes []Quote) []Quote {
	if quotes == nil {
		return []Quote{}
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].TotalPrice < quotes[j].TotalPrice
	})
	return quotes
}
