package tabular

import (
	"sort"

	"github.com/tournevent/freightquote/pkg/freight"
)

// Origin group codes of the standard table.
const (
	OriginEast  = "east"
	OriginSouth = "south"
	OriginNorth = "north"
)

// US zone codes keyed by the first postal digit.
const (
	ZoneUSEast    = "0123"
	ZoneUSCentral = "4567"
	ZoneUSWest    = "8_9"
)

// Weight breakpoints; each band runs from its break to the next one, both
// inclusive, and the last is open-ended.
var (
	usSeaBreaks = []float64{21, 100}
	usAirBreaks = []float64{12, 22, 76, 100}
	euBreaks    = []float64{21, 51, 100, 1000}
	auBreaks    = []float64{22, 50, 100, 300, 500, 1000}
	mxBreaks    = []float64{10}
)

type channelSpec struct {
	freight.Channel
	breaks []float64
	rates  map[string]map[string][]float64 // origin → zone → price per break
}

var usChannels = []channelSpec{
	{
		Channel: freight.Channel{
			ID: "US_SEA_MATSON_EXPRESS", Name: "Matson Express (14 days)", Mode: freight.ModeSea,
			ServiceLabel: "Matson express", TransitTimeLabel: "14 days",
			Schedule:     "cut-off Monday, sails Wednesday",
			Compensation: "pickup day 13-14 after sailing; from day 15, 1 CNY/kg/day, capped at 2 CNY/kg",
			Methods:      []string{"sea", "matson"},
		},
		breaks: usSeaBreaks,
		rates: map[string]map[string][]float64{
			OriginEast:  {ZoneUSWest: {18.4, 15.9}, ZoneUSCentral: {19.9, 17.4}, ZoneUSEast: {20.9, 18.4}},
			OriginSouth: {ZoneUSWest: {18.9, 16.4}, ZoneUSCentral: {20.4, 17.9}, ZoneUSEast: {21.4, 18.9}},
			OriginNorth: {ZoneUSWest: {18.9, 16.4}, ZoneUSCentral: {20.4, 17.9}, ZoneUSEast: {21.4, 18.9}},
		},
	},
	{
		Channel: freight.Channel{
			ID: "US_SEA_MEDIUM_SPEED", Name: "Medium Speed Sea (16 days)", Mode: freight.ModeSea,
			ServiceLabel: "Medium speed", TransitTimeLabel: "16 days",
			Schedule:     "cut-off Tuesday, sails Thursday",
			Compensation: "pickup day 15-17 after sailing; from day 18, 0.5 CNY/kg/day, capped at 1 CNY/kg",
			Methods:      []string{"sea"},
		},
		breaks: usSeaBreaks,
		rates: map[string]map[string][]float64{
			OriginEast:  {ZoneUSWest: {17.8, 15.3}, ZoneUSCentral: {19.3, 16.8}, ZoneUSEast: {20.3, 17.8}},
			OriginSouth: {ZoneUSWest: {18.3, 15.8}, ZoneUSCentral: {19.8, 17.3}, ZoneUSEast: {20.8, 18.3}},
			OriginNorth: {ZoneUSWest: {18.3, 15.8}, ZoneUSCentral: {19.8, 17.3}, ZoneUSEast: {20.8, 18.3}},
		},
	},
	{
		Channel: freight.Channel{
			ID: "US_SEA_REGULAR", Name: "Regular Sea (22 days)", Mode: freight.ModeSea,
			ServiceLabel: "Regular vessel", TransitTimeLabel: "22 days",
			Schedule: "cut-off Saturday, sails Monday",
			Methods:  []string{"sea"},
		},
		breaks: usSeaBreaks,
		rates: map[string]map[string][]float64{
			OriginEast:  {ZoneUSWest: {13.8, 11.3}, ZoneUSCentral: {15.1, 12.6}, ZoneUSEast: {16.1, 13.6}},
			OriginSouth: {ZoneUSWest: {13.8, 11.3}, ZoneUSCentral: {15.1, 12.6}, ZoneUSEast: {16.1, 13.6}},
			OriginNorth: {ZoneUSWest: {13.8, 11.3}, ZoneUSCentral: {15.1, 12.6}, ZoneUSEast: {16.1, 13.6}},
		},
	},
	{
		Channel: freight.Channel{
			ID: "US_SEA_EAST_SPECIAL", Name: "US East Saver (34 days)", Mode: freight.ModeSea,
			ServiceLabel: "East coast saver", TransitTimeLabel: "34 days",
			Methods: []string{"sea"},
		},
		breaks: usSeaBreaks,
		rates: map[string]map[string][]float64{
			OriginEast:  {ZoneUSEast: {15.3, 12.8}},
			OriginSouth: {ZoneUSEast: {15.3, 12.8}},
			OriginNorth: {ZoneUSEast: {15.8, 13.3}},
		},
	},
	{
		Channel: freight.Channel{
			ID: "US_AIR_EXPRESS", Name: "US Air Express", Mode: freight.ModeAir,
			ServiceLabel: "Air express", TransitTimeLabel: "6-12 days",
			Methods: []string{"air", "express"},
		},
		breaks: usAirBreaks,
		rates: map[string]map[string][]float64{
			OriginEast:  {ZoneUSEast: {55, 54, 53, 51}, ZoneUSCentral: {54, 53, 52, 50}, ZoneUSWest: {53, 52, 51, 49}},
			OriginSouth: {ZoneUSEast: {56, 55, 54, 52}, ZoneUSCentral: {55, 54, 53, 51}, ZoneUSWest: {54, 53, 52, 50}},
		},
	},
}

// EU zone groups share one price list per channel.
var euZones = []struct {
	code, name string
	countries  []string
}{
	{"DE_PL", "Germany/Poland", []string{"DE", "PL"}},
	{"FR_NL_CZ", "France/Netherlands/Czechia", []string{"FR", "NL", "CZ"}},
	{"ES_IT_AT", "Spain/Italy/Austria", []string{"ES", "IT", "AT"}},
	{"FI_SE_RO", "Finland/Sweden/Romania", []string{"FI", "SE", "RO"}},
}

var euChannels = []channelSpec{
	{
		Channel: freight.Channel{
			ID: "EU_SEA", Name: "EU Sea (UPS/DPD delivery)", Mode: freight.ModeSea,
			ServiceLabel: "Sea + UPS/DPD", TransitTimeLabel: "about 40 days",
			Methods: []string{"sea"},
		},
		breaks: euBreaks,
		rates: map[string]map[string][]float64{"": {
			"DE_PL":    {14.3, 12.3, 11.3, 11.3},
			"FR_NL_CZ": {15.8, 13.8, 12.8, 12.8},
			"ES_IT_AT": {16.3, 14.3, 13.3, 13.3},
			"FI_SE_RO": {17.8, 15.8, 14.8, 14.8},
		}},
	},
	{
		Channel: freight.Channel{
			ID: "EU_RAIL", Name: "EU Rail", Mode: freight.ModeRail,
			ServiceLabel: "China-Europe rail", TransitTimeLabel: "25-30 days",
			Methods: []string{"rail"},
		},
		breaks: euBreaks,
		rates: map[string]map[string][]float64{"": {
			"DE_PL":    {16, 14, 13, 13},
			"FR_NL_CZ": {18, 15.5, 14.5, 14.5},
			"ES_IT_AT": {18, 16, 15, 15},
			"FI_SE_RO": {19.5, 17.5, 16.5, 16.5},
		}},
	},
	{
		Channel: freight.Channel{
			ID: "EU_TRUCK", Name: "EU Truck", Mode: freight.ModeTruck,
			ServiceLabel: "Overland truck", TransitTimeLabel: "24-26 days",
			Methods: []string{"truck"},
		},
		breaks: euBreaks,
		rates: map[string]map[string][]float64{"": {
			"DE_PL":    {22.5, 20.5, 19, 18.5},
			"FR_NL_CZ": {24.5, 22.5, 21, 20.5},
			"ES_IT_AT": {25, 23, 21.5, 21},
			"FI_SE_RO": {26.5, 24.5, 23, 22.5},
		}},
	},
}

var auChannels = []channelSpec{
	{
		Channel: freight.Channel{
			ID: "AU_SEA", Name: "Australia Sea (DDP)", Mode: freight.ModeSea,
			ServiceLabel: "Sea, duties paid", TransitTimeLabel: "20-25 days",
			Methods: []string{"sea"},
		},
		breaks: auBreaks,
		rates: map[string]map[string][]float64{"": {
			"SYD_MEL_BRI": {10, 9.5, 8.5, 8, 7.8, 7.5},
			"PER":         {14, 13, 12.5, 12.5, 12, 11.5},
		}},
	},
	{
		Channel: freight.Channel{
			ID: "AU_AIR", Name: "Australia Air (DDP)", Mode: freight.ModeAir,
			ServiceLabel: "Air, duties paid", TransitTimeLabel: "7-10 days",
			Methods: []string{"air"},
		},
		breaks: auBreaks,
		rates: map[string]map[string][]float64{"": {
			"SYD_MEL_BRI": {38, 37.5, 37, 36.5, 36, 35.5},
			"PER":         {49, 48.5, 48, 47.5, 47, 46.5},
		}},
	},
}

var mxChannel = channelSpec{
	Channel: freight.Channel{
		ID: "MX_SEA", Name: "Mexico Sea (DDP door delivery)", Mode: freight.ModeSea,
		ServiceLabel: "Sea, duties paid", TransitTimeLabel: "30-35 days",
		Methods: []string{"sea"},
	},
	breaks: mxBreaks,
	rates:  map[string]map[string][]float64{"": {"": {24}}},
}

// DefaultTable returns the standard rate table.
func DefaultTable() *Table {
	t := &Table{
		Origins: []freight.OriginGroup{
			{Code: OriginEast, RegionLabel: "East China", MemberCities: []string{"义乌", "宁波", "杭州", "台州", "上海", "华东", "浙江"}},
			{Code: OriginSouth, RegionLabel: "South China", MemberCities: []string{"深圳", "广州", "中山", "东莞", "华南"}},
			{Code: OriginNorth, RegionLabel: "North China", MemberCities: []string{"泉州", "青岛"}},
		},
	}

	for _, digit := range []string{"0", "1", "2", "3"} {
		t.Zones = append(t.Zones, freight.DestinationZone{Country: "US", ZoneCode: ZoneUSEast, ZoneName: "US East", PostalPrefix: digit})
	}
	for _, digit := range []string{"4", "5", "6", "7"} {
		t.Zones = append(t.Zones, freight.DestinationZone{Country: "US", ZoneCode: ZoneUSCentral, ZoneName: "US Central", PostalPrefix: digit})
	}
	t.Zones = append(t.Zones,
		freight.DestinationZone{Country: "US", ZoneCode: ZoneUSWest, ZoneName: "US West", PostalPrefix: "8", Default: true},
		freight.DestinationZone{Country: "US", ZoneCode: ZoneUSWest, ZoneName: "US West", PostalPrefix: "9"},
	)
	for _, spec := range usChannels {
		t.add(spec, "US", "")
	}

	for _, z := range euZones {
		for _, country := range z.countries {
			t.Zones = append(t.Zones, freight.DestinationZone{Country: country, ZoneCode: z.code, ZoneName: z.name, Default: true})
			for _, spec := range euChannels {
				t.add(spec, country, z.code)
			}
		}
	}

	t.Zones = append(t.Zones,
		freight.DestinationZone{Country: "AU", ZoneCode: "PER", ZoneName: "Perth", PostalPrefix: "6"},
		freight.DestinationZone{Country: "AU", ZoneCode: "SYD_MEL_BRI", ZoneName: "Sydney/Melbourne/Brisbane", Default: true},
		freight.DestinationZone{Country: "MX", ZoneCode: "MX", ZoneName: "Mexico", Default: true},
	)
	for _, spec := range auChannels {
		t.add(spec, "AU", "")
	}
	t.add(mxChannel, "MX", "")

	return t
}

// add registers spec for country. A non-empty onlyZone restricts the bands
// to that zone and suffixes the channel ID with the country code.
func (t *Table) add(spec channelSpec, country, onlyZone string) {
	ch := spec.Channel
	ch.DestinationCountry = country
	ch.Active = true
	if onlyZone != "" {
		ch.ID += "_" + country
	}
	t.Channels = append(t.Channels, ch)

	for _, origin := range sortedKeys(spec.rates) {
		zones := spec.rates[origin]
		for _, zone := range sortedKeys(zones) {
			if onlyZone != "" && zone != onlyZone {
				continue
			}
			t.Bands = append(t.Bands, tiers(ch.ID, origin, zone, spec.breaks, zones[zone])...)
		}
	}
}

// tiers expands breakpoints and prices into contiguous bands.
func tiers(channelID, origin, zone string, breaks, prices []float64) []freight.RateBand {
	bands := make([]freight.RateBand, 0, len(breaks))
	for i, lo := range breaks {
		b := freight.RateBand{
			ChannelID:       channelID,
			OriginGroupCode: origin,
			ZoneCode:        zone,
			WeightMin:       lo,
			PricePerKg:      prices[i],
		}
		if i+1 < len(breaks) {
			hi := breaks[i+1]
			b.WeightMax = &hi
		}
		bands = append(bands, b)
	}
	return bands
}

// sortedKeys fixes declaration order so fallback ties resolve the same way
// on every build: east before south before north, then zones ascending.
func sortedKeys[V any](m map[string]V) []string {
	rank := map[string]int{OriginEast: 1, OriginSouth: 2, OriginNorth: 3}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank[keys[i]], rank[keys[j]]
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}
