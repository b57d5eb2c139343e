package freight_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tournevent/freightquote/pkg/freight"
)

func auZones() []freight.DestinationZone {
	return []freight.DestinationZone{
		{Country: "AU", ZoneCode: "SYD_MEL_BRI", ZoneName: "Sydney/Melbourne/Brisbane", Default: true},
		{Country: "AU", ZoneCode: "PER", ZoneName: "Perth", PostalPrefix: "6"},
		{Country: "AU", ZoneCode: "PER_CBD", ZoneName: "Perth CBD", PostalPrefix: "600"},
	}
}

func TestResolveZone(t *testing.T) {
	tests := []struct {
		name   string
		postal string
		want   string
	}{
		{"no postal code uses default", "", "SYD_MEL_BRI"},
		{"longest prefix wins", "6000", "PER_CBD"},
		{"shorter prefix", "6500", "PER"},
		{"catch-all zone", "2000", "SYD_MEL_BRI"},
		{"whitespace trimmed", "  6100 ", "PER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := freight.ResolveZone(auZones(), tt.postal)
			require.NotNil(t, z)
			assert.Equal(t, tt.want, z.ZoneCode)
		})
	}
}

func TestResolveZone_NoMatch(t *testing.T) {
	zones := []freight.DestinationZone{{Country: "US", ZoneCode: "0123", PostalPrefix: "0"}}
	assert.Nil(t, freight.ResolveZone(zones, "90210"))
	assert.Nil(t, freight.ResolveZone(zones, ""))
	assert.Nil(t, freight.ResolveZone(nil, "90210"))
}

func TestResolveZone_DefaultWithoutCatchAll(t *testing.T) {
	zones := []freight.DestinationZone{
		{Country: "US", ZoneCode: "0123", PostalPrefix: "0"},
		{Country: "US", ZoneCode: "8_9", PostalPrefix: "8", Default: true},
	}
	z := freight.ResolveZone(zones, "")
	require.NotNil(t, z)
	assert.Equal(t, "8_9", z.ZoneCode)
}

func TestZoneResolver_StoreError(t *testing.T) {
	store := &memStore{err: errors.New("boom")}
	_, err := freight.NewZoneResolver(store).Resolve(context.Background(), "AU", "6000")
	assert.ErrorIs(t, err, freight.ErrDataUnavailable)
}

func origins() []freight.OriginGroup {
	return []freight.OriginGroup{
		{Code: "east", RegionLabel: "East China", MemberCities: []string{"义乌", "宁波", "上海"}},
		{Code: "south", RegionLabel: "South China", MemberCities: []string{"深圳", "广州", "Shenzhen"}},
		{Code: "north", RegionLabel: "North China", MemberCities: []string{"青岛"}},
	}
}

func TestResolveOrigin(t *testing.T) {
	tests := []struct {
		name string
		city string
		want string
	}{
		{"exact member", "广州", "south"},
		{"input contains member", "深圳市南山区", "south"},
		{"member contains input", "shen", "south"},
		{"case insensitive", "SHENZHEN", "south"},
		{"empty uses default", "", "east"},
		{"unknown uses default", "Lagos", "east"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, freight.ResolveOrigin(origins(), tt.city, "east").Code)
		})
	}
}

func TestResolveOrigin_MissingDefault(t *testing.T) {
	assert.Equal(t, "east", freight.ResolveOrigin(origins(), "", "west").Code)
	assert.Equal(t, freight.OriginGroup{}, freight.ResolveOrigin(nil, "深圳", "east"))
}

func TestOriginResolver(t *testing.T) {
	store := &memStore{origins: origins()}
	g, err := freight.NewOriginResolver(store, "east").Resolve(context.Background(), "青岛")
	require.NoError(t, err)
	assert.Equal(t, "north", g.Code)

	store.err = errors.New("down")
	_, err = freight.NewOriginResolver(store, "east").Resolve(context.Background(), "青岛")
	assert.ErrorIs(t, err, freight.ErrDataUnavailable)
}
