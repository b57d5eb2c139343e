package freight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tournevent/freightquote/pkg/freight"
)

func defaultFees(in freight.FeeInput, rules ...freight.SpecialRule) (freight.Surcharges, []error) {
	return freight.NewSurchargeEngine(freight.DefaultSchedule()).ComputeFees(in, rules)
}

func labels(s freight.Surcharges) []string {
	out := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, it.Label)
	}
	return out
}

func TestComputeFees_None(t *testing.T) {
	fees, errs := defaultFees(freight.FeeInput{
		ActualWeightKg:     ptr(10),
		ChargeableWeightKg: 10,
		Dimensions:         &freight.Dimensions{Length: 30, Width: 30, Height: 30},
	})
	assert.Empty(t, errs)
	assert.Empty(t, fees.Items)
	assert.Zero(t, fees.Total)
}

func TestComputeFees_Overweight(t *testing.T) {
	tests := []struct {
		name   string
		actual *float64
		label  string
		fee    float64
	}{
		{"first band", ptr(25), "overweight 22.5-40kg", 255},
		{"first match wins on overlap", ptr(35), "overweight 22.5-40kg", 255},
		{"second band", ptr(45), "overweight 30-50kg", 100},
		{"third band", ptr(60), "overweight 50-80kg", 150},
		{"above every band", ptr(80), "", 0},
		{"no actual weight", nil, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fees, _ := defaultFees(freight.FeeInput{ActualWeightKg: tt.actual, ChargeableWeightKg: 100})
			if tt.label == "" {
				assert.Empty(t, fees.Items)
				return
			}
			require.Len(t, fees.Items, 1)
			assert.Equal(t, tt.label, fees.Items[0].Label)
			assert.Equal(t, tt.fee, fees.Total)
		})
	}
}

func TestComputeFees_GirthIsOrientationIndependent(t *testing.T) {
	for _, d := range []freight.Dimensions{
		{Length: 100, Width: 50, Height: 50},
		{Length: 50, Width: 100, Height: 50},
		{Length: 50, Width: 50, Height: 100},
	} {
		fees, _ := defaultFees(freight.FeeInput{ChargeableWeightKg: 42, Dimensions: &d})
		require.Len(t, fees.Items, 1)
		assert.Equal(t, "excess girth 300cm>266cm", fees.Items[0].Label)
		assert.Equal(t, 180.0, fees.Total)
	}
}

func TestComputeFees_Additive(t *testing.T) {
	fees, errs := defaultFees(freight.FeeInput{
		ActualWeightKg:     ptr(25),
		ChargeableWeightKg: 65,
		Dimensions:         &freight.Dimensions{Length: 130, Width: 60, Height: 50},
		Cargo:              "mask",
		Remote:             true,
		CustomsDeclaration: true,
	})
	assert.Empty(t, errs)
	assert.Equal(t, []string{
		"overweight 22.5-40kg",
		"oversize 120-240cm",
		"excess girth 350cm>266cm",
		"remote area",
		"cargo protective",
		"customs declaration",
	}, labels(fees))

	// 255 + 180 + 180 + 171 + 6*25 + 350
	assert.Equal(t, 1286.0, fees.Total)
}

func TestComputeFees_RemovingConditionRemovesOnlyItsFee(t *testing.T) {
	in := freight.FeeInput{
		ActualWeightKg:     ptr(45),
		ChargeableWeightKg: 45,
		Dimensions:         &freight.Dimensions{Length: 100, Width: 50, Height: 50},
		Remote:             true,
		CustomsDeclaration: true,
	}
	full, _ := defaultFees(in)

	in.CustomsDeclaration = false
	without, _ := defaultFees(in)

	assert.Equal(t, full.Total-350, without.Total)
	assert.Equal(t, full.Items[:len(full.Items)-1], without.Items)

	var sum float64
	for _, it := range full.Items {
		sum += it.Amount
	}
	assert.Equal(t, sum, full.Total)
}

func TestComputeFees_Remote(t *testing.T) {
	fees, _ := defaultFees(freight.FeeInput{ChargeableWeightKg: 20, Remote: true})
	assert.Equal(t, 171.0, fees.Total, "minimum applies")

	fees, _ = defaultFees(freight.FeeInput{ChargeableWeightKg: 200, Remote: true})
	assert.Equal(t, 300.0, fees.Total)
}

func TestComputeFees_Cargo(t *testing.T) {
	fees, _ := defaultFees(freight.FeeInput{ChargeableWeightKg: 12, Cargo: "sanitizer"})
	require.Len(t, fees.Items, 1)
	assert.Equal(t, "cargo sanitizer", fees.Items[0].Label)
	assert.Equal(t, 60.0, fees.Total, "charged on chargeable weight without an actual weight")

	fees, _ = defaultFees(freight.FeeInput{ActualWeightKg: ptr(10), ChargeableWeightKg: 30, Cargo: "运动鞋"})
	assert.Equal(t, 30.0, fees.Total, "charged on actual weight")

	fees, _ = defaultFees(freight.FeeInput{ChargeableWeightKg: 30, Cargo: "books"})
	assert.Empty(t, fees.Items)
}

func TestCategorizeCargo(t *testing.T) {
	c, ok := freight.CategorizeCargo("Textile")
	assert.True(t, ok)
	assert.Equal(t, freight.CargoTextile, c)

	c, ok = freight.CategorizeCargo("N95 masks")
	assert.True(t, ok)
	assert.Equal(t, freight.CargoProtective, c)

	_, ok = freight.CategorizeCargo("")
	assert.False(t, ok)
}

func TestComputeFees_RuleOverrides(t *testing.T) {
	in := freight.FeeInput{
		ActualWeightKg:     ptr(25),
		ChargeableWeightKg: 20,
		Dimensions:         &freight.Dimensions{Length: 100, Width: 50, Height: 50},
		Remote:             true,
	}
	fees, errs := defaultFees(in,
		freight.SpecialRule{ChannelID: "X", Type: freight.RuleGirth, Params: []byte(`{"threshold":400}`)},
		freight.SpecialRule{ChannelID: "X", Type: freight.RuleOverweight, Params: []byte(`{"bands":[{"min":20,"fee":90}]}`)},
		freight.SpecialRule{ChannelID: "X", Type: freight.RuleRemote, Params: []byte(`{"rate":2,"minimum":100}`)},
	)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"overweight 20+kg", "remote area"}, labels(fees))
	assert.Equal(t, 190.0, fees.Total)
}

func TestComputeFees_RuleDoesNotLeakAcrossCalls(t *testing.T) {
	engine := freight.NewSurchargeEngine(freight.DefaultSchedule())
	in := freight.FeeInput{ChargeableWeightKg: 10, Cargo: "mask"}

	fees, _ := engine.ComputeFees(in, []freight.SpecialRule{
		{ChannelID: "X", Type: freight.RuleCargoSurcharge, Params: []byte(`{"category":"protective","perKg":1}`)},
	})
	assert.Equal(t, 10.0, fees.Total)

	fees, _ = engine.ComputeFees(in, nil)
	assert.Equal(t, 60.0, fees.Total)
}

func TestComputeFees_ExtrasFollowBuiltins(t *testing.T) {
	fees, errs := defaultFees(freight.FeeInput{ChargeableWeightKg: 20, CustomsDeclaration: true},
		freight.SpecialRule{ChannelID: "X", Type: freight.RulePerKg, Description: "fuel", Params: []byte(`{"rate":0.5}`)},
		freight.SpecialRule{ChannelID: "X", Type: freight.RuleFlat, Params: []byte(`{"label":"pickup","amount":30}`)},
	)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"customs declaration", "fuel", "pickup"}, labels(fees))
	assert.Equal(t, 390.0, fees.Total)
}

func TestComputeFees_MalformedRuleSkipped(t *testing.T) {
	in := freight.FeeInput{
		ChargeableWeightKg: 42,
		Dimensions:         &freight.Dimensions{Length: 100, Width: 50, Height: 50},
	}
	fees, errs := defaultFees(in,
		freight.SpecialRule{ChannelID: "X", Type: freight.RuleGirth, Params: []byte(`{bad`)},
		freight.SpecialRule{ChannelID: "X", Type: "mystery"},
		freight.SpecialRule{ChannelID: "X", Type: freight.RuleFlat, Params: []byte(`{"amount":-5}`)},
	)
	require.Len(t, errs, 3)
	for _, err := range errs {
		assert.ErrorIs(t, err, freight.ErrRuleConfig)
	}
	assert.Equal(t, []string{"excess girth 300cm>266cm"}, labels(fees), "defaults still apply")
}
