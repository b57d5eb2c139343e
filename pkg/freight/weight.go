package freight

import "math"

const (
	// VolumetricDivisor converts cm³ to volumetric kilograms for air/courier freight.
	VolumetricDivisor = 6000.0

	// MinChargeableWeightKg is the billing floor.
	MinChargeableWeightKg = 0.1
)

// VolumetricWeight returns L×W×H/6000 in kilograms.
func VolumetricWeight(d Dimensions) float64 {
	return d.Length * d.Width * d.Height / VolumetricDivisor
}

// ChargeableWeight returns the greater of actual and volumetric weight,
// floored at MinChargeableWeightKg. At least one input must be present.
func ChargeableWeight(actualKg *float64, dims *Dimensions) (float64, error) {
	if actualKg == nil && dims == nil {
		return 0, invalidShipment("weight and dimensions are both missing")
	}
	if actualKg != nil {
		if !finite(*actualKg) {
			return 0, invalidShipment("weight must be a finite number")
		}
		if *actualKg < 0 {
			return 0, invalidShipment("weight must not be negative")
		}
	}

	var weight float64
	if actualKg != nil {
		weight = *actualKg
	}
	if dims != nil {
		if !finite(dims.Length) || !finite(dims.Width) || !finite(dims.Height) {
			return 0, invalidShipment("dimensions must be finite numbers")
		}
		if dims.Length < 0 || dims.Width < 0 || dims.Height < 0 {
			return 0, invalidShipment("dimensions must not be negative")
		}
		weight = math.Max(weight, VolumetricWeight(*dims))
	}
	return math.Max(weight, MinChargeableWeightKg), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Girth returns longest + 2×(second-longest + shortest).
func Girth(d Dimensions) float64 {
	longest, mid, short := sortedEdges(d)
	return longest + 2*(mid+short)
}

// LongestEdge returns the largest of the three dimensions.
func LongestEdge(d Dimensions) float64 {
	longest, _, _ := sortedEdges(d)
	return longest
}

func sortedEdges(d Dimensions) (float64, float64, float64) {
	a, b, c := d.Length, d.Width, d.Height
	if a < b {
		a, b = b, a
	}
	if b < c {
		b, c = c, b
	}
	if a < b {
		a, b = b, a
	}
	return a, b, c
}
