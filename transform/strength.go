package transform

import "math"

// Strength is the single user-facing control. Its sign selects barrel versus
// pincushion correction and its absolute value doubles as the blend weight
// against the identity mapping.
const (
	MinStrength = -2.0
	MaxStrength = 2.0
)

// Fixed ratios from the one strength knob to the Brown-Conrady coefficients.
// One knob drives a physically plausible coefficient family instead of
// exposing four independent parameters.
const (
	strengthK1Ratio  = 0.3
	strengthK2Ratio  = 0.1
	strengthTanRatio = 0.01
)

// ClampStrength limits s to [MinStrength, MaxStrength].
func ClampStrength(s float64) float64 {
	return math.Max(MinStrength, math.Min(MaxStrength, s))
}

// DistortionFromStrength derives a Brown-Conrady model from the strength
// control: k1 = 0.3*s, k2 = 0.1*|s|, p1 = p2 = 0.01*s.
func DistortionFromStrength(s float64) *BrownConrady {
	return &BrownConrady{
		RadialK1:     strengthK1Ratio * s,
		RadialK2:     strengthK2Ratio * math.Abs(s),
		TangentialP1: strengthTanRatio * s,
		TangentialP2: strengthTanRatio * s,
	}
}

// Balance is the interpolation weight between the identity mapping and the
// fully distorted mapping. Zero strength forces the identity.
func Balance(s float64) float64 {
	return math.Abs(s)
}
