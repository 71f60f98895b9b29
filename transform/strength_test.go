package transform

import (
	"testing"

	"go.viam.com/test"
)

func TestClampStrength(t *testing.T) {
	test.That(t, ClampStrength(0.7), test.ShouldEqual, 0.7)
	test.That(t, ClampStrength(5), test.ShouldEqual, MaxStrength)
	test.That(t, ClampStrength(-5), test.ShouldEqual, MinStrength)
}

func TestDistortionFromStrength(t *testing.T) {
	bc := DistortionFromStrength(2.0)
	test.That(t, bc.RadialK1, test.ShouldAlmostEqual, 0.6)
	test.That(t, bc.RadialK2, test.ShouldAlmostEqual, 0.2)
	test.That(t, bc.TangentialP1, test.ShouldAlmostEqual, 0.02)
	test.That(t, bc.TangentialP2, test.ShouldAlmostEqual, 0.02)

	// opposite sign flips k1 and the tangential terms but not k2
	neg := DistortionFromStrength(-2.0)
	test.That(t, neg.RadialK1, test.ShouldAlmostEqual, -0.6)
	test.That(t, neg.RadialK2, test.ShouldAlmostEqual, 0.2)
	test.That(t, neg.TangentialP1, test.ShouldAlmostEqual, -0.02)

	zero := DistortionFromStrength(0)
	test.That(t, zero.Parameters(), test.ShouldResemble, []float64{0, 0, 0, 0})
}

func TestBalance(t *testing.T) {
	test.That(t, Balance(0), test.ShouldEqual, 0)
	test.That(t, Balance(1.5), test.ShouldEqual, 1.5)
	test.That(t, Balance(-1.5), test.ShouldEqual, 1.5)
}
