package chart

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestGrid(t *testing.T) {
	img := Grid(64, 48, 8)
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 64, 48))

	// grid lines make the chart non-uniform
	onLine := img.At(0, 10)
	offLine := img.At(4, 4)
	test.That(t, onLine, test.ShouldNotResemble, offLine)
}

func TestGridDefaultSpacing(t *testing.T) {
	img := Grid(64, 64, 0)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 64)
}

func TestCheckerboard(t *testing.T) {
	img := Checkerboard(64, 64, 8)
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 64, 64))

	// adjacent cells alternate
	a := img.At(4, 4)
	b := img.At(12, 4)
	test.That(t, a, test.ShouldNotResemble, b)
	// cells two apart match
	c := img.At(20, 4)
	test.That(t, a, test.ShouldResemble, c)
}
