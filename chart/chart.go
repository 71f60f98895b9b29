// Package chart renders synthetic calibration charts. Straight lines make
// barrel and pincushion curvature visible at a glance, which is what the demo
// mode and the pipeline tests want from their input images.
package chart

import (
	"image"

	"github.com/fogleman/gg"
)

// DefaultSpacing is the default grid line spacing in pixels.
const DefaultSpacing = 32

// Grid renders a dark chart crossed by light grid lines every spacing pixels,
// with a dot at each intersection.
func Grid(width, height, spacing int) image.Image {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	dc := gg.NewContext(width, height)
	dc.SetRGB(0.07, 0.07, 0.09)
	dc.Clear()

	dc.SetRGB(0.82, 0.82, 0.78)
	dc.SetLineWidth(1)
	for x := 0; x <= width; x += spacing {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
	}
	for y := 0; y <= height; y += spacing {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
	}
	dc.Stroke()

	dc.SetRGB(0.93, 0.42, 0.31)
	for x := 0; x <= width; x += spacing {
		for y := 0; y <= height; y += spacing {
			dc.DrawCircle(float64(x), float64(y), 2)
			dc.Fill()
		}
	}
	return dc.Image()
}

// Checkerboard renders an alternating light/dark board with square cells.
func Checkerboard(width, height, cell int) image.Image {
	if cell <= 0 {
		cell = DefaultSpacing
	}
	dc := gg.NewContext(width, height)
	dc.SetRGB(0.95, 0.95, 0.92)
	dc.Clear()
	dc.SetRGB(0.12, 0.12, 0.14)
	for y := 0; y*cell < height; y++ {
		for x := 0; x*cell < width; x++ {
			if (x+y)%2 == 0 {
				continue
			}
			dc.DrawRectangle(float64(x*cell), float64(y*cell), float64(cell), float64(cell))
			dc.Fill()
		}
	}
	return dc.Image()
}
