package warp

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
)

// SamplingMode selects how the resample stage reads the source image.
type SamplingMode int

const (
	// SamplingNearest reads the single source pixel nearest the mapped
	// coordinate. The default.
	SamplingNearest SamplingMode = iota
	// SamplingBilinear blends the four pixels surrounding the mapped
	// coordinate. Optional higher-quality mode.
	SamplingBilinear
)

// nearestColor returns the source pixel nearest to p, clamped to the image
// bounds. The caller has already rejected coordinates outside the source.
func nearestColor(p r2.Point, src *image.NRGBA) color.NRGBA {
	b := src.Bounds()
	x := clampInt(int(math.Round(p.X)), 0, b.Dx()-1)
	y := clampInt(int(math.Round(p.Y)), 0, b.Dy()-1)
	return src.NRGBAAt(x, y)
}

// bilinearColor blends the four source pixels around p, weighted by distance.
func bilinearColor(p r2.Point, src *image.NRGBA) color.NRGBA {
	b := src.Bounds()
	x0 := clampInt(int(math.Floor(p.X)), 0, b.Dx()-1)
	y0 := clampInt(int(math.Floor(p.Y)), 0, b.Dy()-1)
	x1 := clampInt(x0+1, 0, b.Dx()-1)
	y1 := clampInt(y0+1, 0, b.Dy()-1)
	fx := p.X - float64(x0)
	fy := p.Y - float64(y0)

	c00 := src.NRGBAAt(x0, y0)
	c10 := src.NRGBAAt(x1, y0)
	c01 := src.NRGBAAt(x0, y1)
	c11 := src.NRGBAAt(x1, y1)

	blend := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-fx) + float64(b)*fx
		bot := float64(c)*(1-fx) + float64(d)*fx
		return uint8(math.Round(top*(1-fy) + bot*fy))
	}
	return color.NRGBA{
		R: blend(c00.R, c10.R, c01.R, c11.R),
		G: blend(c00.G, c10.G, c01.G, c11.G),
		B: blend(c00.B, c10.B, c01.B, c11.B),
		A: blend(c00.A, c10.A, c01.A, c11.A),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
