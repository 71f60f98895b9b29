// Package warp is the mapping/resample engine. It runs the distortion model
// over every pixel of an image in two ordered stages: generate a displacement
// field, then resample the source image through it.
package warp

import (
	"image"

	"github.com/pkg/errors"
)

// DisplacementField is a dense 2-channel grid holding one normalized (u, v)
// source sampling coordinate per destination pixel. The v component is
// bottom-up, matching what the resample stage assumes. A field depends on both
// the image dimensions and the strength, so it lives for exactly one call.
type DisplacementField struct {
	width, height int
	data          []float32
}

// NewDisplacementField allocates a field sized to the given image dimensions.
func NewDisplacementField(width, height int) (*DisplacementField, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid displacement field size (%d, %d)", width, height)
	}
	return &DisplacementField{
		width:  width,
		height: height,
		data:   make([]float32, 2*width*height),
	}, nil
}

// Width returns the field width in entries.
func (df *DisplacementField) Width() int {
	return df.width
}

// Height returns the field height in entries.
func (df *DisplacementField) Height() int {
	return df.height
}

// Bounds returns the rectangle the field covers.
func (df *DisplacementField) Bounds() image.Rectangle {
	return image.Rect(0, 0, df.width, df.height)
}

// At returns the normalized source coordinate for destination pixel (x, y).
func (df *DisplacementField) At(x, y int) (float64, float64) {
	k := 2 * (y*df.width + x)
	return float64(df.data[k]), float64(df.data[k+1])
}

func (df *DisplacementField) set(x, y int, u, v float64) {
	k := 2 * (y*df.width + x)
	df.data[k] = float32(u)
	df.data[k+1] = float32(v)
}
