package warp

import (
	"image"

	"github.com/disintegration/imaging"
)

// toNRGBA converts an arbitrary caller image into the engine-native NRGBA
// representation. imaging handles every standard color model and always
// copies, so the engine never aliases caller memory.
func toNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}
