package server

import (
	"image"

	"golang.org/x/image/draw"
)

// scalePreview downsamples a frame for bandwidth-limited clients. Returns
// the source unchanged when no downscale is requested or possible.
// ApproxBiLinear is a reasonable speed/quality tradeoff for live streaming.
func scalePreview(src *image.RGBA, width int) *image.RGBA {
	bounds := src.Bounds()
	if width <= 0 || width >= bounds.Dx() {
		return src
	}

	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
