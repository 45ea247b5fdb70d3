package transform

import (
	"image"
	"math"
)

// lumaSampleBudget bounds how many pixels AverageLuma inspects. Large
// sources are sampled on a uniform grid instead of pixel by pixel.
const lumaSampleBudget = 262144

// AverageLuma computes the mean perceptual luma of img on a 0-255 scale
// using Rec. 601 weights. Sampling is deterministic: a fixed stride grid
// anchored at the image origin.
func AverageLuma(img image.Image) float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return 0
	}

	stride := 1
	if pixels := width * height; pixels > lumaSampleBudget {
		stride = int(math.Sqrt(float64(pixels) / float64(lumaSampleBudget)))
		if stride < 1 {
			stride = 1
		}
	}

	var total float64
	var samples int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; scale to 0-255.
			rf := float64(r >> 8)
			gf := float64(g >> 8)
			bf := float64(b >> 8)
			total += 0.299*rf + 0.587*gf + 0.114*bf
			samples++
		}
	}
	if samples == 0 {
		return 0
	}
	return total / float64(samples)
}
