package transform

import (
	"image"
	"math"
)

// aspectEpsilon is the relative ratio difference below which a source is
// considered already at the target aspect and cropping is skipped.
const aspectEpsilon = 0.01

// CropRect computes the largest centered rectangle of aspect
// aspectW:aspectH that fits within a srcW x srcH image. The boolean
// reports whether cropping is needed; it is false when the source is
// within epsilon of the target ratio. Rounding always shrinks the window
// so the rectangle never exceeds the source bounds.
func CropRect(srcW, srcH, aspectW, aspectH int) (image.Rectangle, bool) {
	full := image.Rect(0, 0, srcW, srcH)
	if srcW <= 0 || srcH <= 0 || aspectW <= 0 || aspectH <= 0 {
		return full, false
	}

	srcRatio := float64(srcW) / float64(srcH)
	targetRatio := float64(aspectW) / float64(aspectH)
	if math.Abs(srcRatio-targetRatio)/targetRatio < aspectEpsilon {
		return full, false
	}

	if srcRatio > targetRatio {
		// Source too wide: full height, centered horizontal window.
		cropW := int(math.Floor(float64(srcH) * targetRatio))
		if cropW >= srcW {
			return full, false
		}
		x0 := (srcW - cropW) / 2
		return image.Rect(x0, 0, x0+cropW, srcH), true
	}

	// Source too tall: full width, centered vertical window.
	cropH := int(math.Floor(float64(srcW) / targetRatio))
	if cropH >= srcH {
		return full, false
	}
	y0 := (srcH - cropH) / 2
	return image.Rect(0, y0, srcW, y0+cropH), true
}
