// Package compose stitches per-monitor images into one canvas spanning
// the full monitor layout.
package compose

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // webp decode support for image.Decode

	"mural/internal/display"
	"mural/internal/transform"
)

const jpegQuality = 92

// Stitch composes one image per monitor onto a canvas whose dimensions
// equal the bounding box of all geometries, writing the result to
// outPath. Each image is center-cropped to its monitor's aspect and
// scaled to its exact dimensions. Stitching is all-or-nothing: any
// failure, including fewer images than monitors, returns an error with
// no output file written.
func Stitch(paths []string, monitors []display.Geometry, outPath string) error {
	if len(monitors) == 0 {
		return fmt.Errorf("stitch requires at least one monitor geometry")
	}
	if len(paths) < len(monitors) {
		return fmt.Errorf("stitch requires %d images for %d monitors, have %d", len(monitors), len(monitors), len(paths))
	}
	for i, mon := range monitors {
		if !mon.Known() {
			return fmt.Errorf("monitor %d has unknown dimensions", i)
		}
	}

	width, height, originX, originY := display.BoundingBox(monitors)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	for i, mon := range monitors {
		img, err := decodeFile(paths[i])
		if err != nil {
			return fmt.Errorf("stitch input %s: %w", paths[i], err)
		}
		srcRect, _ := transform.CropRect(img.Bounds().Dx(), img.Bounds().Dy(), mon.Width, mon.Height)
		srcRect = srcRect.Add(img.Bounds().Min)
		destRect := image.Rect(mon.X-originX, mon.Y-originY, mon.X-originX+mon.Width, mon.Y-originY+mon.Height)
		xdraw.CatmullRom.Scale(canvas, destRect, img, srcRect, xdraw.Src, nil)
	}

	return writeAtomic(canvas, outPath)
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	return img, err
}

// writeAtomic encodes to a temp file in the target directory and
// renames it into place so readers never observe a half-written canvas.
func writeAtomic(img image.Image, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".stitch-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".png":
		err = png.Encode(tmp, img)
	default:
		err = jpeg.Encode(tmp, img, &jpeg.Options{Quality: jpegQuality})
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode stitched image: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize stitched image: %w", err)
	}
	return nil
}
