package transform

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	_ "golang.org/x/image/webp" // webp decode support for image.Decode

	"mural/internal/config"
	"mural/internal/fileutil"
	"mural/internal/gallery"
	"mural/internal/logging"
)

const jpegQuality = 90

var errBrightnessRejected = errors.New("average luma at or above threshold")

// AcceptedAsset passed every transform step. Ownership of the file
// transfers to the reconciler on commit.
type AcceptedAsset struct {
	SourceURL string
	Path      string
}

// Pipeline runs fetch, crop, and brightness filtering per candidate.
type Pipeline struct {
	fetcher       *Fetcher
	stagingDir    string
	aspectW       int
	aspectH       int
	lumaThreshold float64
	workers       int
	logger        *slog.Logger
}

// NewPipeline builds the transform pipeline from configuration.
func NewPipeline(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:       NewFetcher(cfg),
		stagingDir:    cfg.Paths.StagingDir,
		aspectW:       cfg.Transform.AspectWidth,
		aspectH:       cfg.Transform.AspectHeight,
		lumaThreshold: cfg.Transform.LumaThreshold,
		workers:       cfg.Transform.Workers,
		logger:        logging.NewComponentLogger(logger, "transform"),
	}
}

// Run processes candidates across a bounded worker pool and returns the
// survivors in the same relative order they were discovered. Individual
// failures drop the candidate and never abort the batch; reconciliation
// must only ever observe the complete joined result.
func (p *Pipeline) Run(ctx context.Context, candidates []gallery.Candidate) []AcceptedAsset {
	if len(candidates) == 0 {
		return nil
	}

	results := make([]*AcceptedAsset, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for i, candidate := range candidates {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			asset, err := p.process(groupCtx, candidate)
			if err != nil {
				p.logger.Info("candidate dropped",
					logging.String(logging.FieldSourceURL, candidate.SourceURL),
					logging.Error(err),
					logging.String(logging.FieldEventType, "transform_dropped"),
				)
				return nil
			}
			results[i] = &asset
			return nil
		})
	}
	_ = group.Wait()

	accepted := make([]AcceptedAsset, 0, len(candidates))
	for _, result := range results {
		if result != nil {
			accepted = append(accepted, *result)
		}
	}
	return accepted
}

func (p *Pipeline) process(ctx context.Context, candidate gallery.Candidate) (AcceptedAsset, error) {
	staged, err := p.fetcher.Fetch(ctx, candidate.SourceURL)
	if err != nil {
		return AcceptedAsset{}, err
	}

	asset, err := p.transform(staged)
	if err != nil {
		_ = os.Remove(staged.ScratchPath)
		return AcceptedAsset{}, err
	}
	return asset, nil
}

// transform decodes the staged file, crops it to the target aspect, and
// applies the brightness gate. On success the returned asset points at a
// finished file in staging; the raw download is gone either way.
func (p *Pipeline) transform(staged StagedAsset) (AcceptedAsset, error) {
	file, err := os.Open(staged.ScratchPath)
	if err != nil {
		return AcceptedAsset{}, fmt.Errorf("open scratch file: %w", err)
	}
	img, format, err := image.Decode(file)
	file.Close()
	if err != nil {
		return AcceptedAsset{}, fmt.Errorf("decode image: %w", err)
	}

	rect, needsCrop := CropRect(img.Bounds().Dx(), img.Bounds().Dy(), p.aspectW, p.aspectH)
	if needsCrop {
		img = cropImage(img, rect)
	}

	if luma := AverageLuma(img); luma >= p.lumaThreshold {
		// An intended filter outcome, not an error condition.
		p.logger.Debug("image rejected by brightness filter",
			logging.String(logging.FieldSourceURL, staged.SourceURL),
			logging.Float64("average_luma", luma),
			logging.Float64("threshold", p.lumaThreshold),
			logging.String(logging.FieldEventType, "transform_brightness_rejected"),
		)
		_ = os.Remove(staged.ScratchPath)
		return AcceptedAsset{}, errBrightnessRejected
	}

	finalPath := filepath.Join(p.stagingDir, AssetFileName(staged.SourceURL))
	if !needsCrop && formatMatchesExtension(format, finalPath) {
		if err := fileutil.MoveFile(staged.ScratchPath, finalPath); err != nil {
			return AcceptedAsset{}, fmt.Errorf("finalize staged file: %w", err)
		}
		return AcceptedAsset{SourceURL: staged.SourceURL, Path: finalPath}, nil
	}

	if err := encodeImage(img, finalPath); err != nil {
		return AcceptedAsset{}, err
	}
	_ = os.Remove(staged.ScratchPath)
	return AcceptedAsset{SourceURL: staged.SourceURL, Path: finalPath}, nil
}

func cropImage(img image.Image, rect image.Rectangle) image.Image {
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if src, ok := img.(subImager); ok {
		return src.SubImage(rect)
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}

func encodeImage(img image.Image, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(out, img)
	default:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("encode image: %w", err)
	}
	return out.Close()
}

func formatMatchesExtension(format, path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return format == "png"
	case ".jpg", ".jpeg":
		return format == "jpeg"
	default:
		return false
	}
}
