package transform_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mural/internal/config"
	"mural/internal/gallery"
	"mural/internal/logging"
	"mural/internal/transform"
)

func pngBytes(t *testing.T, value uint8, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, uniformGray(value, w, h)); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func pipelineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Transform.AspectWidth = 16
	cfg.Transform.AspectHeight = 9
	cfg.Transform.LumaThreshold = 200
	cfg.Transform.Workers = 2
	cfg.Transform.FetchTimeout = 5
	return &cfg
}

func TestPipelineRunAcceptsAndOrders(t *testing.T) {
	images := map[string][]byte{
		"/dark.png": pngBytes(t, 100, 160, 90),
		// 384x120 needs a centered crop down to 213x120.
		"/wide.png": pngBytes(t, 100, 384, 120),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := images[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer server.Close()

	cfg := pipelineConfig(t)
	pipeline := transform.NewPipeline(cfg, logging.NewNop())

	candidates := []gallery.Candidate{
		{SourceURL: server.URL + "/dark.png"},
		{SourceURL: server.URL + "/missing.png"},
		{SourceURL: server.URL + "/wide.png"},
	}
	accepted := pipeline.Run(context.Background(), candidates)
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted assets, got %d", len(accepted))
	}
	if accepted[0].SourceURL != candidates[0].SourceURL || accepted[1].SourceURL != candidates[2].SourceURL {
		t.Fatalf("discovery order not preserved: %+v", accepted)
	}

	for _, asset := range accepted {
		if filepath.Base(asset.Path) != transform.AssetFileName(asset.SourceURL) {
			t.Fatalf("unexpected asset name %s", asset.Path)
		}
		if _, err := os.Stat(asset.Path); err != nil {
			t.Fatalf("accepted asset missing on disk: %v", err)
		}
	}

	// The wide source must have been cropped to the target aspect.
	file, err := os.Open(accepted[1].Path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		t.Fatalf("decode cropped asset: %v", err)
	}
	if img.Bounds().Dx() != 213 || img.Bounds().Dy() != 120 {
		t.Fatalf("unexpected cropped size %v", img.Bounds())
	}
}

func TestPipelineRunBrightnessGate(t *testing.T) {
	bright := pngBytes(t, 220, 160, 90)
	atThreshold := pngBytes(t, 200, 160, 90)
	dark := pngBytes(t, 199, 160, 90)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bright.png":
			w.Write(bright)
		case "/edge.png":
			w.Write(atThreshold)
		default:
			w.Write(dark)
		}
	}))
	defer server.Close()

	cfg := pipelineConfig(t)
	pipeline := transform.NewPipeline(cfg, logging.NewNop())

	accepted := pipeline.Run(context.Background(), []gallery.Candidate{
		{SourceURL: server.URL + "/bright.png"},
		{SourceURL: server.URL + "/edge.png"},
		{SourceURL: server.URL + "/dark.png"},
	})
	if len(accepted) != 1 {
		t.Fatalf("expected only the dark image to pass, got %d assets", len(accepted))
	}
	if filepath.Base(accepted[0].Path) != transform.AssetFileName(server.URL+"/dark.png") {
		t.Fatalf("wrong survivor: %s", accepted[0].Path)
	}

	// Rejected downloads must not linger in staging.
	entries, err := os.ReadDir(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected staging to hold one finished asset, found %d entries", len(entries))
	}
}

func TestPipelineRunEmptyInput(t *testing.T) {
	cfg := pipelineConfig(t)
	pipeline := transform.NewPipeline(cfg, logging.NewNop())
	if got := pipeline.Run(context.Background(), nil); got != nil {
		t.Fatalf("expected nil result for empty input, got %v", got)
	}
}
