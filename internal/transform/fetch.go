package transform

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"mural/internal/config"
)

const fetchUserAgent = "mural/0.1"

// StagedAsset is a downloaded, not-yet-validated file. It belongs to the
// current cycle and is discarded at cycle end regardless of outcome.
type StagedAsset struct {
	SourceURL   string
	ScratchPath string
}

// Fetcher downloads candidate bytes into the staging directory.
type Fetcher struct {
	client     *http.Client
	stagingDir string
}

// NewFetcher builds a fetcher from configuration.
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: time.Duration(cfg.Transform.FetchTimeout) * time.Second},
		stagingDir: cfg.Paths.StagingDir,
	}
}

// Fetch downloads sourceURL into a scratch file. Non-success status codes
// and empty bodies are errors; the caller drops the candidate.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) (StagedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return StagedAsset{}, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return StagedAsset{}, fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return StagedAsset{}, fmt.Errorf("fetch %s: status %d", sourceURL, resp.StatusCode)
	}

	if err := os.MkdirAll(f.stagingDir, 0o755); err != nil {
		return StagedAsset{}, fmt.Errorf("create staging dir: %w", err)
	}

	scratch := filepath.Join(f.stagingDir, AssetFileName(sourceURL)+".download")
	out, err := os.Create(scratch)
	if err != nil {
		return StagedAsset{}, fmt.Errorf("create scratch file: %w", err)
	}
	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		_ = os.Remove(scratch)
		return StagedAsset{}, fmt.Errorf("download %s: %w", sourceURL, err)
	}
	if closeErr != nil {
		_ = os.Remove(scratch)
		return StagedAsset{}, fmt.Errorf("close scratch file: %w", closeErr)
	}
	if written == 0 {
		_ = os.Remove(scratch)
		return StagedAsset{}, fmt.Errorf("download %s: empty body", sourceURL)
	}

	return StagedAsset{SourceURL: sourceURL, ScratchPath: scratch}, nil
}

// AssetFileName derives the destination filename for a source URL: a
// content-independent hash of the URL plus a normalized image extension.
// Deterministic, so re-delivery of the same URL lands on the same name.
func AssetFileName(sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:16] + assetExtension(sourceURL)
}

func assetExtension(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ".jpg"
	}
	switch strings.ToLower(path.Ext(parsed.Path)) {
	case ".png":
		return ".png"
	default:
		// JPEG output covers jpg, jpeg, webp, and extension-less URLs;
		// webp sources are re-encoded since x/image/webp only decodes.
		return ".jpg"
	}
}
