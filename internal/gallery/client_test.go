package gallery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mural/internal/config"
	"mural/internal/gallery"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<div id="galleryContainer">
  <a class="image-link" href="/images/alpha.jpg" data-width="3440" data-height="1440">alpha</a>
  <a class="image-link featured" href="https://cdn.example.com/beta.png">beta</a>
  <a class="image-link" href="/images/alpha.jpg">duplicate</a>
  <a class="nav-link" href="/about">about</a>
  <a class="image-link">no href</a>
</div>
</body></html>`

func galleryConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Gallery.BaseURL = baseURL
	cfg.Gallery.ListingPath = "/gallery"
	cfg.Gallery.ShufflePath = "/gallery/shuffle"
	cfg.Gallery.LinkClass = "image-link"
	cfg.Gallery.RequestTimeout = 5
	return &cfg
}

func TestListingExtractsCandidateLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gallery" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	client := gallery.NewHTTPClient(galleryConfig(server.URL))
	candidates, err := client.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].SourceURL != server.URL+"/images/alpha.jpg" {
		t.Fatalf("unexpected first candidate: %q", candidates[0].SourceURL)
	}
	if candidates[0].Metadata["width"] != "3440" {
		t.Fatalf("expected data-width carried into metadata, got %v", candidates[0].Metadata)
	}
	if candidates[1].SourceURL != "https://cdn.example.com/beta.png" {
		t.Fatalf("unexpected second candidate: %q", candidates[1].SourceURL)
	}
}

func TestListingErrorsOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := gallery.NewHTTPClient(galleryConfig(server.URL))
	if _, err := client.Listing(context.Background()); err == nil {
		t.Fatal("expected error for 503 listing")
	}
}

func TestShuffleHitsConfiguredPath(t *testing.T) {
	var shuffled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gallery/shuffle" {
			shuffled = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := gallery.NewHTTPClient(galleryConfig(server.URL))
	if err := client.Shuffle(context.Background()); err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	if !shuffled {
		t.Fatal("shuffle endpoint was not called")
	}
}
