package gallery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"mural/internal/config"
)

const userAgent = "mural/0.1"

// Candidate is one image reference obtained from the gallery's current
// listing. SourceURL doubles as the stable identifier used by the history
// ledger. Immutable once returned.
type Candidate struct {
	SourceURL string
	Metadata  map[string]string
}

// Client is the capability the gallery offers: read the current listing or
// re-randomize it. Both can fail with transport errors.
type Client interface {
	Listing(ctx context.Context) ([]Candidate, error)
	Shuffle(ctx context.Context) error
}

// HTTPClient implements Client against the gallery's web listing.
type HTTPClient struct {
	baseURL     string
	listingPath string
	shufflePath string
	linkClass   string
	client      *http.Client
}

// NewHTTPClient builds a gallery client from configuration.
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		baseURL:     cfg.Gallery.BaseURL,
		listingPath: cfg.Gallery.ListingPath,
		shufflePath: cfg.Gallery.ShufflePath,
		linkClass:   cfg.Gallery.LinkClass,
		client:      &http.Client{Timeout: time.Duration(cfg.Gallery.RequestTimeout) * time.Second},
	}
}

// Listing fetches the gallery page and extracts candidate links.
func (c *HTTPClient) Listing(ctx context.Context) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.listingPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	candidates, err := parseListing(resp.Body, c.baseURL, c.linkClass)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	return candidates, nil
}

// Shuffle asks the gallery to re-randomize its current listing.
func (c *HTTPClient) Shuffle(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.shufflePath, nil)
	if err != nil {
		return fmt.Errorf("build shuffle request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("shuffle: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("shuffle returned status %d", resp.StatusCode)
	}
	return nil
}

// parseListing walks the document and collects anchors carrying linkClass.
// Relative hrefs are resolved against baseURL; anchors without an href and
// duplicate URLs within one listing are skipped.
func parseListing(r io.Reader, baseURL, linkClass string) ([]Candidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var candidates []Candidate
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, linkClass) {
			if candidate, ok := candidateFromAnchor(n, base); ok {
				if _, dup := seen[candidate.SourceURL]; !dup {
					seen[candidate.SourceURL] = struct{}{}
					candidates = append(candidates, candidate)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return candidates, nil
}

func candidateFromAnchor(n *html.Node, base *url.URL) (Candidate, bool) {
	var href string
	metadata := make(map[string]string)
	for _, attr := range n.Attr {
		switch {
		case attr.Key == "href":
			href = strings.TrimSpace(attr.Val)
		case strings.HasPrefix(attr.Key, "data-"):
			metadata[strings.TrimPrefix(attr.Key, "data-")] = attr.Val
		}
	}
	if href == "" {
		return Candidate{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return Candidate{}, false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return Candidate{}, false
	}
	return Candidate{SourceURL: resolved.String(), Metadata: metadata}, true
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, field := range strings.Fields(attr.Val) {
			if field == class {
				return true
			}
		}
	}
	return false
}
