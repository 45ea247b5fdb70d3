package gallery

import (
	"context"
	"log/slog"

	"mural/internal/logging"
)

// Outcome tags how a discovery result was produced so callers and logs can
// distinguish the exclusion-respecting path from the degraded one.
type Outcome string

const (
	// OutcomeNovel means every returned candidate passed exclusion filtering.
	OutcomeNovel Outcome = "novel"
	// OutcomeFallback means the exclusion-aware search came up empty and one
	// unfiltered listing read was accepted instead; duplicates are possible.
	OutcomeFallback Outcome = "fallback-possible-duplicate"
	// OutcomeEmpty means nothing could be obtained at all.
	OutcomeEmpty Outcome = "empty"
)

// Result carries the candidates accumulated by one Discover call.
type Result struct {
	Candidates []Candidate
	Outcome    Outcome
	Attempts   int
}

// Discover searches for up to count candidates whose identifiers are not in
// exclude, spending at most maxAttempts shuffles. Each attempt shuffles the
// gallery and reads the fresh listing; transport errors consume the attempt
// and the search continues. An empty result is a normal outcome, never an
// error. When the filtered search yields nothing, one unfiltered listing
// read is tried so the pipeline can still produce some output; that result
// is tagged OutcomeFallback.
func Discover(ctx context.Context, client Client, logger *slog.Logger, count int, exclude map[string]struct{}, maxAttempts int) Result {
	logger = logging.NewComponentLogger(logger, "gallery")
	if count <= 0 || maxAttempts <= 0 {
		return Result{Outcome: OutcomeEmpty}
	}

	collected := make([]Candidate, 0, count)
	taken := make(map[string]struct{}, count)
	attempts := 0

	for attempts < maxAttempts && len(collected) < count {
		if ctx.Err() != nil {
			break
		}
		attempts++

		if err := client.Shuffle(ctx); err != nil {
			logger.Warn("shuffle failed",
				logging.Error(err),
				logging.Int("attempt", attempts),
				logging.String(logging.FieldEventType, "gallery_shuffle_failed"),
			)
			continue
		}

		listing, err := client.Listing(ctx)
		if err != nil {
			logger.Warn("listing read failed",
				logging.Error(err),
				logging.Int("attempt", attempts),
				logging.String(logging.FieldEventType, "gallery_listing_failed"),
			)
			continue
		}

		for _, candidate := range listing {
			if len(collected) >= count {
				break
			}
			if _, excluded := exclude[candidate.SourceURL]; excluded {
				continue
			}
			if _, dup := taken[candidate.SourceURL]; dup {
				continue
			}
			taken[candidate.SourceURL] = struct{}{}
			collected = append(collected, candidate)
			attrs := []any{logging.String("url", candidate.SourceURL)}
			if w, h := candidate.Metadata["width"], candidate.Metadata["height"]; w != "" && h != "" {
				attrs = append(attrs, logging.String("dimensions", w+"x"+h))
			}
			logger.Debug("candidate collected", attrs...)
		}

		logger.Debug("listing scanned",
			logging.Int("attempt", attempts),
			logging.Int("listed", len(listing)),
			logging.Int("collected", len(collected)),
		)
	}

	if len(collected) > 0 {
		return Result{Candidates: collected, Outcome: OutcomeNovel, Attempts: attempts}
	}

	// Degraded path: trade strict novelty for availability.
	listing, err := client.Listing(ctx)
	if err != nil || len(listing) == 0 {
		if err != nil {
			logger.Warn("fallback listing read failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "gallery_fallback_failed"),
			)
		}
		return Result{Outcome: OutcomeEmpty, Attempts: attempts}
	}
	if len(listing) > count {
		listing = listing[:count]
	}
	logger.Warn("exclusion-aware search exhausted, accepting possible duplicates",
		logging.Int("count", len(listing)),
		logging.String(logging.FieldEventType, "gallery_fallback"),
	)
	return Result{Candidates: listing, Outcome: OutcomeFallback, Attempts: attempts}
}
