package gallery_test

import (
	"context"
	"errors"
	"testing"

	"mural/internal/gallery"
	"mural/internal/logging"
)

type fakeClient struct {
	listings    [][]gallery.Candidate
	reads       int
	shuffles    int
	shuffleErr  error
	listingErr  error
	failAttempt int // 1-based attempt whose listing read fails; 0 disables
}

func (f *fakeClient) Listing(context.Context) ([]gallery.Candidate, error) {
	f.reads++
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	if f.failAttempt > 0 && f.reads == f.failAttempt {
		return nil, errors.New("transient listing failure")
	}
	idx := f.reads - 1
	if idx >= len(f.listings) {
		idx = len(f.listings) - 1
	}
	if idx < 0 {
		return nil, nil
	}
	return f.listings[idx], nil
}

func (f *fakeClient) Shuffle(context.Context) error {
	f.shuffles++
	return f.shuffleErr
}

func candidates(urls ...string) []gallery.Candidate {
	out := make([]gallery.Candidate, 0, len(urls))
	for _, u := range urls {
		out = append(out, gallery.Candidate{SourceURL: u})
	}
	return out
}

func set(urls ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		out[u] = struct{}{}
	}
	return out
}

func TestDiscoverFiltersExcludedCandidates(t *testing.T) {
	client := &fakeClient{listings: [][]gallery.Candidate{candidates("A", "C", "D")}}
	result := gallery.Discover(context.Background(), client, logging.NewNop(), 2, set("A", "B"), 5)

	if result.Outcome != gallery.OutcomeNovel {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}
	if result.Candidates[0].SourceURL != "C" || result.Candidates[1].SourceURL != "D" {
		t.Fatalf("unexpected candidates: %+v", result.Candidates)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected a single shuffle attempt, got %d", result.Attempts)
	}
}

func TestDiscoverNeverExceedsCountOrBudget(t *testing.T) {
	client := &fakeClient{listings: [][]gallery.Candidate{candidates("A", "B", "C", "D", "E")}}
	result := gallery.Discover(context.Background(), client, logging.NewNop(), 3, nil, 4)

	if len(result.Candidates) != 3 {
		t.Fatalf("expected count cap of 3, got %d", len(result.Candidates))
	}
	if client.shuffles > 4 {
		t.Fatalf("shuffle budget exceeded: %d", client.shuffles)
	}
}

func TestDiscoverAccumulatesAcrossShuffles(t *testing.T) {
	client := &fakeClient{listings: [][]gallery.Candidate{
		candidates("A"),
		candidates("A", "B"),
		candidates("C"),
	}}
	result := gallery.Discover(context.Background(), client, logging.NewNop(), 3, nil, 5)

	if len(result.Candidates) != 3 {
		t.Fatalf("expected 3 accumulated candidates, got %d", len(result.Candidates))
	}
	got := []string{result.Candidates[0].SourceURL, result.Candidates[1].SourceURL, result.Candidates[2].SourceURL}
	want := []string{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
}

func TestDiscoverTransportErrorsConsumeAttempts(t *testing.T) {
	client := &fakeClient{
		listings:    [][]gallery.Candidate{candidates("A"), candidates("A"), candidates("B")},
		failAttempt: 1,
	}
	result := gallery.Discover(context.Background(), client, logging.NewNop(), 2, nil, 3)

	if result.Outcome != gallery.OutcomeNovel {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected full budget consumed, got %d attempts", result.Attempts)
	}
}

func TestDiscoverFallbackAcceptsPossibleDuplicates(t *testing.T) {
	// Everything the gallery offers is already in the ledger, so the
	// filtered search must come up empty and the fallback read kicks in.
	client := &fakeClient{listings: [][]gallery.Candidate{candidates("A", "B")}}
	result := gallery.Discover(context.Background(), client, logging.NewNop(), 1, set("A", "B"), 2)

	if result.Outcome != gallery.OutcomeFallback {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected fallback truncated to count, got %d", len(result.Candidates))
	}
}

func TestDiscoverEmptyWhenSourceUnreachable(t *testing.T) {
	client := &fakeClient{shuffleErr: errors.New("no route"), listingErr: errors.New("no route")}
	result := gallery.Discover(context.Background(), client, logging.NewNop(), 2, nil, 3)

	if result.Outcome != gallery.OutcomeEmpty {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if len(result.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(result.Candidates))
	}
	if result.Attempts != 3 {
		t.Fatalf("expected attempts exhausted, got %d", result.Attempts)
	}
}
