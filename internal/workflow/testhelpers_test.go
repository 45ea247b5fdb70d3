package workflow_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mural/internal/config"
	"mural/internal/display"
	"mural/internal/gallery"
	"mural/internal/reconcile"
	"mural/internal/runstore"
	"mural/internal/transform"
	"mural/internal/workflow"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DestinationDir = filepath.Join(base, "dest")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "log")
	cfg.Gallery.MaxShuffleAttempts = 3
	cfg.Workflow.PollInterval = 3600
	return &cfg
}

type fakeSource struct {
	mu       sync.Mutex
	listing  []gallery.Candidate
	shuffles int
}

func (f *fakeSource) Shuffle(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shuffles++
	return nil
}

func (f *fakeSource) Listing(context.Context) ([]gallery.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gallery.Candidate, len(f.listing))
	copy(out, f.listing)
	return out, nil
}

type fakePipeline struct {
	accepted []transform.AcceptedAsset
	panics   bool
	calls    *callLog
}

func (f *fakePipeline) Run(_ context.Context, candidates []gallery.Candidate) []transform.AcceptedAsset {
	if f.panics {
		panic("pipeline exploded")
	}
	if f.calls != nil {
		f.calls.add("transform")
	}
	return f.accepted
}

type fakeCommitter struct {
	committed []reconcile.CommittedAsset
	calls     *callLog
	invoked   bool
}

func (f *fakeCommitter) Commit(accepted []transform.AcceptedAsset) []reconcile.CommittedAsset {
	f.invoked = true
	if f.calls != nil {
		f.calls.add("commit")
	}
	return f.committed
}

type fakeHistory struct {
	mu       sync.Mutex
	existing map[string]struct{}
	appended [][]string
	loadErr  error
	calls    *callLog
}

func (f *fakeHistory) Load() (map[string]struct{}, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.existing == nil {
		return map[string]struct{}{}, nil
	}
	return f.existing, nil
}

func (f *fakeHistory) Append(ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls != nil {
		f.calls.add("append")
	}
	f.appended = append(f.appended, ids)
	return nil
}

type staticMonitors struct {
	monitors []display.Geometry
}

func (s *staticMonitors) Monitors(context.Context) ([]display.Geometry, error) {
	return s.monitors, nil
}

type fakeApplier struct {
	mu      sync.Mutex
	applied []string
	err     error
}

func (f *fakeApplier) Apply(_ context.Context, imagePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, imagePath)
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	starts   []string
	finishes map[string]runstore.FinishRecord
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{finishes: make(map[string]runstore.FinishRecord)}
}

func (f *fakeRecorder) RecordStart(_ context.Context, cycleID, trigger string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, cycleID+"/"+trigger)
	return nil
}

func (f *fakeRecorder) RecordFinish(_ context.Context, cycleID string, record runstore.FinishRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes[cycleID] = record
	return nil
}

func (f *fakeRecorder) finished() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.finishes)
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed int
	failed    []string
	applied   []string
}

func (f *fakeNotifier) NotifyCycleCompleted(context.Context, int, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed++
	return nil
}

func (f *fakeNotifier) NotifyCycleFailed(_ context.Context, stage string, _ error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, stage)
	return nil
}

func (f *fakeNotifier) NotifyWallpaperApplied(_ context.Context, imagePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, imagePath)
	return nil
}

func (f *fakeNotifier) NotifyError(context.Context, error, string) error { return nil }
func (f *fakeNotifier) TestNotification(context.Context) error           { return nil }

// callLog records cross-component call ordering.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (c *callLog) add(entry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *callLog) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

var _ workflow.RunRecorder = (*fakeRecorder)(nil)
