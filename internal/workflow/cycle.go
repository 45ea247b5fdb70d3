package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"mural/internal/compose"
	"mural/internal/config"
	"mural/internal/display"
	"mural/internal/gallery"
	"mural/internal/logging"
	"mural/internal/reconcile"
	"mural/internal/transform"
	"mural/internal/wallpaper"
)

// State identifies where a cycle currently is, or where it ended.
type State string

const (
	StateIdle         State = "idle"
	StateDiscovering  State = "discovering"
	StateTransforming State = "transforming"
	StateReconciling  State = "reconciling"
	StateRecording    State = "recording"
	StateApplying     State = "applying"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// RunContext carries the per-run switches the scheduler controls. The
// scheduler holds the only mutable reference; cycles receive a copy.
type RunContext struct {
	CycleID string
	Stitch  bool
	Trigger string
}

// Result summarizes one finished cycle.
type Result struct {
	CycleID    string
	State      State
	Stage      State
	Outcome    string
	Candidates int
	Accepted   int
	Committed  int
	Updated    bool
	Stitched   bool
	Applied    string
	Err        error
}

// TransformRunner turns discovered candidates into accepted assets.
type TransformRunner interface {
	Run(ctx context.Context, candidates []gallery.Candidate) []transform.AcceptedAsset
}

// Committer converges the destination directory.
type Committer interface {
	Commit(accepted []transform.AcceptedAsset) []reconcile.CommittedAsset
}

// HistoryStore is the durable delivered-identifier ledger.
type HistoryStore interface {
	Load() (map[string]struct{}, error)
	Append(ids []string) error
}

// Stitcher composes per-monitor images into one canvas file.
type Stitcher func(paths []string, monitors []display.Geometry, outPath string) error

// Deps wires one cycle's collaborators. Stitcher defaults to
// compose.Stitch when nil.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Source    gallery.Client
	Pipeline  TransformRunner
	Committer Committer
	History   HistoryStore
	Monitors  display.Provider
	Applier   wallpaper.Applier
	Stitcher  Stitcher
}

// Cycle executes a single acquisition pass.
type Cycle struct {
	cfg       *config.Config
	logger    *slog.Logger
	source    gallery.Client
	pipeline  TransformRunner
	committer Committer
	history   HistoryStore
	monitors  display.Provider
	applier   wallpaper.Applier
	stitcher  Stitcher
}

// NewCycle builds a cycle runner from its dependencies.
func NewCycle(deps Deps) *Cycle {
	stitcher := deps.Stitcher
	if stitcher == nil {
		stitcher = compose.Stitch
	}
	return &Cycle{
		cfg:       deps.Config,
		logger:    logging.NewComponentLogger(deps.Logger, "cycle"),
		source:    deps.Source,
		pipeline:  deps.Pipeline,
		committer: deps.Committer,
		history:   deps.History,
		monitors:  deps.Monitors,
		applier:   deps.Applier,
		stitcher:  stitcher,
	}
}

// Run executes one full cycle. It never panics outward and never
// returns an error: every failure lands in the Result with the stage
// that caused it, so the scheduler always proceeds to the next cycle.
func (c *Cycle) Run(ctx context.Context, runCtx RunContext) (result Result) {
	result.CycleID = runCtx.CycleID
	if result.CycleID == "" {
		result.CycleID = uuid.New().String()
	}
	result.State = StateIdle

	logger := c.logger.With(slog.String(logging.FieldCycleID, result.CycleID))

	defer func() {
		if r := recover(); r != nil {
			result.Stage = result.State
			result.State = StateFailed
			result.Err = fmt.Errorf("cycle panic: %v", r)
			logger.Error("cycle panicked",
				logging.Any("panic", r),
				logging.String(logging.FieldStage, string(result.Stage)),
			)
		}
	}()

	monitors, err := c.monitors.Monitors(ctx)
	if err != nil || len(monitors) == 0 {
		// Detection failure degrades to a single unknown-size target.
		monitors = []display.Geometry{{}}
	}

	// Discovering.
	result.State = StateDiscovering
	exclude, err := c.history.Load()
	if err != nil {
		logger.Warn("history ledger unreadable, proceeding without exclusions", logging.Error(err))
		exclude = map[string]struct{}{}
	}

	discovery := gallery.Discover(ctx, c.source, logger, len(monitors), exclude, c.cfg.Gallery.MaxShuffleAttempts)
	result.Outcome = string(discovery.Outcome)
	result.Candidates = len(discovery.Candidates)
	if len(discovery.Candidates) == 0 {
		// Not a failure: the source had nothing new to offer.
		result.State = StateDone
		logger.Info("discovery yielded no candidates",
			logging.String("outcome", string(discovery.Outcome)),
			logging.Int("attempts", discovery.Attempts),
		)
		return result
	}

	// Transforming.
	result.State = StateTransforming
	accepted := c.pipeline.Run(ctx, discovery.Candidates)
	result.Accepted = len(accepted)
	if len(accepted) == 0 {
		// Every candidate was dropped or rejected. The destination stays
		// untouched: commit is never invoked with an empty set.
		result.State = StateDone
		logger.Info("no candidates survived transform",
			logging.Int("candidates", result.Candidates),
		)
		return result
	}

	// Reconciling.
	result.State = StateReconciling
	committed := c.committer.Commit(accepted)
	result.Committed = len(committed)
	if len(committed) == 0 {
		result.Stage = StateReconciling
		result.State = StateFailed
		result.Err = Wrap(ErrReconcileFailed, fmt.Errorf("no accepted asset reached the destination"))
		return result
	}
	result.Updated = true

	// Recording. Strictly after commit so a crash mid-cycle can never
	// mark an identifier delivered without its file existing.
	result.State = StateRecording
	ids := make([]string, 0, len(committed))
	for _, asset := range committed {
		ids = append(ids, asset.SourceURL)
	}
	if err := c.history.Append(ids); err != nil {
		// The files are in place; worst case the same URL is re-delivered
		// and lands on the same name.
		logger.Warn("history ledger append failed", logging.Error(err))
	}

	// Applying.
	result.State = StateApplying
	paths := make([]string, 0, len(committed))
	for _, asset := range committed {
		paths = append(paths, asset.FinalPath)
	}

	applyPath := paths[0]
	stitch := runCtx.Stitch
	if stitch && !geometryKnown(monitors) {
		// No usable geometry means no canvas to compose; single mode
		// still delivers the first committed image.
		logger.Debug("stitch skipped, monitor geometry unknown")
		stitch = false
	}
	if stitch {
		stitched := filepath.Join(c.cfg.Paths.StateDir, c.cfg.Apply.StitchedFilename)
		if err := c.stitcher(paths, monitors, stitched); err != nil {
			// No partial application: the previous wallpaper stays active
			// even though the destination already converged.
			result.Stage = StateApplying
			result.State = StateFailed
			result.Err = Wrap(ErrApplyFailed, err)
			return result
		}
		applyPath = stitched
		result.Stitched = true
	}

	if err := c.applier.Apply(ctx, applyPath); err != nil {
		result.Stage = StateApplying
		result.State = StateFailed
		result.Stitched = false
		result.Err = Wrap(ErrApplyFailed, err)
		return result
	}
	result.Applied = applyPath

	result.State = StateDone
	logger.Info("cycle complete",
		logging.Int("committed", result.Committed),
		logging.String("outcome", result.Outcome),
		logging.Bool("stitched", result.Stitched),
	)
	return result
}

// geometryKnown reports whether every monitor carries real dimensions,
// which stitch mode needs to size its canvas.
func geometryKnown(monitors []display.Geometry) bool {
	if len(monitors) == 0 {
		return false
	}
	for _, m := range monitors {
		if !m.Known() {
			return false
		}
	}
	return true
}
