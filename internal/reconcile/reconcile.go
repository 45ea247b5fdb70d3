package reconcile

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"mural/internal/fileutil"
	"mural/internal/logging"
	"mural/internal/transform"
)

// CommittedAsset is an accepted asset that now lives at its final path
// inside the destination directory.
type CommittedAsset struct {
	SourceURL string
	FinalPath string
}

// Reconciler owns the persistent destination directory.
type Reconciler struct {
	destinationDir string
	logger         *slog.Logger
}

// New builds a reconciler for destinationDir.
func New(destinationDir string, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		destinationDir: destinationDir,
		logger:         logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Commit moves accepted assets into the destination, then prunes every
// destination file not part of the new set. Moves happen before prunes
// so an interruption leaves extra files rather than missing ones. A
// per-file failure is logged and that asset drops out of the result; it
// never aborts the rest of the batch. Callers must not invoke Commit
// with an empty accepted set — an empty cycle leaves the destination
// untouched.
func (r *Reconciler) Commit(accepted []transform.AcceptedAsset) []CommittedAsset {
	if err := os.MkdirAll(r.destinationDir, 0o755); err != nil {
		r.logger.Error("destination directory unavailable",
			logging.String("destination_dir", r.destinationDir),
			logging.Error(err),
		)
		return nil
	}

	committed := make([]CommittedAsset, 0, len(accepted))
	keep := make(map[string]struct{}, len(accepted))
	for _, asset := range accepted {
		finalPath := filepath.Join(r.destinationDir, filepath.Base(asset.Path))
		if err := fileutil.MoveFile(asset.Path, finalPath); err != nil {
			r.logger.Warn("asset excluded from commit",
				logging.String(logging.FieldSourceURL, asset.SourceURL),
				logging.String("path", asset.Path),
				logging.Error(err),
			)
			continue
		}
		committed = append(committed, CommittedAsset{SourceURL: asset.SourceURL, FinalPath: finalPath})
		keep[filepath.Base(finalPath)] = struct{}{}
	}
	if len(committed) == 0 {
		// Nothing landed; pruning now would wipe the previous set.
		return nil
	}

	entries, err := os.ReadDir(r.destinationDir)
	if err != nil {
		r.logger.Warn("destination listing failed, skipping prune", logging.Error(err))
		return committed
	}
	current := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		current = append(current, entry.Name())
	}

	for _, name := range StaleEntries(current, keep) {
		if err := os.Remove(filepath.Join(r.destinationDir, name)); err != nil {
			r.logger.Warn("stale file not removed",
				logging.String("name", name),
				logging.Error(err),
			)
			continue
		}
		r.logger.Debug("stale file pruned", logging.String("name", name))
	}
	return committed
}

// StaleEntries returns the members of current absent from desired,
// sorted. The diff is pure: independent of input order and safe to
// recompute after a partial prune.
func StaleEntries(current []string, desired map[string]struct{}) []string {
	var stale []string
	for _, name := range current {
		if _, ok := desired[name]; !ok {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	return stale
}
