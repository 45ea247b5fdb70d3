// Package staging maintains the scratch directory used for downloads
// and transform output between cycles.
package staging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mural/internal/logging"
)

// CleanStale removes regular files in dir older than maxAge. Leftovers
// accumulate when a cycle dies between download and commit; anything
// old enough cannot belong to a live cycle. Returns the number of files
// removed.
func CleanStale(dir string, maxAge time.Duration, logger *slog.Logger) int {
	logger = logging.NewComponentLogger(logger, "staging")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("staging directory unreadable", logging.Error(err))
		}
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("stale staging file not removed",
				logging.String("name", entry.Name()),
				logging.Error(err),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("stale staging files removed", logging.Int("count", removed))
	}
	return removed
}
