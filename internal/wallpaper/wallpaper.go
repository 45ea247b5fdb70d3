// Package wallpaper sets the active desktop background through a
// configured external command. The platform-specific mechanics live
// entirely in that command.
package wallpaper

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"mural/internal/config"
	"mural/internal/logging"
)

// Applier sets imagePath as the active wallpaper.
type Applier interface {
	Apply(ctx context.Context, imagePath string) error
}

// New selects the applier for the current configuration: the setter
// command when one is configured, otherwise a no-op that only logs.
func New(cfg *config.Config, logger *slog.Logger) Applier {
	if strings.TrimSpace(cfg.Apply.SetterCommand) == "" {
		return &Noop{logger: logging.NewComponentLogger(logger, "wallpaper")}
	}
	return NewCommandApplier(cfg, logger)
}

// CommandApplier shells out to a user-configured setter. The literal
// token {path} in any argument is replaced with the image path; when no
// argument carries the token the path is appended as the final one.
type CommandApplier struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandApplier builds an applier from configuration.
func NewCommandApplier(cfg *config.Config, logger *slog.Logger) *CommandApplier {
	return &CommandApplier{
		command: cfg.Apply.SetterCommand,
		timeout: time.Duration(cfg.Apply.CommandTimeout) * time.Second,
		logger:  logging.NewComponentLogger(logger, "wallpaper"),
	}
}

// Apply runs the setter command against imagePath under the configured
// timeout.
func (a *CommandApplier) Apply(ctx context.Context, imagePath string) error {
	args := strings.Fields(a.command)
	if len(args) == 0 {
		return fmt.Errorf("setter command is empty")
	}
	substituted := false
	for i, arg := range args {
		if strings.Contains(arg, "{path}") {
			args[i] = strings.ReplaceAll(arg, "{path}", imagePath)
			substituted = true
		}
	}
	if !substituted {
		args = append(args, imagePath)
	}

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return fmt.Errorf("setter command failed: %w (%s)", err, detail)
		}
		return fmt.Errorf("setter command failed: %w", err)
	}

	a.logger.Info("wallpaper applied",
		logging.String("image", imagePath),
		logging.String(logging.FieldEventType, "wallpaper_applied"),
	)
	return nil
}

// Noop reports success without touching the desktop. Used when no
// setter command is configured, so the destination still converges and
// the cycle completes.
type Noop struct {
	logger *slog.Logger
}

// Apply logs the path that would have been set.
func (n *Noop) Apply(_ context.Context, imagePath string) error {
	n.logger.Debug("no setter command configured, skipping apply",
		logging.String("image", imagePath),
	)
	return nil
}
