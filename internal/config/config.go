package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DestinationDir string `toml:"destination_dir"`
	StagingDir     string `toml:"staging_dir"`
	StateDir       string `toml:"state_dir"`
	LogDir         string `toml:"log_dir"`
}

// Gallery contains configuration for the remote wallpaper gallery.
type Gallery struct {
	BaseURL            string `toml:"base_url"`
	ListingPath        string `toml:"listing_path"`
	ShufflePath        string `toml:"shuffle_path"`
	LinkClass          string `toml:"link_class"`
	RequestTimeout     int    `toml:"request_timeout"`
	MaxShuffleAttempts int    `toml:"max_shuffle_attempts"`
}

// Transform contains per-candidate processing configuration.
type Transform struct {
	AspectWidth   int     `toml:"aspect_width"`
	AspectHeight  int     `toml:"aspect_height"`
	LumaThreshold float64 `toml:"luma_threshold"`
	Workers       int     `toml:"workers"`
	FetchTimeout  int     `toml:"fetch_timeout"`
}

// Apply contains wallpaper application configuration.
type Apply struct {
	Stitch           bool   `toml:"stitch"`
	StitchedFilename string `toml:"stitched_filename"`
	SetterCommand    string `toml:"setter_command"`
	CommandTimeout   int    `toml:"command_timeout"`
}

// Monitor describes one display geometry. Detection is external to the
// daemon; geometries are injected through configuration.
type Monitor struct {
	X      int `toml:"x"`
	Y      int `toml:"y"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Workflow contains scheduler timing configuration.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	StagingMaxAgeHours int `toml:"staging_max_age_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mural.
//
// Configuration sections by subsystem:
//   - Paths: destination, staging, state, and log directories
//   - Gallery: remote listing/shuffle endpoints and discovery bounds
//   - Transform: crop aspect, brightness threshold, worker pool size
//   - Apply: stitch mode and the platform wallpaper setter command
//   - Monitors: injected display geometries used by stitch mode
//   - Workflow: scheduler interval and staging hygiene
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Gallery       Gallery       `toml:"gallery"`
	Transform     Transform     `toml:"transform"`
	Apply         Apply         `toml:"apply"`
	Monitors      []Monitor     `toml:"monitor"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mural/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mural.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// DestinationDir is created on a best-effort basis so the daemon can start
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DestinationDir) != "" {
		_ = os.MkdirAll(c.Paths.DestinationDir, 0o755)
	}
	return nil
}

// LedgerPath returns the location of the delivered-URL history ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "history.txt")
}

// RunDBPath returns the location of the cycle run database.
func (c *Config) RunDBPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "murald.lock")
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "murald.sock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "murald.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
