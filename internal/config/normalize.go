package config

import (
	"fmt"
	"strings"
)

// normalize expands paths and fills zero values with defaults so that
// downstream code never has to re-check optional fields.
func (c *Config) normalize() error {
	defaults := Default()

	for _, field := range []struct {
		value *string
		name  string
	}{
		{&c.Paths.DestinationDir, "destination_dir"},
		{&c.Paths.StagingDir, "staging_dir"},
		{&c.Paths.StateDir, "state_dir"},
		{&c.Paths.LogDir, "log_dir"},
	} {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			return fmt.Errorf("config: %s must not be empty", field.name)
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("config: expand %s: %w", field.name, err)
		}
		*field.value = expanded
	}

	c.Gallery.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gallery.BaseURL), "/")
	c.Gallery.ListingPath = ensureLeadingSlash(c.Gallery.ListingPath, defaults.Gallery.ListingPath)
	c.Gallery.ShufflePath = ensureLeadingSlash(c.Gallery.ShufflePath, defaults.Gallery.ShufflePath)
	if strings.TrimSpace(c.Gallery.LinkClass) == "" {
		c.Gallery.LinkClass = defaults.Gallery.LinkClass
	}
	if c.Gallery.RequestTimeout <= 0 {
		c.Gallery.RequestTimeout = defaults.Gallery.RequestTimeout
	}
	if c.Gallery.MaxShuffleAttempts <= 0 {
		c.Gallery.MaxShuffleAttempts = defaults.Gallery.MaxShuffleAttempts
	}

	if c.Transform.Workers <= 0 {
		c.Transform.Workers = defaults.Transform.Workers
	}
	if c.Transform.FetchTimeout <= 0 {
		c.Transform.FetchTimeout = defaults.Transform.FetchTimeout
	}
	if c.Transform.LumaThreshold <= 0 {
		c.Transform.LumaThreshold = defaults.Transform.LumaThreshold
	}

	c.Apply.StitchedFilename = strings.TrimSpace(c.Apply.StitchedFilename)
	if c.Apply.StitchedFilename == "" {
		c.Apply.StitchedFilename = defaults.Apply.StitchedFilename
	}
	c.Apply.SetterCommand = strings.TrimSpace(c.Apply.SetterCommand)
	if c.Apply.CommandTimeout <= 0 {
		c.Apply.CommandTimeout = defaults.Apply.CommandTimeout
	}

	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaults.Workflow.PollInterval
	}
	if c.Workflow.StagingMaxAgeHours <= 0 {
		c.Workflow.StagingMaxAgeHours = defaults.Workflow.StagingMaxAgeHours
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaults.Notifications.RequestTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	return nil
}

func ensureLeadingSlash(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		return "/" + value
	}
	return value
}
