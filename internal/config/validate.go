package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration invariants that normalize cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Gallery.BaseURL) == "" {
		problems = append(problems, "gallery.base_url must not be empty")
	} else if parsed, err := url.Parse(c.Gallery.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("gallery.base_url %q is not an absolute URL", c.Gallery.BaseURL))
	}

	if c.Transform.AspectWidth <= 0 || c.Transform.AspectHeight <= 0 {
		problems = append(problems, fmt.Sprintf(
			"transform.aspect_width/aspect_height must be positive, got %d:%d",
			c.Transform.AspectWidth, c.Transform.AspectHeight))
	}
	if c.Transform.LumaThreshold > 255 {
		problems = append(problems, fmt.Sprintf("transform.luma_threshold must be within 0-255, got %g", c.Transform.LumaThreshold))
	}

	for i, m := range c.Monitors {
		if m.Width < 0 || m.Height < 0 {
			problems = append(problems, fmt.Sprintf("monitor %d has negative dimensions %dx%d", i+1, m.Width, m.Height))
		}
	}

	if c.Apply.Stitch && len(c.Monitors) == 0 {
		problems = append(problems, "apply.stitch requires at least one [[monitor]] entry")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
