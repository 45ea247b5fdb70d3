package display

import (
	"context"
	"fmt"

	"mural/internal/config"
)

// Geometry describes one display's position and size in the virtual screen.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// AspectRatio returns the simplified width:height ratio, e.g. "21:9".
// Unknown dimensions yield an empty string.
func (g Geometry) AspectRatio() string {
	if g.Width <= 0 || g.Height <= 0 {
		return ""
	}
	d := gcd(g.Width, g.Height)
	return fmt.Sprintf("%d:%d", g.Width/d, g.Height/d)
}

// Known reports whether the geometry carries usable dimensions.
func (g Geometry) Known() bool {
	return g.Width > 0 && g.Height > 0
}

// Provider yields the current monitor layout.
type Provider interface {
	Monitors(ctx context.Context) ([]Geometry, error)
}

// StaticProvider serves geometries injected through configuration. When no
// monitors are configured it reports a single unknown-size target so the
// pipeline always has something to acquire for.
type StaticProvider struct {
	monitors []Geometry
}

// NewStaticProvider builds a provider from the configured monitor list.
func NewStaticProvider(cfg *config.Config) *StaticProvider {
	monitors := make([]Geometry, 0, len(cfg.Monitors))
	for _, m := range cfg.Monitors {
		monitors = append(monitors, Geometry{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height})
	}
	return &StaticProvider{monitors: monitors}
}

// Monitors returns the configured layout, or one unknown-size target when
// nothing is configured.
func (p *StaticProvider) Monitors(_ context.Context) ([]Geometry, error) {
	if len(p.monitors) == 0 {
		return []Geometry{{}}, nil
	}
	out := make([]Geometry, len(p.monitors))
	copy(out, p.monitors)
	return out, nil
}

// BoundingBox returns the width, height, and top-left origin of the
// smallest rectangle covering every geometry.
func BoundingBox(monitors []Geometry) (width, height, originX, originY int) {
	if len(monitors) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY := monitors[0].X, monitors[0].Y
	maxX, maxY := monitors[0].X+monitors[0].Width, monitors[0].Y+monitors[0].Height
	for _, m := range monitors[1:] {
		if m.X < minX {
			minX = m.X
		}
		if m.Y < minY {
			minY = m.Y
		}
		if right := m.X + m.Width; right > maxX {
			maxX = right
		}
		if bottom := m.Y + m.Height; bottom > maxY {
			maxY = bottom
		}
	}
	return maxX - minX, maxY - minY, minX, minY
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
