package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mural/internal/config"
)

const userAgent = "mural/0.1"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyCycleCompleted(ctx context.Context, committed int, stitched bool) error
	NotifyCycleFailed(ctx context.Context, stage string, err error) error
	NotifyWallpaperApplied(ctx context.Context, imagePath string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation
// is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyCycleCompleted(ctx context.Context, committed int, stitched bool) error {
	mode := "single"
	if stitched {
		mode = "stitched"
	}
	data := payload{
		title:   "Mural - Cycle Complete",
		message: fmt.Sprintf("Delivered %d new wallpapers (%s mode)", committed, mode),
		tags:    []string{"mural", "cycle", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCycleFailed(ctx context.Context, stage string, err error) error {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Mural - Cycle Failed",
		message:  fmt.Sprintf("Cycle failed during %s: %s", stage, detail),
		tags:     []string{"mural", "cycle", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWallpaperApplied(ctx context.Context, imagePath string) error {
	data := payload{
		title:   "Mural - Wallpaper Applied",
		message: fmt.Sprintf("Now showing: %s", strings.TrimSpace(imagePath)),
		tags:    []string{"mural", "wallpaper", "applied"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Mural - Error",
		message:  builder.String(),
		tags:     []string{"mural", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Mural - Test",
		message:  "Notification system test",
		tags:     []string{"mural", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyCycleCompleted(context.Context, int, bool) error    { return nil }
func (noopService) NotifyCycleFailed(context.Context, string, error) error   { return nil }
func (noopService) NotifyWallpaperApplied(context.Context, string) error     { return nil }
func (noopService) NotifyError(context.Context, error, string) error         { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
