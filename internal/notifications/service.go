package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rostersync/internal/config"
)

const userAgent = "Rostersync/0.1.0"

const maxBodyBytes = 3800 // ntfy message limit headroom

// Service defines the notification surface exposed to engine components.
// Implementations never block reconciliation: failures are the caller's to
// log, not to propagate.
type Service interface {
	NotifyAuditReport(ctx context.Context, total int, sample []string) error
	NotifyRecordLinked(ctx context.Context, handle, entityID string) error
	NotifySweepCompleted(ctx context.Context, linked, ambiguous, unmatched int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	server := strings.TrimRight(strings.TrimSpace(cfg.NtfyServer), "/")
	if server == "" {
		server = "https://ntfy.sh"
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: server + "/" + topic,
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

func (n *ntfyService) NotifyAuditReport(ctx context.Context, total int, sample []string) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%d roster records have no directory identity", total)
	if len(sample) > 0 {
		builder.WriteString("\nFirst unresolved: ")
		builder.WriteString(strings.Join(sample, ", "))
	}
	data := payload{
		title:   "Rostersync - Unresolved Records",
		message: builder.String(),
		tags:    []string{"rostersync", "audit"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordLinked(ctx context.Context, handle, entityID string) error {
	data := payload{
		title:   "Rostersync - Record Linked",
		message: fmt.Sprintf("Linked %s to directory entity %s", strings.TrimSpace(handle), strings.TrimSpace(entityID)),
		tags:    []string{"rostersync", "link"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySweepCompleted(ctx context.Context, linked, ambiguous, unmatched int) error {
	data := payload{
		title:   "Rostersync - Sweep Complete",
		message: fmt.Sprintf("Sweep complete: %d linked, %d ambiguous, %d unmatched", linked, ambiguous, unmatched),
		tags:    []string{"rostersync", "sweep", "completed"},
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
		title:    "Rostersync - Error",
		message:  builder.String(),
		tags:     []string{"rostersync", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Rostersync - Test",
		message:  "Notification system test",
		tags:     []string{"rostersync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	message := data.message
	if len(message) > maxBodyBytes {
		message = message[:maxBodyBytes]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
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

func (noopService) NotifyAuditReport(context.Context, int, []string) error   { return nil }
func (noopService) NotifyRecordLinked(context.Context, string, string) error { return nil }
func (noopService) NotifySweepCompleted(context.Context, int, int, int) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }

// IsNoop reports whether the service discards notifications; the audit
// reporter uses this to fall back to a local log line.
func IsNoop(service Service) bool {
	_, ok := service.(noopService)
	return ok
}
