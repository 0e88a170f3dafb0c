package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"overdub/internal/config"
	"overdub/internal/jobs"
)

const userAgent = "Overdub/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobSubmitted(ctx context.Context, job *jobs.Job) error
	NotifyApprovalPending(ctx context.Context, job *jobs.Job, deadline time.Time) error
	NotifyApproved(ctx context.Context, job *jobs.Job, reviewer string) error
	NotifyRejected(ctx context.Context, job *jobs.Job, reviewer, reason string) error
	NotifyFailed(ctx context.Context, job *jobs.Job) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
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
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		approvals: cfg.Notifications.Approvals,
		completed: cfg.Notifications.Completion,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	approvals bool
	completed bool
	errors    bool
}

func jobLabel(job *jobs.Job) string {
	if job == nil {
		return "unknown job"
	}
	return fmt.Sprintf("job %d (%s -> %s)", job.ID, job.SourceLocale, job.TargetLocale)
}

func (n *ntfyService) NotifyJobSubmitted(ctx context.Context, job *jobs.Job) error {
	data := payload{
		title:   "Overdub - Job Submitted",
		message: fmt.Sprintf("New translation %s", jobLabel(job)),
		tags:    []string{"overdub", "job", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyApprovalPending(ctx context.Context, job *jobs.Job, deadline time.Time) error {
	if !n.approvals {
		return nil
	}
	data := payload{
		title: "Overdub - Approval Needed",
		message: fmt.Sprintf("%s awaits review. Auto-rejects at %s.",
			jobLabel(job), deadline.UTC().Format(time.RFC3339)),
		tags:     []string{"overdub", "approval", "pending"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyApproved(ctx context.Context, job *jobs.Job, reviewer string) error {
	if !n.completed {
		return nil
	}
	data := payload{
		title:   "Overdub - Approved",
		message: fmt.Sprintf("%s approved by %s", jobLabel(job), strings.TrimSpace(reviewer)),
		tags:    []string{"overdub", "approval", "approved"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRejected(ctx context.Context, job *jobs.Job, reviewer, reason string) error {
	if !n.completed {
		return nil
	}
	message := fmt.Sprintf("%s rejected by %s", jobLabel(job), strings.TrimSpace(reviewer))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:   "Overdub - Rejected",
		message: message,
		tags:    []string{"overdub", "approval", "rejected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFailed(ctx context.Context, job *jobs.Job) error {
	if !n.errors {
		return nil
	}
	message := fmt.Sprintf("%s failed", jobLabel(job))
	if job != nil && strings.TrimSpace(job.ErrorMessage) != "" {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(job.ErrorMessage))
	}
	data := payload{
		title:    "Overdub - Job Failed",
		message:  message,
		tags:     []string{"overdub", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
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
		title:    "Overdub - Error",
		message:  builder.String(),
		tags:     []string{"overdub", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Overdub - Test",
		message:  "Notification system test",
		tags:     []string{"overdub", "test"},
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

func (noopService) NotifyJobSubmitted(context.Context, *jobs.Job) error                  { return nil }
func (noopService) NotifyApprovalPending(context.Context, *jobs.Job, time.Time) error    { return nil }
func (noopService) NotifyApproved(context.Context, *jobs.Job, string) error              { return nil }
func (noopService) NotifyRejected(context.Context, *jobs.Job, string, string) error      { return nil }
func (noopService) NotifyFailed(context.Context, *jobs.Job) error                        { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
