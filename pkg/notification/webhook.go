// Package notification sends failure alerts to a chat webhook.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"hybridmcp/pkg/config"
	"hybridmcp/pkg/logger"
)

const (
	FormatJSON   = "json"
	FormatFeishu = "feishu"
)

// ExecutionFailure a routed task that failed on every location it tried
type ExecutionFailure struct {
	ExecutionID  string    `json:"execution_id"`
	TaskName     string    `json:"task_name"`
	Decision     string    `json:"decision"`
	Location     string    `json:"location"`
	FallbackUsed bool      `json:"fallback_used"`
	FailSafe     bool      `json:"fail_safe"`
	Rationale    string    `json:"rationale"`
	Error        string    `json:"error"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// WebhookNotifier posts failure alerts as a Feishu (Lark) card or plain JSON.
// Alerts for the same task are throttled by the cooldown.
type WebhookNotifier struct {
	webhookURL string
	format     string
	cooldown   time.Duration
	client     *http.Client
	now        func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewWebhookNotifier creates a notifier. An empty webhook URL disables it.
func NewWebhookNotifier(cfg config.NotificationConfig) *WebhookNotifier {
	format := cfg.Format
	if format == "" {
		format = FormatJSON
	}
	return &WebhookNotifier{
		webhookURL: cfg.WebhookURL,
		format:     format,
		cooldown:   time.Duration(cfg.Cooldown) * time.Second,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

// Enabled reports whether a webhook is configured
func (n *WebhookNotifier) Enabled() bool {
	return n.webhookURL != ""
}

// NotifyFailure sends an alert for failure unless one was sent for the
// same task within the cooldown
func (n *WebhookNotifier) NotifyFailure(ctx context.Context, failure *ExecutionFailure) error {
	if !n.Enabled() {
		return nil
	}
	if !n.allow(failure.TaskName) {
		logger.DebugCtx(ctx, "failure alert for task %q throttled", failure.TaskName)
		return nil
	}

	var message interface{}
	switch n.format {
	case FormatFeishu:
		message = buildFeishuMessage(failure)
	default:
		message = map[string]interface{}{
			"event":   "execution_failed",
			"failure": failure,
		}
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status code: %d", resp.StatusCode)
	}

	logger.InfoCtx(ctx, "failure alert sent for task %q (execution %s)", failure.TaskName, failure.ExecutionID)
	return nil
}

func (n *WebhookNotifier) allow(task string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.lastSent[task]; ok && now.Sub(last) < n.cooldown {
		return false
	}
	n.lastSent[task] = now
	return true
}

// buildFeishuMessage builds an interactive card for failure
func buildFeishuMessage(failure *ExecutionFailure) map[string]interface{} {
	where := failure.Location
	if failure.FallbackUsed {
		where = fmt.Sprintf("%s, then %s", failure.Decision, failure.Location)
	}

	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"header": map[string]interface{}{
				"template": "red",
				"title": map[string]interface{}{
					"content": "Task execution failed",
					"tag":     "plain_text",
				},
			},
			"elements": []interface{}{
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"content": fmt.Sprintf("**Task**: %s\n**Execution**: %s", failure.TaskName, failure.ExecutionID),
						"tag":     "lark_md",
					},
				},
				map[string]interface{}{
					"tag": "hr",
				},
				map[string]interface{}{
					"tag": "div",
					"fields": []interface{}{
						map[string]interface{}{
							"is_short": true,
							"text": map[string]interface{}{
								"content": fmt.Sprintf("**Ran on**\n%s", where),
								"tag":     "lark_md",
							},
						},
						map[string]interface{}{
							"is_short": true,
							"text": map[string]interface{}{
								"content": fmt.Sprintf("**Fail-safe**\n%t", failure.FailSafe),
								"tag":     "lark_md",
							},
						},
					},
				},
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"content": fmt.Sprintf("**Routing**: %s\n**Error**: %s", failure.Rationale, failure.Error),
						"tag":     "lark_md",
					},
				},
				map[string]interface{}{
					"tag": "note",
					"elements": []interface{}{
						map[string]interface{}{
							"content": fmt.Sprintf("Detected at %s", failure.OccurredAt.Format("2006-01-02 15:04:05")),
							"tag":     "plain_text",
						},
					},
				},
			},
		},
	}
}
