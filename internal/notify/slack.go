package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier forwards report completions and failures to a Slack incoming
// webhook. It is optional; a nil notifier is never subscribed.
type SlackNotifier struct {
	webhookURL string
	timeout    time.Duration
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

// NewSlackNotifier creates a notifier for the given webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		timeout:    10 * time.Second,
		post:       slack.PostWebhookContext,
	}
}

// Attach subscribes the notifier to the bus. Only report completions and
// failure notices are forwarded; progress and refresh traffic stays local.
func (n *SlackNotifier) Attach(bus *Bus) {
	bus.Subscribe(func(notice Notification) {
		switch notice.Kind {
		case KindReportDone, KindFailure:
			if err := n.send(notice); err != nil {
				slog.Warn("slack notification failed", "kind", notice.Kind, "error", err)
			}
		}
	})
}

func (n *SlackNotifier) send(notice Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	text := notice.Title
	if notice.Body != "" {
		text = fmt.Sprintf("*%s*\n%s", notice.Title, notice.Body)
	}
	return n.post(ctx, n.webhookURL, &slack.WebhookMessage{Text: text})
}
