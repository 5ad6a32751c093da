package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/slack-go/slack"
)

func TestClassifyStreamError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"ai provider", fmt.Errorf("open stream: %w", ErrAIProviderNotConfigured), FailureAIProvider},
		{"pm provider", ErrPMProviderNotConfigured, FailurePMProvider},
		{"cancelled", context.Canceled, FailureCanceled},
		{"wrapped cancel", fmt.Errorf("recv: %w", context.Canceled), FailureCanceled},
		{"generic", errors.New("connection reset"), FailureGeneric},
	}
	for _, tc := range cases {
		if got := ClassifyStreamError(tc.err); got != tc.want {
			t.Errorf("%s: ClassifyStreamError() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNotificationForCancellationIsSilent(t *testing.T) {
	if _, ok := NotificationFor(FailureCanceled, context.Canceled); ok {
		t.Error("cancellation must not surface a notification")
	}
}

func TestNotificationForConfigError(t *testing.T) {
	n, ok := NotificationFor(FailureAIProvider, ErrAIProviderNotConfigured)
	if !ok {
		t.Fatal("expected a notification")
	}
	if n.Kind != KindProviderConfig {
		t.Errorf("config problems are actionable notices, got kind %s", n.Kind)
	}
}

func TestBusPublishDispatch(t *testing.T) {
	bus := NewBus()
	got := make(chan Notification, 1)
	bus.Subscribe(func(n Notification) { got <- n })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Dispatch(ctx)

	bus.Publish(Notification{Kind: KindPMRefresh, ThreadID: "t1"})

	select {
	case n := <-got:
		if n.Kind != KindPMRefresh || n.ThreadID != "t1" {
			t.Errorf("unexpected notification: %+v", n)
		}
		if n.Timestamp.IsZero() {
			t.Error("publish should stamp the notification")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not dispatched")
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	// No dispatcher running; overfill the queue.
	for i := 0; i < 250; i++ {
		bus.Publish(Notification{Kind: KindStepProgress})
	}
	if bus.Pending() != 100 {
		t.Errorf("expected queue capped at 100, got %d", bus.Pending())
	}
}

func TestSlackNotifierForwardsReportDone(t *testing.T) {
	var posted []string
	n := NewSlackNotifier("https://hooks.slack.invalid/test")
	n.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		posted = append(posted, msg.Text)
		return nil
	}

	bus := NewBus()
	n.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	bus.Subscribe(func(Notification) { close(done) })
	go bus.Dispatch(ctx)

	bus.Publish(Notification{Kind: KindReportDone, Title: "Report ready", Body: "3 sources"})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch timed out")
	}

	if len(posted) != 1 {
		t.Fatalf("expected 1 webhook post, got %d", len(posted))
	}
	if posted[0] != "*Report ready*\n3 sources" {
		t.Errorf("unexpected webhook text: %q", posted[0])
	}
}

func TestSlackNotifierIgnoresProgress(t *testing.T) {
	var posted int
	n := NewSlackNotifier("https://hooks.slack.invalid/test")
	n.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		posted++
		return nil
	}

	bus := NewBus()
	n.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	bus.Subscribe(func(Notification) { close(done) })
	go bus.Dispatch(ctx)

	bus.Publish(Notification{Kind: KindStepProgress, Title: "Step 1"})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch timed out")
	}

	if posted != 0 {
		t.Errorf("progress traffic must stay local, got %d posts", posted)
	}
}
