package notify

import (
	"context"
	"errors"
)

// Sentinel errors for backend configuration problems. The stream sources map
// server error payloads onto these so the failure path can tell a setup
// problem from a real failure.
var (
	ErrAIProviderNotConfigured = errors.New("ai provider not configured")
	ErrPMProviderNotConfigured = errors.New("pm provider not configured")
)

// FailureKind classifies a stream failure episode.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureAIProvider
	FailurePMProvider
	FailureCanceled
)

// ClassifyStreamError maps a stream error to its failure kind. User
// cancellation is a clean stop, not an error.
func ClassifyStreamError(err error) FailureKind {
	switch {
	case err == nil:
		return FailureGeneric
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, ErrAIProviderNotConfigured):
		return FailureAIProvider
	case errors.Is(err, ErrPMProviderNotConfigured):
		return FailurePMProvider
	default:
		return FailureGeneric
	}
}

// NotificationFor builds the user-facing notification for a failure kind.
// Cancellation produces no notification.
func NotificationFor(kind FailureKind, err error) (Notification, bool) {
	switch kind {
	case FailureAIProvider:
		return Notification{
			Kind:  KindProviderConfig,
			Title: "AI provider not configured",
			Body:  "Add an AI provider API key in settings before starting a research session.",
		}, true
	case FailurePMProvider:
		return Notification{
			Kind:  KindProviderConfig,
			Title: "PM provider not configured",
			Body:  "Connect a project-management provider in settings to use PM lookups.",
		}, true
	case FailureGeneric:
		body := "The research stream ended unexpectedly."
		if err != nil {
			body = err.Error()
		}
		return Notification{
			Kind:  KindFailure,
			Title: "Research stream failed",
			Body:  body,
		}, true
	default:
		return Notification{}, false
	}
}
