// Package stream provides event sources for the research agent pipeline:
// SSE over HTTP, a Kafka consumer, and JSONL capture replay.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ResearchDeck/ResearchDeck/internal/history"
	"github.com/ResearchDeck/ResearchDeck/internal/notify"
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// ChatRequest is the stream-open payload: the user's new exchange plus the
// bounded history window and session settings.
type ChatRequest struct {
	ThreadID           string         `json:"thread_id"`
	Messages           []history.Turn `json:"messages"`
	MaxPlanIterations  int            `json:"max_plan_iterations"`
	MaxStepNum         int            `json:"max_step_num"`
	MaxSearchResults   int            `json:"max_search_results"`
	EnableDeepThinking bool           `json:"enable_deep_thinking"`
	ReportStyle        string         `json:"report_style,omitempty"`
	Model              string         `json:"model,omitempty"`
	InterruptFeedback  string         `json:"interrupt_feedback,omitempty"`
}

// SSESource consumes the chat stream endpoint.
type SSESource struct {
	resp      *http.Response
	scanner   *bufio.Scanner
	eventType string
}

// OpenSSE starts a research stream. The request context governs the whole
// stream lifetime; cancelling it aborts the stream.
func OpenSSE(ctx context.Context, httpc *http.Client, baseURL string, req *ChatRequest) (*SSESource, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Accept", "text/event-stream")
	hr.Header.Set("Cache-Control", "no-cache")

	if httpc == nil {
		httpc = &http.Client{Timeout: 0}
	}
	resp, err := httpc.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("open chat stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := classifyHTTPError(resp.StatusCode, payload); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("chat stream returned %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0), 1024*1024) // 1 MB
	return &SSESource{resp: resp, scanner: scanner}, nil
}

// Recv reads frames until a decodable event arrives. It returns io.EOF when
// the server closes the stream cleanly and the context error when the stream
// was aborted.
func (s *SSESource) Recv(ctx context.Context) (protocol.Event, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := s.scanner.Text()

		switch {
		case line == "":
			s.eventType = ""

		case strings.HasPrefix(line, ":"):
			// keepalive comment — ignore

		case strings.HasPrefix(line, "event: "):
			s.eventType = strings.TrimPrefix(line, "event: ")

		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			if s.eventType == "error" {
				return nil, classifyStreamErrorPayload([]byte(data))
			}
			if s.eventType == "" {
				continue
			}
			ev, err := protocol.Parse(s.eventType, []byte(data))
			if err != nil {
				slog.Warn("skipping undecodable stream event", "event", s.eventType, "error", err)
				continue
			}
			return ev, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chat stream: %w", err)
	}
	return nil, io.EOF
}

// Close releases the underlying response body.
func (s *SSESource) Close() error {
	return s.resp.Body.Close()
}

// errorPayload is the server's error event/body shape.
type errorPayload struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// classifyStreamErrorPayload maps server error events onto the notify
// sentinels so the failure path can distinguish setup problems.
func classifyStreamErrorPayload(data []byte) error {
	var p errorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("stream error: %s", string(data))
	}
	switch p.Code {
	case "ai_provider_not_configured":
		return notify.ErrAIProviderNotConfigured
	case "pm_provider_not_configured":
		return notify.ErrPMProviderNotConfigured
	default:
		if p.Detail != "" {
			return fmt.Errorf("stream error: %s", p.Detail)
		}
		return fmt.Errorf("stream error: %s", string(data))
	}
}

func classifyHTTPError(status int, payload []byte) error {
	if status != http.StatusServiceUnavailable && status != http.StatusUnprocessableEntity {
		return nil
	}
	var p errorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil
	}
	switch p.Code {
	case "ai_provider_not_configured":
		return notify.ErrAIProviderNotConfigured
	case "pm_provider_not_configured":
		return notify.ErrPMProviderNotConfigured
	}
	return nil
}
