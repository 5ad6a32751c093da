package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ResearchDeck/ResearchDeck/internal/notify"
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

func sseServer(t *testing.T, body string, wantReq func(*http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if wantReq != nil {
			wantReq(r)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, body)
	}))
}

func TestSSESourceReadsEvents(t *testing.T) {
	body := strings.Join([]string{
		": keepalive",
		"event: message_chunk",
		`data: {"id":"m1","thread_id":"t1","agent":"planner","role":"assistant","content":"plan"}`,
		"",
		"event: message_chunk",
		`data: {"id":"m1","thread_id":"t1","agent":"planner","role":"assistant","content":" body","finish_reason":"stop"}`,
		"",
	}, "\n") + "\n"

	srv := sseServer(t, body, nil)
	defer srv.Close()

	src, err := OpenSSE(context.Background(), srv.Client(), srv.URL, &ChatRequest{ThreadID: "t1"})
	if err != nil {
		t.Fatalf("OpenSSE() error: %v", err)
	}
	defer src.Close()

	ev1, err := src.Recv(context.Background())
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if ev1.Type() != protocol.TypeMessageChunk || ev1.Envelope().ID != "m1" {
		t.Errorf("unexpected first event: %s %s", ev1.Type(), ev1.Envelope().ID)
	}

	ev2, err := src.Recv(context.Background())
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if ev2.Envelope().FinishReason != protocol.FinishStop {
		t.Errorf("expected finish_reason stop, got %s", ev2.Envelope().FinishReason)
	}

	if _, err := src.Recv(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at clean end, got %v", err)
	}
}

func TestSSESourceSkipsUndecodableFrames(t *testing.T) {
	body := strings.Join([]string{
		"event: message_chunk",
		`data: {broken`,
		"",
		"event: message_chunk",
		`data: {"id":"m1","thread_id":"t1","agent":"coder","role":"assistant","content":"ok"}`,
		"",
	}, "\n") + "\n"

	srv := sseServer(t, body, nil)
	defer srv.Close()

	src, err := OpenSSE(context.Background(), srv.Client(), srv.URL, &ChatRequest{ThreadID: "t1"})
	if err != nil {
		t.Fatalf("OpenSSE() error: %v", err)
	}
	defer src.Close()

	ev, err := src.Recv(context.Background())
	if err != nil {
		t.Fatalf("a malformed frame must not kill the stream: %v", err)
	}
	if ev.Envelope().ID != "m1" {
		t.Errorf("expected the decodable event, got %s", ev.Envelope().ID)
	}
}

func TestSSESourceErrorEvent(t *testing.T) {
	body := strings.Join([]string{
		"event: error",
		`data: {"code":"ai_provider_not_configured","detail":"no api key"}`,
		"",
	}, "\n") + "\n"

	srv := sseServer(t, body, nil)
	defer srv.Close()

	src, err := OpenSSE(context.Background(), srv.Client(), srv.URL, &ChatRequest{ThreadID: "t1"})
	if err != nil {
		t.Fatalf("OpenSSE() error: %v", err)
	}
	defer src.Close()

	_, err = src.Recv(context.Background())
	if !errors.Is(err, notify.ErrAIProviderNotConfigured) {
		t.Errorf("expected AI provider sentinel, got %v", err)
	}
}

func TestOpenSSESendsSettings(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 4096)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer srv.Close()

	req := &ChatRequest{
		ThreadID:          "t1",
		MaxPlanIterations: 2,
		MaxStepNum:        4,
		ReportStyle:       "popular_science",
	}
	src, err := OpenSSE(context.Background(), srv.Client(), srv.URL, req)
	if err != nil {
		t.Fatalf("OpenSSE() error: %v", err)
	}
	src.Close()

	for _, want := range []string{`"thread_id":"t1"`, `"max_plan_iterations":2`, `"max_step_num":4`, `"report_style":"popular_science"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %s: %s", want, gotBody)
		}
	}
}

func TestOpenSSEConfigErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"code":"pm_provider_not_configured","detail":"connect a PM provider"}`)
	}))
	defer srv.Close()

	_, err := OpenSSE(context.Background(), srv.Client(), srv.URL, &ChatRequest{ThreadID: "t1"})
	if !errors.Is(err, notify.ErrPMProviderNotConfigured) {
		t.Errorf("expected PM provider sentinel, got %v", err)
	}
}

func TestReplaySource(t *testing.T) {
	capture := strings.Join([]string{
		`{"type":"message_chunk","id":"p1","thread_id":"t1","agent":"planner","role":"assistant","content":"plan","finish_reason":"stop"}`,
		``,
		`not json at all`,
		`{"type":"message_chunk","id":"r1","thread_id":"t1","agent":"reporter","role":"assistant","content":"report","finish_reason":"stop"}`,
	}, "\n")

	src := NewReplay(io.NopCloser(strings.NewReader(capture)))
	defer src.Close()

	var ids []string
	for {
		ev, err := src.Recv(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv() error: %v", err)
		}
		ids = append(ids, ev.Envelope().ID)
	}
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "r1" {
		t.Errorf("unexpected replayed ids: %v", ids)
	}
}
