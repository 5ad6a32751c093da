package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ResearchDeck/ResearchDeck/internal/message"
	"github.com/ResearchDeck/ResearchDeck/internal/notify"
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
	"github.com/ResearchDeck/ResearchDeck/internal/research"
	"github.com/ResearchDeck/ResearchDeck/internal/store"
)

func runRootCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	rootCmd.SetArgs(nil)
	return strings.TrimSpace(buf.String()), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runRootCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "researchdeck "+version) {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestConfigShowReflectsFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgDir := filepath.Join(tmpDir, ".researchdeck")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(`{"backend":{"baseUrl":"http://example.test:9000"}}`), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("HOME", tmpDir)
	t.Setenv("RESEARCHDECK_CONFIG", "")

	out, err := runRootCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("unmarshal config output: %v\nout=%s", err, out)
	}
	backend, _ := payload["backend"].(map[string]any)
	if backend["baseUrl"] != "http://example.test:9000" {
		t.Errorf("baseUrl = %v, want file value", backend["baseUrl"])
	}
}

func TestConfigPathCommand(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("RESEARCHDECK_CONFIG", "")

	out, err := runRootCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.HasSuffix(out, filepath.Join(".researchdeck", "config.json")) {
		t.Errorf("unexpected config path: %q", out)
	}
}

func TestReplayCommandSummary(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("RESEARCHDECK_CONFIG", "")

	capture := strings.Join([]string{
		`{"type":"message_chunk","id":"p1","thread_id":"t1","agent":"planner","role":"assistant","content":"plan","finish_reason":"stop"}`,
		`{"type":"message_chunk","id":"r1","thread_id":"t1","agent":"reporter","role":"assistant","content":"done","finish_reason":"stop"}`,
	}, "\n") + "\n"
	path := filepath.Join(tmpDir, "capture.jsonl")
	if err := os.WriteFile(path, []byte(capture), 0o644); err != nil {
		t.Fatalf("write capture: %v", err)
	}

	out, err := runRootCommand(t, "replay", "--quiet", path)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.Contains(out, "Messages: 2") {
		t.Errorf("missing message count: %q", out)
	}
	if !strings.Contains(out, "Research sessions: 1") {
		t.Errorf("missing session count: %q", out)
	}
	if !strings.Contains(out, "status=completed") || !strings.Contains(out, "report r1") {
		t.Errorf("missing completed session line: %q", out)
	}
}

func TestRendererPrintsDeltasOnce(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	bus := notify.NewBus()
	st := store.New(research.DefaultPolicy(), bus)
	buf := &bytes.Buffer{}
	r := newRenderer(buf, st)

	st.Commit([]*message.Message{{
		ID: "p1", ThreadID: "t1",
		Agent: protocol.AgentPlanner, Role: protocol.RoleAssistant,
		Content: "step one", IsStreaming: true,
	}})
	r.Sync()
	if !strings.Contains(buf.String(), "planner> step one") {
		t.Fatalf("missing planner content, got %q", buf.String())
	}

	st.Commit([]*message.Message{{
		ID: "p1", ThreadID: "t1",
		Agent: protocol.AgentPlanner, Role: protocol.RoleAssistant,
		Content: "step one and two", IsStreaming: true,
	}})
	r.Sync()
	if got := buf.String(); strings.Count(got, "step one") != 2 || !strings.Contains(got, " and two") {
		t.Errorf("delta not appended exactly once: %q", got)
	}
	if strings.Count(buf.String(), "planner>") != 1 {
		t.Errorf("prefix repeated: %q", buf.String())
	}
}

func TestRendererMarksBlocks(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	bus := notify.NewBus()
	st := store.New(research.DefaultPolicy(), bus)
	buf := &bytes.Buffer{}
	r := newRenderer(buf, st)

	st.Commit([]*message.Message{{
		ID: "p1", ThreadID: "t1",
		Agent: protocol.AgentPlanner, Role: protocol.RoleAssistant,
		Content: "plan",
	}})
	st.Commit([]*message.Message{{
		ID: "r1", ThreadID: "t1",
		Agent: protocol.AgentReporter, Role: protocol.RoleAssistant,
		Content: "report body",
	}})
	r.Sync()

	out := buf.String()
	if !strings.Contains(out, "research session (planner)") {
		t.Errorf("missing block marker: %q", out)
	}
	if !strings.Contains(out, "report complete") {
		t.Errorf("missing completion marker: %q", out)
	}
}
