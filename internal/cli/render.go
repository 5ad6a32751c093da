package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/ResearchDeck/ResearchDeck/internal/message"
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
	"github.com/ResearchDeck/ResearchDeck/internal/research"
	"github.com/ResearchDeck/ResearchDeck/internal/store"
)

var agentColors = map[string]*color.Color{
	protocol.AgentCoordinator: color.New(color.FgBlue, color.Bold),
	protocol.AgentPlanner:     color.New(color.FgYellow, color.Bold),
	protocol.AgentResearcher:  color.New(color.FgCyan, color.Bold),
	protocol.AgentCoder:       color.New(color.FgMagenta, color.Bold),
	protocol.AgentReporter:    color.New(color.FgGreen, color.Bold),
	protocol.AgentPM:          color.New(color.FgWhite, color.Bold),
	protocol.AgentReact:       color.New(color.FgCyan, color.Bold),
	protocol.AgentPodcast:     color.New(color.FgBlue, color.Bold),
}

var (
	dim       = color.New(color.Faint)
	blockLine = color.New(color.FgHiBlack)
)

// renderer prints streamed content incrementally: it remembers how much of
// each message it has written and emits only the delta on every sync. It is
// called from the store's commit listener, so it must tolerate concurrent
// syncs.
type renderer struct {
	out io.Writer
	st  *store.Store

	mu           sync.Mutex
	printed      map[string]int // content bytes already written per message
	toolsShown   map[string]int // tool calls already announced per message
	resultsShown map[string]bool
	optionsShown map[string]bool
	blocksOpen   map[string]bool
	blocksDone   map[string]bool
	current      string // message id owning the cursor line
}

func newRenderer(out io.Writer, st *store.Store) *renderer {
	return &renderer{
		out:          out,
		st:           st,
		printed:      make(map[string]int),
		toolsShown:   make(map[string]int),
		resultsShown: make(map[string]bool),
		optionsShown: make(map[string]bool),
		blocksOpen:   make(map[string]bool),
		blocksDone:   make(map[string]bool),
	}
}

// Sync prints everything committed since the last call.
func (r *renderer) Sync() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.st.MessageIDs() {
		m, ok := r.st.Message(id)
		if !ok || m.Role == protocol.RoleUser {
			continue
		}
		r.syncBlockMarker(id)
		r.syncMessage(m)
	}
	r.syncCompletedBlocks()
}

// Flush terminates any open cursor line, for use before printing prompts.
func (r *renderer) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()
}

func (r *renderer) syncBlockMarker(id string) {
	b, ok := r.st.Block(id)
	if !ok || r.blocksOpen[b.ID] {
		return
	}
	r.blocksOpen[b.ID] = true
	r.breakLine()
	blockLine.Fprintf(r.out, "┌─ research session (%s)\n", b.Type)
}

func (r *renderer) syncCompletedBlocks() {
	for _, b := range r.st.Blocks() {
		if b.Status != research.StatusCompleted || r.blocksDone[b.ID] {
			continue
		}
		// Completion prints only once the report body has been flushed.
		if rep, ok := r.st.Message(b.ReportMessageID); !ok || rep.IsStreaming {
			continue
		}
		r.blocksDone[b.ID] = true
		r.breakLine()
		blockLine.Fprintln(r.out, "└─ report complete")
	}
}

func (r *renderer) syncMessage(m *message.Message) {
	delta := m.Content[min(r.printed[m.ID], len(m.Content)):]
	if delta != "" {
		if r.current != m.ID {
			r.breakLine()
			r.prefix(m)
			r.current = m.ID
		}
		fmt.Fprint(r.out, delta)
		r.printed[m.ID] = len(m.Content)
	}

	for i := r.toolsShown[m.ID]; i < len(m.ToolCalls); i++ {
		r.breakLine()
		dim.Fprintf(r.out, "  ⚙ %s %s\n", m.ToolCalls[i].Name, firstLine(m.ToolCalls[i].Args))
	}
	r.toolsShown[m.ID] = len(m.ToolCalls)

	for _, tc := range m.ToolCalls {
		if tc.HasResult && !r.resultsShown[tc.ID] {
			r.resultsShown[tc.ID] = true
			r.breakLine()
			dim.Fprintf(r.out, "  ✔ %s → %s\n", tc.Name, firstLine(tc.Result))
		}
	}

	if len(m.InterruptOptions) > 0 && !r.optionsShown[m.ID] {
		r.optionsShown[m.ID] = true
		r.breakLine()
		for i, opt := range m.InterruptOptions {
			fmt.Fprintf(r.out, "  [%d] %s\n", i+1, opt.Text)
		}
	}
}

func (r *renderer) prefix(m *message.Message) {
	c, ok := agentColors[m.Agent]
	if !ok {
		c = color.New(color.Bold)
	}
	c.Fprintf(r.out, "%s> ", m.Agent)
}

func (r *renderer) breakLine() {
	if r.current != "" {
		fmt.Fprintln(r.out)
		r.current = ""
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "…"
	}
	return s
}
