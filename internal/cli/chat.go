package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ResearchDeck/ResearchDeck/internal/config"
	"github.com/ResearchDeck/ResearchDeck/internal/history"
	"github.com/ResearchDeck/ResearchDeck/internal/notify"
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
	"github.com/ResearchDeck/ResearchDeck/internal/research"
	"github.com/ResearchDeck/ResearchDeck/internal/store"
	"github.com/ResearchDeck/ResearchDeck/internal/stream"
)

var (
	chatMessage  string
	chatThreadID string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the research pipeline",
	Long: "Starts an interactive research session against the backend. With\n" +
		"--message a single exchange is run and the command exits. When the\n" +
		"Kafka source is enabled the command instead follows the event topic\n" +
		"read-only until interrupted.",
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Run a single exchange and exit")
	chatCmd.Flags().StringVarP(&chatThreadID, "thread", "t", "", "Resume an existing thread id")
}

// session wires one chat lifetime: config, history, store, scheduler, bus.
type session struct {
	cfg      *config.Config
	hist     *history.Store
	bus      *notify.Bus
	store    *store.Store
	sched    *store.Scheduler
	render   *renderer
	threadID string

	httpc     *http.Client
	persisted map[string]bool
}

func newSession(cfg *config.Config) (*session, error) {
	hist, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	bus := notify.NewBus()
	st := store.New(research.Policy{
		Lookback: cfg.Research.LookbackBlocks,
		MaxAge:   cfg.Research.LookbackMaxAge,
	}, bus)

	s := &session{
		cfg:       cfg,
		hist:      hist,
		bus:       bus,
		store:     st,
		sched:     store.NewScheduler(st, bus),
		threadID:  chatThreadID,
		httpc:     &http.Client{}, // stream lifetime is governed by context
		persisted: make(map[string]bool),
	}
	if s.threadID == "" {
		s.threadID = uuid.NewString()
	}
	s.render = newRenderer(os.Stdout, st)
	st.OnCommit(s.render.Sync)
	return s, nil
}

func (s *session) close() {
	s.render.Flush()
	if err := s.hist.Close(); err != nil {
		fmt.Printf("history close warning: %v\n", err)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go s.bus.Dispatch(ctx)
	s.subscribeConsole()
	if cfg.Slack.Enabled && cfg.Slack.WebhookURL != "" {
		notify.NewSlackNotifier(cfg.Slack.WebhookURL).Attach(s.bus)
	}

	if cfg.Kafka.Enabled {
		return s.followKafka(ctx)
	}

	if chatMessage != "" {
		return s.exchange(ctx, chatMessage, "")
	}

	printHeader("🔬 ResearchDeck Chat")
	fmt.Printf("Thread: %s\n", s.threadID)
	fmt.Println("Type a question, /new for a fresh thread, /quit to exit. Ctrl-C aborts a running stream.")

	in := bufio.NewScanner(os.Stdin)
	awaiting := false
	for {
		s.render.Flush()
		fmt.Print("you> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/new":
			s.threadID = uuid.NewString()
			awaiting = false
			fmt.Printf("Thread: %s\n", s.threadID)
			continue
		}

		feedback := ""
		if awaiting {
			feedback = line
		}
		if err := s.exchange(ctx, line, feedback); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		awaiting = s.awaitingInterrupt()
		if awaiting {
			fmt.Println("The pipeline paused for your input; your next message answers it.")
		}
	}
}

// exchange runs one request/stream round trip. feedback, when non-empty,
// answers a pending interrupt from the previous round.
func (s *session) exchange(ctx context.Context, input, feedback string) error {
	s.store.AppendUserMessage(s.threadID, input)
	if err := s.hist.AppendTurn(s.threadID, protocol.RoleUser, "", input); err != nil {
		fmt.Printf("history warning: %v\n", err)
	}

	turns, err := s.hist.Turns(s.threadID, s.cfg.Chat.HistoryTurns*2)
	if err != nil {
		fmt.Printf("history warning: %v\n", err)
	}
	window := history.Window{
		MaxTurns: s.cfg.Chat.HistoryTurns,
		MaxChars: s.cfg.Chat.HistoryCharBudget,
	}

	req := &stream.ChatRequest{
		ThreadID:           s.threadID,
		Messages:           window.Apply(turns),
		MaxPlanIterations:  s.cfg.Chat.MaxPlanIterations,
		MaxStepNum:         s.cfg.Chat.MaxStepNum,
		MaxSearchResults:   s.cfg.Chat.MaxSearchResults,
		EnableDeepThinking: s.cfg.Chat.EnableDeepThinking,
		ReportStyle:        s.cfg.Chat.ReportStyle,
		Model:              s.cfg.Chat.Model,
		InterruptFeedback:  feedback,
	}

	// Ctrl-C aborts this stream only; the chat loop keeps going.
	streamCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	src, err := stream.OpenSSE(streamCtx, s.httpc, s.cfg.Backend.BaseURL, req)
	if err != nil {
		if kind := notify.ClassifyStreamError(err); kind != notify.FailureGeneric {
			if n, ok := notify.NotificationFor(kind, err); ok {
				s.bus.Publish(n)
				return nil
			}
		}
		return err
	}

	err = s.sched.Run(streamCtx, src)
	s.render.Sync()
	s.persistAssistantTurns()
	return err
}

// followKafka renders the broker topic until interrupted. The pipeline is
// driven elsewhere; this is a read-only monitor.
func (s *session) followKafka(ctx context.Context) error {
	printHeader("🔬 ResearchDeck Monitor")
	fmt.Printf("Following %s on %s (Ctrl-C to stop)\n", s.cfg.Kafka.Topic, s.cfg.Kafka.Brokers)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	src := stream.OpenKafka(s.cfg.Kafka.Brokers, s.cfg.Kafka.Topic, s.cfg.Kafka.GroupID)
	err := s.sched.Run(runCtx, src)
	s.render.Sync()
	return err
}

func (s *session) awaitingInterrupt() bool {
	ids := s.store.MessageIDs()
	for i := len(ids) - 1; i >= 0; i-- {
		m, ok := s.store.Message(ids[i])
		if !ok {
			continue
		}
		if len(m.InterruptOptions) > 0 {
			return true
		}
		if m.Role == protocol.RoleUser {
			return false
		}
	}
	return false
}

// persistAssistantTurns writes finished conversation-level responses to the
// history db: coordinator and podcast messages, plus each completed block's
// report.
func (s *session) persistAssistantTurns() {
	save := func(id string) {
		if id == "" || s.persisted[id] {
			return
		}
		m, ok := s.store.Message(id)
		if !ok || m.IsStreaming || m.Content == "" {
			return
		}
		s.persisted[id] = true
		if err := s.hist.AppendTurn(s.threadID, protocol.RoleAssistant, m.Agent, m.Content); err != nil {
			fmt.Printf("history warning: %v\n", err)
		}
	}

	for _, id := range s.store.TopLevelIDs() {
		if _, isBlock := s.store.Block(id); isBlock {
			continue
		}
		if m, ok := s.store.Message(id); ok && m.Role != protocol.RoleUser {
			save(id)
		}
	}
	for _, b := range s.store.Blocks() {
		if b.Status == research.StatusCompleted {
			save(b.ReportMessageID)
		}
	}
}

func (s *session) subscribeConsole() {
	s.bus.Subscribe(func(n notify.Notification) {
		switch n.Kind {
		case notify.KindProviderConfig, notify.KindFailure:
			s.render.Flush()
			fmt.Printf("⚠ %s: %s\n", n.Title, n.Body)
		case notify.KindStepProgress:
			s.render.Flush()
			dim.Printf("  ▸ %s %s\n", n.Title, n.Body)
		}
	})
}
