package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ResearchDeck/ResearchDeck/internal/config"
	"github.com/ResearchDeck/ResearchDeck/internal/notify"
	"github.com/ResearchDeck/ResearchDeck/internal/research"
	"github.com/ResearchDeck/ResearchDeck/internal/store"
	"github.com/ResearchDeck/ResearchDeck/internal/stream"
)

var replayQuiet bool

var replayCmd = &cobra.Command{
	Use:   "replay <capture.jsonl>",
	Short: "Replay a captured event stream",
	Long: "Reads a JSONL event capture, runs it through the reconstruction\n" +
		"engine, and prints the rendered conversation plus a session summary.\n" +
		"Useful for inspecting captures and reproducing grouping decisions.",
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "Print only the summary")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	bus := notify.NewBus()
	st := store.New(research.Policy{
		Lookback: cfg.Research.LookbackBlocks,
		MaxAge:   cfg.Research.LookbackMaxAge,
	}, bus)
	sched := store.NewScheduler(st, bus)

	var rend *renderer
	if !replayQuiet {
		rend = newRenderer(os.Stdout, st)
		st.OnCommit(rend.Sync)
	}

	src, err := stream.OpenReplay(args[0])
	if err != nil {
		return err
	}
	if err := sched.Run(context.Background(), src); err != nil {
		return err
	}
	if rend != nil {
		rend.Sync()
		rend.Flush()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Messages: %d\n", len(st.MessageIDs()))
	blocks := st.Blocks()
	fmt.Fprintf(out, "Research sessions: %d\n", len(blocks))
	for _, b := range blocks {
		report := "no report"
		if b.ReportMessageID != "" {
			report = "report " + b.ReportMessageID
		}
		fmt.Fprintf(out, "  %s  type=%s status=%s activity=%d  %s\n",
			b.ID, b.Type, b.Status, len(b.ActivityIDs), report)
	}
	if n := bus.Pending(); n > 0 {
		fmt.Fprintf(out, "Notifications queued: %d\n", n)
	}
	return nil
}
