package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ResearchDeck/ResearchDeck/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show client and backend status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 ResearchDeck Status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:  ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:  ✗ Not found (defaults in effect, run 'researchdeck config init')")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config:  ? Unable to load (%v)\n", err)
			cfg = config.DefaultConfig()
		}

		if _, err := os.Stat(cfg.Paths.HistoryDB); err == nil {
			fmt.Println("History: ✓ " + cfg.Paths.HistoryDB)
		} else {
			fmt.Println("History: ✗ Not created yet")
		}

		fmt.Println("Backend: " + cfg.Backend.BaseURL)
		httpc := &http.Client{Timeout: 3 * time.Second}
		resp, err := httpc.Get(strings.TrimRight(cfg.Backend.BaseURL, "/") + "/api/config")
		if err != nil {
			fmt.Println("Reach:   ✗ Unreachable (" + err.Error() + ")")
		} else {
			resp.Body.Close()
			fmt.Printf("Reach:   ✓ HTTP %d\n", resp.StatusCode)
		}

		if cfg.Kafka.Enabled {
			fmt.Printf("Kafka:   ✓ Enabled (%s / %s)\n", cfg.Kafka.Brokers, cfg.Kafka.Topic)
		} else {
			fmt.Println("Kafka:   ✗ Disabled")
		}
		if cfg.Slack.Enabled && cfg.Slack.WebhookURL != "" {
			fmt.Println("Slack:   ✓ Enabled")
		} else {
			fmt.Println("Slack:   ✗ Disabled")
		}
	},
}
