// Package config provides configuration types and loading for researchdeck.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Paths, Backend, Chat, Research, Kafka, Slack.
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Backend  BackendConfig  `json:"backend"`
	Chat     ChatConfig     `json:"chat"`
	Research ResearchConfig `json:"research"`
	Kafka    KafkaConfig    `json:"kafka"`
	Slack    SlackConfig    `json:"slack"`
}

// PathsConfig groups filesystem path settings.
type PathsConfig struct {
	HistoryDB string `json:"historyDb" envconfig:"HISTORY_DB"`
}

// BackendConfig points at the research agent pipeline.
type BackendConfig struct {
	BaseURL string        `json:"baseUrl" envconfig:"BASE_URL"`
	Timeout time.Duration `json:"timeout" envconfig:"TIMEOUT"`
}

// ChatConfig groups per-session settings sent with every stream request.
type ChatConfig struct {
	Model              string `json:"model" envconfig:"MODEL"`
	MaxPlanIterations  int    `json:"maxPlanIterations" envconfig:"MAX_PLAN_ITERATIONS"`
	MaxStepNum         int    `json:"maxStepNum" envconfig:"MAX_STEP_NUM"`
	MaxSearchResults   int    `json:"maxSearchResults" envconfig:"MAX_SEARCH_RESULTS"`
	EnableDeepThinking bool   `json:"enableDeepThinking" envconfig:"ENABLE_DEEP_THINKING"`
	ReportStyle        string `json:"reportStyle" envconfig:"REPORT_STYLE"`
	HistoryTurns       int    `json:"historyTurns" envconfig:"HISTORY_TURNS"`
	HistoryCharBudget  int    `json:"historyCharBudget" envconfig:"HISTORY_CHAR_BUDGET"`
}

// ResearchConfig tunes the block classifier's reuse policy.
type ResearchConfig struct {
	LookbackBlocks int           `json:"lookbackBlocks" envconfig:"LOOKBACK_BLOCKS"`
	LookbackMaxAge time.Duration `json:"lookbackMaxAge" envconfig:"LOOKBACK_MAX_AGE"`
}

// KafkaConfig configures the broker event source, used instead of SSE when
// the agent pipeline publishes to Kafka.
type KafkaConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers string `json:"brokers" envconfig:"BROKERS"`
	Topic   string `json:"topic" envconfig:"TOPIC"`
	GroupID string `json:"groupId" envconfig:"GROUP_ID"`
}

// SlackConfig configures the optional webhook notifier.
type SlackConfig struct {
	Enabled    bool   `json:"enabled" envconfig:"ENABLED"`
	WebhookURL string `json:"webhookUrl" envconfig:"WEBHOOK_URL"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: 30 * time.Second,
		},
		Chat: ChatConfig{
			MaxPlanIterations: 1,
			MaxStepNum:        3,
			MaxSearchResults:  3,
			ReportStyle:       "academic",
			HistoryTurns:      20,
			HistoryCharBudget: 4000,
		},
		Research: ResearchConfig{
			LookbackBlocks: 8,
			LookbackMaxAge: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: "127.0.0.1:9092",
			Topic:   "research-events",
			GroupID: "researchdeck",
		},
	}
}
