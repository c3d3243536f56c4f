package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/nfrund/chatwire/internal/client"
	"github.com/nfrund/chatwire/internal/logging"
)

// Config holds the CLI settings read from the environment.
type Config struct {
	URL string `envconfig:"CHAT_URL" default:"ws://localhost:8080/chat"`
	// CHAT_POLLING enables the HTTP long-polling fallback
	Polling  bool   `envconfig:"CHAT_POLLING" default:"false"`
	Colours  bool   `envconfig:"CHAT_COLOURS" default:"true"`
	LogLevel string `envconfig:"CHAT_LOG_LEVEL" default:"warn"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

var (
	cfg     Config
	urlFlag string
)

var rootCmd = &cobra.Command{
	Use:   "chat-cli",
	Short: "Terminal client for the chatwire hub",
	Long: `chat-cli connects to a chatwire hub from the terminal.

Available commands:
  chat       Interactive chat session
  send       Send a single message
  channels   List the channels the hub exposes

Settings come from CHAT_URL, CHAT_POLLING, CHAT_COLOURS and CHAT_LOG_LEVEL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if urlFlag != "" {
			cfg.URL = urlFlag
		}
		logging.New("text", cfg.LogLevel)
		return nil
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds the client every command shares.
func newClient() *client.Client {
	opts := []client.Option{client.WithLogger(slog.Default())}
	if cfg.Polling {
		opts = append(opts, client.WithPollingFallback())
	}
	return client.New(cfg.URL, opts...)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&urlFlag, "url", "u", "", "Hub URL (overrides CHAT_URL)")
}
