package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/config"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
)

var (
	version = "dev"
	commit  = "unknown"
)

type rootOptions struct {
	logLevel string
	backend  string
}

// NewRootCmd builds the kasmchat command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "kasmchat",
		Short: "Embeddable chat widget front-end",
		Long: `kasmchat hosts chat widget instances against a conversational agent backend.

Quick Start:
  kasmchat serve                          # HTTP API with SSE and websocket events
  kasmchat chat --agent 42                # Talk to an agent from the terminal
  kasmchat export --agent 42 -f yaml      # Dump cached conversations`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override LOG_LEVEL (DEBUG, INFO, WARN, ERROR)")
	root.PersistentFlags().StringVar(&opts.backend, "storage", "", "Override STORAGE_BACKEND (memory, sqlite, redis)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newServeCmd(opts), newChatCmd(opts), newExportCmd(opts))
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// load reads configuration and applies flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.backend != "" {
		cfg.StorageBackend = o.backend
	}
	return cfg, nil
}

// setupLogging sends structured logs to w so they stay out of the transcript.
func (o *rootOptions) setupLogging(cfg *config.Config, w io.Writer) {
	level := cfg.LogLevel
	if o.logLevel == "" {
		level = "WARN"
	}
	observability.SetupWriter(w, level)
}
