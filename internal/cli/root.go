package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talentforge/cvtune/internal/config"
	"github.com/talentforge/cvtune/internal/events"
	"github.com/talentforge/cvtune/internal/openai"
	"github.com/talentforge/cvtune/internal/store"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "cvtune",
	Short: "Builds a CV-review fine-tuning dataset from a Telegram chat export",
	Long: `cvtune mines a CV-review group chat export into fine-tuning data.

The pipeline runs in stages, one command each: reconstruct review chains
from the export, translate and transcribe them through the batch API,
persist results, build train/validation JSONL files, and submit the
fine-tuning job.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Configuration comes from the environment; logging
// is configured before any command runs.
func Execute() {
	cfg = config.Load()
	setupLogging(cfg.LogLevel)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func openStore(ctx context.Context) (*store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	s, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newOpenAIClient() (*openai.Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	c := openai.NewClient(cfg.OpenAIAPIKey)
	c.SetBaseURL(cfg.OpenAIBaseURL)
	return c, nil
}

// newNotifier returns nil when NATS is not configured; every stage works
// without it.
func newNotifier() *events.Notifier {
	if cfg.NatsURL == "" {
		slog.Warn("NATS_URL not set, stage events disabled")
		return nil
	}
	n, err := events.NewNotifier(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Warn("failed to connect to NATS, stage events disabled", "error", err)
		return nil
	}
	return n
}
