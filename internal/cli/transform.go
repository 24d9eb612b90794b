package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/talentforge/cvtune/internal/chains"
	"github.com/talentforge/cvtune/internal/transform"
)

var transformFlags struct {
	chainsPath   string
	filesDir     string
	batchDir     string
	resultsDir   string
	statePath    string
	pollInterval time.Duration
	pollTimeout  time.Duration
	dryRun       bool
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Translate and transcribe chains through the batch API",
	RunE:  runTransform,
}

func init() {
	f := transformCmd.Flags()
	f.StringVar(&transformFlags.chainsPath, "chains", "chains.json", "chain set produced by build-chains")
	f.StringVar(&transformFlags.filesDir, "files", "./files", "directory holding the exported attachments")
	f.StringVar(&transformFlags.batchDir, "batch-dir", "./batches", "directory for batch input files")
	f.StringVar(&transformFlags.resultsDir, "results-dir", "./api_call_results", "directory for downloaded batch outputs")
	f.StringVar(&transformFlags.statePath, "state", "cvtune-state.json", "resumable state file")
	f.DurationVar(&transformFlags.pollInterval, "poll-interval", time.Minute, "interval between batch status polls")
	f.DurationVar(&transformFlags.pollTimeout, "poll-timeout", 2*time.Hour, "give up polling after this long, leaving batches in the state file")
	f.BoolVar(&transformFlags.dryRun, "dry-run", false, "write batch files without submitting anything")
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	logger := slog.Default()

	set, err := chains.LoadFile(transformFlags.chainsPath)
	if err != nil {
		return fmt.Errorf("load chains: %w", err)
	}
	logger.Info("chains loaded", "path", transformFlags.chainsPath, "chains", len(set))

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	client, err := newOpenAIClient()
	if err != nil {
		return err
	}

	notifier := newNotifier()
	defer notifier.Close()

	runner := transform.NewRunner(s, client, notifier, transform.Options{
		Model:        cfg.Model,
		BatchDir:     transformFlags.batchDir,
		ResultsDir:   transformFlags.resultsDir,
		StatePath:    transformFlags.statePath,
		PollInterval: transformFlags.pollInterval,
		PollTimeout:  transformFlags.pollTimeout,
		DryRun:       transformFlags.dryRun,
	}, logger)

	return runner.Run(ctx, set, transformFlags.filesDir)
}
