package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talentforge/cvtune/internal/transform"
)

var saveResultsFlags struct {
	dir        string
	fromState  bool
	statePath  string
	resultsDir string
}

var saveResultsCmd = &cobra.Command{
	Use:   "save-results",
	Short: "Persist batch outputs into the record store",
	Long: `Ingests batch output JSONL into the record store, either from files
already downloaded into a directory or by polling the batch ids left in
the state file by an interrupted transform run.`,
	RunE: runSaveResults,
}

func init() {
	f := saveResultsCmd.Flags()
	f.StringVar(&saveResultsFlags.dir, "dir", "./api_call_results", "directory of batch output JSONL files")
	f.BoolVar(&saveResultsFlags.fromState, "from-state", false, "poll outstanding batch ids from the state file instead")
	f.StringVar(&saveResultsFlags.statePath, "state", "cvtune-state.json", "resumable state file")
	f.StringVar(&saveResultsFlags.resultsDir, "results-dir", "./api_call_results", "directory for downloaded batch outputs")
	rootCmd.AddCommand(saveResultsCmd)
}

func runSaveResults(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	logger := slog.Default()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	notifier := newNotifier()
	defer notifier.Close()

	if saveResultsFlags.fromState {
		client, err := newOpenAIClient()
		if err != nil {
			return err
		}
		runner := transform.NewRunner(s, client, notifier, transform.Options{
			Model:      cfg.Model,
			ResultsDir: saveResultsFlags.resultsDir,
			StatePath:  saveResultsFlags.statePath,
		}, logger)
		return runner.ResumeFromState(ctx)
	}

	runner := transform.NewRunner(s, nil, notifier, transform.Options{
		Model:     cfg.Model,
		StatePath: saveResultsFlags.statePath,
	}, logger)
	return runner.ProcessResultDir(ctx, saveResultsFlags.dir)
}
