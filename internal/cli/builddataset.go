package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talentforge/cvtune/internal/dataset"
	"github.com/talentforge/cvtune/internal/events"
	"github.com/talentforge/cvtune/internal/finetune"
)

var buildDatasetFlags struct {
	outPath     string
	valFraction float64
	epochs      int
}

var buildDatasetCmd = &cobra.Command{
	Use:   "build-dataset",
	Short: "Build train/validation JSONL files from stored documents",
	Long: `Builds fine-tuning examples from every document that has both a stored
chain and a transcription. The base output path is split into _train and
_val files, e.g. dataset.jsonl becomes dataset_train.jsonl and
dataset_val.jsonl.`,
	RunE: runBuildDataset,
}

func init() {
	f := buildDatasetCmd.Flags()
	f.StringVar(&buildDatasetFlags.outPath, "out", "dataset.jsonl", "base output path for the JSONL files")
	f.Float64Var(&buildDatasetFlags.valFraction, "val-fraction", 0.2, "fraction of examples held out for validation")
	f.IntVar(&buildDatasetFlags.epochs, "epochs", finetune.DefaultEpochs, "epoch count used for the billing estimate")
	rootCmd.AddCommand(buildDatasetCmd)
}

func runBuildDataset(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	logger := slog.Default()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	pairs, err := s.QueryTrainingPairs(ctx)
	if err != nil {
		return fmt.Errorf("query training pairs: %w", err)
	}
	logger.Info("training pairs loaded", "documents", len(pairs))

	examples := dataset.Build(pairs, logger)
	if len(examples) == 0 {
		return fmt.Errorf("no usable examples from %d documents", len(pairs))
	}
	train, validation := dataset.Split(examples, buildDatasetFlags.valFraction)

	trainPath, valPath := splitPaths(buildDatasetFlags.outPath)
	if err := dataset.WriteJSONL(trainPath, train); err != nil {
		return err
	}
	if err := dataset.WriteJSONL(valPath, validation); err != nil {
		return err
	}
	logger.Info("dataset written",
		"train_path", trainPath, "train_examples", len(train),
		"val_path", valPath, "val_examples", len(validation),
	)

	dataset.LogBillingInfo(logger, train, buildDatasetFlags.epochs, cfg.FineTuneModel)

	notifier := newNotifier()
	defer notifier.Close()
	notifier.Publish(events.SubjectDatasetBuilt, map[string]any{
		"train_examples": len(train),
		"val_examples":   len(validation),
	})
	return nil
}

// splitPaths derives the _train and _val file names from a base path.
func splitPaths(base string) (trainPath, valPath string) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "_train" + ext, stem + "_val" + ext
}
