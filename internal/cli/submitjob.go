package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talentforge/cvtune/internal/finetune"
)

var submitJobFlags struct {
	trainPath    string
	valPath      string
	model        string
	epochs       int
	batchSize    int
	lrMultiplier float64
}

var submitJobCmd = &cobra.Command{
	Use:   "submit-job",
	Short: "Submit a supervised fine-tuning job",
	RunE:  runSubmitJob,
}

func init() {
	f := submitJobCmd.Flags()
	f.StringVar(&submitJobFlags.trainPath, "train", "dataset_train.jsonl", "training dataset JSONL")
	f.StringVar(&submitJobFlags.valPath, "val", "dataset_val.jsonl", "validation dataset JSONL")
	f.StringVar(&submitJobFlags.model, "model", "", "base model (defaults to CVTUNE_FINETUNE_MODEL)")
	f.IntVar(&submitJobFlags.epochs, "epochs", finetune.DefaultEpochs, "number of training epochs")
	f.IntVar(&submitJobFlags.batchSize, "batch-size", finetune.DefaultBatchSize, "training batch size")
	f.Float64Var(&submitJobFlags.lrMultiplier, "lr-multiplier", 0, "learning rate multiplier (0 keeps the service default)")
	rootCmd.AddCommand(submitJobCmd)
}

func runSubmitJob(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	logger := slog.Default()

	client, err := newOpenAIClient()
	if err != nil {
		return err
	}

	model := submitJobFlags.model
	if model == "" {
		model = cfg.FineTuneModel
	}

	notifier := newNotifier()
	defer notifier.Close()

	submitter := finetune.NewSubmitter(client, notifier, logger)
	job, err := submitter.Submit(ctx, submitJobFlags.trainPath, submitJobFlags.valPath, model, finetune.Hyperparameters{
		Epochs:       submitJobFlags.epochs,
		BatchSize:    submitJobFlags.batchSize,
		LRMultiplier: submitJobFlags.lrMultiplier,
	})
	if err != nil {
		return err
	}

	cmd.Printf("fine-tuning job %s created (model %s, status %s)\n", job.ID, job.Model, job.Status)
	return nil
}
