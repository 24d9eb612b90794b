package finetune

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/talentforge/cvtune/internal/events"
	"github.com/talentforge/cvtune/internal/openai"
)

// Default supervised hyperparameters.
const (
	DefaultEpochs    = 2
	DefaultBatchSize = 8
)

// Hyperparameters for a supervised fine-tuning run. A zero LRMultiplier
// leaves the service default in place.
type Hyperparameters struct {
	Epochs       int
	BatchSize    int
	LRMultiplier float64
}

// Submitter uploads dataset files and creates fine-tuning jobs.
type Submitter struct {
	client   *openai.Client
	notifier *events.Notifier
	logger   *slog.Logger
}

func NewSubmitter(client *openai.Client, notifier *events.Notifier, logger *slog.Logger) *Submitter {
	return &Submitter{client: client, notifier: notifier, logger: logger}
}

// Submit uploads the train and validation files and creates one supervised
// fine-tuning job. Single attempt, no polling; the returned job id is the
// handle for checking progress elsewhere.
func (s *Submitter) Submit(ctx context.Context, trainPath, validationPath, model string, hp Hyperparameters) (openai.FineTuningJob, error) {
	if hp.Epochs <= 0 {
		hp.Epochs = DefaultEpochs
	}
	if hp.BatchSize <= 0 {
		hp.BatchSize = DefaultBatchSize
	}

	trainID, err := s.uploadDataset(ctx, trainPath)
	if err != nil {
		return openai.FineTuningJob{}, err
	}
	validationID, err := s.uploadDataset(ctx, validationPath)
	if err != nil {
		return openai.FineTuningJob{}, err
	}

	method, err := supervisedMethod(hp)
	if err != nil {
		return openai.FineTuningJob{}, err
	}

	job, err := s.client.CreateFineTuningJob(ctx, openai.FineTuningJobRequest{
		TrainingFile:   trainID,
		ValidationFile: validationID,
		Model:          model,
		Method:         method,
	})
	if err != nil {
		return openai.FineTuningJob{}, fmt.Errorf("create fine-tuning job: %w", err)
	}

	s.logger.Info("fine-tuning job created",
		"job_id", job.ID,
		"model", model,
		"epochs", hp.Epochs,
		"batch_size", hp.BatchSize,
	)
	s.notifier.Publish(events.SubjectJobSubmitted, map[string]any{
		"job_id": job.ID,
		"model":  model,
	})
	return job, nil
}

func (s *Submitter) uploadDataset(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read dataset %s: %w", path, err)
	}
	file, err := s.client.UploadFile(ctx, filepath.Base(path), openai.PurposeFineTune, data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	s.logger.Info("dataset uploaded", "path", path, "file_id", file.ID)
	return file.ID, nil
}

func supervisedMethod(hp Hyperparameters) (json.RawMessage, error) {
	params := map[string]any{
		"n_epochs":   hp.Epochs,
		"batch_size": hp.BatchSize,
	}
	if hp.LRMultiplier > 0 {
		params["learning_rate_multiplier"] = hp.LRMultiplier
	}
	method, err := json.Marshal(map[string]any{
		"type": "supervised",
		"supervised": map[string]any{
			"hyperparameters": params,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal method: %w", err)
	}
	return method, nil
}
