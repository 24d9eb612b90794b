package transform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/talentforge/cvtune/internal/chains"
	"github.com/talentforge/cvtune/internal/events"
	"github.com/talentforge/cvtune/internal/openai"
)

const (
	defaultPollInterval = time.Minute
	defaultPollTimeout  = 2 * time.Hour
)

// Options configures a transform run.
type Options struct {
	Model         string
	BatchDir      string
	ResultsDir    string
	StatePath     string
	MaxBatchBytes int
	PollInterval  time.Duration
	PollTimeout   time.Duration
	DryRun        bool
}

// Runner drives the translate/transcribe stage: documents into the store,
// batch files to the API, results back into the store.
type Runner struct {
	store    Store
	client   *openai.Client
	notifier *events.Notifier
	logger   *slog.Logger
	opts     Options
}

func NewRunner(s Store, client *openai.Client, notifier *events.Notifier, opts Options, logger *slog.Logger) *Runner {
	if opts.MaxBatchBytes <= 0 {
		opts.MaxBatchBytes = defaultMaxBatchBytes
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaultPollTimeout
	}
	return &Runner{
		store:    s,
		client:   client,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

// Run submits one batch per chunk of request lines and polls until the
// batches finish or the poll timeout fires. Unfinished batch ids stay in
// the state file for a later save-results run.
func (r *Runner) Run(ctx context.Context, set chains.Set, filesDir string) error {
	state, err := LoadState(r.opts.StatePath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	lines := r.buildLines(ctx, set, filesDir, state)
	if len(lines) == 0 {
		return fmt.Errorf("no batch lines built from %d chains", len(set))
	}

	if err := os.MkdirAll(r.opts.BatchDir, 0o755); err != nil {
		return fmt.Errorf("create batch dir: %w", err)
	}

	chunks := ChunkBatchLines(lines, r.opts.MaxBatchBytes)
	for i, chunk := range chunks {
		path := filepath.Join(r.opts.BatchDir, fmt.Sprintf("batchinput_%d.jsonl", i+1))
		if err := WriteBatchFile(path, chunk); err != nil {
			return err
		}
		r.logger.Info("wrote batch file", "path", path, "lines", len(chunk))

		if r.opts.DryRun {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read batch file: %w", err)
		}
		file, err := r.client.UploadFile(ctx, filepath.Base(path), openai.PurposeBatch, data)
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		batch, err := r.client.CreateBatch(ctx, file.ID, batchEndpoint, completionWindow, map[string]string{
			"description": "CV transcription and translation",
		})
		if err != nil {
			return fmt.Errorf("create batch for %s: %w", path, err)
		}

		r.logger.Info("submitted batch", "batch_id", batch.ID, "input_file_id", file.ID)
		state.AddBatch(batch.ID)
		if err := state.Save(); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		r.notifier.Publish(events.SubjectBatchSubmitted, map[string]any{
			"batch_id": batch.ID,
			"lines":    len(chunk),
		})
	}

	if r.opts.DryRun {
		r.logger.Info("dry run, batches not submitted", "chunks", len(chunks))
		return nil
	}
	return r.PollAndProcess(ctx, state)
}

// buildLines upserts each chain's document and renders its request line.
// A failing document is logged and skipped, never aborting the run.
func (r *Runner) buildLines(ctx context.Context, set chains.Set, filesDir string, state *State) []string {
	var lines []string
	for _, docID := range set.SortedDocIDs() {
		record := set[docID]

		pdfPath := filepath.Join(filesDir, record.PDFFilename)
		pdfData, err := os.ReadFile(pdfPath)
		if err != nil {
			r.logger.Error("failed to read pdf", "doc_id", docID, "path", pdfPath, "error", err)
			state.AddError(fmt.Sprintf("read pdf %s: %v", docID, err))
			continue
		}

		if err := r.store.UpsertDocument(ctx, docID, "application/pdf", pdfData); err != nil {
			r.logger.Error("failed to upsert document", "doc_id", docID, "error", err)
			state.AddError(fmt.Sprintf("upsert document %s: %v", docID, err))
			continue
		}

		line, err := BuildBatchLine(docID, record.PDFFilename, pdfData, record.Messages, r.opts.Model)
		if err != nil {
			r.logger.Error("failed to build batch line", "doc_id", docID, "error", err)
			state.AddError(fmt.Sprintf("build line %s: %v", docID, err))
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// PollAndProcess polls every pending batch until all are terminal or the
// poll timeout fires. Completed batches are processed immediately.
func (r *Runner) PollAndProcess(ctx context.Context, state *State) error {
	deadline := time.Now().Add(r.opts.PollTimeout)

	for len(state.PendingBatches) > 0 {
		for _, batchID := range append([]string(nil), state.PendingBatches...) {
			batch, err := r.client.GetBatch(ctx, batchID)
			if err != nil {
				r.logger.Error("failed to get batch", "batch_id", batchID, "error", err)
				continue
			}
			r.logger.Info("batch status", "batch_id", batchID, "status", batch.Status)
			if !batch.Terminal() {
				continue
			}

			if batch.Status == openai.BatchCompleted {
				if err := r.processCompleted(ctx, batch, state); err != nil {
					r.logger.Error("failed to process batch output", "batch_id", batchID, "error", err)
					state.AddError(fmt.Sprintf("process batch %s: %v", batchID, err))
				}
			} else {
				r.logger.Error("batch ended without output", "batch_id", batchID, "status", batch.Status)
				state.AddError(fmt.Sprintf("batch %s ended with status %s", batchID, batch.Status))
			}

			state.RemoveBatch(batchID)
			if err := state.Save(); err != nil {
				return fmt.Errorf("save state: %w", err)
			}
		}

		if len(state.PendingBatches) == 0 {
			break
		}
		if time.Now().After(deadline) {
			r.logger.Warn("poll timeout reached, batches left pending",
				"pending", len(state.PendingBatches))
			return nil
		}

		r.logger.Info("waiting on batches",
			"pending", len(state.PendingBatches),
			"interval", r.opts.PollInterval.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.PollInterval):
		}
	}
	return nil
}

// ResumeFromState polls the batch ids recorded by an earlier run.
func (r *Runner) ResumeFromState(ctx context.Context) error {
	state, err := LoadState(r.opts.StatePath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if len(state.PendingBatches) == 0 {
		r.logger.Info("no pending batches in state file", "path", r.opts.StatePath)
		return nil
	}
	return r.PollAndProcess(ctx, state)
}

// ProcessResultDir ingests previously downloaded output JSONL files.
func (r *Runner) ProcessResultDir(ctx context.Context, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return fmt.Errorf("glob results: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no result files in %s", dir)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Error("failed to read result file", "path", path, "error", err)
			continue
		}
		saved, err := r.ProcessOutputLines(ctx, data)
		if err != nil {
			r.logger.Error("failed to process result file", "path", path, "error", err)
			continue
		}
		r.logger.Info("processed result file", "path", path, "documents", len(saved))
	}
	return nil
}

// processCompleted downloads a completed batch's output, keeps a local
// copy, and persists every parsed result.
func (r *Runner) processCompleted(ctx context.Context, batch openai.Batch, state *State) error {
	if batch.ErrorFileID != "" {
		content, err := r.client.FileContent(ctx, batch.ErrorFileID)
		if err != nil {
			return fmt.Errorf("download error file: %w", err)
		}
		r.logger.Error("batch has error file", "batch_id", batch.ID, "content", string(content))
		return fmt.Errorf("batch %s produced an error file", batch.ID)
	}
	if batch.OutputFileID == "" {
		return fmt.Errorf("batch %s completed without output file", batch.ID)
	}

	data, err := r.client.FileContent(ctx, batch.OutputFileID)
	if err != nil {
		return fmt.Errorf("download output file: %w", err)
	}

	if r.opts.ResultsDir != "" {
		if err := os.MkdirAll(r.opts.ResultsDir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
		outPath := filepath.Join(r.opts.ResultsDir, "out-"+batch.ID+".jsonl")
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("write results copy: %w", err)
		}
	}

	saved, err := r.ProcessOutputLines(ctx, data)
	if err != nil {
		return err
	}
	for _, docID := range saved {
		state.MarkProcessed(docID)
	}
	r.logger.Info("batch processed", "batch_id", batch.ID, "documents", len(saved))
	r.notifier.Publish(events.SubjectBatchCompleted, map[string]any{
		"batch_id":  batch.ID,
		"documents": len(saved),
	})
	return nil
}
