package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/talentforge/cvtune/internal/chains"
	"github.com/talentforge/cvtune/internal/events"
	"github.com/talentforge/cvtune/internal/export"
)

var buildChainsFlags struct {
	exportPath      string
	filesDir        string
	outPath         string
	replyWindow     time.Duration
	longestOnly     bool
	minReviewLength int
}

var buildChainsCmd = &cobra.Command{
	Use:   "build-chains",
	Short: "Reconstruct review chains from a Telegram chat export",
	RunE:  runBuildChains,
}

func init() {
	f := buildChainsCmd.Flags()
	f.StringVar(&buildChainsFlags.exportPath, "export", "result.json", "path to the Telegram export JSON")
	f.StringVar(&buildChainsFlags.filesDir, "files", "./files", "directory holding the exported attachments")
	f.StringVar(&buildChainsFlags.outPath, "out", "chains.json", "output path for the chain set")
	f.DurationVar(&buildChainsFlags.replyWindow, "reply-window", 15*time.Minute, "window for attaching reply-less messages to the latest chain")
	f.BoolVar(&buildChainsFlags.longestOnly, "longest-only", false, "keep only the longest review per chain")
	f.IntVar(&buildChainsFlags.minReviewLength, "min-review-length", 0, "drop chains whose review text is shorter (0 disables)")
	rootCmd.AddCommand(buildChainsCmd)
}

func runBuildChains(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	msgs, err := export.ParseFile(buildChainsFlags.exportPath, logger)
	if err != nil {
		return fmt.Errorf("parse export: %w", err)
	}
	logger.Info("export parsed", "messages", len(msgs))

	files, err := listAttachments(buildChainsFlags.filesDir)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}

	builder := chains.NewBuilder(chains.Options{
		ReplyWindow:     buildChainsFlags.replyWindow,
		LongestOnly:     buildChainsFlags.longestOnly,
		MinReviewLength: buildChainsFlags.minReviewLength,
	}, logger)
	built := builder.Build(msgs, files)
	if len(built) == 0 {
		return fmt.Errorf("no chains built from %d messages", len(msgs))
	}

	set := chains.ToSet(built)
	if err := chains.WriteFile(buildChainsFlags.outPath, set); err != nil {
		return fmt.Errorf("write chains: %w", err)
	}
	logger.Info("chains written", "path", buildChainsFlags.outPath, "chains", len(set))

	notifier := newNotifier()
	defer notifier.Close()
	notifier.Publish(events.SubjectChainsBuilt, map[string]any{
		"chains": len(set),
		"path":   buildChainsFlags.outPath,
	})
	return nil
}

// listAttachments maps the filenames present in the attachment directory.
func listAttachments(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files[e.Name()] = true
		}
	}
	return files, nil
}
