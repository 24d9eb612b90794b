package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitPaths(t *testing.T) {
	train, val := splitPaths("data/dataset.jsonl")
	if train != "data/dataset_train.jsonl" || val != "data/dataset_val.jsonl" {
		t.Errorf("splitPaths = %q, %q", train, val)
	}

	train, val = splitPaths("dataset")
	if train != "dataset_train" || val != "dataset_val" {
		t.Errorf("splitPaths without extension = %q, %q", train, val)
	}
}

func TestListAttachments(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "anna_cv.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := listAttachments(dir)
	if err != nil {
		t.Fatalf("listAttachments failed: %v", err)
	}
	if !files["anna_cv.pdf"] {
		t.Error("expected anna_cv.pdf in attachment map")
	}
	if files["subdir"] {
		t.Error("directories must not appear in the attachment map")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"build-chains", "transform", "save-results", "build-dataset", "submit-job"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
