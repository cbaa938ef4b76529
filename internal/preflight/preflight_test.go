package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"labeller/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_CreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected missing dir to be created, got: %s", result.Detail)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableDirectory_NotExist(t *testing.T) {
	result := CheckReadableDirectory("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DatasetRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	results := RunAll(cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	cfg.Paths.DatasetRoot = filepath.Join(testsupport.BaseDir(cfg), "missing")
	failed := Failed(RunAll(cfg))
	if len(failed) != 1 || failed[0].Name != "Dataset root" {
		t.Fatalf("expected dataset root failure, got %+v", failed)
	}

	cfg.Paths.DatasetRoot = ""
	failed = Failed(RunAll(cfg))
	if len(failed) != 1 || failed[0].Name != "Dataset root" {
		t.Fatalf("expected unconfigured root failure, got %+v", failed)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil, got %+v", results)
	}
}
