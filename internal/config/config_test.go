package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"labeller/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("LABELLER_ANNOTATOR", "")
	t.Setenv("LABELLER_DATASET_ROOT", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "labeller")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.OutputFile != filepath.Join(tempHome, "labels", "labels.csv") {
		t.Fatalf("unexpected output file: %q", cfg.Paths.OutputFile)
	}
	if cfg.Session.Variant != config.VariantClinical {
		t.Fatalf("expected clinical variant by default, got %q", cfg.Session.Variant)
	}
	if cfg.Session.BannerSeconds != 3 {
		t.Fatalf("unexpected banner seconds: %d", cfg.Session.BannerSeconds)
	}
	if got := strings.Join(cfg.Catalog.Extensions, ","); got != ".jpg,.jpeg,.png,.tif,.tiff" {
		t.Fatalf("unexpected extensions: %s", got)
	}
	if cfg.JournalPath() != filepath.Join(wantState, "journal.db") {
		t.Fatalf("unexpected journal path: %q", cfg.JournalPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "labeller.toml")

	type payload struct {
		Paths struct {
			DatasetRoot string `toml:"dataset_root"`
			OutputFile  string `toml:"output_file"`
		} `toml:"paths"`
		Session struct {
			Variant   string `toml:"variant"`
			Annotator string `toml:"annotator"`
		} `toml:"session"`
		Catalog struct {
			Extensions []string `toml:"extensions"`
		} `toml:"catalog"`
	}
	custom := payload{}
	custom.Paths.DatasetRoot = filepath.Join(tempDir, "data")
	custom.Paths.OutputFile = filepath.Join(tempDir, "out", "histo.csv")
	custom.Session.Variant = " Histopath "
	custom.Session.Annotator = " dr who "
	custom.Catalog.Extensions = []string{"PNG", ".png", "tif"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	t.Setenv("LABELLER_ANNOTATOR", "")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Session.Variant != config.VariantHistopath {
		t.Fatalf("expected normalized histopath variant, got %q", cfg.Session.Variant)
	}
	if cfg.Session.Annotator != "dr who" {
		t.Fatalf("expected trimmed annotator, got %q", cfg.Session.Annotator)
	}
	if got := strings.Join(cfg.Catalog.Extensions, ","); got != ".png,.tif" {
		t.Fatalf("expected deduplicated extensions, got %s", got)
	}
	if cfg.Paths.DatasetRoot != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected dataset root %q", cfg.Paths.DatasetRoot)
	}
}

func TestEnvOverridesAnnotatorAndRoot(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "labeller.toml")
	if err := os.WriteFile(configPath, []byte("[session]\nannotator = \"file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LABELLER_ANNOTATOR", "env-annotator")
	t.Setenv("LABELLER_DATASET_ROOT", filepath.Join(tempDir, "images"))

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Session.Annotator != "env-annotator" {
		t.Fatalf("expected env annotator, got %q", cfg.Session.Annotator)
	}
	if cfg.Paths.DatasetRoot != filepath.Join(tempDir, "images") {
		t.Fatalf("expected env dataset root, got %q", cfg.Paths.DatasetRoot)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"variant", func(c *config.Config) { c.Session.Variant = "radiology" }, "session.variant"},
		{"output extension", func(c *config.Config) { c.Paths.OutputFile = "/tmp/labels" }, "paths.output_file"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"banner", func(c *config.Config) { c.Session.BannerSeconds = 600 }, "session.banner_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.OutputFile = "/tmp/labels.csv"
			cfg.Paths.StateDir = "/tmp/state"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Catalog.HistopathMarker != "histopath" {
		t.Fatalf("unexpected histopath marker %q", cfg.Catalog.HistopathMarker)
	}
}
