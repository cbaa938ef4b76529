package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"labeller/internal/config"
	"labeller/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, closeLog, err := logging.NewFromConfig(&cfg, "session-1")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("session started")
	if err := closeLog(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "session_id=session-1") {
		t.Fatalf("expected session id in log line, got %q", content)
	}
}

func TestNewFromConfigWithoutLogDirDiscards(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = ""

	logger, closeLog, err := logging.NewFromConfig(&cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	defer closeLog()
	if logger.Enabled(t.Context(), 8) {
		t.Fatal("expected discarding logger")
	}
}

func TestLineLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Format: "console", Level: "info"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestLineLoggerPrefixesComponentAndLeadsWithContext(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(&buf, logging.Options{Level: "info", SessionID: "s1"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger := logging.NewComponentLogger(base, "review")
	logger.Info("label saved",
		logging.String(logging.FieldCategory, "Normal"),
		logging.Int(logging.FieldPosition, 3),
		logging.String(logging.FieldCaseID, "Case A"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO review: label saved") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	want := `session_id=s1 case_id="Case A" position=3 category=Normal`
	if !strings.Contains(line, want) {
		t.Fatalf("expected ordered context %q, got %q", want, line)
	}
}

func TestLineLoggerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("export").Info("written", logging.Int("records", 2))

	if !strings.Contains(buf.String(), "export.records=2") {
		t.Fatalf("expected grouped key, got %q", buf.String())
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Format: "json", Level: "warn", SessionID: "abc"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("suppressed")
	logging.WarnWithContext(logger, "export failed", "export_failed",
		logging.String(logging.FieldImpact, "labels kept in memory"),
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one record, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", logging.FieldSessionID, logging.FieldEventType, logging.FieldErrorHint} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected key %q in %v", key, record)
		}
	}
	if record["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", record["level"])
	}
	if record[logging.FieldImpact] != "labels kept in memory" {
		t.Fatalf("expected caller impact to win, got %v", record[logging.FieldImpact])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(&bytes.Buffer{}, logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(t.Context(), 12) {
		t.Fatal("expected no-op logger to be disabled")
	}
}
