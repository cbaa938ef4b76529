package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"labeller/internal/fileutil"
	"labeller/internal/logging"
)

// Options selects the optional companion files.
type Options struct {
	Parquet     bool
	YAMLSummary bool
	Logger      *slog.Logger

	// Resumed marks an output that already holds this session's checkpoint.
	// No backup is taken, so the one made before the session began survives.
	Resumed bool
}

// Writer serialises snapshots to an output table and its companions.
type Writer struct {
	output    string
	opts      Options
	logger    *slog.Logger
	backedUp  bool
	lastFiles []string
}

// NewWriter returns a writer targeting output.
func NewWriter(output string, opts Options) *Writer {
	return &Writer{
		output:   output,
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "export"),
		backedUp: opts.Resumed,
	}
}

// Output returns the table path.
func (w *Writer) Output() string { return w.output }

// Files returns the paths written by the last successful Write.
func (w *Writer) Files() []string {
	return append([]string(nil), w.lastFiles...)
}

// SummaryPath derives the text report path: the table path with its
// extension replaced by "_summary.txt".
func SummaryPath(output string) string {
	return stem(output) + "_summary.txt"
}

// YAMLSummaryPath derives the YAML report path.
func YAMLSummaryPath(output string) string {
	return stem(output) + "_summary.yaml"
}

// ParquetPath derives the Parquet companion path.
func ParquetPath(output string) string {
	return stem(output) + ".parquet"
}

// BackupPath is where an existing table is copied before the first write of
// a new session.
func BackupPath(output string) string {
	return output + ".bak"
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Write serialises the snapshot. Each file is replaced atomically; an error
// names the file that failed and wraps the cause.
func (w *Writer) Write(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Variant == nil {
		return fmt.Errorf("export: snapshot has no variant")
	}
	if err := fileutil.EnsureParentDir(w.output); err != nil {
		return fmt.Errorf("write table %s: %w", w.output, err)
	}
	if !w.backedUp {
		if err := w.backup(); err != nil {
			return err
		}
		w.backedUp = true
	}

	files := []string{w.output}
	err := fileutil.WriteAtomic(w.output, 0o644, func(out io.Writer) error {
		return WriteTable(out, snap.Variant, snap.Records, snap.Session.Annotator)
	})
	if err != nil {
		return fmt.Errorf("write table %s: %w", w.output, err)
	}

	summary := BuildSummary(snap, w.output)
	summaryPath := SummaryPath(w.output)
	if err := fileutil.WriteFileAtomic(summaryPath, []byte(summary.RenderText()), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", summaryPath, err)
	}
	files = append(files, summaryPath)

	if w.opts.YAMLSummary {
		path := YAMLSummaryPath(w.output)
		data, err := yaml.Marshal(&summary)
		if err != nil {
			return fmt.Errorf("marshal yaml summary: %w", err)
		}
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return fmt.Errorf("write yaml summary %s: %w", path, err)
		}
		files = append(files, path)
	}

	if w.opts.Parquet {
		path := ParquetPath(w.output)
		err := fileutil.WriteAtomic(path, 0o644, func(out io.Writer) error {
			return writeParquet(out, snap)
		})
		if err != nil {
			return fmt.Errorf("write parquet %s: %w", path, err)
		}
		files = append(files, path)
	}

	w.lastFiles = files
	w.logger.Info("labels exported",
		logging.String("output", w.output),
		logging.Int("records", len(snap.Records)),
		logging.Bool("partial", snap.Partial),
		logging.Int("files", len(files)),
		logging.String(logging.FieldSessionID, snap.Session.ID),
	)
	return nil
}

func (w *Writer) backup() error {
	info, err := os.Stat(w.output)
	if err != nil || info.Size() == 0 {
		return nil
	}
	path := BackupPath(w.output)
	if err := fileutil.CopyFile(w.output, path, 0o644); err != nil {
		return fmt.Errorf("back up existing table to %s: %w", path, err)
	}
	w.logger.Info("existing table backed up",
		logging.String("output", w.output),
		logging.String("backup", path),
	)
	return nil
}
