package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"labeller/internal/logging"
)

// Options tunes catalog discovery.
type Options struct {
	Extensions []string
	MaxDepth   int
	Logger     *slog.Logger
}

// Build walks root/<case>/<visit> directories, applies the recogniser to each
// visit and returns the deduplicated records in traversal order with dense
// positions assigned. It returns ErrEmptyCatalog when nothing matched.
func Build(ctx context.Context, root string, rec Recognizer, opts Options) ([]ImageRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("catalog: recogniser required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("catalog: resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("catalog: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: root %q is not a directory", abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("catalog: read root: %w", err)
	}

	w := newWalker(opts)
	logger := logging.NewComponentLogger(w.logger, "catalog")

	seen := make(map[string]struct{})
	var records []ImageRecord
	duplicates := 0
	for _, caseDir := range w.Subdirs(abs) {
		for _, visitDir := range w.Subdirs(caseDir) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			matches, err := rec.Collect(ctx, w, visitDir)
			if err != nil {
				return nil, fmt.Errorf("catalog: scan %s: %w", visitDir, err)
			}
			for _, m := range matches {
				key := canonicalKey(m.Path)
				if _, dup := seen[key]; dup {
					duplicates++
					continue
				}
				seen[key] = struct{}{}
				records = append(records, ImageRecord{
					Key:      key,
					CaseID:   filepath.Base(caseDir),
					VisitID:  filepath.Base(visitDir),
					Groups:   slices.Clone(m.Groups),
					MagValue: m.MagValue,
					Filename: filepath.Base(m.Path),
					Path:     m.Path,
					sortName: m.SortName,
				})
			}
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("catalog: %w under %s", ErrEmptyCatalog, abs)
	}
	slices.SortStableFunc(records, Compare)
	for i := range records {
		records[i].Position = i
	}

	summary := Summarize(records)
	logger.Info("catalog built",
		logging.String("root", abs),
		logging.String("recognizer", rec.Name()),
		logging.Int("images", summary.Images),
		logging.Int("cases", summary.Cases),
		logging.Int("duplicates_skipped", duplicates),
	)
	return records, nil
}
