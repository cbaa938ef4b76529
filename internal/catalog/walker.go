package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"labeller/internal/logging"
)

// DefaultMaxDepth bounds directory recursion below a visit directory.
const DefaultMaxDepth = 32

// DefaultExtensions lists the recognised image extensions.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}

// Walker performs the filesystem reads recognisers need. It follows
// symlinked directories, never enters the same real directory twice within
// one traversal, and skips entries it cannot read.
type Walker struct {
	exts     map[string]struct{}
	maxDepth int
	fold     cases.Caser
	logger   *slog.Logger
}

func newWalker(opts Options) *Walker {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Walker{
		exts:     set,
		maxDepth: depth,
		fold:     cases.Fold(),
		logger:   logger,
	}
}

// NameContains reports whether the base name of path contains any marker,
// compared under Unicode case folding.
func (w *Walker) NameContains(path string, markers ...string) bool {
	name := w.fold.String(filepath.Base(path))
	for _, marker := range markers {
		marker = strings.TrimSpace(marker)
		if marker == "" {
			continue
		}
		if strings.Contains(name, w.fold.String(marker)) {
			return true
		}
	}
	return false
}

// IsImage reports whether the file name carries a recognised extension.
func (w *Walker) IsImage(name string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Subdirs lists the immediate subdirectories of dir in name order, including
// symlinks that resolve to directories.
func (w *Walker) Subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.skip(dir, err)
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if w.entryIsDir(path, entry) {
			out = append(out, path)
		}
	}
	return out
}

// Descendants lists every directory beneath dir in depth-first pre-order.
// The traversal stops descending at the configured depth bound.
func (w *Walker) Descendants(ctx context.Context, dir string) ([]string, error) {
	visited := make(map[string]struct{})
	if real, err := realPath(dir); err == nil {
		visited[real] = struct{}{}
	}
	var out []string
	var walk func(current string, depth int) error
	walk = func(current string, depth int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if depth >= w.maxDepth {
			w.logger.Debug("catalog depth bound reached",
				logging.String("directory", current),
				logging.Int("max_depth", w.maxDepth),
			)
			return nil
		}
		for _, sub := range w.Subdirs(current) {
			if !w.markVisited(visited, sub) {
				continue
			}
			out = append(out, sub)
			if err := walk(sub, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(dir, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// Images lists the image files in dir in name order. When recursive is set,
// images in every descendant directory are included, directory by directory.
func (w *Walker) Images(ctx context.Context, dir string, recursive bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := w.imagesIn(dir)
	if !recursive {
		return out, nil
	}
	dirs, err := w.Descendants(ctx, dir)
	if err != nil {
		return nil, err
	}
	for _, sub := range dirs {
		out = append(out, w.imagesIn(sub)...)
	}
	return out, nil
}

func (w *Walker) imagesIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.skip(dir, err)
		return nil
	}
	var out []string
	for _, entry := range entries {
		if !w.IsImage(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if w.entryIsDir(path, entry) {
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			if _, err := os.Stat(path); err != nil {
				w.skip(path, err)
				continue
			}
		}
		out = append(out, path)
	}
	return out
}

func (w *Walker) entryIsDir(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (w *Walker) markVisited(visited map[string]struct{}, dir string) bool {
	real, err := realPath(dir)
	if err != nil {
		w.skip(dir, err)
		return false
	}
	if _, seen := visited[real]; seen {
		w.logger.Debug("catalog directory already visited",
			logging.String("directory", dir),
			logging.String("resolved", real),
		)
		return false
	}
	visited[real] = struct{}{}
	return true
}

func (w *Walker) skip(path string, err error) {
	w.logger.Warn("catalog entry skipped",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldEventType, "catalog_entry_skipped"),
		logging.String(logging.FieldErrorHint, "check permissions or remove broken links under the dataset root"),
	)
}

func realPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// canonicalKey resolves path to the identity used for deduplication,
// falling back to the absolute path when resolution fails.
func canonicalKey(path string) string {
	if real, err := realPath(path); err == nil {
		return real
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
