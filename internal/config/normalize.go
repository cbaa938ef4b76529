package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSession()
	c.normalizeCatalog()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DatasetRoot) == "" {
		if value, ok := os.LookupEnv("LABELLER_DATASET_ROOT"); ok {
			c.Paths.DatasetRoot = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Paths.DatasetRoot, err = expandPath(strings.TrimSpace(c.Paths.DatasetRoot)); err != nil {
		return fmt.Errorf("paths.dataset_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputFile) == "" {
		c.Paths.OutputFile = defaultOutputFile
	}
	if c.Paths.OutputFile, err = expandPath(c.Paths.OutputFile); err != nil {
		return fmt.Errorf("paths.output_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() {
	c.Session.Variant = strings.ToLower(strings.TrimSpace(c.Session.Variant))
	if c.Session.Variant == "" {
		c.Session.Variant = defaultVariant
	}
	if value, ok := os.LookupEnv("LABELLER_ANNOTATOR"); ok && strings.TrimSpace(value) != "" {
		c.Session.Annotator = value
	}
	c.Session.Annotator = strings.TrimSpace(c.Session.Annotator)
	if c.Session.BannerSeconds < 0 {
		c.Session.BannerSeconds = 0
	}
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Extensions = normalizeList(c.Catalog.Extensions, defaultExtensions, func(ext string) string {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return ext
	})
	c.Catalog.ClinicalMarkers = normalizeList(c.Catalog.ClinicalMarkers, defaultClinicalMarkers, strings.ToLower)
	c.Catalog.HistopathMarker = strings.ToLower(strings.TrimSpace(c.Catalog.HistopathMarker))
	if c.Catalog.HistopathMarker == "" {
		c.Catalog.HistopathMarker = defaultHistopathMarker
	}
	if c.Catalog.MaxDepth <= 0 {
		c.Catalog.MaxDepth = defaultMaxDepth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeList(values, fallback []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized == "" {
			continue
		}
		normalized = transform(normalized)
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
