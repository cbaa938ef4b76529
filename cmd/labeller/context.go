package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"labeller/internal/config"
	"labeller/internal/journal"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// sessionOverrides are the per-invocation flags shared by commands that
// touch a dataset or an output table.
type sessionOverrides struct {
	root      string
	output    string
	variant   string
	annotator string
}

func (o *sessionOverrides) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.root, "root", "", "Dataset root (overrides paths.dataset_root)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output table (overrides paths.output_file)")
	cmd.Flags().StringVar(&o.variant, "variant", "", "Taxonomy variant: clinical or histopath")
	cmd.Flags().StringVar(&o.annotator, "annotator", "", "Annotator name recorded on every row")
}

// resolve returns a copy of the loaded config with the overrides applied and
// paths made absolute.
func (c *commandContext) resolve(o sessionOverrides) (*config.Config, error) {
	base, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cfg := *base
	if v := strings.TrimSpace(o.root); v != "" {
		cfg.Paths.DatasetRoot = v
	}
	if v := strings.TrimSpace(o.output); v != "" {
		cfg.Paths.OutputFile = v
	}
	if v := strings.TrimSpace(o.variant); v != "" {
		cfg.Session.Variant = strings.ToLower(v)
	}
	if v := strings.TrimSpace(o.annotator); v != "" {
		cfg.Session.Annotator = v
	}
	for _, p := range []*string{&cfg.Paths.DatasetRoot, &cfg.Paths.OutputFile} {
		if *p == "" {
			continue
		}
		expanded, err := config.ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		if *p, err = filepath.Abs(expanded); err != nil {
			return nil, fmt.Errorf("resolve %q: %w", expanded, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
