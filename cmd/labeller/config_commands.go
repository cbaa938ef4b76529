package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"labeller/internal/config"
	"labeller/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(newConfigValidateCommand(ctx), newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath, overwrite)
			if err != nil {
				return err
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.dataset_root and session.annotator (or LABELLER_DATASET_ROOT and LABELLER_ANNOTATOR) before labelling.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

// initTarget resolves where `config init` writes and refuses to clobber an
// existing file unless overwrite is set.
func initTarget(path string, overwrite bool) (string, error) {
	var (
		target string
		err    error
	)
	if path = strings.TrimSpace(path); path == "" {
		target, err = config.DefaultConfigPath()
	} else {
		target, err = config.ExpandPath(path)
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if overwrite {
		return target, nil
	}
	switch _, err := os.Stat(target); {
	case err == nil:
		return "", fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("check config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and check paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			source := ctx.configPath
			if _, err := os.Stat(source); source == "" || err != nil {
				source = "(defaults)"
			}
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Setting"}, {title: "Value"}},
				[][]string{
					{"Config", source},
					{"Variant", cfg.Session.Variant},
					{"Annotator", cfg.Session.Annotator},
					{"Dataset root", cfg.Paths.DatasetRoot},
					{"Output", cfg.Paths.OutputFile},
					{"Journal", cfg.JournalPath()},
					{"Log", cfg.LogPath()},
					{"Parquet companion", yesNo(cfg.Export.Parquet)},
					{"YAML summary", yesNo(cfg.Export.YAMLSummary)},
					{"Banner seconds", strconv.Itoa(cfg.Session.BannerSeconds)},
				},
				nil,
			))

			results := preflight.RunAll(cfg)
			renderPreflight(out, results, shouldColorize(out))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New("configuration loaded but some paths are not usable")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
