package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"labeller/internal/catalog"
	"labeller/internal/config"
	"labeller/internal/logging"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var overrides sessionOverrides

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Build the image catalog and report what would be labelled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.resolve(overrides)
			if err != nil {
				return err
			}
			images, err := buildCatalog(cmd.Context(), cfg, logging.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary := catalog.Summarize(images)
			fmt.Fprintf(out, "Dataset: %s (%s)\n", cfg.Paths.DatasetRoot, cfg.Session.Variant)
			fmt.Fprintf(out, "Images: %d  Cases: %d  Visits: %d", summary.Images, summary.Cases, summary.Visits)
			if summary.Groups > 0 {
				fmt.Fprintf(out, "  Groups: %d", summary.Groups)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Case"}, {title: "Visits", numeric: true}, {title: "Images", numeric: true}},
				caseRows(images),
				[]string{"Total", strconv.Itoa(summary.Visits), strconv.Itoa(summary.Images)},
			))
			return nil
		},
	}
	overrides.register(cmd)
	return cmd
}

func buildCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]catalog.ImageRecord, error) {
	if cfg.Paths.DatasetRoot == "" {
		return nil, errors.New("dataset root is not configured (set paths.dataset_root or pass --root)")
	}
	rec, err := catalog.RecognizerFor(cfg.Session.Variant, cfg.Catalog.ClinicalMarkers, cfg.Catalog.HistopathMarker)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return catalog.Build(ctx, cfg.Paths.DatasetRoot, rec, catalog.Options{
		Extensions: cfg.Catalog.Extensions,
		MaxDepth:   cfg.Catalog.MaxDepth,
		Logger:     logger,
	})
}

func caseRows(images []catalog.ImageRecord) [][]string {
	type counts struct {
		visits map[string]struct{}
		images int
	}
	var order []string
	byCase := make(map[string]*counts)
	for _, img := range images {
		c, ok := byCase[img.CaseID]
		if !ok {
			c = &counts{visits: make(map[string]struct{})}
			byCase[img.CaseID] = c
			order = append(order, img.CaseID)
		}
		c.visits[img.VisitID] = struct{}{}
		c.images++
	}
	rows := make([][]string, 0, len(order))
	for _, id := range order {
		c := byCase[id]
		rows = append(rows, []string{id, strconv.Itoa(len(c.visits)), strconv.Itoa(c.images)})
	}
	return rows
}
