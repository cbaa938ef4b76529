package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"labeller/internal/catalog"
	"labeller/internal/config"
	"labeller/internal/export"
	"labeller/internal/journal"
	"labeller/internal/labelstore"
	"labeller/internal/logging"
	"labeller/internal/preflight"
	"labeller/internal/review"
	"labeller/internal/session"
	"labeller/internal/taxonomy"
)

func newLabelCommand(ctx *commandContext) *cobra.Command {
	var overrides sessionOverrides
	var fresh bool
	var parquet bool
	var yamlSummary bool

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Start or resume an interactive labelling session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.resolve(overrides)
			if err != nil {
				return err
			}
			if fresh {
				cfg.Session.Resume = false
			}
			if parquet {
				cfg.Export.Parquet = true
			}
			if yamlSummary {
				cfg.Export.YAMLSummary = true
			}
			return runLabelSession(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	overrides.register(cmd)
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Start a new session even if an unfinished one exists")
	cmd.Flags().BoolVar(&parquet, "parquet", false, "Also write a Parquet copy of the table")
	cmd.Flags().BoolVar(&yamlSummary, "yaml", false, "Also write a YAML summary")
	return cmd
}

func runLabelSession(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	colorize := shouldColorize(out)

	results := preflight.RunAll(cfg)
	if failed := preflight.Failed(results); len(failed) > 0 {
		renderPreflight(out, failed, colorize)
		return errors.New("preflight checks failed")
	}

	variant, err := taxonomy.ForName(cfg.Session.Variant)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = closeLog() }()

	if err := export.CheckDestination(cfg.Paths.OutputFile); err != nil {
		return err
	}
	lock, err := export.LockDestination(cfg.Paths.OutputFile)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	images, err := buildCatalog(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyCatalog) {
			return fmt.Errorf("%w; check the dataset root and variant", err)
		}
		return err
	}

	jr, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return err
	}
	defer jr.Close()

	sess, store, resumed, err := openSession(ctx, cfg, variant, images, jr, logger)
	if err != nil {
		return err
	}
	logger = logger.With(logging.String(logging.FieldSessionID, sess.ID()))

	summary := catalog.Summarize(images)
	for _, line := range renderSectionHeader(variant.Title, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Annotator: %s\n", sess.Annotator())
	fmt.Fprintf(out, "Dataset: %s\n", cfg.Paths.DatasetRoot)
	fmt.Fprintf(out, "Found %d images across %d cases\n", summary.Images, summary.Cases)
	fmt.Fprintf(out, "Output: %s\n", cfg.Paths.OutputFile)
	if resumed {
		fmt.Fprintf(out, "Resuming session %s with %d labels\n", sess.ID(), store.Len())
	}

	writer := export.NewWriter(cfg.Paths.OutputFile, export.Options{
		Parquet:     cfg.Export.Parquet,
		YAMLSummary: cfg.Export.YAMLSummary,
		Resumed:     resumed,
		Logger:      logger,
	})
	engine, err := review.NewEngine(review.Config{
		Catalog:  images,
		Store:    store,
		Session:  sess,
		Exporter: writer,
		Recorder: jr,
		Logger:   logger,
		Start:    review.FirstUnlabelled(images, store),
	})
	if err != nil {
		return err
	}

	p := newPresenter(engine, in, out, colorize, time.Duration(cfg.Session.BannerSeconds)*time.Second)
	return p.run(ctx)
}

// openSession resumes the newest unfinished journalled session for the same
// output, variant and dataset, or begins a new one.
func openSession(
	ctx context.Context,
	cfg *config.Config,
	variant *taxonomy.Variant,
	images []catalog.ImageRecord,
	jr *journal.Store,
	logger *slog.Logger,
) (*session.Session, *labelstore.Store, bool, error) {
	store := labelstore.New(variant)

	if cfg.Session.Resume {
		info, err := jr.FindResumable(ctx, cfg.Paths.OutputFile, variant.Name, cfg.Paths.DatasetRoot)
		if err != nil {
			return nil, nil, false, err
		}
		if info != nil {
			sess, err := restoreSession(ctx, info, variant, images, store, jr, logger)
			if err != nil {
				return nil, nil, false, err
			}
			return sess, store, true, nil
		}
	}

	sess := session.New(cfg.Session.Annotator, len(images))
	err := jr.BeginSession(ctx, journal.SessionInfo{
		ID:          sess.ID(),
		Annotator:   sess.Annotator(),
		Variant:     variant.Name,
		DatasetRoot: cfg.Paths.DatasetRoot,
		OutputFile:  cfg.Paths.OutputFile,
		TotalImages: len(images),
		StartedAt:   sess.StartedAt(),
	})
	if err != nil {
		return nil, nil, false, err
	}
	logger.Info("session started",
		logging.String(logging.FieldSessionID, sess.ID()),
		logging.String("annotator", sess.Annotator()),
		logging.String("variant", variant.Name),
		logging.Int("total_images", len(images)),
	)
	return sess, store, false, nil
}

func restoreSession(
	ctx context.Context,
	info *journal.SessionInfo,
	variant *taxonomy.Variant,
	images []catalog.ImageRecord,
	store *labelstore.Store,
	jr *journal.Store,
	logger *slog.Logger,
) (*session.Session, error) {
	records, err := jr.Labels(ctx, info.ID, variant)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]catalog.ImageRecord, len(images))
	for _, img := range images {
		byKey[img.Key] = img
	}

	sess := session.New(info.Annotator, len(images),
		session.WithID(info.ID),
		session.WithStartedAt(info.StartedAt),
	)
	dropped := 0
	moved := make(map[string]int)
	for _, rec := range records {
		img, ok := byKey[rec.Key()]
		if !ok {
			if err := jr.DeleteLabel(ctx, info.ID, rec.Key()); err != nil {
				return nil, err
			}
			dropped++
			continue
		}
		if rec.Image.Position != img.Position {
			moved[img.Key] = img.Position
		}
		rec.Image = img
		if err := store.Restore(rec); err != nil {
			return nil, fmt.Errorf("restore label %s: %w", rec.Key(), err)
		}
		sess.Timer().Seed(rec.Key(), rec.TimeSpent)
	}
	if dropped > 0 {
		logging.WarnWithContext(logger, "journalled labels no longer in catalog", "resume_labels_dropped",
			logging.Int("dropped", dropped),
			logging.String(logging.FieldImpact, "labels for missing images are not exported"),
		)
	}
	if err := jr.Reposition(ctx, info.ID, moved); err != nil {
		return nil, err
	}
	if info.TotalImages != len(images) {
		if err := jr.UpdateTotal(ctx, info.ID, len(images)); err != nil {
			return nil, err
		}
	}
	logger.Info("session resumed",
		logging.String(logging.FieldSessionID, info.ID),
		logging.Int("labels", store.Len()),
		logging.Int("total_images", len(images)),
	)
	return sess, nil
}
