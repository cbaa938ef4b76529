package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"labeller/internal/catalog"
	"labeller/internal/export"
	"labeller/internal/journal"
	"labeller/internal/labelstore"
	"labeller/internal/session"
	"labeller/internal/taxonomy"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var sessionID string
	var output string
	var parquet bool
	var yamlSummary bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-export a journalled session to its table and summary",
		Long: `Rebuilds the label table and summary of a journalled session.

Without --session the most recent session that wrote to the configured
output table is exported. Unfinished sessions are exported as partial saves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.resolve(sessionOverrides{})
			if err != nil {
				return err
			}
			target := ""
			if strings.TrimSpace(output) != "" {
				redirected, err := ctx.resolve(sessionOverrides{output: output})
				if err != nil {
					return err
				}
				target = redirected.Paths.OutputFile
			}
			return ctx.withJournal(func(jr *journal.Store) error {
				info, err := pickSession(cmd, jr, sessionID, cfg.Paths.OutputFile)
				if err != nil {
					return err
				}
				variant, err := taxonomy.ForName(info.Variant)
				if err != nil {
					return err
				}
				records, err := jr.Labels(cmd.Context(), info.ID, variant)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return fmt.Errorf("session %s has no labels to export", info.ID)
				}

				if target == "" {
					target = info.OutputFile
				}
				if err := export.CheckDestination(target); err != nil {
					return err
				}
				lock, err := export.LockDestination(target)
				if err != nil {
					return err
				}
				defer func() { _ = lock.Release() }()

				writer := export.NewWriter(target, export.Options{
					Parquet:     parquet || cfg.Export.Parquet,
					YAMLSummary: yamlSummary || cfg.Export.YAMLSummary,
					Resumed:     target == info.OutputFile,
				})
				if err := writer.Write(cmd.Context(), journalSnapshot(info, variant, records)); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Exported %d labels from session %s\n", len(records), info.ID)
				for _, f := range writer.Files() {
					fmt.Fprintf(out, "  %s\n", f)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to export (default: latest for the output table)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this table instead of the session's own")
	cmd.Flags().BoolVar(&parquet, "parquet", false, "Also write a Parquet copy of the table")
	cmd.Flags().BoolVar(&yamlSummary, "yaml", false, "Also write a YAML summary")
	return cmd
}

func pickSession(cmd *cobra.Command, jr *journal.Store, id, output string) (*journal.SessionInfo, error) {
	if strings.TrimSpace(id) != "" {
		return jr.Session(cmd.Context(), strings.TrimSpace(id))
	}
	sessions, err := jr.ListSessions(cmd.Context())
	if err != nil {
		return nil, err
	}
	// Newest first; a session that never saved a label has nothing to export.
	for i := range sessions {
		if sessions[i].OutputFile == output && sessions[i].Labels > 0 {
			return &sessions[i], nil
		}
	}
	return nil, errors.New("no journalled session with labels writes to " + output + " (pass --session)")
}

// journalSnapshot rebuilds an export snapshot from journal rows. Active time
// is the sum of per-image durations since the live timer is gone.
func journalSnapshot(info *journal.SessionInfo, variant *taxonomy.Variant, records []labelstore.Record) export.Snapshot {
	now := time.Now()
	stop := now
	if info.Finished() {
		stop = info.EndedAt
	}
	// Positions are those recorded at save time; order by catalog identity so
	// a journal spanning a changed dataset still exports in catalog order.
	records = slices.Clone(records)
	slices.SortStableFunc(records, func(a, b labelstore.Record) int {
		return catalog.Compare(a.Image, b.Image)
	})
	var active time.Duration
	for _, rec := range records {
		active += rec.TimeSpent
	}
	return export.Snapshot{
		Variant: variant,
		Records: records,
		Session: session.Snapshot{
			ID:          info.ID,
			Annotator:   info.Annotator,
			StartedAt:   info.StartedAt,
			EndedAt:     info.EndedAt,
			TotalImages: info.TotalImages,
			Duration:    max(stop.Sub(info.StartedAt), 0),
			ActiveTime:  active,
		},
		Partial:     !info.Finished(),
		GeneratedAt: now,
	}
}
