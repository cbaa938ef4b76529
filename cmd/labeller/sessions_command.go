package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"labeller/internal/journal"
	"labeller/internal/textutil"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List journalled labelling sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(jr *journal.Store) error {
				sessions, err := jr.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions recorded")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						s.ID,
						s.Annotator,
						s.Variant,
						s.StartedAt.Format(time.DateTime),
						sessionStatus(s),
						fmt.Sprintf("%s/%s", strconv.Itoa(s.Labels), strconv.Itoa(s.TotalImages)),
						textutil.Truncate(s.OutputFile, 48),
					})
				}
				fmt.Fprintln(out, renderTable(sessionColumns, rows, nil))
				return nil
			})
		},
	}
}

var sessionColumns = []column{
	{title: "ID"},
	{title: "Annotator"},
	{title: "Variant"},
	{title: "Started"},
	{title: "Status"},
	{title: "Labels", numeric: true},
	{title: "Output"},
}

func sessionStatus(s journal.SessionInfo) string {
	if s.Finished() {
		return "finished " + s.EndedAt.Format(time.DateTime)
	}
	return "open"
}
