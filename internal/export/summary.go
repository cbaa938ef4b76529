package export

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"labeller/internal/labelstore"
	"labeller/internal/session"
	"labeller/internal/taxonomy"
	"labeller/internal/textutil"
)

// Snapshot is everything an export needs, captured at call time.
type Snapshot struct {
	Variant *taxonomy.Variant
	// Records must be in catalog order.
	Records     []labelstore.Record
	Session     session.Snapshot
	Partial     bool
	GeneratedAt time.Time
}

// Summary is the derived session report.
type Summary struct {
	Title           string          `yaml:"title"`
	Variant         string          `yaml:"variant"`
	Status          string          `yaml:"status"`
	SessionID       string          `yaml:"session_id"`
	Annotator       string          `yaml:"annotator"`
	StartedAt       string          `yaml:"started_at"`
	EndedAt         string          `yaml:"ended_at,omitempty"`
	Duration        string          `yaml:"duration"`
	DurationMinutes float64         `yaml:"duration_minutes"`
	OutputFile      string          `yaml:"output_file"`
	Progress        Progress        `yaml:"progress"`
	Timing          *TimingSummary  `yaml:"timing,omitempty"`
	Distribution    []CategoryCount `yaml:"distribution"`
	Ungradable      int             `yaml:"ungradable,omitempty"`
	Cases           []GroupCounts   `yaml:"cases"`
	BodySites       []GroupCounts   `yaml:"body_sites,omitempty"`
	Comments        []CommentGroup  `yaml:"comments,omitempty"`
	Productivity    *Productivity   `yaml:"productivity,omitempty"`
	GeneratedAt     string          `yaml:"generated_at"`

	categories []taxonomy.Category
	grouped    bool
}

type Progress struct {
	TotalImages   int     `yaml:"total_images"`
	Labelled      int     `yaml:"labelled"`
	Remaining     int     `yaml:"remaining"`
	CompletionPct float64 `yaml:"completion_pct"`
	UniqueCases   int     `yaml:"unique_cases"`
}

type TimingSummary struct {
	Timing                    `yaml:",inline"`
	ActiveTime                string `yaml:"active_time"`
	EstimatedRemainingMinutes int    `yaml:"estimated_remaining_minutes"`
}

type CategoryCount struct {
	Category string  `yaml:"category"`
	Count    int     `yaml:"count"`
	Percent  float64 `yaml:"percent"`
}

// GroupCounts is one row of a per-case or per-body-site breakdown.
type GroupCounts struct {
	Name   string         `yaml:"name"`
	Total  int            `yaml:"total"`
	Counts map[string]int `yaml:"counts"`
}

type CommentGroup struct {
	Category string         `yaml:"category"`
	Entries  []CommentEntry `yaml:"entries"`
}

type CommentEntry struct {
	Case    string `yaml:"case"`
	Visit   string `yaml:"visit"`
	Group   string `yaml:"group,omitempty"`
	File    string `yaml:"file"`
	Comment string `yaml:"comment"`
}

type Productivity struct {
	ImagesPerHour   float64  `yaml:"images_per_hour"`
	ImagesPerMinute float64  `yaml:"images_per_minute"`
	EfficiencyPct   *float64 `yaml:"efficiency_pct,omitempty"`
}

// BuildSummary derives the report from the snapshot alone.
func BuildSummary(snap Snapshot, outputFile string) Summary {
	v := snap.Variant
	sess := snap.Session
	records := snap.Records
	labelled := len(records)

	sum := Summary{
		Title:           v.Title,
		Variant:         v.Name,
		Status:          "COMPLETED",
		SessionID:       sess.ID,
		Annotator:       sess.Annotator,
		StartedAt:       formatTime(sess.StartedAt),
		Duration:        session.FormatDuration(sess.Duration),
		DurationMinutes: round1(sess.Duration.Minutes()),
		OutputFile:      outputFile,
		GeneratedAt:     formatTime(snap.GeneratedAt),
		categories:      v.Categories(),
		grouped:         v.Grouped(),
	}
	if snap.Partial {
		sum.Status = "IN PROGRESS (Partial Save)"
	}
	if !snap.Partial && !sess.EndedAt.IsZero() {
		sum.EndedAt = formatTime(sess.EndedAt)
	}

	cases := make(map[string]struct{})
	for _, rec := range records {
		cases[rec.Image.CaseID] = struct{}{}
	}
	sum.Progress = Progress{
		TotalImages: sess.TotalImages,
		Labelled:    labelled,
		Remaining:   max(sess.TotalImages-labelled, 0),
		UniqueCases: len(cases),
	}
	if sess.TotalImages > 0 {
		sum.Progress.CompletionPct = percent(labelled, sess.TotalImages)
	}

	timing, ok := timingOf(records)
	if ok {
		active := time.Duration(timing.Total * float64(time.Second))
		sum.Timing = &TimingSummary{
			Timing:                    timing,
			ActiveTime:                session.FormatDuration(active),
			EstimatedRemainingMinutes: int(float64(sum.Progress.Remaining) * timing.Mean / 60),
		}
		if sess.Duration > 0 {
			hours := sess.Duration.Hours()
			p := &Productivity{
				ImagesPerHour:   float64(labelled) / hours,
				ImagesPerMinute: float64(labelled) / hours / 60,
			}
			if !snap.Partial {
				eff := timing.Total / sess.Duration.Seconds() * 100
				p.EfficiencyPct = &eff
			}
			sum.Productivity = p
		}
	}

	counts := make(map[taxonomy.Category]int)
	for _, rec := range records {
		counts[rec.Category]++
		if taxonomy.SubtypeOrNone(rec.Subtype).Kind() == taxonomy.KindUngradable {
			sum.Ungradable++
		}
	}
	for _, c := range v.Categories() {
		sum.Distribution = append(sum.Distribution, CategoryCount{
			Category: string(c),
			Count:    counts[c],
			Percent:  percent(counts[c], labelled),
		})
	}

	sum.Cases = groupCounts(records, labelstore.ByCase)
	if v.Grouped() {
		sum.BodySites = groupCounts(records, labelstore.ByBodySite)
	}
	sum.Comments = commentGroups(v, records)
	return sum
}

func groupCounts(records []labelstore.Record, groupFn func(labelstore.Record) string) []GroupCounts {
	index := make(map[string]int)
	var out []GroupCounts
	for _, rec := range records {
		name := groupFn(rec)
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, GroupCounts{Name: name, Counts: make(map[string]int)})
		}
		out[i].Total++
		out[i].Counts[string(rec.Category)]++
	}
	slices.SortFunc(out, func(a, b GroupCounts) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func commentGroups(v *taxonomy.Variant, records []labelstore.Record) []CommentGroup {
	ungradableName := taxonomy.Ungradable{}.String()
	var out []CommentGroup
	for _, name := range v.CommentCategories() {
		group := CommentGroup{Category: name}
		for _, rec := range records {
			if strings.TrimSpace(rec.Comment) == "" {
				continue
			}
			ungradable := taxonomy.SubtypeOrNone(rec.Subtype).Kind() == taxonomy.KindUngradable
			if string(rec.Category) != name && !(ungradable && name == ungradableName) {
				continue
			}
			group.Entries = append(group.Entries, CommentEntry{
				Case:    rec.Image.CaseID,
				Visit:   rec.Image.VisitID,
				Group:   rec.Image.GroupLabel(),
				File:    rec.Image.Filename,
				Comment: textutil.SingleLine(rec.Comment),
			})
		}
		if len(group.Entries) > 0 {
			out = append(out, group)
		}
	}
	return out
}

const ruleWidth = 70

// RenderText formats the summary as the plain-text report.
func (s Summary) RenderText() string {
	var b strings.Builder
	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)
	section := func(title string) {
		b.WriteString(title + "\n" + light + "\n")
	}
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("%s", heavy)
	line("%s%s", strings.Repeat(" ", max((ruleWidth-len(s.Title))/2, 0)), s.Title)
	line("%s", heavy)
	line("")

	section("SESSION INFORMATION")
	line("Status: %s", s.Status)
	line("Annotator: %s", s.Annotator)
	line("Session ID: %s", s.SessionID)
	line("Session Started: %s", s.StartedAt)
	if s.EndedAt != "" {
		line("Session Ended: %s", s.EndedAt)
	}
	line("Total Duration: %s (%.1f minutes)", s.Duration, s.DurationMinutes)
	line("Output File: %s", s.OutputFile)
	line("")

	section("PROGRESS STATISTICS")
	line("Total Images Available: %d", s.Progress.TotalImages)
	line("Images Labeled: %d", s.Progress.Labelled)
	line("Images Remaining: %d", s.Progress.Remaining)
	line("Completion Rate: %.1f%%", s.Progress.CompletionPct)
	line("Unique Cases Processed: %d", s.Progress.UniqueCases)
	line("")

	if s.Timing != nil {
		section("TIMING ANALYSIS")
		line("Average Time per Image: %.2f seconds", s.Timing.Mean)
		line("Fastest Image: %.2f seconds", s.Timing.Min)
		line("Slowest Image: %.2f seconds", s.Timing.Max)
		line("Median Time: %.2f seconds", s.Timing.Median)
		line("90th Percentile: %.2f seconds", s.Timing.P90)
		line("Total Active Labeling Time: %s", s.Timing.ActiveTime)
		line("Estimated Time Remaining: %d minutes", s.Timing.EstimatedRemainingMinutes)
		line("")
	}

	section("LABEL DISTRIBUTION")
	for _, c := range s.Distribution {
		line("%s: %d (%.1f%%)", c.Category, c.Count, c.Percent)
	}
	if s.grouped {
		line("Ungradable (any diagnosis): %d", s.Ungradable)
	}
	line("%s", light)
	line("Total: %d", s.Progress.Labelled)
	line("")

	if len(s.Cases) > 0 {
		section("PER-CASE STATISTICS")
		line("%s", s.groupTable("Case ID", s.Cases))
		line("")
	}
	if len(s.BodySites) > 0 {
		section("PER-BODY-SITE STATISTICS")
		line("%s", s.groupTable("Body Site", s.BodySites))
		line("")
	}

	for _, group := range s.Comments {
		section(strings.ToUpper(group.Category) + " COMMENTS SUMMARY")
		for _, e := range group.Entries {
			line("Case: %s | Visit: %s", e.Case, e.Visit)
			if e.Group != "" {
				line("  Site: %s", e.Group)
			}
			line("  File: %s", e.File)
			line("  Comment: %s", e.Comment)
			line("%s", light)
		}
		line("")
	}

	if s.Productivity != nil {
		section("PRODUCTIVITY METRICS")
		line("Images per Hour: %.1f", s.Productivity.ImagesPerHour)
		line("Images per Minute: %.2f", s.Productivity.ImagesPerMinute)
		if s.Productivity.EfficiencyPct != nil {
			line("Session Efficiency: %.1f%% (active labeling time)", *s.Productivity.EfficiencyPct)
		}
		line("")
	}

	line("%s", heavy)
	line("Report Generated: %s", s.GeneratedAt)
	line("%s", heavy)
	return b.String()
}

func (s Summary) groupTable(label string, groups []GroupCounts) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{label, "Total"}
	for _, c := range s.categories {
		header = append(header, string(c))
	}
	tw.AppendHeader(header)
	for _, g := range groups {
		row := table.Row{g.Name, strconv.Itoa(g.Total)}
		for _, c := range s.categories {
			row = append(row, strconv.Itoa(g.Counts[string(c)]))
		}
		tw.AppendRow(row)
	}
	configs := make([]table.ColumnConfig, 0, len(header))
	for i := range header {
		align := text.AlignRight
		if i == 0 {
			align = text.AlignLeft
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
