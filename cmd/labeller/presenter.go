package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"labeller/internal/review"
	"labeller/internal/session"
	"labeller/internal/taxonomy"
	"labeller/internal/textutil"
)

// commentPreview caps how much of a saved comment is echoed under the image.
const commentPreview = 60

// presenter is a line-oriented terminal front end for a review engine.
type presenter struct {
	engine   *review.Engine
	variant  *taxonomy.Variant
	in       *bufio.Scanner
	out      io.Writer
	colorize bool

	bannerFor   time.Duration
	banner      string
	bannerUntil time.Time
	now         func() time.Time
}

func newPresenter(engine *review.Engine, in io.Reader, out io.Writer, colorize bool, bannerFor time.Duration) *presenter {
	p := &presenter{
		engine:    engine,
		variant:   engine.Variant(),
		in:        bufio.NewScanner(in),
		out:       out,
		colorize:  colorize,
		bannerFor: bannerFor,
		now:       time.Now,
	}
	engine.On(p.onEvent)
	return p
}

func (p *presenter) onEvent(ev review.Event) {
	switch ev.Kind {
	case review.EventCaseChanged:
		p.banner = ev.Message
		p.bannerUntil = p.now().Add(p.bannerFor)
	case review.EventLabelSaved, review.EventLabelCleared:
		p.status(statusOK, ev.Message)
	case review.EventProgressSaved, review.EventFinished:
		p.status(statusOK, ev.Message)
		for _, f := range ev.Files {
			fmt.Fprintf(p.out, "    %s\n", f)
		}
	case review.EventWarning:
		p.status(statusWarn, fmt.Sprintf("%s: %v", ev.Message, ev.Err))
	}
}

func (p *presenter) status(kind statusKind, msg string) {
	fmt.Fprintln(p.out, renderNotice(kind, msg, p.colorize))
}

func (p *presenter) reportError(err error) {
	if review.Informational(err) {
		p.status(statusInfo, err.Error())
		return
	}
	p.status(errorStatus(err), err.Error())
}

// run processes commands until the session closes, the user quits, input
// ends or ctx is cancelled. Leaving early saves progress.
func (p *presenter) run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	lines, readErr := p.readLines(stop)

	for {
		if p.engine.Closed() {
			return nil
		}
		p.render(p.engine.Current())
		fmt.Fprint(p.out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.out)
			p.saveOnExit(context.WithoutCancel(ctx))
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(p.out)
				p.saveOnExit(ctx)
				return <-readErr
			}
			line = l
		}

		quit, err := p.handle(ctx, strings.TrimSpace(line))
		if err != nil {
			p.reportError(err)
		}
		if quit {
			return nil
		}
	}
}

// readLines scans input on its own goroutine so a blocked read never holds up
// cancellation. The goroutine stays parked in Scan until the next line or
// EOF; stop keeps it from delivering once run has returned.
func (p *presenter) readLines(stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		for p.in.Scan() {
			select {
			case lines <- p.in.Text():
			case <-stop:
				return
			}
		}
		errc <- p.in.Err()
	}()
	return lines, errc
}

func (p *presenter) saveOnExit(ctx context.Context) {
	if p.engine.Closed() {
		return
	}
	err := p.engine.SaveProgress(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(p.out, "Run `labeller label` again to resume this session.")
	case errors.Is(err, review.ErrNothingToSave):
		p.status(statusInfo, "No labels were saved")
	default:
		p.reportError(err)
	}
}

func (p *presenter) handle(ctx context.Context, line string) (bool, error) {
	if line == "" {
		return false, nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	if n, err := strconv.Atoi(cmd); err == nil {
		return false, p.selectCategory(n)
	}

	switch strings.ToLower(cmd) {
	case "ok", "s", "save":
		return false, p.engine.SubmitLabel(ctx, rest)
	case "g", "grade":
		return false, p.grade(rest)
	case "u", "ungradable":
		return false, p.engine.MarkUngradable()
	case "b", "back":
		return false, p.engine.StepBack()
	case "n", "next", "skip":
		return false, p.engine.Skip()
	case "j", "jump":
		pos, err := strconv.Atoi(rest)
		if err != nil {
			return false, fmt.Errorf("jump needs an image number, got %q", rest)
		}
		return false, p.engine.JumpTo(pos - 1)
	case "c", "clear":
		return false, p.engine.ClearCurrent(ctx)
	case "w", "write":
		return false, p.engine.SaveProgress(ctx)
	case "f", "finish":
		return false, p.engine.Finish(ctx)
	case "q", "quit":
		p.saveOnExit(ctx)
		return true, nil
	case "?", "h", "help":
		p.help()
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (type ? for help)", cmd)
	}
}

func (p *presenter) selectCategory(n int) error {
	categories := p.variant.Categories()
	if n < 1 || n > len(categories) {
		return fmt.Errorf("category number must be between 1 and %d", len(categories))
	}
	return p.engine.SelectCategory(categories[n-1])
}

// grade handles "g <tier> <value>" where tier and value are either names or
// 1-based numbers from the rendered menu.
func (p *presenter) grade(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return errors.New("usage: g <tier> <value>")
	}
	category := p.engine.Current().Category
	specs := p.variant.Tiers(category)
	if len(specs) == 0 {
		return fmt.Errorf("%q takes no grading", category)
	}
	spec, ok := pickTier(specs, fields[0])
	if !ok {
		return fmt.Errorf("unknown tier %q", fields[0])
	}
	value := fields[1]
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(spec.Values) {
		value = spec.Values[n-1]
	}
	return p.engine.SelectGradingComponent(spec.Tier, value)
}

func pickTier(specs []taxonomy.TierSpec, arg string) (taxonomy.TierSpec, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(specs) {
			return specs[n-1], true
		}
		return taxonomy.TierSpec{}, false
	}
	for _, spec := range specs {
		if strings.EqualFold(string(spec.Tier), arg) || strings.EqualFold(spec.Label, arg) {
			return spec, true
		}
	}
	return taxonomy.TierSpec{}, false
}

func (p *presenter) render(v review.View) {
	fmt.Fprintln(p.out)
	if v.Finished {
		p.status(statusWarn, "All images reviewed but the final export failed; type f to retry or q to quit")
		return
	}
	if p.banner != "" && p.now().Before(p.bannerUntil) {
		fmt.Fprintln(p.out, paint(">>> "+p.banner+" <<<", ansiYellow, p.colorize))
	}

	img := v.Image
	title := fmt.Sprintf("Image %d/%d  %s / %s", v.Position+1, v.Total, img.CaseID, img.VisitID)
	if group := img.GroupLabel(); group != "" {
		title += " / " + group
	}
	for _, line := range renderSectionHeader(title, p.colorize) {
		fmt.Fprintln(p.out, line)
	}
	fmt.Fprintf(p.out, "File: %s\n", img.Path)
	if placeholder := v.Placeholder(); placeholder != "" {
		fmt.Fprintln(p.out, placeholder)
	} else {
		fmt.Fprintf(p.out, "Image: %s\n", v.Probe)
	}
	fmt.Fprintf(p.out, "Progress: %d/%d labelled  Case: %d/%d  On screen: %s\n",
		v.Labelled, v.Total, v.CaseLabelled, v.CaseTotal, session.FormatDuration(v.OnScreen))
	if v.Existing != nil {
		existing := string(v.Existing.Category)
		if sub := taxonomy.SubtypeOrNone(v.Existing.Subtype).String(); sub != "" {
			existing += " (" + sub + ")"
		}
		if v.Existing.Comment != "" {
			existing += " - " + textutil.Truncate(textutil.SingleLine(v.Existing.Comment), commentPreview)
		}
		fmt.Fprintf(p.out, "Current label: %s\n", existing)
	}

	var menu []string
	for i, c := range p.variant.Categories() {
		menu = append(menu, fmt.Sprintf("%d) %s", i+1, c))
	}
	fmt.Fprintf(p.out, "Categories: %s\n", strings.Join(menu, "  "))
	if v.Category != "" {
		for i, spec := range p.variant.Tiers(v.Category) {
			values := make([]string, 0, len(spec.Values))
			for j, value := range spec.Values {
				values = append(values, fmt.Sprintf("%d) %s", j+1, value))
			}
			fmt.Fprintf(p.out, "  g %d  %s: %s\n", i+1, spec.Label, strings.Join(values, "  "))
		}
		if p.variant.AllowsUngradable(v.Category) {
			fmt.Fprintln(p.out, "  u    Ungradable (comment required)")
		}
	}
	fmt.Fprintln(p.out, v.Form)
}

func (p *presenter) help() {
	lines := []string{
		"<n>              select category n",
		"g <tier> <value> choose a grading value (numbers or names)",
		"u                mark Ungradable",
		"ok [comment]     save the label and move on",
		"n                next image without saving",
		"b                back to the previous image",
		"j <n>            jump to image n",
		"c                clear the label of this image",
		"w                save progress",
		"f                finish the session and export",
		"q                save progress and quit",
	}
	for _, line := range lines {
		fmt.Fprintln(p.out, "  "+line)
	}
}
