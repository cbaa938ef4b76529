package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"labeller/internal/catalog"
	"labeller/internal/export"
	"labeller/internal/imageprobe"
	"labeller/internal/labelstore"
	"labeller/internal/logging"
	"labeller/internal/session"
	"labeller/internal/taxonomy"
)

// Exporter serialises a snapshot of the session.
type Exporter interface {
	Write(ctx context.Context, snap export.Snapshot) error
}

// FileLister is implemented by exporters that report what they wrote.
type FileLister interface {
	Files() []string
}

// Recorder mirrors label mutations to durable storage.
type Recorder interface {
	RecordLabel(ctx context.Context, sessionID string, rec labelstore.Record) error
	DeleteLabel(ctx context.Context, sessionID, key string) error
	FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error
}

// Prober reads the header of an image file.
type Prober func(path string) (imageprobe.Info, error)

// Config wires an Engine.
type Config struct {
	Catalog  []catalog.ImageRecord
	Store    *labelstore.Store
	Session  *session.Session
	Exporter Exporter
	// Recorder is optional.
	Recorder Recorder
	// Prober defaults to imageprobe.Probe.
	Prober Prober
	Logger *slog.Logger
	// Start is the first position shown.
	Start int
}

// Engine drives one review session: it owns the cursor, the grading form and
// the session timer, and mutates the label store in response to presentation
// events. All methods are safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	images    []catalog.ImageRecord
	variant   *taxonomy.Variant
	store     *labelstore.Store
	sess      *session.Session
	cursor    *Cursor
	form      *taxonomy.Form
	exporter  Exporter
	recorder  Recorder
	prober    Prober
	logger    *slog.Logger
	listeners []Listener
	lastCase  string
	closed    bool
	probed    probeResult
}

type probeResult struct {
	key  string
	info imageprobe.Info
	err  error
}

// NewEngine validates cfg and shows the start position.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Catalog) == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	if cfg.Store == nil {
		return nil, errors.New("review: label store is required")
	}
	if cfg.Session == nil {
		return nil, errors.New("review: session is required")
	}
	if cfg.Exporter == nil {
		return nil, errors.New("review: exporter is required")
	}
	prober := cfg.Prober
	if prober == nil {
		prober = imageprobe.Probe
	}
	e := &Engine{
		images:   cfg.Catalog,
		variant:  cfg.Store.Variant(),
		store:    cfg.Store,
		sess:     cfg.Session,
		cursor:   NewCursor(len(cfg.Catalog), cfg.Start),
		form:     taxonomy.NewForm(cfg.Store.Variant()),
		exporter: cfg.Exporter,
		recorder: cfg.Recorder,
		prober:   prober,
		logger:   logging.NewComponentLogger(cfg.Logger, "review"),
	}
	e.enter()
	return e, nil
}

// FirstUnlabelled returns the first catalog position without a label, or 0
// when every image is labelled.
func FirstUnlabelled(images []catalog.ImageRecord, store *labelstore.Store) int {
	for i, img := range images {
		if !store.Has(img.Key) {
			return i
		}
	}
	return 0
}

// On registers a listener.
func (e *Engine) On(l Listener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Variant returns the taxonomy the engine labels with.
func (e *Engine) Variant() *taxonomy.Variant { return e.variant }

// Session returns the session context.
func (e *Engine) Session() *session.Session { return e.sess }

// Closed reports whether the session has been finished successfully.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// SelectCategory chooses the category for the current image.
func (e *Engine) SelectCategory(c taxonomy.Category) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reviewing(); err != nil {
		return err
	}
	return e.form.SelectCategory(c)
}

// SelectGradingComponent records one grading tier value.
func (e *Engine) SelectGradingComponent(tier taxonomy.Tier, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reviewing(); err != nil {
		return err
	}
	return e.form.SelectGradingComponent(tier, value)
}

// MarkUngradable selects the Ungradable outcome for the chosen category.
func (e *Engine) MarkUngradable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reviewing(); err != nil {
		return err
	}
	return e.form.MarkUngradable()
}

// SubmitLabel stores the form selections with comment and advances. When the
// last image is labelled the session is finished, which runs the final
// export; an export failure is returned with the label already stored.
func (e *Engine) SubmitLabel(ctx context.Context, comment string) error {
	e.mu.Lock()
	var events []Event
	err := e.submit(ctx, comment, &events)
	e.mu.Unlock()
	e.dispatch(events)
	return err
}

func (e *Engine) submit(ctx context.Context, comment string, events *[]Event) error {
	if err := e.reviewing(); err != nil {
		return err
	}
	label, err := e.form.Build(comment)
	if err != nil {
		return err
	}
	img := e.current()
	rec, err := e.store.Upsert(img, label, e.sess.Timer().Elapsed(img.Key))
	if err != nil {
		return err
	}
	e.logger.Info("label saved",
		logging.String(logging.FieldImageKey, img.Key),
		logging.Int(logging.FieldPosition, img.Position),
		logging.String(logging.FieldCaseID, img.CaseID),
		logging.String(logging.FieldCategory, string(rec.Category)),
		logging.String("subtype", taxonomy.SubtypeOrNone(rec.Subtype).String()),
		logging.Duration("time_spent", rec.TimeSpent),
	)
	*events = append(*events, Event{
		Kind:     EventLabelSaved,
		Position: img.Position,
		Key:      img.Key,
		CaseID:   img.CaseID,
		Message:  fmt.Sprintf("Saved %s for %s", describeLabel(rec), img.Filename),
	})
	if err := e.recordLabel(ctx, rec); err != nil {
		*events = append(*events, e.warning(img, "journal write failed", err))
	}

	if err := e.cursor.Advance(); err != nil {
		return err
	}
	if e.cursor.Finished() {
		e.sess.Timer().Stop()
		if err := e.finish(ctx, events); err != nil {
			return fmt.Errorf("final export: %w", err)
		}
		return nil
	}
	e.enterWith(events)
	return nil
}

// Skip moves to the next image without labelling.
func (e *Engine) Skip() error {
	return e.navigate(e.cursor.Skip)
}

// StepBack returns to the previously shown image.
func (e *Engine) StepBack() error {
	return e.navigate(e.cursor.StepBack)
}

// JumpTo shows the image at position p.
func (e *Engine) JumpTo(p int) error {
	return e.navigate(func() error { return e.cursor.JumpTo(p) })
}

func (e *Engine) navigate(move func() error) error {
	e.mu.Lock()
	var events []Event
	err := e.reviewing()
	if err == nil {
		before := e.cursor.Position()
		if err = move(); err == nil && e.cursor.Position() != before {
			e.enterWith(&events)
		}
	}
	e.mu.Unlock()
	e.dispatch(events)
	return err
}

// ClearCurrent deletes the label of the current image so it can be relabelled.
func (e *Engine) ClearCurrent(ctx context.Context) error {
	e.mu.Lock()
	var events []Event
	err := e.clear(ctx, &events)
	e.mu.Unlock()
	e.dispatch(events)
	return err
}

func (e *Engine) clear(ctx context.Context, events *[]Event) error {
	if err := e.reviewing(); err != nil {
		return err
	}
	img := e.current()
	if err := e.store.Delete(img.Key); err != nil {
		return err
	}
	e.form.Reset()
	e.logger.Info("label cleared",
		logging.String(logging.FieldImageKey, img.Key),
		logging.Int(logging.FieldPosition, img.Position),
	)
	*events = append(*events, Event{
		Kind:     EventLabelCleared,
		Position: img.Position,
		Key:      img.Key,
		CaseID:   img.CaseID,
		Message:  "Label cleared for " + img.Filename,
	})
	if e.recorder != nil {
		if err := e.recorder.DeleteLabel(ctx, e.sess.ID(), img.Key); err != nil {
			*events = append(*events, e.warning(img, "journal delete failed", err))
		}
	}
	return nil
}

// SaveProgress writes a partial export of the labels so far.
func (e *Engine) SaveProgress(ctx context.Context) error {
	e.mu.Lock()
	var events []Event
	err := e.saveProgress(ctx, &events)
	e.mu.Unlock()
	e.dispatch(events)
	return err
}

func (e *Engine) saveProgress(ctx context.Context, events *[]Event) error {
	if e.closed {
		return ErrFinished
	}
	if e.store.Len() == 0 {
		return ErrNothingToSave
	}
	if err := e.exporter.Write(ctx, e.snapshot(true, time.Time{})); err != nil {
		logging.ErrorWithContext(e.logger, "progress save failed", "progress_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the output directory is writable"),
		)
		return err
	}
	*events = append(*events, Event{
		Kind:     EventProgressSaved,
		Position: e.cursor.Position(),
		Message:  fmt.Sprintf("Progress saved: %d labels", e.store.Len()),
		Files:    e.files(),
	})
	return nil
}

// Finish runs the final export and closes the session. It may be called at
// any time; after an export failure it can be retried.
func (e *Engine) Finish(ctx context.Context) error {
	e.mu.Lock()
	var events []Event
	if e.closed {
		e.mu.Unlock()
		return ErrFinished
	}
	e.sess.Timer().Stop()
	err := e.finish(ctx, &events)
	if err != nil && !e.cursor.Finished() {
		e.sess.Timer().Enter(e.current().Key)
	}
	e.mu.Unlock()
	e.dispatch(events)
	return err
}

func (e *Engine) finish(ctx context.Context, events *[]Event) error {
	end := e.sess.Now()
	if e.store.Len() == 0 {
		e.close(ctx, end)
		*events = append(*events, Event{
			Kind:     EventFinished,
			Position: e.cursor.Position(),
			Message:  "No labels were saved",
		})
		return nil
	}
	if err := e.exporter.Write(ctx, e.snapshot(false, end)); err != nil {
		logging.ErrorWithContext(e.logger, "final export failed", "final_export_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the output location and finish again"),
		)
		return err
	}
	e.close(ctx, end)
	*events = append(*events, Event{
		Kind:     EventFinished,
		Position: e.cursor.Position(),
		Message:  fmt.Sprintf("Labelling complete: %d labels saved", e.store.Len()),
		Files:    e.files(),
	})
	return nil
}

func (e *Engine) close(ctx context.Context, end time.Time) {
	e.sess.End(end)
	e.closed = true
	e.logger.Info("session finished",
		logging.String(logging.FieldSessionID, e.sess.ID()),
		logging.Int("labels", e.store.Len()),
		logging.Int("total_images", len(e.images)),
	)
	if e.recorder == nil {
		return
	}
	if err := e.recorder.FinishSession(ctx, e.sess.ID(), end); err != nil {
		logging.WarnWithContext(e.logger, "journal finish failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "session may be offered for resume"),
		)
	}
}

func (e *Engine) snapshot(partial bool, end time.Time) export.Snapshot {
	now := e.sess.Now()
	return export.Snapshot{
		Variant:     e.variant,
		Records:     e.store.Records(),
		Session:     e.sess.Snapshot(now, end),
		Partial:     partial,
		GeneratedAt: now,
	}
}

func (e *Engine) files() []string {
	if fl, ok := e.exporter.(FileLister); ok {
		return fl.Files()
	}
	return nil
}

func (e *Engine) recordLabel(ctx context.Context, rec labelstore.Record) error {
	if e.recorder == nil {
		return nil
	}
	return e.recorder.RecordLabel(ctx, e.sess.ID(), rec)
}

func (e *Engine) warning(img catalog.ImageRecord, msg string, err error) Event {
	logging.WarnWithContext(e.logger, msg, "journal_write_failed",
		logging.Error(err),
		logging.String(logging.FieldImageKey, img.Key),
		logging.String(logging.FieldImpact, "label kept in memory but may be lost on crash"),
	)
	return Event{
		Kind:     EventWarning,
		Position: img.Position,
		Key:      img.Key,
		CaseID:   img.CaseID,
		Message:  msg,
		Err:      err,
	}
}

// reviewing reports ErrFinished once the session is closed or the catalog
// is exhausted.
func (e *Engine) reviewing() error {
	if e.closed || e.cursor.Finished() {
		return ErrFinished
	}
	return nil
}

func (e *Engine) current() catalog.ImageRecord {
	return e.images[e.cursor.Position()]
}

func (e *Engine) enter() {
	var discard []Event
	e.enterWith(&discard)
}

// enterWith shows the cursor position: the timer switches to its key, the
// form is pre-filled from any existing label and a case change is noted.
func (e *Engine) enterWith(events *[]Event) {
	img := e.current()
	e.sess.Timer().Enter(img.Key)
	if rec, ok := e.store.Get(img.Key); ok {
		e.form.Load(rec.Label())
	} else {
		e.form.Reset()
	}
	if e.lastCase != "" && img.CaseID != e.lastCase {
		*events = append(*events, Event{
			Kind:           EventCaseChanged,
			Position:       img.Position,
			Key:            img.Key,
			CaseID:         img.CaseID,
			PreviousCaseID: e.lastCase,
			Message:        "Now reviewing case " + img.CaseID,
		})
	}
	e.lastCase = img.CaseID
	*events = append(*events, Event{
		Kind:     EventNavigated,
		Position: img.Position,
		Key:      img.Key,
		CaseID:   img.CaseID,
	})
}

func (e *Engine) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	e.mu.Lock()
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()
	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

func describeLabel(rec labelstore.Record) string {
	sub := taxonomy.SubtypeOrNone(rec.Subtype).String()
	if sub == "" {
		return string(rec.Category)
	}
	return string(rec.Category) + " (" + sub + ")"
}
