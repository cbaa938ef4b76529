// Package session holds the explicit context of one labelling session: who
// is annotating, when the session started and ended, and how long each image
// has been on screen.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultAnnotator is used when no annotator name is supplied.
const DefaultAnnotator = "Anonymous"

// Option customises a Session.
type Option func(*Session)

// WithID resumes a session under an existing identifier.
func WithID(id string) Option {
	return func(s *Session) {
		if strings.TrimSpace(id) != "" {
			s.id = strings.TrimSpace(id)
		}
	}
}

// WithStartedAt restores the original start time of a resumed session.
func WithStartedAt(t time.Time) Option {
	return func(s *Session) {
		if !t.IsZero() {
			s.startedAt = t
		}
	}
}

// WithClock injects the clock used for timestamps and the timer.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is the context of one labelling session. The annotator is fixed at
// construction.
type Session struct {
	id          string
	annotator   string
	startedAt   time.Time
	endedAt     time.Time
	totalImages int
	now         func() time.Time
	timer       *Timer
}

// New starts a session for annotator over totalImages images.
func New(annotator string, totalImages int, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		annotator:   strings.TrimSpace(annotator),
		totalImages: max(totalImages, 0),
		now:         time.Now,
	}
	if s.annotator == "" {
		s.annotator = DefaultAnnotator
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.startedAt.IsZero() {
		s.startedAt = s.now()
	}
	s.timer = NewTimer(s.now)
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Annotator() string    { return s.annotator }
func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) TotalImages() int     { return s.totalImages }
func (s *Session) Timer() *Timer        { return s.timer }
func (s *Session) Now() time.Time       { return s.now() }

// EndedAt returns the end time once the session has been closed.
func (s *Session) EndedAt() (time.Time, bool) {
	return s.endedAt, !s.endedAt.IsZero()
}

// Closed reports whether End has been called.
func (s *Session) Closed() bool { return !s.endedAt.IsZero() }

// End stamps the end time. Later calls keep the first stamp.
func (s *Session) End(at time.Time) {
	if s.endedAt.IsZero() {
		s.endedAt = at
	}
}

// Snapshot is an immutable view of the session used by exporters.
type Snapshot struct {
	ID          string
	Annotator   string
	StartedAt   time.Time
	EndedAt     time.Time
	TotalImages int
	// Duration is wall time from start to end, or to now for partial views.
	Duration time.Duration
	// ActiveTime sums the time images were on screen.
	ActiveTime time.Duration
}

// Snapshot captures the session at the given time. When end is non-zero it is
// reported as the end time and used for the duration.
func (s *Session) Snapshot(at, end time.Time) Snapshot {
	stop := at
	if !end.IsZero() {
		stop = end
	}
	return Snapshot{
		ID:          s.id,
		Annotator:   s.annotator,
		StartedAt:   s.startedAt,
		EndedAt:     end,
		TotalImages: s.totalImages,
		Duration:    max(stop.Sub(s.startedAt), 0),
		ActiveTime:  s.timer.Total(),
	}
}

// FormatDuration renders d as "Xm Ys", truncating to whole seconds.
func FormatDuration(d time.Duration) string {
	d = max(d, 0)
	return fmt.Sprintf("%dm %ds", int(d/time.Minute), int(d%time.Minute/time.Second))
}
