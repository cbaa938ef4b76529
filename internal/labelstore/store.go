// Package labelstore holds the per-image label records of a review session.
//
// Records are keyed by catalog image key and replaced wholesale on upsert.
// Aggregates are computed from the current contents on every call.
package labelstore

import (
	"errors"
	"slices"
	"strings"
	"time"

	"labeller/internal/catalog"
	"labeller/internal/taxonomy"
)

// ValidationError is returned when a submission breaks a variant rule. The
// store is left unchanged.
type ValidationError = taxonomy.ValidationError

// ErrNothingToClear reports a delete for an image that has no label.
var ErrNothingToClear = errors.New("image has not been labelled yet")

// Record is the label for one image.
type Record struct {
	Image      catalog.ImageRecord
	Category   taxonomy.Category
	Subtype    taxonomy.Subtype
	Comment    string
	TimeSpent  time.Duration
	LabelledAt time.Time
}

// Key returns the image key the record belongs to.
func (r Record) Key() string { return r.Image.Key }

// Label returns the record's label fields.
func (r Record) Label() taxonomy.Label {
	return taxonomy.Label{Category: r.Category, Subtype: r.Subtype, Comment: r.Comment}
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp LabelledAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store maps image keys to label records. It is not safe for concurrent use;
// callers serialise access.
type Store struct {
	variant *taxonomy.Variant
	records map[string]Record
	now     func() time.Time
}

// New returns an empty store validating against variant.
func New(variant *taxonomy.Variant, opts ...Option) *Store {
	s := &Store{
		variant: variant,
		records: make(map[string]Record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Variant returns the taxonomy the store validates against.
func (s *Store) Variant() *taxonomy.Variant { return s.variant }

// Upsert validates label and replaces any prior record for img.
func (s *Store) Upsert(img catalog.ImageRecord, label taxonomy.Label, spent time.Duration) (Record, error) {
	rec := Record{
		Image:      img,
		Category:   label.Category,
		Subtype:    taxonomy.SubtypeOrNone(label.Subtype),
		Comment:    strings.TrimSpace(label.Comment),
		TimeSpent:  max(spent, 0),
		LabelledAt: s.now(),
	}
	if err := s.put(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Restore reinserts a previously persisted record, keeping its timestamps.
// The record is validated like a fresh submission.
func (s *Store) Restore(rec Record) error {
	rec.Subtype = taxonomy.SubtypeOrNone(rec.Subtype)
	rec.TimeSpent = max(rec.TimeSpent, 0)
	return s.put(rec)
}

func (s *Store) put(rec Record) error {
	if strings.TrimSpace(rec.Image.Key) == "" {
		return &ValidationError{Field: "key", Reason: "image key is empty", Err: taxonomy.ErrInvalidSelection}
	}
	if err := s.variant.Validate(rec.Label()); err != nil {
		return err
	}
	s.records[rec.Image.Key] = rec
	return nil
}

// Delete removes the record for key. It returns ErrNothingToClear when the
// image has no label.
func (s *Store) Delete(key string) error {
	if _, ok := s.records[key]; !ok {
		return ErrNothingToClear
	}
	delete(s.records, key)
	return nil
}

// Get returns the record for key.
func (s *Store) Get(key string) (Record, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// Has reports whether key is labelled.
func (s *Store) Has(key string) bool {
	_, ok := s.records[key]
	return ok
}

// Len returns the number of labelled images.
func (s *Store) Len() int { return len(s.records) }

// Records returns every record in catalog order.
func (s *Store) Records() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int {
		return catalog.Compare(a.Image, b.Image)
	})
	return out
}

// AggregateCounts counts records per category. Every category of the
// variant is present, zero when unused.
func (s *Store) AggregateCounts() map[taxonomy.Category]int {
	counts := make(map[taxonomy.Category]int, len(s.records))
	for _, c := range s.variant.Categories() {
		counts[c] = 0
	}
	for _, rec := range s.records {
		counts[rec.Category]++
	}
	return counts
}

// PerGroupBreakdown counts records per category within each group returned
// by groupFn. Records mapped to "" are ignored.
func (s *Store) PerGroupBreakdown(groupFn func(Record) string) map[string]map[taxonomy.Category]int {
	out := make(map[string]map[taxonomy.Category]int)
	for _, rec := range s.records {
		group := groupFn(rec)
		if group == "" {
			continue
		}
		bucket, ok := out[group]
		if !ok {
			bucket = make(map[taxonomy.Category]int)
			out[group] = bucket
		}
		bucket[rec.Category]++
	}
	return out
}

// ByCase groups records by case ID.
func ByCase(r Record) string { return r.Image.CaseID }

// ByBodySite groups records by body site; ungrouped records are skipped.
func ByBodySite(r Record) string { return r.Image.BodySite() }

// Cases returns the distinct case IDs with at least one label, sorted.
func (s *Store) Cases() []string {
	seen := make(map[string]struct{})
	for _, rec := range s.records {
		seen[rec.Image.CaseID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// CountSubtype counts records whose subtype has the given kind.
func (s *Store) CountSubtype(kind taxonomy.SubtypeKind) int {
	n := 0
	for _, rec := range s.records {
		if rec.Subtype.Kind() == kind {
			n++
		}
	}
	return n
}
