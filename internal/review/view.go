package review

import (
	"time"

	"labeller/internal/catalog"
	"labeller/internal/imageprobe"
	"labeller/internal/labelstore"
	"labeller/internal/taxonomy"
)

// View is what the presentation layer renders for the current state.
type View struct {
	Position int
	Total    int
	Labelled int
	// Finished is true once the catalog is exhausted; Closed once the final
	// export succeeded.
	Finished bool
	Closed   bool
	Image    catalog.ImageRecord
	// Existing is the stored label for Image, if any.
	Existing *labelstore.Record
	Form     string
	Category taxonomy.Category
	OnScreen time.Duration
	// CaseLabelled and CaseTotal count images of the current case.
	CaseLabelled int
	CaseTotal    int
	Probe        imageprobe.Info
	ProbeErr     error
}

// Placeholder returns the text to show when the image could not be decoded,
// or "" when it decoded.
func (v View) Placeholder() string {
	if v.ProbeErr == nil {
		return ""
	}
	return imageprobe.Placeholder(v.Image.Path, v.ProbeErr)
}

// Current returns the state of the image on screen.
func (e *Engine) Current() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Position: e.cursor.Position(),
		Total:    len(e.images),
		Labelled: e.store.Len(),
		Finished: e.cursor.Finished(),
		Closed:   e.closed,
	}
	if v.Finished {
		return v
	}
	img := e.current()
	v.Image = img
	if rec, ok := e.store.Get(img.Key); ok {
		v.Existing = &rec
	}
	v.Form = e.form.Describe()
	v.Category = e.form.Category()
	v.OnScreen = e.sess.Timer().Elapsed(img.Key)
	for _, other := range e.images {
		if other.CaseID != img.CaseID {
			continue
		}
		v.CaseTotal++
		if e.store.Has(other.Key) {
			v.CaseLabelled++
		}
	}
	if e.probed.key != img.Key {
		info, err := e.prober(img.Key)
		e.probed = probeResult{key: img.Key, info: info, err: err}
	}
	v.Probe = e.probed.info
	v.ProbeErr = e.probed.err
	return v
}
