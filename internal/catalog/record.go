package catalog

import (
	"cmp"
	"errors"
	"slices"
	"strings"
)

// ErrEmptyCatalog reports that no images were found beneath the root.
var ErrEmptyCatalog = errors.New("no images found")

// ImageRecord identifies one labellable image.
type ImageRecord struct {
	// Key is the resolved absolute path of the image file.
	Key     string
	CaseID  string
	VisitID string
	// Groups holds variant-dependent grouping segments. The histopath
	// layout stores body site then magnification folder.
	Groups   []string
	MagValue int
	Filename string
	// Path is the path the image was discovered under, symlinks intact.
	Path     string
	Position int

	sortName string
}

// BodySite returns the first group segment, or "" for ungrouped records.
func (r ImageRecord) BodySite() string {
	return r.group(0)
}

// Magnification returns the second group segment, or "".
func (r ImageRecord) Magnification() string {
	return r.group(1)
}

// GroupLabel joins the group segments for display.
func (r ImageRecord) GroupLabel() string {
	return strings.Join(r.Groups, " / ")
}

func (r ImageRecord) group(i int) string {
	if i < len(r.Groups) {
		return r.Groups[i]
	}
	return ""
}

// Compare orders records by case, visit, group segments, magnification value
// and then the recogniser's sort name.
func Compare(a, b ImageRecord) int {
	if c := cmp.Compare(a.CaseID, b.CaseID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.VisitID, b.VisitID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.BodySite(), b.BodySite()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.MagValue, b.MagValue); c != 0 {
		return c
	}
	if c := slices.Compare(a.Groups, b.Groups); c != 0 {
		return c
	}
	if c := cmp.Compare(a.sortKey(), b.sortKey()); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}

func (r ImageRecord) sortKey() string {
	if r.sortName != "" {
		return r.sortName
	}
	return r.Filename
}

// Summary describes a built catalog for start-up prompts.
type Summary struct {
	Images int
	Cases  int
	Visits int
	Groups int
}

// Summarize counts the distinct cases, visits and group paths in records.
func Summarize(records []ImageRecord) Summary {
	cases := make(map[string]struct{})
	visits := make(map[string]struct{})
	groups := make(map[string]struct{})
	for _, r := range records {
		cases[r.CaseID] = struct{}{}
		visits[r.CaseID+"\x00"+r.VisitID] = struct{}{}
		if len(r.Groups) > 0 {
			groups[r.CaseID+"\x00"+r.VisitID+"\x00"+strings.Join(r.Groups, "\x00")] = struct{}{}
		}
	}
	return Summary{
		Images: len(records),
		Cases:  len(cases),
		Visits: len(visits),
		Groups: len(groups),
	}
}
