package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Match is one image a recogniser found beneath a visit directory.
type Match struct {
	Path     string
	Groups   []string
	MagValue int
	// SortName orders matches inside the same case, visit and group.
	SortName string
}

// Recognizer decides which images beneath a visit directory are labellable.
type Recognizer interface {
	Name() string
	Collect(ctx context.Context, w *Walker, visitDir string) ([]Match, error)
}

// Clinical collects every image beneath any descendant directory whose name
// contains one of the markers.
type Clinical struct {
	Markers []string
}

// DefaultClinicalMarkers are the folder-name markers of clinical photographs.
var DefaultClinicalMarkers = []string{"xc", "clinical"}

func (c Clinical) Name() string { return "clinical" }

func (c Clinical) Collect(ctx context.Context, w *Walker, visitDir string) ([]Match, error) {
	markers := c.Markers
	if len(markers) == 0 {
		markers = DefaultClinicalMarkers
	}
	dirs, err := w.Descendants(ctx, visitDir)
	if err != nil {
		return nil, err
	}
	var out []Match
	for _, dir := range dirs {
		if !w.NameContains(dir, markers...) {
			continue
		}
		images, err := w.Images(ctx, dir, true)
		if err != nil {
			return nil, err
		}
		for _, path := range images {
			rel, relErr := filepath.Rel(visitDir, path)
			if relErr != nil {
				rel = path
			}
			out = append(out, Match{Path: path, SortName: filepath.ToSlash(rel)})
		}
	}
	return out, nil
}

// Histopath takes the first descendant directory whose name contains Marker
// as the base and collects images from <base>/<BodySite>/<Magnification>/.
type Histopath struct {
	Marker string
}

// DefaultHistopathMarker names the histopathology base folder.
const DefaultHistopathMarker = "histopath"

var magnificationPattern = regexp.MustCompile(`(\d+)x`)

// MagnificationValue extracts the numeric magnification from a folder name
// such as "40x" or "Mag_10X"; it returns 0 when none is present.
func MagnificationValue(folder string) int {
	m := magnificationPattern.FindStringSubmatch(strings.ToLower(folder))
	if m == nil {
		return 0
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return v
}

func (h Histopath) Name() string { return "histopath" }

func (h Histopath) Collect(ctx context.Context, w *Walker, visitDir string) ([]Match, error) {
	marker := h.Marker
	if strings.TrimSpace(marker) == "" {
		marker = DefaultHistopathMarker
	}
	dirs, err := w.Descendants(ctx, visitDir)
	if err != nil {
		return nil, err
	}
	base := ""
	for _, dir := range dirs {
		if w.NameContains(dir, marker) {
			base = dir
			break
		}
	}
	if base == "" {
		return nil, nil
	}
	var out []Match
	for _, siteDir := range w.Subdirs(base) {
		site := filepath.Base(siteDir)
		for _, magDir := range w.Subdirs(siteDir) {
			mag := filepath.Base(magDir)
			images, err := w.Images(ctx, magDir, false)
			if err != nil {
				return nil, err
			}
			for _, path := range images {
				out = append(out, Match{
					Path:     path,
					Groups:   []string{site, mag},
					MagValue: MagnificationValue(mag),
					SortName: filepath.Base(path),
				})
			}
		}
	}
	return out, nil
}

// RecognizerFor returns the recogniser for a variant name.
func RecognizerFor(variant string, clinicalMarkers []string, histopathMarker string) (Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case "clinical":
		return Clinical{Markers: clinicalMarkers}, nil
	case "histopath":
		return Histopath{Marker: histopathMarker}, nil
	default:
		return nil, fmt.Errorf("no recogniser for variant %q", variant)
	}
}
