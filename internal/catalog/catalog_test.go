package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"labeller/internal/catalog"
	"labeller/internal/testsupport"
)

func build(t *testing.T, root string, rec catalog.Recognizer) []catalog.ImageRecord {
	t.Helper()
	records, err := catalog.Build(context.Background(), root, rec, catalog.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return records
}

func symlink(t *testing.T, target, link string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(link), err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func TestBuildDeduplicatesSymlinkedImage(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(root, "CaseA", "Visit1", "XC_images", "img1.jpg")
	testsupport.WriteImage(t, real)
	symlink(t, real, filepath.Join(root, "CaseA", "Visit1", "CLINICAL", "img1.jpg"))

	records := build(t, root, catalog.Clinical{})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(records), records)
	}
	want, err := filepath.EvalSymlinks(real)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	got := records[0]
	if got.Key != want {
		t.Fatalf("unexpected key %q want %q", got.Key, want)
	}
	if got.CaseID != "CaseA" || got.VisitID != "Visit1" || got.Filename != "img1.jpg" || got.Position != 0 {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestClinicalOrderingAndExtensions(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteImage(t, filepath.Join(root, "CaseB", "V1", "clinical", "b.PNG"))
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V2", "xc", "sub", "a.tif"))
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V1", "other", "ignored.jpg"))
	testsupport.WriteFile(t, filepath.Join(root, "CaseA", "V1", "XC", "notes.txt"), 10)
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V1", "XC", "z.jpeg"))
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V1", "XC", "a.jpg"))
	testsupport.WriteFile(t, filepath.Join(root, "stray.jpg"), 10)

	records := build(t, root, catalog.Clinical{})
	want := []string{
		"CaseA/V1/a.jpg",
		"CaseA/V1/z.jpeg",
		"CaseA/V2/a.tif",
		"CaseB/V1/b.PNG",
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(records), records)
	}
	for i, r := range records {
		got := r.CaseID + "/" + r.VisitID + "/" + r.Filename
		if got != want[i] {
			t.Fatalf("record %d: got %s want %s", i, got, want[i])
		}
		if r.Position != i {
			t.Fatalf("record %d has position %d", i, r.Position)
		}
		if len(r.Groups) != 0 {
			t.Fatalf("clinical records carry no groups, got %v", r.Groups)
		}
	}
}

func TestHistopathLayout(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "Case1", "Visit1", "slides", "Histopath_2024")
	testsupport.WriteImage(t, filepath.Join(base, "Tongue", "40x", "a.jpg"))
	testsupport.WriteImage(t, filepath.Join(base, "Tongue", "10x", "b.jpg"))
	testsupport.WriteImage(t, filepath.Join(base, "Buccal", "4X", "c.png"))
	testsupport.WriteImage(t, filepath.Join(base, "loose.jpg"))
	testsupport.WriteImage(t, filepath.Join(base, "Tongue", "40x", "deeper", "d.jpg"))
	testsupport.WriteImage(t, filepath.Join(root, "Case1", "Visit2", "XC", "e.jpg"))

	records := build(t, root, catalog.Histopath{})
	type row struct {
		site, mag string
		value     int
		file      string
	}
	want := []row{
		{"Buccal", "4X", 4, "c.png"},
		{"Tongue", "10x", 10, "b.jpg"},
		{"Tongue", "40x", 40, "a.jpg"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(records), records)
	}
	for i, r := range records {
		got := row{r.BodySite(), r.Magnification(), r.MagValue, r.Filename}
		if got != want[i] {
			t.Fatalf("record %d: got %+v want %+v", i, got, want[i])
		}
		if r.CaseID != "Case1" || r.VisitID != "Visit1" {
			t.Fatalf("unexpected identity %s/%s", r.CaseID, r.VisitID)
		}
	}
}

func TestHistopathSortsMagnificationNumerically(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "C", "V", "histopath")
	testsupport.WriteImage(t, filepath.Join(base, "Site", "100x", "a.jpg"))
	testsupport.WriteImage(t, filepath.Join(base, "Site", "20x", "a.jpg"))

	records := build(t, root, catalog.Histopath{})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].MagValue != 20 || records[1].MagValue != 100 {
		t.Fatalf("expected numeric magnification order, got %d then %d", records[0].MagValue, records[1].MagValue)
	}
}

func TestBuildSurvivesSymlinkCycleAndBrokenLinks(t *testing.T) {
	root := t.TempDir()
	xc := filepath.Join(root, "CaseA", "V1", "XC")
	testsupport.WriteImage(t, filepath.Join(xc, "one.jpg"))
	symlink(t, xc, filepath.Join(xc, "loop"))
	symlink(t, filepath.Join(root, "missing.jpg"), filepath.Join(xc, "broken.jpg"))

	records := build(t, root, catalog.Clinical{})
	if len(records) != 1 {
		t.Fatalf("expected the cycle to yield one record, got %d: %+v", len(records), records)
	}
}

func TestBuildEmptyCatalog(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V1", "unmarked", "a.jpg"))

	_, err := catalog.Build(context.Background(), root, catalog.Clinical{}, catalog.Options{})
	if !errors.Is(err, catalog.ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}

	if _, err := catalog.Build(context.Background(), filepath.Join(root, "nope"), catalog.Clinical{}, catalog.Options{}); err == nil || errors.Is(err, catalog.ErrEmptyCatalog) {
		t.Fatalf("expected stat error for missing root, got %v", err)
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V1", "XC", "a.jpg"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := catalog.Build(ctx, root, catalog.Clinical{}, catalog.Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCustomExtensionsAndMarkers(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V1", "Photos", "a.png"))
	testsupport.WriteImage(t, filepath.Join(root, "CaseA", "V1", "Photos", "b.jpg"))

	rec := catalog.Clinical{Markers: []string{"PHOTO"}}
	records, err := catalog.Build(context.Background(), root, rec, catalog.Options{Extensions: []string{"png"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "a.png" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestMagnificationValue(t *testing.T) {
	cases := map[string]int{
		"40x":       40,
		"Mag_10X":   10,
		"x40":       0,
		"overview":  0,
		"100x_zoom": 100,
	}
	for in, want := range cases {
		if got := catalog.MagnificationValue(in); got != want {
			t.Fatalf("MagnificationValue(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []catalog.ImageRecord{
		{CaseID: "A", VisitID: "1", Groups: []string{"Tongue", "10x"}},
		{CaseID: "A", VisitID: "1", Groups: []string{"Tongue", "40x"}},
		{CaseID: "A", VisitID: "2", Groups: []string{"Tongue", "40x"}},
		{CaseID: "B", VisitID: "1", Groups: []string{"Lip", "10x"}},
	}
	got := catalog.Summarize(records)
	want := catalog.Summary{Images: 4, Cases: 2, Visits: 3, Groups: 4}
	if got != want {
		t.Fatalf("Summarize = %+v, want %+v", got, want)
	}
}

func TestRecognizerFor(t *testing.T) {
	rec, err := catalog.RecognizerFor("Histopath", nil, "")
	if err != nil || rec.Name() != "histopath" {
		t.Fatalf("RecognizerFor: %v %v", rec, err)
	}
	if _, err := catalog.RecognizerFor("radiology", nil, ""); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
