package labelstore_test

import (
	"errors"
	"testing"
	"time"

	"labeller/internal/catalog"
	"labeller/internal/labelstore"
	"labeller/internal/taxonomy"
)

func image(pos int, caseID, file string) catalog.ImageRecord {
	return catalog.ImageRecord{
		Key:      "/data/" + caseID + "/V1/XC/" + file,
		CaseID:   caseID,
		VisitID:  "V1",
		Filename: file,
		Position: pos,
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestUpsertThenGetReplacesWholesale(t *testing.T) {
	store := labelstore.New(taxonomy.Clinical(), labelstore.WithClock(fixedClock()))
	img := image(0, "CaseA", "img1.jpg")

	first, err := store.Upsert(img, taxonomy.Label{Category: taxonomy.NA, Comment: "blurred"}, 4*time.Second)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, ok := store.Get(img.Key)
	if !ok || got.Category != taxonomy.NA || got.Comment != "blurred" || got.TimeSpent != 4*time.Second {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.LabelledAt.Equal(first.LabelledAt) {
		t.Fatalf("expected Get to return the written record")
	}

	if _, err := store.Upsert(img, taxonomy.Label{Category: taxonomy.Suspicious}, 6*time.Second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	got, _ = store.Get(img.Key)
	if got.Category != taxonomy.Suspicious || got.Comment != "" || got.TimeSpent != 6*time.Second {
		t.Fatalf("expected second upsert to replace every field, got %+v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
}

func TestUpsertValidationLeavesStoreUntouched(t *testing.T) {
	store := labelstore.New(taxonomy.Histopath())
	img := image(0, "CaseA", "slide.jpg")
	if _, err := store.Upsert(img, taxonomy.Label{Category: taxonomy.Cancer, Subtype: taxonomy.CancerGrading{Differentiation: "Well_Differentiated"}}, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	_, err := store.Upsert(img, taxonomy.Label{Category: taxonomy.Indeterminate}, time.Second)
	var verr *labelstore.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, taxonomy.ErrCommentRequired) {
		t.Fatalf("expected comment required, got %v", err)
	}
	got, _ := store.Get(img.Key)
	if got.Category != taxonomy.Cancer {
		t.Fatalf("expected prior record to survive rejected submission, got %+v", got)
	}

	if _, err := store.Upsert(catalog.ImageRecord{}, taxonomy.Label{Category: taxonomy.Normal, Subtype: taxonomy.TissueType{Value: "Both"}}, 0); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for empty key, got %v", err)
	}
}

func TestDeleteUnlabelledReportsNothingToClear(t *testing.T) {
	store := labelstore.New(taxonomy.Clinical())
	img := image(0, "CaseA", "a.jpg")
	if _, err := store.Upsert(img, taxonomy.Label{Category: taxonomy.Suspicious}, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := store.Delete("/data/missing.jpg"); !errors.Is(err, labelstore.ErrNothingToClear) {
		t.Fatalf("expected ErrNothingToClear, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected size to stay 1, got %d", store.Len())
	}
	if err := store.Delete(img.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Has(img.Key) || store.Len() != 0 {
		t.Fatal("expected record to be removed")
	}
}

func TestAggregateCountsIndependentOfOrder(t *testing.T) {
	store := labelstore.New(taxonomy.Clinical())
	imgs := []catalog.ImageRecord{
		image(0, "CaseA", "a.jpg"),
		image(1, "CaseA", "b.jpg"),
		image(2, "CaseB", "c.jpg"),
		image(3, "CaseB", "d.jpg"),
	}
	labels := []taxonomy.Category{taxonomy.Suspicious, taxonomy.NonSuspicious, taxonomy.Suspicious, taxonomy.Suspicious}

	// Label out of sequence, revisit and relabel some images with the same value.
	for _, i := range []int{2, 0, 3, 1, 0, 2} {
		if _, err := store.Upsert(imgs[i], taxonomy.Label{Category: labels[i]}, time.Second); err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
	}

	counts := store.AggregateCounts()
	if counts[taxonomy.Suspicious] != 3 || counts[taxonomy.NonSuspicious] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if n, ok := counts[taxonomy.NA]; !ok || n != 0 {
		t.Fatalf("expected zero-filled NA count, got %v", counts)
	}

	byCase := store.PerGroupBreakdown(labelstore.ByCase)
	if byCase["CaseA"][taxonomy.Suspicious] != 1 || byCase["CaseA"][taxonomy.NonSuspicious] != 1 || byCase["CaseB"][taxonomy.Suspicious] != 2 {
		t.Fatalf("unexpected per-case breakdown %v", byCase)
	}
	if got := store.Cases(); len(got) != 2 || got[0] != "CaseA" || got[1] != "CaseB" {
		t.Fatalf("unexpected cases %v", got)
	}

	records := store.Records()
	for i, rec := range records {
		if rec.Image.Position != i {
			t.Fatalf("expected catalog order, got position %d at %d", rec.Image.Position, i)
		}
	}
}

func TestBodySiteBreakdownAndSubtypeCount(t *testing.T) {
	store := labelstore.New(taxonomy.Histopath())
	tongue := catalog.ImageRecord{Key: "k1", CaseID: "C", VisitID: "V", Groups: []string{"Tongue", "10x"}, Filename: "a.jpg"}
	lip := catalog.ImageRecord{Key: "k2", CaseID: "C", VisitID: "V", Groups: []string{"Lip", "40x"}, Filename: "b.jpg"}
	if _, err := store.Upsert(tongue, taxonomy.Label{Category: taxonomy.Dysplasia, Subtype: taxonomy.Ungradable{}, Comment: "folded section"}, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := store.Upsert(lip, taxonomy.Label{Category: taxonomy.Normal, Subtype: taxonomy.TissueType{Value: "Stroma"}}, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	sites := store.PerGroupBreakdown(labelstore.ByBodySite)
	if sites["Tongue"][taxonomy.Dysplasia] != 1 || sites["Lip"][taxonomy.Normal] != 1 {
		t.Fatalf("unexpected body site breakdown %v", sites)
	}
	if store.CountSubtype(taxonomy.KindUngradable) != 1 {
		t.Fatalf("expected one ungradable record")
	}
}

func TestRestoreKeepsTimestamps(t *testing.T) {
	store := labelstore.New(taxonomy.Clinical())
	at := time.Date(2025, 12, 24, 8, 30, 0, 0, time.UTC)
	rec := labelstore.Record{
		Image:      image(0, "CaseA", "a.jpg"),
		Category:   taxonomy.NonSuspicious,
		TimeSpent:  -time.Second,
		LabelledAt: at,
	}
	if err := store.Restore(rec); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, _ := store.Get(rec.Image.Key)
	if !got.LabelledAt.Equal(at) || got.TimeSpent != 0 || got.Subtype.Kind() != taxonomy.KindNone {
		t.Fatalf("unexpected restored record %+v", got)
	}
	if err := store.Restore(labelstore.Record{Image: image(1, "CaseA", "b.jpg"), Category: taxonomy.NA}); err == nil {
		t.Fatal("expected restore to validate required comment")
	}
}
