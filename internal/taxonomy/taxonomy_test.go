package taxonomy_test

import (
	"errors"
	"testing"

	"labeller/internal/taxonomy"
)

func TestDysplasiaRequiresBothTiers(t *testing.T) {
	form := taxonomy.NewForm(taxonomy.Histopath())
	if err := form.SelectCategory(taxonomy.Dysplasia); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if err := form.SelectGradingComponent(taxonomy.TierBinary, "Low_Risk"); err != nil {
		t.Fatalf("select binary: %v", err)
	}
	if form.Complete() {
		t.Fatal("expected form to be incomplete with only the binary tier")
	}

	_, err := form.Build("")
	if !errors.Is(err, taxonomy.ErrIncompleteGrading) {
		t.Fatalf("expected incomplete grading error, got %v", err)
	}
	var verr *taxonomy.ValidationError
	if !errors.As(err, &verr) || verr.Field != "subtype" {
		t.Fatalf("expected subtype validation error, got %#v", err)
	}

	if err := form.SelectGradingComponent(taxonomy.TierThree, "Mild"); err != nil {
		t.Fatalf("select three tier: %v", err)
	}
	label, err := form.Build("")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := label.Subtype.String(); got != "Binary:Low_Risk|ThreeTier:Mild" {
		t.Fatalf("unexpected flattened subtype %q", got)
	}
}

func TestUngradableRequiresCommentAndClearsTiers(t *testing.T) {
	form := taxonomy.NewForm(taxonomy.Histopath())
	if err := form.SelectCategory(taxonomy.Cancer); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if err := form.SelectGradingComponent(taxonomy.TierDifferentiation, "Well_Differentiated"); err != nil {
		t.Fatalf("select differentiation: %v", err)
	}
	if err := form.MarkUngradable(); err != nil {
		t.Fatalf("MarkUngradable: %v", err)
	}
	if _, ok := form.Selection(taxonomy.TierDifferentiation); ok {
		t.Fatal("expected Ungradable to clear tier selections")
	}

	if _, err := form.Build("   "); !errors.Is(err, taxonomy.ErrCommentRequired) {
		t.Fatalf("expected comment required, got %v", err)
	}
	label, err := form.Build("blurred focus")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if label.Subtype.Kind() != taxonomy.KindUngradable || label.Subtype.String() != "Ungradable" {
		t.Fatalf("unexpected subtype %#v", label.Subtype)
	}

	// Choosing a tier again drops Ungradable.
	if err := form.SelectGradingComponent(taxonomy.TierDifferentiation, "Poorly_Differentiated"); err != nil {
		t.Fatalf("select differentiation: %v", err)
	}
	if form.Ungradable() {
		t.Fatal("expected tier selection to clear Ungradable")
	}
	label, err = form.Build("")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if label.Subtype.String() != "ThreeTier:Poorly_Differentiated" {
		t.Fatalf("unexpected subtype %q", label.Subtype.String())
	}
}

func TestCommentRequiredCategories(t *testing.T) {
	cases := []struct {
		name    string
		variant *taxonomy.Variant
		label   taxonomy.Label
		wantErr error
	}{
		{"clinical suspicious", taxonomy.Clinical(), taxonomy.Label{Category: taxonomy.Suspicious}, nil},
		{"clinical NA empty", taxonomy.Clinical(), taxonomy.Label{Category: taxonomy.NA}, taxonomy.ErrCommentRequired},
		{"clinical NA comment", taxonomy.Clinical(), taxonomy.Label{Category: taxonomy.NA, Comment: "out of focus"}, nil},
		{"indeterminate empty", taxonomy.Histopath(), taxonomy.Label{Category: taxonomy.Indeterminate}, taxonomy.ErrCommentRequired},
		{"indeterminate comment", taxonomy.Histopath(), taxonomy.Label{Category: taxonomy.Indeterminate, Comment: "crush artefact"}, nil},
		{"normal without tissue", taxonomy.Histopath(), taxonomy.Label{Category: taxonomy.Normal}, taxonomy.ErrIncompleteGrading},
		{"normal tissue", taxonomy.Histopath(), taxonomy.Label{Category: taxonomy.Normal, Subtype: taxonomy.TissueType{Value: "Stroma"}}, nil},
		{"normal bad tissue", taxonomy.Histopath(), taxonomy.Label{Category: taxonomy.Normal, Subtype: taxonomy.TissueType{Value: "Bone"}}, taxonomy.ErrInvalidSelection},
		{"normal ungradable", taxonomy.Histopath(), taxonomy.Label{Category: taxonomy.Normal, Subtype: taxonomy.Ungradable{}, Comment: "x"}, taxonomy.ErrInvalidSelection},
		{"wrong variant", taxonomy.Clinical(), taxonomy.Label{Category: taxonomy.Cancer}, taxonomy.ErrInvalidSelection},
		{"subtype on clinical", taxonomy.Clinical(), taxonomy.Label{Category: taxonomy.Suspicious, Subtype: taxonomy.TissueType{Value: "Stroma"}}, taxonomy.ErrInvalidSelection},
		{"cancer with dysplasia grading", taxonomy.Histopath(), taxonomy.Label{Category: taxonomy.Cancer, Subtype: taxonomy.DysplasiaGrading{Binary: "Low_Risk", ThreeTier: "Mild"}}, taxonomy.ErrInvalidSelection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.variant.Validate(tc.label)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseSubtypeRoundTrip(t *testing.T) {
	cases := []struct {
		category taxonomy.Category
		subtype  taxonomy.Subtype
	}{
		{taxonomy.Normal, taxonomy.TissueType{Value: "Epithelium"}},
		{taxonomy.Dysplasia, taxonomy.DysplasiaGrading{Binary: "High_Risk", ThreeTier: "Severe"}},
		{taxonomy.Cancer, taxonomy.CancerGrading{Differentiation: "Moderately_Differentiated"}},
		{taxonomy.Dysplasia, taxonomy.Ungradable{}},
		{taxonomy.Indeterminate, taxonomy.NoSubtype{}},
		{taxonomy.Suspicious, taxonomy.NoSubtype{}},
	}
	for _, tc := range cases {
		parsed, err := taxonomy.ParseSubtype(tc.category, tc.subtype.String())
		if err != nil {
			t.Fatalf("ParseSubtype(%s, %q): %v", tc.category, tc.subtype.String(), err)
		}
		if parsed != tc.subtype {
			t.Fatalf("round trip mismatch: got %#v want %#v", parsed, tc.subtype)
		}
	}

	if _, err := taxonomy.ParseSubtype(taxonomy.Dysplasia, "Binary:Low_Risk"); err == nil {
		t.Fatal("expected error for partial dysplasia subtype")
	}
	if _, err := taxonomy.ParseSubtype(taxonomy.Suspicious, "Stroma"); err == nil {
		t.Fatal("expected error for subtype on clinical category")
	}
}

func TestFormRejectsGradingBeforeCategory(t *testing.T) {
	form := taxonomy.NewForm(taxonomy.Histopath())
	if err := form.SelectGradingComponent(taxonomy.TierBinary, "Low_Risk"); !errors.Is(err, taxonomy.ErrNoCategory) {
		t.Fatalf("expected ErrNoCategory, got %v", err)
	}
	if err := form.MarkUngradable(); !errors.Is(err, taxonomy.ErrNoCategory) {
		t.Fatalf("expected ErrNoCategory, got %v", err)
	}
	if err := form.SelectCategory(taxonomy.Normal); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if err := form.SelectGradingComponent(taxonomy.TierBinary, "Low_Risk"); !errors.Is(err, taxonomy.ErrInvalidSelection) {
		t.Fatalf("expected tier rejection for Normal, got %v", err)
	}
	if err := form.MarkUngradable(); !errors.Is(err, taxonomy.ErrInvalidSelection) {
		t.Fatalf("expected Normal to reject Ungradable, got %v", err)
	}
}

func TestSelectCategoryResetsGrading(t *testing.T) {
	form := taxonomy.NewForm(taxonomy.Histopath())
	_ = form.SelectCategory(taxonomy.Dysplasia)
	_ = form.SelectGradingComponent(taxonomy.TierBinary, "High_Risk")
	if err := form.SelectCategory(taxonomy.Dysplasia); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if _, ok := form.Selection(taxonomy.TierBinary); ok {
		t.Fatal("expected reselecting a category to clear grading")
	}
	if got := form.Describe(); got != "Selected: Dysplasia | Binary=not selected | Three-Tier=not selected" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestParseCategoryAndCommentCategories(t *testing.T) {
	clinical := taxonomy.Clinical()
	if c, ok := clinical.ParseCategory("non-suspicious"); !ok || c != taxonomy.NonSuspicious {
		t.Fatalf("expected case-insensitive match, got %q %v", c, ok)
	}
	if _, ok := clinical.ParseCategory("Cancer"); ok {
		t.Fatal("expected Cancer to be rejected by the clinical variant")
	}
	got := taxonomy.Histopath().CommentCategories()
	if len(got) != 2 || got[0] != "Indeterminate" || got[1] != "Ungradable" {
		t.Fatalf("unexpected comment categories %v", got)
	}
	if v, err := taxonomy.ForName(" Histopath "); err != nil || v.Name != "histopath" {
		t.Fatalf("ForName: %v %v", v, err)
	}
	if _, err := taxonomy.ForName("dermatology"); err == nil {
		t.Fatal("expected unknown variant error")
	}
}

func TestFormLoadPrefillsExistingLabel(t *testing.T) {
	form := taxonomy.NewForm(taxonomy.Histopath())
	form.Load(taxonomy.Label{
		Category: taxonomy.Dysplasia,
		Subtype:  taxonomy.DysplasiaGrading{Binary: "High_Risk", ThreeTier: "Severe"},
		Comment:  "ignored by the form",
	})
	if form.Category() != taxonomy.Dysplasia || !form.Complete() {
		t.Fatalf("expected complete dysplasia form, got %q", form.Describe())
	}
	label, err := form.Build("")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if label.Subtype.String() != "Binary:High_Risk|ThreeTier:Severe" {
		t.Fatalf("unexpected subtype %q", label.Subtype.String())
	}

	form.Load(taxonomy.Label{Category: taxonomy.Suspicious})
	if form.Category() != "" {
		t.Fatalf("expected foreign category to leave the form empty, got %q", form.Category())
	}
}
