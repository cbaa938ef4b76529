package taxonomy

import (
	"strings"
)

// Label is a complete submission for one image.
type Label struct {
	Category Category
	Subtype  Subtype
	Comment  string
}

// Form accumulates category and grading selections for the image on screen.
// Selecting a new category discards earlier grading; choosing a tier value
// clears Ungradable and marking Ungradable clears every tier value.
type Form struct {
	variant    *Variant
	category   Category
	selections map[Tier]string
	ungradable bool
}

// NewForm returns an empty form bound to a variant.
func NewForm(v *Variant) *Form {
	return &Form{variant: v, selections: make(map[Tier]string)}
}

// Reset clears every selection.
func (f *Form) Reset() {
	f.category = ""
	f.ungradable = false
	clear(f.selections)
}

// Category returns the selected category, or "" when none is selected.
func (f *Form) Category() Category { return f.category }

// Ungradable reports whether the Ungradable outcome is selected.
func (f *Form) Ungradable() bool { return f.ungradable }

// Selection returns the chosen value for a tier.
func (f *Form) Selection(t Tier) (string, bool) {
	value, ok := f.selections[t]
	return value, ok
}

// SelectCategory chooses the primary category and clears grading.
func (f *Form) SelectCategory(c Category) error {
	if !f.variant.HasCategory(c) {
		return invalid("category", ErrInvalidSelection, "%q is not a %s category", c, f.variant.Name)
	}
	f.Reset()
	f.category = c
	return nil
}

// SelectGradingComponent records one tier value for the selected category.
func (f *Form) SelectGradingComponent(tier Tier, value string) error {
	if f.category == "" {
		return &ValidationError{Field: "category", Reason: "select a diagnosis before grading", Err: ErrNoCategory}
	}
	spec, ok := f.tierSpec(tier)
	if !ok {
		return invalid("subtype", ErrInvalidSelection, "%s does not use the %s tier", f.category, tier)
	}
	value = strings.TrimSpace(value)
	if !spec.Accepts(value) {
		return invalid("subtype", ErrInvalidSelection, "%q is not a valid %s value", value, spec.Label)
	}
	f.ungradable = false
	f.selections[tier] = value
	return nil
}

// MarkUngradable selects the Ungradable outcome, discarding tier values.
func (f *Form) MarkUngradable() error {
	if f.category == "" {
		return &ValidationError{Field: "category", Reason: "select a diagnosis before grading", Err: ErrNoCategory}
	}
	if !f.variant.AllowsUngradable(f.category) {
		return invalid("subtype", ErrInvalidSelection, "%s cannot be marked Ungradable", f.category)
	}
	clear(f.selections)
	f.ungradable = true
	return nil
}

// Load pre-fills the form from an existing label so it can be edited.
// Labels the variant does not recognise leave the form empty.
func (f *Form) Load(label Label) {
	f.Reset()
	if !f.variant.HasCategory(label.Category) {
		return
	}
	f.category = label.Category
	switch s := SubtypeOrNone(label.Subtype).(type) {
	case Ungradable:
		f.ungradable = true
	case TissueType:
		f.selections[TierTissue] = s.Value
	case DysplasiaGrading:
		if s.Binary != "" {
			f.selections[TierBinary] = s.Binary
		}
		if s.ThreeTier != "" {
			f.selections[TierThree] = s.ThreeTier
		}
	case CancerGrading:
		f.selections[TierDifferentiation] = s.Differentiation
	}
}

// Complete reports whether the current selections form a submittable
// subtype, ignoring the comment.
func (f *Form) Complete() bool {
	if f.category == "" {
		return false
	}
	if f.ungradable {
		return true
	}
	for _, spec := range f.variant.Tiers(f.category) {
		if _, ok := f.selections[spec.Tier]; !ok {
			return false
		}
	}
	return true
}

// Subtype assembles the union member for the current selections. Missing
// tiers are left empty; Variant.Validate reports them.
func (f *Form) Subtype() Subtype {
	if f.ungradable {
		return Ungradable{}
	}
	switch f.category {
	case Normal:
		if v, ok := f.selections[TierTissue]; ok {
			return TissueType{Value: v}
		}
	case Dysplasia:
		binary, okBinary := f.selections[TierBinary]
		three, okThree := f.selections[TierThree]
		if okBinary || okThree {
			return DysplasiaGrading{Binary: binary, ThreeTier: three}
		}
	case Cancer:
		if v, ok := f.selections[TierDifferentiation]; ok {
			return CancerGrading{Differentiation: v}
		}
	}
	return NoSubtype{}
}

// Build validates the selections plus comment and returns the label.
func (f *Form) Build(comment string) (Label, error) {
	if f.category == "" {
		return Label{}, &ValidationError{Field: "category", Reason: "select a category first", Err: ErrNoCategory}
	}
	label := Label{
		Category: f.category,
		Subtype:  f.Subtype(),
		Comment:  strings.TrimSpace(comment),
	}
	if err := f.variant.Validate(label); err != nil {
		return Label{}, err
	}
	return label, nil
}

// Describe renders the current selections for a status line.
func (f *Form) Describe() string {
	if f.category == "" {
		return "Selected: nothing"
	}
	if f.ungradable {
		return "Selected: " + string(f.category) + " / Ungradable (quality issue)"
	}
	specs := f.variant.Tiers(f.category)
	if len(specs) == 0 {
		return "Selected: " + string(f.category)
	}
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		value, ok := f.selections[spec.Tier]
		if !ok {
			value = "not selected"
		}
		parts = append(parts, spec.Label+"="+value)
	}
	return "Selected: " + string(f.category) + " | " + strings.Join(parts, " | ")
}

func (f *Form) tierSpec(t Tier) (TierSpec, bool) {
	for _, spec := range f.variant.Tiers(f.category) {
		if spec.Tier == t {
			return spec, true
		}
	}
	return TierSpec{}, false
}
