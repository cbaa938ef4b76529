package taxonomy

import (
	"fmt"
	"slices"
	"strings"
)

// Category is a primary label.
type Category string

const (
	Suspicious    Category = "Suspicious"
	NonSuspicious Category = "Non-Suspicious"
	NA            Category = "NA"

	Normal        Category = "Normal"
	Dysplasia     Category = "Dysplasia"
	Cancer        Category = "Cancer"
	Indeterminate Category = "Indeterminate"
)

// Tier names a grading component a category may require.
type Tier string

const (
	TierTissue          Tier = "tissue"
	TierBinary          Tier = "binary"
	TierThree           Tier = "three_tier"
	TierDifferentiation Tier = "three_tier_diff"
)

// TierSpec lists the values a grading tier accepts.
type TierSpec struct {
	Tier   Tier
	Label  string
	Values []string
}

// Accepts reports whether value is one of the tier's values.
func (t TierSpec) Accepts(value string) bool {
	return slices.Contains(t.Values, value)
}

type categoryRule struct {
	commentRequired bool
	tiers           []TierSpec
	ungradable      bool
}

// Variant is the strategy object describing one labelling tool.
type Variant struct {
	Name  string
	Title string

	categories []Category
	rules      map[Category]categoryRule
	// grouped reports whether images carry body-site and magnification groups.
	grouped bool
}

var (
	tissueTier = TierSpec{Tier: TierTissue, Label: "Tissue Type", Values: []string{"Stroma", "Epithelium", "Both"}}
	binaryTier = TierSpec{Tier: TierBinary, Label: "Binary", Values: []string{"Low_Risk", "High_Risk"}}
	threeTier  = TierSpec{Tier: TierThree, Label: "Three-Tier", Values: []string{"Mild", "Moderate", "Severe"}}
	diffTier   = TierSpec{Tier: TierDifferentiation, Label: "Three-Tier Differentiation", Values: []string{
		"Well_Differentiated", "Moderately_Differentiated", "Poorly_Differentiated",
	}}
)

// Clinical returns the three-class clinical image variant.
func Clinical() *Variant {
	return &Variant{
		Name:       "clinical",
		Title:      "CLINICAL IMAGE LABELLING SESSION SUMMARY",
		categories: []Category{Suspicious, NonSuspicious, NA},
		rules: map[Category]categoryRule{
			Suspicious:    {},
			NonSuspicious: {},
			NA:            {commentRequired: true},
		},
	}
}

// Histopath returns the graded histopathology diagnosis variant.
func Histopath() *Variant {
	return &Variant{
		Name:       "histopath",
		Title:      "HISTOPATHOLOGY LABELLING SESSION SUMMARY",
		categories: []Category{Normal, Dysplasia, Cancer, Indeterminate},
		rules: map[Category]categoryRule{
			Normal:        {tiers: []TierSpec{tissueTier}},
			Dysplasia:     {tiers: []TierSpec{binaryTier, threeTier}, ungradable: true},
			Cancer:        {tiers: []TierSpec{diffTier}, ungradable: true},
			Indeterminate: {commentRequired: true},
		},
		grouped: true,
	}
}

// ForName resolves a variant by its configuration name.
func ForName(name string) (*Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "clinical":
		return Clinical(), nil
	case "histopath":
		return Histopath(), nil
	default:
		return nil, fmt.Errorf("unknown taxonomy variant %q", name)
	}
}

// Categories returns the variant's categories in presentation order.
func (v *Variant) Categories() []Category {
	return slices.Clone(v.categories)
}

// Grouped reports whether images carry body-site and magnification segments.
func (v *Variant) Grouped() bool { return v.grouped }

// HasCategory reports whether c belongs to the variant.
func (v *Variant) HasCategory(c Category) bool {
	_, ok := v.rules[c]
	return ok
}

// ParseCategory matches a category name case-insensitively.
func (v *Variant) ParseCategory(value string) (Category, bool) {
	value = strings.TrimSpace(value)
	for _, c := range v.categories {
		if strings.EqualFold(string(c), value) {
			return c, true
		}
	}
	return "", false
}

// Tiers returns the grading tiers the category requires, in selection order.
func (v *Variant) Tiers(c Category) []TierSpec {
	return slices.Clone(v.rules[c].tiers)
}

// NeedsGrading reports whether a category cannot be submitted without a subtype.
func (v *Variant) NeedsGrading(c Category) bool {
	return len(v.rules[c].tiers) > 0
}

// AllowsUngradable reports whether the category accepts the Ungradable outcome.
func (v *Variant) AllowsUngradable(c Category) bool {
	return v.rules[c].ungradable
}

// CommentRequired reports whether a label with this category and subtype
// must carry a non-empty comment.
func (v *Variant) CommentRequired(c Category, s Subtype) bool {
	if v.rules[c].commentRequired {
		return true
	}
	return s != nil && s.Kind() == KindUngradable
}

// CommentCategories lists the categories whose comments the session summary
// groups, followed by the Ungradable pseudo-category when the variant grades.
func (v *Variant) CommentCategories() []string {
	var out []string
	hasUngradable := false
	for _, c := range v.categories {
		rule := v.rules[c]
		if rule.commentRequired {
			out = append(out, string(c))
		}
		if rule.ungradable {
			hasUngradable = true
		}
	}
	if hasUngradable {
		out = append(out, ungradableLabel)
	}
	return out
}

// Validate checks a complete label against the variant's rules.
func (v *Variant) Validate(label Label) error {
	rule, ok := v.rules[label.Category]
	if !ok {
		return invalid("category", ErrInvalidSelection, "%q is not a %s category", label.Category, v.Name)
	}
	subtype := SubtypeOrNone(label.Subtype)
	if err := v.validateSubtype(label.Category, rule, subtype); err != nil {
		return err
	}
	if v.CommentRequired(label.Category, subtype) && strings.TrimSpace(label.Comment) == "" {
		reason := fmt.Sprintf("a reason/comment is required for %q", label.Category)
		if subtype.Kind() == KindUngradable {
			reason = "a reason/comment is required when marking as Ungradable"
		}
		return &ValidationError{Field: "comment", Reason: reason, Err: ErrCommentRequired}
	}
	return nil
}

func (v *Variant) validateSubtype(c Category, rule categoryRule, s Subtype) error {
	if s.Kind() == KindUngradable {
		if !rule.ungradable {
			return invalid("subtype", ErrInvalidSelection, "%s cannot be marked Ungradable", c)
		}
		return nil
	}
	if len(rule.tiers) == 0 {
		if s.Kind() != KindNone {
			return invalid("subtype", ErrInvalidSelection, "%s takes no subtype (got %q)", c, s.String())
		}
		return nil
	}
	selections := map[Tier]string{}
	switch typed := s.(type) {
	case TissueType:
		selections[TierTissue] = typed.Value
	case DysplasiaGrading:
		selections[TierBinary] = typed.Binary
		selections[TierThree] = typed.ThreeTier
	case CancerGrading:
		selections[TierDifferentiation] = typed.Differentiation
	case NoSubtype:
	default:
		return invalid("subtype", ErrInvalidSelection, "unsupported subtype %T", s)
	}
	var missing []string
	for _, tier := range rule.tiers {
		value := selections[tier.Tier]
		delete(selections, tier.Tier)
		if value == "" {
			missing = append(missing, tier.Label)
			continue
		}
		if !tier.Accepts(value) {
			return invalid("subtype", ErrInvalidSelection, "%q is not a valid %s value", value, tier.Label)
		}
	}
	for tier := range selections {
		return invalid("subtype", ErrInvalidSelection, "%s does not use the %s tier", c, tier)
	}
	if len(missing) > 0 {
		reason := "please select " + strings.Join(missing, " and ")
		if rule.ungradable {
			reason += " grading, or mark as Ungradable"
		}
		return &ValidationError{Field: "subtype", Reason: reason, Err: ErrIncompleteGrading}
	}
	return nil
}
