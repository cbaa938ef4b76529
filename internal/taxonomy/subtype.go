package taxonomy

import (
	"fmt"
	"strings"
)

// SubtypeKind discriminates the Subtype union.
type SubtypeKind int

const (
	KindNone SubtypeKind = iota
	KindTissue
	KindDysplasia
	KindCancer
	KindUngradable
)

func (k SubtypeKind) String() string {
	switch k {
	case KindTissue:
		return "tissue"
	case KindDysplasia:
		return "dysplasia_grading"
	case KindCancer:
		return "cancer_grading"
	case KindUngradable:
		return "ungradable"
	default:
		return "none"
	}
}

// Subtype is the structured secondary classification attached to a label.
// String returns the flattened form written to the label table.
type Subtype interface {
	Kind() SubtypeKind
	String() string
	isSubtype()
}

// NoSubtype is used by categories without secondary detail.
type NoSubtype struct{}

// TissueType records the tissue compartment of a Normal diagnosis.
type TissueType struct {
	Value string
}

// DysplasiaGrading records both the binary and the three-tier dysplasia grade.
type DysplasiaGrading struct {
	Binary    string
	ThreeTier string
}

// CancerGrading records the three-tier differentiation of a carcinoma.
type CancerGrading struct {
	Differentiation string
}

// Ungradable supersedes tier selection when image quality prevents grading.
type Ungradable struct{}

func (NoSubtype) Kind() SubtypeKind        { return KindNone }
func (TissueType) Kind() SubtypeKind       { return KindTissue }
func (DysplasiaGrading) Kind() SubtypeKind { return KindDysplasia }
func (CancerGrading) Kind() SubtypeKind    { return KindCancer }
func (Ungradable) Kind() SubtypeKind       { return KindUngradable }

func (NoSubtype) String() string    { return "" }
func (t TissueType) String() string { return t.Value }
func (g DysplasiaGrading) String() string {
	return "Binary:" + g.Binary + "|ThreeTier:" + g.ThreeTier
}
func (g CancerGrading) String() string { return "ThreeTier:" + g.Differentiation }
func (Ungradable) String() string      { return ungradableLabel }

func (NoSubtype) isSubtype()        {}
func (TissueType) isSubtype()       {}
func (DysplasiaGrading) isSubtype() {}
func (CancerGrading) isSubtype()    {}
func (Ungradable) isSubtype()       {}

const ungradableLabel = "Ungradable"

// SubtypeOrNone replaces a nil subtype with NoSubtype.
func SubtypeOrNone(s Subtype) Subtype {
	if s == nil {
		return NoSubtype{}
	}
	return s
}

// ParseSubtype restores a subtype from its flattened form. The category picks
// which union member a bare value maps to.
func ParseSubtype(category Category, flat string) (Subtype, error) {
	flat = strings.TrimSpace(flat)
	switch {
	case flat == "":
		return NoSubtype{}, nil
	case flat == ungradableLabel:
		return Ungradable{}, nil
	case category == Dysplasia:
		parts := parsePairs(flat)
		binary, okBinary := parts["Binary"]
		three, okThree := parts["ThreeTier"]
		if !okBinary || !okThree || len(parts) != 2 {
			return nil, fmt.Errorf("parse dysplasia subtype %q: %w", flat, ErrInvalidSelection)
		}
		return DysplasiaGrading{Binary: binary, ThreeTier: three}, nil
	case category == Cancer:
		parts := parsePairs(flat)
		diff, ok := parts["ThreeTier"]
		if !ok || len(parts) != 1 {
			return nil, fmt.Errorf("parse cancer subtype %q: %w", flat, ErrInvalidSelection)
		}
		return CancerGrading{Differentiation: diff}, nil
	case category == Normal:
		return TissueType{Value: flat}, nil
	default:
		return nil, fmt.Errorf("parse subtype %q for %s: %w", flat, category, ErrInvalidSelection)
	}
}

func parsePairs(flat string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(flat, "|") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}
