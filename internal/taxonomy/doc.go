// Package taxonomy defines the label vocabularies the review loop works with.
//
// A Variant bundles everything that differs between labelling tools: the
// category set, which categories demand a free-text comment, which grading
// tiers each category accepts, and whether a category may be marked
// Ungradable. Subtypes are a closed tagged union (NoSubtype, TissueType,
// DysplasiaGrading, CancerGrading, Ungradable) that flattens to the string
// forms written to the label table and parses back from them.
//
// Form accumulates the annotator's selections for the current image and turns
// them into a validated Label. Validation failures are *ValidationError values
// that wrap ErrCommentRequired, ErrIncompleteGrading, or ErrInvalidSelection.
package taxonomy
