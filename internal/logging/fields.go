package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID is the standardized key for the labelling session identifier.
	FieldSessionID = "session_id"
	// FieldImageKey is the standardized key for the resolved image identity.
	FieldImageKey = "image_key"
	// FieldPosition is the standardized key for the 0-based cursor position.
	FieldPosition = "position"
	// FieldCaseID is the standardized key for case identifiers.
	FieldCaseID = "case_id"
	// FieldCategory is the standardized key for label categories.
	FieldCategory = "category"
	// FieldEventType is the standardized key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized key for operator-facing next steps.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
