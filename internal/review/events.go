package review

// EventKind names a notification raised by the engine.
type EventKind string

const (
	// EventNavigated fires whenever a new position is shown.
	EventNavigated EventKind = "navigated"
	// EventCaseChanged fires when the shown image belongs to a different case
	// than the previous one. It is transient and changes no stored data.
	EventCaseChanged EventKind = "case_changed"
	// EventLabelSaved fires after a label is stored.
	EventLabelSaved EventKind = "label_saved"
	// EventLabelCleared fires after the current label is deleted.
	EventLabelCleared EventKind = "label_cleared"
	// EventProgressSaved fires after a partial export.
	EventProgressSaved EventKind = "progress_saved"
	// EventFinished fires once the session is closed.
	EventFinished EventKind = "finished"
	// EventWarning reports a non-fatal failure such as a journal write.
	EventWarning EventKind = "warning"
)

// Event is delivered to listeners after the engine releases its lock.
type Event struct {
	Kind     EventKind
	Position int
	Key      string
	CaseID   string
	// PreviousCaseID is set for EventCaseChanged.
	PreviousCaseID string
	Message        string
	// Files lists the paths written by an export event.
	Files []string
	Err   error
}

// Listener receives engine events. Listeners may call back into the engine.
type Listener func(Event)
