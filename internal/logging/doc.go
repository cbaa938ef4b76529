// Package logging builds the slog loggers used by labeller.
//
// A labelling session logs to a single file under the configured log
// directory, either as key=value lines or JSON. Records are tagged with a
// component and, once a session exists, its ID; the line format pulls the
// session, case, image and position keys to the front so a reviewer's path
// through the dataset can be followed with grep.
//
// WarnWithContext and ErrorWithContext attach event_type, error_hint and
// impact fields for conditions the annotator may need to act on.
package logging
