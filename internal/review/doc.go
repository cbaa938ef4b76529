// Package review implements the navigation state machine of a labelling
// session and the Engine that presentation layers drive.
//
// A Cursor walks positions [0, N) of the catalog; position N means the
// catalog is exhausted. The Engine combines the cursor with the label store,
// the grading form and the session timer, and reports what happened to
// registered listeners after each operation.
package review
