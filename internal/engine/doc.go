// Package engine implements the conversion engine.
//
// A job streams every record of every source through the same pipeline:
//
//	extract.Row -> Classifier.Classify -> IndexTable.GetOrAssign -> buildEntry
//
// and finally renders the accumulated tables and entries with render.Write.
//
// ORDERING:
//
// Sources are processed in the order given and rows in file order, on a
// single goroutine. Asset indices are assigned in that total order, so the
// same inputs always produce the same bytes, and reordering sources changes
// the indices (but never their consistency).
//
// FAILURE MODEL:
//
// Row problems (bad numbers) are logged and skipped. Short records are
// dropped silently. Unreadable sources and unwritable destinations fail the
// job with a *JobError; nothing is reported as partially successful.
//
// REPORTING:
//
// Human-readable log lines and progress go to an Observer (Convert) or an
// event channel (Start). Structured diagnostics go to slog.
package engine
