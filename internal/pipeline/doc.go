// Package pipeline runs the render stage: for each marker in ascending order
// it opens a host transaction, truncates the configured tracks, detects the
// onset, writes the fade, renders, and rolls every edit back before recording
// the marker's metadata row.
//
// Per-marker failures are logged and counted; only metadata write failures and
// cancellation stop a run.
package pipeline
