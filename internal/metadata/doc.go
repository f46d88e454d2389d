// Package metadata writes and reads the note metadata log that joins the
// render and trim stages.
//
// The log is UTF-8 CSV without quoting:
//
//	# Generated 2026-01-02T15:04:05Z
//	# Project: song
//	# Run: 5f0c...
//	filename,start_time,end_time
//	soft-hitwhistle1,1.250,3.000
//
// start_time is the detected onset (0.000 when none was found) and end_time
// the marker time, both with exactly three decimals. The reader also accepts
// two-column rows and ignores extra columns.
package metadata
