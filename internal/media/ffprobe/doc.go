// Package ffprobe wraps ffprobe's JSON output for audio files.
//
// Inspect runs ffprobe against one file and returns the container format and
// its audio streams. Result helpers parse the string-typed numeric fields.
package ffprobe
