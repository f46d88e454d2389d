// Package render names, bounds and triggers the render for one marker, and
// guards a render run with an advisory lock next to its metadata log.
package render
