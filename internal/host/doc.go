// Package host defines the capability interface through which the render
// stage reads and mutates an audio project.
//
// Core packages (segment, onset, fade, render, pipeline) never touch project
// state directly. They operate on a Project and its Tracks and Lanes, and every
// per-marker mutation happens inside a Transaction that the caller rolls back
// before the next marker. Concrete hosts live in subpackages.
package host
