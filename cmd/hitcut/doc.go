// Package main hosts the hitcut CLI entrypoint and command graph.
//
// The Cobra command tree exposes the two pipeline stages (render and trim)
// plus marker listing, dependency checks and configuration scaffolding. It
// centralizes configuration resolution and logger construction so each
// command only wires internal packages together and prints a summary.
//
// Keep this package lean: behaviour belongs in internal packages, and commands
// translate flags into their options.
package main
