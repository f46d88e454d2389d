// Package services defines shared utilities consumed by the render and trim
// stages and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and marker indices for
//     logging.
//   - Structured error markers plus the Wrap helper that let callers separate
//     fatal configuration failures from per-marker and per-row errors.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// classification, observability) stays uniform across both stages.
package services
