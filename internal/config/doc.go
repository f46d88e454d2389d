// Package config loads, normalizes, and validates hitcut configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HITCUT_FFMPEG and HITCUT_SOUNDFONT. The Config type centralizes every knob
// the render and trim stages need, so the project file, the metadata log, the
// render output directory and the trim tool are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
