// Package preflight provides readiness checks for the tools and paths hitcut
// depends on.
//
// The render and trim commands call RunRender and RunTrim before touching any
// file so a missing soundfont or an unwritable output directory fails fast
// instead of after the first marker. The deps command reports
// CheckSystemDeps alongside these results.
package preflight
