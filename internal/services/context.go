package services

import "context"

type contextKey string

const (
	runIDKey       contextKey = "run_id"
	stageKey       contextKey = "stage"
	markerIndexKey contextKey = "marker_index"
)

// WithRunID annotates context with the render or trim run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithMarkerIndex annotates context with the 1-based marker being processed.
func WithMarkerIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, markerIndexKey, index)
}

// MarkerIndexFromContext extracts the marker index if present.
func MarkerIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(markerIndexKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}
