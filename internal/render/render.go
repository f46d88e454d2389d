package render

import (
	"context"
	"fmt"
	"strings"

	"hitcut/internal/host"
	"hitcut/internal/services"
)

// Filename formats the output name for a marker: pattern applied to
// baseIndex + markerIndex - 1.
func Filename(pattern string, baseIndex, markerIndex int) string {
	return fmt.Sprintf(pattern, baseIndex+markerIndex-1)
}

// Request is one render of everything up to a marker plus its fade tail.
type Request struct {
	Filename   string
	MarkerTime float64
	FadeWindow float64
}

// End is the upper render bound.
func (r Request) End() float64 {
	return r.MarkerTime + r.FadeWindow
}

// Trigger sets bounds [0, marker + fade window] and the output name, then
// renders with the project's existing settings.
func Trigger(ctx context.Context, project host.Project, req Request) error {
	if strings.TrimSpace(req.Filename) == "" {
		return services.Wrap(services.ErrValidation, "render", "trigger", "filename is empty", nil)
	}
	if err := project.SetRenderBounds(0, req.End()); err != nil {
		return services.Wrap(services.ErrHost, "render", "set bounds", req.Filename, err)
	}
	if err := project.SetOutputName(req.Filename); err != nil {
		return services.Wrap(services.ErrHost, "render", "set output name", req.Filename, err)
	}
	if err := project.Render(ctx); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "render", req.Filename, err)
	}
	return nil
}
