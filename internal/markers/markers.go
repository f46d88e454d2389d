// Package markers enumerates the cut markers of a project in processing order.
package markers

import (
	"sort"

	"hitcut/internal/host"
)

// Marker is a cut point with its 1-based processing index.
type Marker struct {
	Index int
	Name  string
	Time  float64
}

// Source provides raw markers. host.Project satisfies it.
type Source interface {
	Markers() []host.Marker
}

// List returns every marker sorted ascending by time, stable for equal times,
// numbered from 1.
func List(src Source) []Marker {
	raw := src.Markers()
	sorted := append([]host.Marker(nil), raw...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	out := make([]Marker, len(sorted))
	for i, m := range sorted {
		out[i] = Marker{Index: i + 1, Name: m.Name, Time: m.Time}
	}
	return out
}
