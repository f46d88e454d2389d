// Package segment truncates track content at a marker.
package segment

import (
	"errors"
	"log/slog"
	"sort"

	"hitcut/internal/host"
	"hitcut/internal/logging"
	"hitcut/internal/services"
)

// Result summarizes the edits made to one track.
type Result struct {
	Track   string
	Split   int
	Deleted int
	Missing bool
}

// Truncate cuts the named tracks at at. Items straddling the marker are split
// and their right-hand piece deleted; items wholly before or after it are left
// alone. Items are visited in reverse position order so earlier ids stay valid
// while later ones are mutated. Missing tracks are logged and skipped.
func Truncate(project host.Project, trackNames []string, at float64, logger *slog.Logger) ([]Result, error) {
	logger = logging.NewComponentLogger(logger, "segment")
	results := make([]Result, 0, len(trackNames))
	var errs []error

	for _, name := range trackNames {
		tr, ok := project.FindTrack(name)
		if !ok {
			logger.Warn("configured track not found; skipping",
				logging.String("track", name),
				logging.String(logging.FieldEventType, "track_missing"),
			)
			results = append(results, Result{Track: name, Missing: true})
			continue
		}
		res, err := truncateTrack(tr, at)
		if err != nil {
			errs = append(errs, services.Wrap(services.ErrHost, "segment", "truncate "+name, "", err))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func truncateTrack(tr host.Track, at float64) (Result, error) {
	res := Result{Track: tr.Name()}
	items := tr.Items()
	sort.SliceStable(items, func(i, j int) bool { return items[i].Start > items[j].Start })

	for _, item := range items {
		if item.Start >= at || item.End() <= at {
			continue
		}
		right, err := tr.Split(item.ID, at)
		if err != nil {
			return res, err
		}
		res.Split++
		if err := tr.DeleteItem(right.ID); err != nil {
			return res, err
		}
		res.Deleted++
	}
	return res, nil
}
