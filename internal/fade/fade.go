// Package fade writes the hold-then-decay envelope that silences a render
// shortly after its marker.
package fade

import (
	"fmt"

	"hitcut/internal/host"
	"hitcut/internal/services"
)

// Options selects the lane and sizes the fade.
type Options struct {
	Track    string
	Lane     string
	BarCount float64
	Shape    host.Shape
}

// Result reports the envelope written for one marker.
type Result struct {
	Window float64
	Hold   host.Point
	Decay  host.Point
}

// Window returns the fade length after markerTime: the bar duration in effect
// at the marker times barCount.
func Window(project host.Project, markerTime, barCount float64) float64 {
	return project.TempoMap().BarDurationAt(markerTime) * barCount
}

// Build replaces every point on the target lane with a hold at the marker and
// a decay to silence one fade window later. The track and lane are created
// when absent.
func Build(project host.Project, markerTime float64, opts Options) (Result, error) {
	if opts.BarCount <= 0 {
		return Result{}, services.Wrap(services.ErrConfiguration, "fade", "build",
			fmt.Sprintf("bar count must be positive, got %v", opts.BarCount), nil)
	}
	lane, err := ensureLane(project, opts.Track, opts.Lane)
	if err != nil {
		return Result{}, err
	}

	window := Window(project, markerTime, opts.BarCount)
	res := Result{
		Window: window,
		Hold:   host.Point{Time: markerTime, Value: LaneValue(lane.Scaling(), UnityGain), Shape: opts.Shape},
		Decay:  host.Point{Time: markerTime + window, Value: LaneValue(lane.Scaling(), SilentGain), Shape: opts.Shape},
	}
	lane.Clear()
	lane.Insert(res.Hold)
	lane.Insert(res.Decay)
	lane.Sort()
	return res, nil
}

func ensureLane(project host.Project, trackName, laneName string) (host.Lane, error) {
	tr, ok := project.FindTrack(trackName)
	if !ok {
		created, err := project.CreateTrack(trackName)
		if err != nil {
			return nil, services.Wrap(services.ErrHost, "fade", "create track", trackName, err)
		}
		tr = created
	}
	if lane, ok := tr.Lane(laneName); ok {
		return lane, nil
	}
	lane, err := tr.CreateLane(laneName)
	if err != nil {
		return nil, services.Wrap(services.ErrHost, "fade", "create lane", trackName+"/"+laneName, err)
	}
	return lane, nil
}
