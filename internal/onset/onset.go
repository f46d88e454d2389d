// Package onset finds the start of the last qualifying note before a marker.
package onset

import (
	"hitcut/internal/host"
	"hitcut/internal/timing"
)

// IgnoreSet holds MIDI pitches excluded from detection.
type IgnoreSet map[uint8]struct{}

// NewIgnoreSet builds an IgnoreSet from configured pitches. Out-of-range
// values are dropped.
func NewIgnoreSet(pitches []int) IgnoreSet {
	set := make(IgnoreSet, len(pitches))
	for _, p := range pitches {
		if p >= 0 && p <= 127 {
			set[uint8(p)] = struct{}{}
		}
	}
	return set
}

func (s IgnoreSet) Contains(pitch uint8) bool {
	_, ok := s[pitch]
	return ok
}

// Result is the detected onset for one marker. Seconds is 0 when nothing was found.
type Result struct {
	Found   bool
	Note    host.Note
	Seconds float64
}

// Select returns the candidate with the latest start tick among notes whose
// end tick lies in (markerTick - windowTicks, markerTick] and whose pitch is
// not ignored. The first note seen wins ties.
func Select(notes []host.Note, markerTick, windowTicks int64, ignore IgnoreSet) (host.Note, bool) {
	var (
		best  host.Note
		found bool
	)
	lower := markerTick - windowTicks
	for _, n := range notes {
		if n.EndTick <= lower || n.EndTick > markerTick {
			continue
		}
		if ignore.Contains(n.Pitch) {
			continue
		}
		if !found || n.StartTick > best.StartTick {
			best = n
			found = true
		}
	}
	return best, found
}

// Detect looks across every track's notes for the onset preceding a marker at
// markerTime, using a one-bar lookback measured at the marker.
func Detect(tempo timing.Map, markerTime float64, tracks [][]host.Note, ignore IgnoreSet) Result {
	markerTick := tempo.SecondsToTicks(markerTime)
	window := tempo.BarTicksBefore(markerTime)

	var all []host.Note
	for _, notes := range tracks {
		all = append(all, notes...)
	}
	note, ok := Select(all, markerTick, window, ignore)
	if !ok {
		return Result{}
	}
	return Result{Found: true, Note: note, Seconds: tempo.TicksToSeconds(note.StartTick)}
}
