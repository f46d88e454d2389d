// Package timing converts between project seconds and musical ticks.
//
// A Map is an immutable tempo map: a pulses-per-quarter resolution plus the
// ordered tempo and meter changes of a project. All conversions are pure and
// honour the tempo in effect at each position rather than a global tempo.
package timing

import (
	"math"
	"sort"
)

const (
	DefaultPPQ         = 960
	DefaultBPM         = 120.0
	DefaultNumerator   = 4
	DefaultDenominator = 4
)

// Tempo is the tempo and time signature in effect at a position.
type Tempo struct {
	BPM         float64
	Numerator   int
	Denominator int
}

// Change starts a new Tempo at Tick. Zero fields inherit from the previous change.
type Change struct {
	Tick int64
	Tempo
}

type segment struct {
	tick    int64
	seconds float64
	tempo   Tempo
}

// Map is a tempo map. The zero value behaves like 120 bpm, 4/4, 960 PPQ.
type Map struct {
	ppq      int
	segments []segment
}

// NewMap builds a tempo map from unordered changes. A change at tick 0 is
// synthesized from the defaults when the first change starts later.
func NewMap(ppq int, changes []Change) Map {
	if ppq <= 0 {
		ppq = DefaultPPQ
	}
	sorted := append([]Change(nil), changes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Tick < sorted[j].Tick })

	current := Tempo{BPM: DefaultBPM, Numerator: DefaultNumerator, Denominator: DefaultDenominator}
	segments := []segment{{tick: 0, seconds: 0, tempo: current}}
	for _, ch := range sorted {
		if ch.Tick < 0 {
			ch.Tick = 0
		}
		next := current
		if ch.BPM > 0 {
			next.BPM = ch.BPM
		}
		if ch.Numerator > 0 {
			next.Numerator = ch.Numerator
		}
		if ch.Denominator > 0 {
			next.Denominator = ch.Denominator
		}
		last := &segments[len(segments)-1]
		if ch.Tick == last.tick {
			last.tempo = next
		} else {
			seconds := last.seconds + ticksToSeconds(ch.Tick-last.tick, last.tempo.BPM, ppq)
			segments = append(segments, segment{tick: ch.Tick, seconds: seconds, tempo: next})
		}
		current = next
	}
	return Map{ppq: ppq, segments: segments}
}

// PPQ returns the pulses-per-quarter-note resolution.
func (m Map) PPQ() int {
	if m.ppq <= 0 {
		return DefaultPPQ
	}
	return m.ppq
}

// Changes returns the normalized tempo changes, starting at tick 0.
func (m Map) Changes() []Change {
	segs := m.segs()
	out := make([]Change, len(segs))
	for i, s := range segs {
		out[i] = Change{Tick: s.tick, Tempo: s.tempo}
	}
	return out
}

func (m Map) segs() []segment {
	if len(m.segments) == 0 {
		return []segment{{tempo: Tempo{BPM: DefaultBPM, Numerator: DefaultNumerator, Denominator: DefaultDenominator}}}
	}
	return m.segments
}

// TicksToSeconds converts an absolute tick position to seconds.
// Negative ticks extrapolate with the initial tempo.
func (m Map) TicksToSeconds(tick int64) float64 {
	segs := m.segs()
	i := sort.Search(len(segs), func(i int) bool { return segs[i].tick > tick }) - 1
	if i < 0 {
		i = 0
	}
	s := segs[i]
	return s.seconds + ticksToSeconds(tick-s.tick, s.tempo.BPM, m.PPQ())
}

// SecondsToTicks converts seconds to the nearest absolute tick.
// Negative seconds extrapolate with the initial tempo.
func (m Map) SecondsToTicks(seconds float64) int64 {
	s := m.segmentAt(seconds)
	ticks := float64(s.tick) + (seconds-s.seconds)*s.tempo.BPM*float64(m.PPQ())/60
	return int64(math.Round(ticks))
}

// At returns the tempo in effect at seconds.
func (m Map) At(seconds float64) Tempo {
	return m.segmentAt(seconds).tempo
}

// BarDurationAt returns the length in seconds of one bar at the tempo and
// meter in effect at seconds.
func (m Map) BarDurationAt(seconds float64) float64 {
	return BarDuration(m.At(seconds))
}

// BarTicksBefore returns the width in ticks of the one-bar window that ends
// at seconds, measured with the bar duration in effect at seconds.
func (m Map) BarTicksBefore(seconds float64) int64 {
	return m.SecondsToTicks(seconds) - m.SecondsToTicks(seconds-m.BarDurationAt(seconds))
}

func (m Map) segmentAt(seconds float64) segment {
	segs := m.segs()
	i := sort.Search(len(segs), func(i int) bool { return segs[i].seconds > seconds }) - 1
	if i < 0 {
		i = 0
	}
	return segs[i]
}

// BarDuration computes numerator × (60/bpm) × (4/denominator).
func BarDuration(t Tempo) float64 {
	if t.BPM <= 0 || t.Numerator <= 0 || t.Denominator <= 0 {
		return 0
	}
	return float64(t.Numerator) * (60 / t.BPM) * (4 / float64(t.Denominator))
}

func ticksToSeconds(ticks int64, bpm float64, ppq int) float64 {
	return float64(ticks) * 60 / (bpm * float64(ppq))
}
