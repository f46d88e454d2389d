package smfproject

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"

	"hitcut/internal/host"
	"hitcut/internal/services"
	"hitcut/internal/timing"
)

type pendingKey struct {
	channel uint8
	key     uint8
}

type pendingNote struct {
	tick     int64
	velocity uint8
}

type markerTick struct {
	name string
	tick int64
}

// Load reads a Standard MIDI File into a project.
func Load(path string, opts ...Option) (*Project, error) {
	mf, err := smf.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrHost, "smfproject", "load", "read "+path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p, err := FromSMF(name, mf, opts...)
	if err != nil {
		return nil, err
	}
	p.path = path
	return p, nil
}

// FromSMF builds a project from a parsed MIDI file.
func FromSMF(name string, mf *smf.SMF, opts ...Option) (*Project, error) {
	ticks, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, services.Wrap(services.ErrHost, "smfproject", "load",
			fmt.Sprintf("unsupported time format %v", mf.TimeFormat), nil)
	}

	var (
		changes []timing.Change
		marks   []markerTick
		parsed  []parsedTrack
	)
	for i, tr := range mf.Tracks {
		pt := parseTrack(tr)
		if pt.name == "" {
			pt.name = fmt.Sprintf("Track %d", i+1)
		}
		changes = append(changes, pt.changes...)
		marks = append(marks, pt.markers...)
		parsed = append(parsed, pt)
	}

	tempo := timing.NewMap(int(ticks.Resolution()), changes)
	p := New(name, tempo, opts...)
	for _, mk := range marks {
		if err := p.AddMarker(mk.name, tempo.TicksToSeconds(mk.tick)); err != nil {
			return nil, err
		}
	}
	for _, pt := range parsed {
		if len(pt.notes) == 0 {
			continue
		}
		var last int64
		for _, n := range pt.notes {
			if n.EndTick > last {
				last = n.EndTick
			}
		}
		if _, err := p.AddItem(pt.name, 0, tempo.TicksToSeconds(last), pt.notes); err != nil {
			return nil, err
		}
	}
	return p, nil
}

type parsedTrack struct {
	name    string
	notes   []host.Note
	changes []timing.Change
	markers []markerTick
}

func parseTrack(tr smf.Track) parsedTrack {
	var (
		out     parsedTrack
		abs     int64
		pending = map[pendingKey][]pendingNote{}
	)
	for _, ev := range tr {
		abs += int64(ev.Delta)
		msg := ev.Message

		var (
			ch, key, vel uint8
			bpm          float64
			num, den     uint8
			text         string
		)
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			k := pendingKey{ch, key}
			pending[k] = append(pending[k], pendingNote{tick: abs, velocity: vel})
		case msg.GetNoteEnd(&ch, &key):
			k := pendingKey{ch, key}
			starts := pending[k]
			if len(starts) == 0 {
				continue
			}
			start := starts[0]
			pending[k] = starts[1:]
			out.notes = append(out.notes, host.Note{
				StartTick: start.tick,
				EndTick:   abs,
				Pitch:     key,
				Channel:   ch,
				Velocity:  start.velocity,
			})
		case msg.GetMetaTempo(&bpm):
			out.changes = append(out.changes, timing.Change{Tick: abs, Tempo: timing.Tempo{BPM: bpm}})
		case msg.GetMetaMeter(&num, &den):
			out.changes = append(out.changes, timing.Change{Tick: abs, Tempo: timing.Tempo{Numerator: int(num), Denominator: int(den)}})
		case msg.GetMetaMarker(&text):
			out.markers = append(out.markers, markerTick{name: text, tick: abs})
		case msg.GetMetaTrackName(&text):
			if out.name == "" {
				out.name = strings.TrimSpace(text)
			}
		}
	}
	// notes left hanging close at the end of the track, in channel/key order
	keys := make([]pendingKey, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b pendingKey) int {
		if c := cmp.Compare(a.channel, b.channel); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	for _, k := range keys {
		for _, start := range pending[k] {
			out.notes = append(out.notes, host.Note{
				StartTick: start.tick,
				EndTick:   abs,
				Pitch:     k.key,
				Channel:   k.channel,
				Velocity:  start.velocity,
			})
		}
	}
	return out
}
