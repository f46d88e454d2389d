package smfproject

import (
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"hitcut/internal/host"
)

const volumeController = 7

// event ordering within one tick: note offs, then controllers, then note ons.
const (
	orderMeta = iota
	orderNoteOff
	orderControl
	orderNoteOn
)

type timedEvent struct {
	tick  int64
	order int
	msg   []byte
}

// Snapshot builds a MIDI file of the current state clipped to the render bounds.
func (p *Project) Snapshot() (*smf.SMF, error) {
	startTick := p.tempo.SecondsToTicks(p.state.renderStart)
	endTick := p.tempo.SecondsToTicks(p.state.renderEnd)
	ppq := p.tempo.PPQ()

	sm := smf.NewSMF1()
	sm.TimeFormat = smf.MetricTicks(ppq)

	conductor := []timedEvent{{tick: 0, order: orderMeta, msg: smf.MetaTrackSequenceName(p.name)}}
	for _, ch := range p.tempo.Changes() {
		if ch.Tick >= endTick {
			break
		}
		tick := max(ch.Tick-startTick, 0)
		conductor = append(conductor,
			timedEvent{tick: tick, order: orderMeta, msg: smf.MetaTempo(ch.BPM)},
			timedEvent{tick: tick, order: orderMeta, msg: smf.MetaMeter(uint8(ch.Numerator), uint8(ch.Denominator))},
		)
	}
	for _, mk := range p.state.markers {
		tick := p.tempo.SecondsToTicks(mk.Time)
		if tick < startTick || tick > endTick {
			continue
		}
		conductor = append(conductor, timedEvent{tick: tick - startTick, order: orderMeta, msg: smf.MetaMarker(mk.Name)})
	}
	if err := sm.Add(buildTrack(conductor, endTick-startTick)); err != nil {
		return nil, err
	}

	projectChannels := p.channels(nil)
	for _, ts := range p.state.tracks {
		events := []timedEvent{{tick: 0, order: orderMeta, msg: smf.MetaTrackSequenceName(ts.name)}}
		for _, it := range ts.items {
			for _, n := range it.notes {
				if n.StartTick < startTick || n.StartTick >= endTick {
					continue
				}
				end := min(n.EndTick, endTick)
				events = append(events,
					timedEvent{tick: n.StartTick - startTick, order: orderNoteOn, msg: midi.NoteOn(n.Channel, n.Pitch, n.Velocity)},
					timedEvent{tick: end - startTick, order: orderNoteOff, msg: midi.NoteOff(n.Channel, n.Pitch)},
				)
			}
		}
		channels := p.channels(ts)
		if len(channels) == 0 {
			channels = projectChannels
		}
		for _, ls := range ts.lanes {
			if ls.scaling != host.ScalingCC7 {
				p.logger.Debug("skipping lane outside cc7 domain", "lane", ls.name, "scaling", ls.scaling.String())
				continue
			}
			for _, cc := range p.laneControls(ls, startTick, endTick) {
				for _, ch := range channels {
					events = append(events, timedEvent{
						tick:  cc.tick,
						order: orderControl,
						msg:   midi.ControlChange(ch, volumeController, cc.value),
					})
				}
			}
		}
		if err := sm.Add(buildTrack(events, endTick-startTick)); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

func buildTrack(events []timedEvent, length int64) smf.Track {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].order < events[j].order
	})
	var (
		tr   smf.Track
		last int64
	)
	for _, ev := range events {
		tr.Add(uint32(ev.tick-last), ev.msg)
		last = ev.tick
	}
	tr.Close(uint32(max(length-last, 0)))
	return tr
}

type controlValue struct {
	tick  int64
	value uint8
}

// laneControls samples the envelope into CC values, emitting only changes.
// Each segment uses the shape of the point that starts it.
func (p *Project) laneControls(ls *laneState, startTick, endTick int64) []controlValue {
	points := append([]host.Point(nil), ls.points...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	if len(points) == 0 {
		return nil
	}
	step := int64(max(p.tempo.PPQ()/16, 1))
	var (
		out      []controlValue
		lastSent = -1
	)
	emit := func(tick int64, value float64) {
		if tick < startTick || tick > endTick {
			return
		}
		v := int(math.Round(math.Max(0, math.Min(127, value))))
		if v == lastSent {
			return
		}
		lastSent = v
		out = append(out, controlValue{tick: tick - startTick, value: uint8(v)})
	}

	for i, pt := range points {
		from := p.tempo.SecondsToTicks(pt.Time)
		emit(from, pt.Value)
		if i == len(points)-1 {
			break
		}
		next := points[i+1]
		to := p.tempo.SecondsToTicks(next.Time)
		for tick := from + step; tick < to; tick += step {
			x := float64(tick-from) / float64(to-from)
			emit(tick, pt.Shape.Interpolate(pt.Value, next.Value, x))
		}
	}
	return out
}

// channels lists the MIDI channels used by a track, or by the whole project when ts is nil.
func (p *Project) channels(ts *trackState) []uint8 {
	seen := map[uint8]bool{}
	collect := func(t *trackState) {
		for _, it := range t.items {
			for _, n := range it.notes {
				seen[n.Channel] = true
			}
		}
	}
	if ts != nil {
		collect(ts)
	} else {
		for _, t := range p.state.tracks {
			collect(t)
		}
	}
	if ts == nil && len(seen) == 0 {
		seen[0] = true
	}
	out := make([]uint8, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
