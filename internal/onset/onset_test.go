package onset

import (
	"math"
	"testing"

	"hitcut/internal/host"
	"hitcut/internal/timing"
)

// at the default tempo one second is 1920 ticks
func note(start, end float64, pitch uint8) host.Note {
	return host.Note{StartTick: int64(start * 1920), EndTick: int64(end * 1920), Pitch: pitch}
}

func TestDetectSelectsLatestStart(t *testing.T) {
	notes := []host.Note{
		note(0.5, 1.0, 60),
		note(1.5, 2.0, 62),
		note(2.2, 2.5, 64),
	}
	res := Detect(timing.Map{}, 3.0, [][]host.Note{notes}, nil)
	if !res.Found {
		t.Fatal("expected an onset")
	}
	if math.Abs(res.Seconds-2.2) > 1e-3 {
		t.Fatalf("expected onset 2.2, got %v", res.Seconds)
	}
}

func TestSelectWindowBounds(t *testing.T) {
	tests := []struct {
		name  string
		notes []host.Note
		want  int64
		found bool
	}{
		{
			name:  "end exactly at lower bound is excluded",
			notes: []host.Note{{StartTick: 100, EndTick: 1000}},
		},
		{
			name:  "end exactly at marker is included",
			notes: []host.Note{{StartTick: 1500, EndTick: 2000}},
			want:  1500,
			found: true,
		},
		{
			name:  "end after marker is excluded",
			notes: []host.Note{{StartTick: 1900, EndTick: 2001}},
		},
		{
			name: "latest start beats latest end",
			notes: []host.Note{
				{StartTick: 1200, EndTick: 1999},
				{StartTick: 1600, EndTick: 1700},
			},
			want:  1600,
			found: true,
		},
		{
			name: "ties keep first seen",
			notes: []host.Note{
				{StartTick: 1600, EndTick: 1800, Pitch: 1},
				{StartTick: 1600, EndTick: 1900, Pitch: 2},
			},
			want:  1600,
			found: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.notes, 2000, 1000, nil)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && got.StartTick != tt.want {
				t.Fatalf("start = %d, want %d", got.StartTick, tt.want)
			}
		})
	}

	first, _ := Select([]host.Note{
		{StartTick: 1600, EndTick: 1800, Pitch: 1},
		{StartTick: 1600, EndTick: 1900, Pitch: 2},
	}, 2000, 1000, nil)
	if first.Pitch != 1 {
		t.Fatalf("expected first seen note on tie, got pitch %d", first.Pitch)
	}
}

func TestDetectIgnoresPitchesAcrossTracks(t *testing.T) {
	melody := []host.Note{note(1.5, 2.0, 60)}
	drums := []host.Note{note(2.4, 2.6, 42)}
	ignore := NewIgnoreSet([]int{42, 300, -1})
	if len(ignore) != 1 {
		t.Fatalf("out of range pitches should be dropped, got %v", ignore)
	}
	res := Detect(timing.Map{}, 3.0, [][]host.Note{melody, drums}, ignore)
	if !res.Found || math.Abs(res.Seconds-1.5) > 1e-3 {
		t.Fatalf("expected onset 1.5 from melody, got %+v", res)
	}
	res = Detect(timing.Map{}, 3.0, [][]host.Note{melody, drums}, nil)
	if math.Abs(res.Seconds-2.4) > 1e-3 {
		t.Fatalf("expected drum onset without ignore set, got %+v", res)
	}
}

func TestDetectNothingFound(t *testing.T) {
	res := Detect(timing.Map{}, 10.0, [][]host.Note{{note(0.5, 1.0, 60)}}, nil)
	if res.Found || res.Seconds != 0 {
		t.Fatalf("expected sentinel result, got %+v", res)
	}
}

func TestDetectUsesTempoAtMarker(t *testing.T) {
	// 60 bpm in 3/4 from 2s: a bar at the marker is 3s wide.
	tempo := timing.NewMap(960, []timing.Change{{Tick: 3840, Tempo: timing.Tempo{BPM: 60, Numerator: 3, Denominator: 4}}})
	notes := []host.Note{{StartTick: 1920, EndTick: 2400, Pitch: 60}} // ends at 1.25s
	res := Detect(tempo, 4.0, [][]host.Note{notes}, nil)
	if !res.Found || math.Abs(res.Seconds-1.0) > 1e-9 {
		t.Fatalf("expected onset at 1.0s within a 3s bar, got %+v", res)
	}
}
