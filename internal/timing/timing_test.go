package timing

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestZeroMapUsesDefaults(t *testing.T) {
	var m Map
	if m.PPQ() != DefaultPPQ {
		t.Fatalf("expected default PPQ, got %d", m.PPQ())
	}
	if got := m.TicksToSeconds(960); !almostEqual(got, 0.5) {
		t.Fatalf("one quarter at 120 bpm should be 0.5s, got %v", got)
	}
	if got := m.SecondsToTicks(2.0); got != 3840 {
		t.Fatalf("expected 3840 ticks for 2s, got %d", got)
	}
	if got := m.BarDurationAt(10); !almostEqual(got, 2.0) {
		t.Fatalf("expected 2s bar, got %v", got)
	}
}

func TestBarDuration(t *testing.T) {
	tests := []struct {
		name  string
		tempo Tempo
		want  float64
	}{
		{"4/4 at 120", Tempo{BPM: 120, Numerator: 4, Denominator: 4}, 2.0},
		{"3/4 at 90", Tempo{BPM: 90, Numerator: 3, Denominator: 4}, 2.0},
		{"6/8 at 120", Tempo{BPM: 120, Numerator: 6, Denominator: 8}, 1.5},
		{"7/8 at 140", Tempo{BPM: 140, Numerator: 7, Denominator: 8}, 1.5},
		{"invalid", Tempo{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BarDuration(tt.tempo); !almostEqual(got, tt.want) {
				t.Fatalf("BarDuration(%+v) = %v, want %v", tt.tempo, got, tt.want)
			}
		})
	}
}

func TestPiecewiseConversion(t *testing.T) {
	// 120 bpm for the first bar (3840 ticks = 2s), then 60 bpm in 3/4.
	m := NewMap(960, []Change{
		{Tick: 3840, Tempo: Tempo{BPM: 60, Numerator: 3, Denominator: 4}},
	})

	if got := m.TicksToSeconds(3840); !almostEqual(got, 2.0) {
		t.Fatalf("expected 2s at tempo change, got %v", got)
	}
	if got := m.TicksToSeconds(3840 + 960); !almostEqual(got, 3.0) {
		t.Fatalf("expected 3s one quarter after change, got %v", got)
	}
	if got := m.SecondsToTicks(3.0); got != 4800 {
		t.Fatalf("expected 4800 ticks at 3s, got %d", got)
	}
	if got := m.SecondsToTicks(1.0); got != 1920 {
		t.Fatalf("expected 1920 ticks at 1s, got %d", got)
	}

	if got := m.BarDurationAt(1.0); !almostEqual(got, 2.0) {
		t.Fatalf("expected 4/4 bar before change, got %v", got)
	}
	if got := m.BarDurationAt(2.5); !almostEqual(got, 3.0) {
		t.Fatalf("expected 3/4 at 60 bar after change, got %v", got)
	}
	tempo := m.At(2.0)
	if tempo.BPM != 60 || tempo.Numerator != 3 || tempo.Denominator != 4 {
		t.Fatalf("unexpected tempo at change: %+v", tempo)
	}
}

func TestRoundTrip(t *testing.T) {
	m := NewMap(480, []Change{
		{Tick: 0, Tempo: Tempo{BPM: 150}},
		{Tick: 1920, Tempo: Tempo{BPM: 75}},
		{Tick: 4000, Tempo: Tempo{Numerator: 7, Denominator: 8}},
	})
	for _, tick := range []int64{0, 1, 479, 1920, 2500, 4000, 10000} {
		if got := m.SecondsToTicks(m.TicksToSeconds(tick)); got != tick {
			t.Fatalf("round trip of %d produced %d", tick, got)
		}
	}
	// meter-only change keeps the previous bpm
	if tempo := m.At(m.TicksToSeconds(4000)); tempo.BPM != 75 || tempo.Numerator != 7 {
		t.Fatalf("expected inherited bpm with new meter, got %+v", tempo)
	}
}

func TestBarTicksBefore(t *testing.T) {
	var m Map
	if got := m.BarTicksBefore(3.0); got != 3840 {
		t.Fatalf("expected one bar of 3840 ticks, got %d", got)
	}
	// window reaching before zero extrapolates instead of clamping
	if got := m.BarTicksBefore(0.5); got != 3840 {
		t.Fatalf("expected full bar width near start, got %d", got)
	}
}

func TestChangesNormalized(t *testing.T) {
	m := NewMap(0, []Change{{Tick: 960, Tempo: Tempo{BPM: 100}}, {Tick: 960, Tempo: Tempo{Numerator: 3}}})
	changes := m.Changes()
	if len(changes) != 2 {
		t.Fatalf("expected synthesized start plus merged change, got %+v", changes)
	}
	if changes[1].BPM != 100 || changes[1].Numerator != 3 || changes[1].Denominator != 4 {
		t.Fatalf("unexpected merged change: %+v", changes[1])
	}
}
