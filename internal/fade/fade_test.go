package fade

import (
	"errors"
	"math"
	"testing"

	"hitcut/internal/host"
	"hitcut/internal/host/smfproject"
	"hitcut/internal/services"
	"hitcut/internal/timing"
)

func TestLaneValue(t *testing.T) {
	tests := []struct {
		scaling host.Scaling
		amp     float64
		want    float64
	}{
		{host.ScalingAmplitude, UnityGain, 1},
		{host.ScalingAmplitude, SilentGain, 0},
		{host.ScalingDecibel, UnityGain, 0},
		{host.ScalingDecibel, SilentGain, MinDecibel},
		{host.ScalingDecibel, 0.5, 20 * math.Log10(0.5)},
		{host.ScalingCC7, UnityGain, 127},
		{host.ScalingCC7, SilentGain, 0},
		{host.ScalingCC7, 0.25, 63.5},
		{host.ScalingCC7, 4, 127},
	}
	for _, tt := range tests {
		if got := LaneValue(tt.scaling, tt.amp); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("LaneValue(%v, %v) = %v, want %v", tt.scaling, tt.amp, got, tt.want)
		}
	}
}

func TestBuildReplacesPoints(t *testing.T) {
	p := smfproject.New("fade", timing.Map{})
	opts := Options{Track: "Master", Lane: "Volume", BarCount: 1.5, Shape: host.ShapeSlow}

	tr, _ := p.CreateTrack("Master")
	lane, _ := tr.CreateLane("Volume")
	for i := 0; i < 5; i++ {
		lane.Insert(host.Point{Time: float64(i), Value: 50})
	}

	res, err := Build(p, 3.0, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if math.Abs(res.Window-3.0) > 1e-9 {
		t.Fatalf("expected window of 1.5 bars = 3s, got %v", res.Window)
	}
	points := lane.Points()
	if len(points) != 2 {
		t.Fatalf("expected exactly two points, got %+v", points)
	}
	if points[0].Time != 3.0 || points[0].Value != 127 || points[0].Shape != host.ShapeSlow {
		t.Fatalf("unexpected hold point %+v", points[0])
	}
	if math.Abs(points[1].Time-6.0) > 1e-9 || points[1].Value != 0 {
		t.Fatalf("unexpected decay point %+v", points[1])
	}
}

func TestBuildCreatesTrackAndLane(t *testing.T) {
	p := smfproject.New("fade", timing.Map{})
	if _, err := Build(p, 1.0, Options{Track: "Master", Lane: "Volume", BarCount: 1}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	tr, ok := p.FindTrack("Master")
	if !ok {
		t.Fatal("expected Master track to be created")
	}
	lane, ok := tr.Lane("Volume")
	if !ok || len(lane.Points()) != 2 {
		t.Fatalf("expected created lane with two points")
	}
}

func TestBuildReportsHostFailure(t *testing.T) {
	p := smfproject.New("fade", timing.Map{})
	_, err := Build(p, 1.0, Options{Track: "Master", Lane: "Pan", BarCount: 1})
	if !errors.Is(err, services.ErrHost) {
		t.Fatalf("expected host error, got %v", err)
	}
	_, err = Build(p, 1.0, Options{Track: "Master", Lane: "Volume", BarCount: 0})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
