package fade

import (
	"math"

	"hitcut/internal/host"
)

// Gains are linear amplitude. LaneValue maps them into a lane's domain.
const (
	UnityGain  = 1.0
	SilentGain = 0.0
)

// MinDecibel is the value written for silence on decibel lanes.
const MinDecibel = -150.0

// LaneValue converts a linear amplitude into the native value of a lane with
// the given scaling. CC7 volume follows the General MIDI curve cc = 127·√amp.
func LaneValue(scaling host.Scaling, amplitude float64) float64 {
	amplitude = math.Max(0, amplitude)
	switch scaling {
	case host.ScalingDecibel:
		if amplitude == 0 {
			return MinDecibel
		}
		return math.Max(MinDecibel, 20*math.Log10(amplitude))
	case host.ScalingCC7:
		return math.Min(127, 127*math.Sqrt(amplitude))
	default:
		return amplitude
	}
}
