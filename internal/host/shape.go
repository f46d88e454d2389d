package host

import (
	"fmt"
	"math"
	"strings"
)

// Shape is the curve from one automation point to the next.
type Shape int

const (
	ShapeLinear Shape = iota
	ShapeSquare
	ShapeSlow
	ShapeFastStart
	ShapeFastEnd
	ShapeBezier
)

var shapeNames = map[Shape]string{
	ShapeLinear:    "linear",
	ShapeSquare:    "square",
	ShapeSlow:      "slow",
	ShapeFastStart: "fast-start",
	ShapeFastEnd:   "fast-end",
	ShapeBezier:    "bezier",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape resolves a configured shape name.
func ParseShape(name string) (Shape, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for shape, candidate := range shapeNames {
		if candidate == needle {
			return shape, nil
		}
	}
	return ShapeLinear, fmt.Errorf("unknown envelope shape %q", name)
}

// Interpolate returns the value at fraction x in [0,1] between from and to.
func (s Shape) Interpolate(from, to, x float64) float64 {
	x = math.Max(0, math.Min(1, x))
	var f float64
	switch s {
	case ShapeSquare:
		if x >= 1 {
			f = 1
		}
	case ShapeSlow, ShapeBezier:
		f = x * x * (3 - 2*x)
	case ShapeFastStart:
		f = 1 - (1-x)*(1-x)*(1-x)
	case ShapeFastEnd:
		f = x * x * x
	default:
		f = x
	}
	return from + (to-from)*f
}

// Scaling is the native value domain of a lane.
type Scaling int

const (
	// ScalingAmplitude stores linear gain, 1.0 is unity.
	ScalingAmplitude Scaling = iota
	// ScalingDecibel stores gain in dB, 0 is unity.
	ScalingDecibel
	// ScalingCC7 stores MIDI channel volume 0..127.
	ScalingCC7
)

func (s Scaling) String() string {
	switch s {
	case ScalingAmplitude:
		return "amplitude"
	case ScalingDecibel:
		return "decibel"
	case ScalingCC7:
		return "cc7"
	default:
		return fmt.Sprintf("scaling(%d)", int(s))
	}
}
