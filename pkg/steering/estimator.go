package steering

import (
	"errors"
	"fmt"
	"github.com/cyrilix/robocar-cones/pkg/cones"
	"image"
	"math"
)

// MaxAngle is the largest angle, in radians, the steering can reach.
const MaxAngle = 0.290888

// DefaultBuffer is the dead zone, in pixels, around the window middle.
const DefaultBuffer = 5

var (
	ErrUndeterminedDirection = errors.New("track direction not determined")
	ErrEmptyWindow           = errors.New("steering window has no width")
)

func onLeftSide(counterClockwise bool, c cones.Color) bool {
	return (counterClockwise && c == cones.Yellow) || (!counterClockwise && c == cones.Blue)
}

/*
WheelAngle computes the steering angle from the position of a single cone
inside a window of width w.

A cone expected on the left side of the car saturates at -MaxAngle when it
reaches the left boundary (w/2 - buffer) and decreases linearly to 0 as it
moves to x = 0:

	   0          w/2-buffer           w
	   |-----------|-------------------|
	   0   ...  -MaxAngle   -MaxAngle

A cone expected on the right side mirrors this behaviour:

	   0          w/2+buffer           w
	   |-----------|-------------------|
	MaxAngle   MaxAngle    ...         0

counterClockwise is the direction flag, c must be cones.Yellow or cones.Blue;
any other color returns 0.
*/
func WheelAngle(counterClockwise bool, c cones.Color, x, w, buffer int) float64 {
	if c != cones.Yellow && c != cones.Blue {
		return 0.
	}

	var angle float64
	if onLeftSide(counterClockwise, c) {
		boundary := w/2 - buffer
		if x >= boundary {
			angle = -MaxAngle
		} else {
			angle = -(MaxAngle / float64(boundary)) * float64(x)
		}
	} else {
		boundary := w/2 + buffer
		if x <= boundary {
			angle = MaxAngle
		} else {
			angle = MaxAngle - (MaxAngle/float64(w-boundary))*float64(x-boundary)
		}
	}
	return clamp(angle)
}

// WheelDirection re-expresses WheelAngle with a sign that makes it
// comparable with a reference steering signal.
func WheelDirection(d TrackDirection, c cones.Color, x, w, buffer int) float64 {
	angle := WheelAngle(d.Flag(), c, x, w, buffer)
	switch c {
	case cones.Yellow:
		if d == Clockwise {
			return -angle
		}
		return MaxAngle - angle
	case cones.Blue:
		if d == CounterClockwise {
			return angle
		}
		return angle - MaxAngle
	default:
		return 0.
	}
}

func clamp(angle float64) float64 {
	if angle == 0 {
		// no negative zero, "-0" is the no-estimate sentinel in diagnostics
		return 0.
	}
	return math.Max(-MaxAngle, math.Min(MaxAngle, angle))
}

// Result is the steering computed from one cone.
type Result struct {
	Angle     float64
	Direction float64
	Color     cones.Color
	Cone      image.Point
}

// Estimator computes steering once the track direction is latched.
type Estimator struct {
	buffer int
}

func NewEstimator(buffer int) *Estimator {
	return &Estimator{buffer: buffer}
}

// Estimate computes the steering for the cone at center, in window
// coordinates. It refuses to work without a latched direction or with an
// empty window.
func (e *Estimator) Estimate(d TrackDirection, c cones.Color, center image.Point, window image.Rectangle) (*Result, error) {
	if !d.Determined() {
		return nil, ErrUndeterminedDirection
	}
	w := window.Dx()
	if w <= 0 || w/2-e.buffer <= 0 {
		return nil, fmt.Errorf("invalid window %v for buffer %d: %w", window, e.buffer, ErrEmptyWindow)
	}
	return &Result{
		Angle:     WheelAngle(d.Flag(), c, center.X, w, e.buffer),
		Direction: WheelDirection(d, c, center.X, w, e.buffer),
		Color:     c,
		Cone:      center,
	}, nil
}

// SelectCone picks the cone used for steering: the first blue one when any
// blue cone is visible, otherwise the first yellow one.
func SelectCone(yellow, blue []image.Point) (cones.Color, image.Point, bool) {
	if len(blue) > 0 {
		return cones.Blue, blue[0], true
	}
	if len(yellow) > 0 {
		return cones.Yellow, yellow[0], true
	}
	return cones.Yellow, image.Point{}, false
}
