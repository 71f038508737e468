package steering

import (
	"fmt"
	"image"
)

// TrackDirection is the way the track is traversed. It starts Undetermined
// and is latched once to Clockwise or CounterClockwise.
type TrackDirection int

const (
	Undetermined TrackDirection = iota
	Clockwise
	CounterClockwise
)

func (d TrackDirection) String() string {
	switch d {
	case Undetermined:
		return "UNDETERMINED"
	case Clockwise:
		return "CLOCKWISE"
	case CounterClockwise:
		return "COUNTER_CLOCKWISE"
	default:
		return fmt.Sprintf("TrackDirection(%d)", int(d))
	}
}

func (d TrackDirection) Determined() bool {
	return d == Clockwise || d == CounterClockwise
}

// Flag is the boolean used by the steering formulas, true when the track is
// run counter-clockwise.
func (d TrackDirection) Flag() bool {
	return d == CounterClockwise
}

// DefaultDirectionThreshold is the middle of the 640 px reference frame.
const DefaultDirectionThreshold = 320

// DirectionDetector latches the track direction the first time both cone
// colors are seen in the same frame. The latch is never undone.
type DirectionDetector struct {
	threshold int
	direction TrackDirection
}

func NewDirectionDetector(threshold int) *DirectionDetector {
	return &DirectionDetector{threshold: threshold}
}

func (d *DirectionDetector) Direction() TrackDirection {
	return d.direction
}

func (d *DirectionDetector) Threshold() int {
	return d.threshold
}

// Update tries to latch the direction from the yellow cone centers and the
// blue cone boxes of the current frame. It returns the direction after the
// attempt; once latched, inputs are ignored.
func (d *DirectionDetector) Update(yellowCenters []image.Point, blueBoxes []image.Rectangle) TrackDirection {
	if d.direction.Determined() {
		return d.direction
	}
	if len(yellowCenters) == 0 || len(blueBoxes) == 0 {
		return d.direction
	}

	left := yellowCenters[0].X < d.threshold || blueBoxes[0].Min.X > d.threshold
	if left {
		d.direction = CounterClockwise
	} else {
		d.direction = Clockwise
	}
	return d.direction
}
