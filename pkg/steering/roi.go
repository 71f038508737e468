package steering

import (
	"fmt"
	"image"
)

var (
	// DefaultSearchWindow is wide enough to see cones of both colors.
	DefaultSearchWindow = image.Rect(0, 260, 640, 480)
	// DefaultTrackingWindow follows the cones once the direction is known.
	DefaultTrackingWindow = image.Rect(214, 316, 214+207, 316+50)
)

// ROISelector chooses the crop used to search cones, from the direction
// latched after the previous frame.
type ROISelector struct {
	Search           image.Rectangle
	Clockwise        image.Rectangle
	CounterClockwise image.Rectangle
}

func NewROISelector() *ROISelector {
	return &ROISelector{
		Search:           DefaultSearchWindow,
		Clockwise:        DefaultTrackingWindow,
		CounterClockwise: DefaultTrackingWindow,
	}
}

func (s *ROISelector) Select(d TrackDirection) image.Rectangle {
	switch d {
	case Clockwise:
		return s.Clockwise
	case CounterClockwise:
		return s.CounterClockwise
	default:
		return s.Search
	}
}

func (s *ROISelector) Validate() error {
	if s.Search.Empty() {
		return fmt.Errorf("search window %v is empty", s.Search)
	}
	for name, w := range map[string]image.Rectangle{"clockwise": s.Clockwise, "counter-clockwise": s.CounterClockwise} {
		if w.Empty() {
			return fmt.Errorf("%s tracking window %v is empty", name, w)
		}
		if w.Dx() > s.Search.Dx() {
			return fmt.Errorf("%s tracking window %v wider than search window %v", name, w, s.Search)
		}
	}
	return nil
}
