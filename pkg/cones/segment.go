package cones

import (
	"fmt"
	"gocv.io/x/gocv"
)

// Segment writes into mask a binary image where a pixel is 255 iff its HSV
// value lies within r on all three channels, bounds included.
func Segment(hsv gocv.Mat, r ColorRange, mask *gocv.Mat) error {
	if hsv.Empty() {
		if !mask.Empty() {
			mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
		}
		return nil
	}
	if err := gocv.InRangeWithScalar(hsv, r.Min.scalar(), r.Max.scalar(), mask); err != nil {
		return fmt.Errorf("unable to threshold image on range %v: %w", r, err)
	}
	return nil
}
