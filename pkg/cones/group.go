package cones

import (
	"gocv.io/x/gocv"
	"image"
)

const groupEps = 0.2

// GroupBBoxes merges boxes of similar size and position into their average.
// Canny traces both sides of a blob edge, so one cone often gives two nested
// boxes. Each box is counted twice before clustering: a cone traced only once
// still forms a cluster of two and is kept.
func GroupBBoxes(bboxes []image.Rectangle) []image.Rectangle {
	switch len(bboxes) {
	case 0:
		return []image.Rectangle{}
	case 1:
		return []image.Rectangle{bboxes[0]}
	}
	doubled := make([]image.Rectangle, 0, 2*len(bboxes))
	doubled = append(doubled, bboxes...)
	doubled = append(doubled, bboxes...)
	return gocv.GroupRectangles(doubled, 1, groupEps)
}
