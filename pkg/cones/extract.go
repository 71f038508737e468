package cones

import (
	"fmt"
	"gocv.io/x/gocv"
	"image"
)

// ShapeExtractor turns a refined binary mask into bounding boxes, one per
// closed boundary found. Boxes lie within the mask bounds and keep the
// order the boundaries were found in. An empty result is not an error.
type ShapeExtractor interface {
	Extract(mask gocv.Mat) ([]image.Rectangle, error)
}

const (
	DefaultCannyThreshold = 100.
	DefaultApproxEpsilon  = 3.
)

type OptionExtractor func(e *CannyExtractor)

// WithCannyThreshold sets the low hysteresis threshold, the high one is twice
// this value.
func WithCannyThreshold(t float32) OptionExtractor {
	return func(e *CannyExtractor) {
		e.threshold = t
	}
}

func WithApproxEpsilon(epsilon float64) OptionExtractor {
	return func(e *CannyExtractor) {
		e.epsilon = epsilon
	}
}

// WithGrouping merges overlapping boxes before returning them.
func WithGrouping(enabled bool) OptionExtractor {
	return func(e *CannyExtractor) {
		e.grouping = enabled
	}
}

func NewCannyExtractor(options ...OptionExtractor) *CannyExtractor {
	e := &CannyExtractor{
		threshold: DefaultCannyThreshold,
		epsilon:   DefaultApproxEpsilon,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// CannyExtractor runs an edge pass, traces every contour of the edge map
// (full hierarchy, simple chain approximation), simplifies each contour to a
// closed polygon and keeps its bounding rectangle.
type CannyExtractor struct {
	threshold float32
	epsilon   float64
	grouping  bool
}

func (e *CannyExtractor) Extract(mask gocv.Mat) ([]image.Rectangle, error) {
	if mask.Empty() {
		return []image.Rectangle{}, nil
	}

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(mask, &edges, e.threshold, 2*e.threshold); err != nil {
		return nil, fmt.Errorf("unable to find edges: %w", err)
	}

	contours := gocv.FindContours(edges, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	bounds := image.Rect(0, 0, mask.Cols(), mask.Rows())
	rects := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		poly := gocv.ApproxPolyDP(contours.At(i), e.epsilon, true)
		rects = append(rects, gocv.BoundingRect(poly).Intersect(bounds))
		poly.Close()
	}

	if e.grouping {
		return GroupBBoxes(rects), nil
	}
	return rects, nil
}
