package cones

import (
	"fmt"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"image"
)

// Detection holds the cones of one color class found in a single frame.
type Detection struct {
	Color   Color
	Boxes   []image.Rectangle
	Centers []image.Point
}

func (d Detection) Empty() bool {
	return len(d.Boxes) == 0
}

// Detector chains segmentation, mask refinement, shape extraction and
// center location for one color class.
type Detector struct {
	refiner   *Refiner
	extractor ShapeExtractor
}

func NewDetector(refiner *Refiner, extractor ShapeExtractor) *Detector {
	return &Detector{
		refiner:   refiner,
		extractor: extractor,
	}
}

// Detect finds the cones of color c in an HSV image. Errors come from the
// image backend, never from an image without cone.
func (d *Detector) Detect(hsv gocv.Mat, c Color, r ColorRange) (Detection, error) {
	mask := gocv.NewMat()
	defer func() {
		if err := mask.Close(); err != nil {
			zap.S().Warnf("unable to close mask resource: %v", err)
		}
	}()

	if err := Segment(hsv, r, &mask); err != nil {
		return Detection{Color: c}, fmt.Errorf("unable to segment %v cones: %w", c, err)
	}
	if err := d.refiner.Refine(&mask); err != nil {
		return Detection{Color: c}, fmt.Errorf("unable to refine %v mask: %w", c, err)
	}
	boxes, err := d.extractor.Extract(mask)
	if err != nil {
		return Detection{Color: c}, fmt.Errorf("unable to extract %v cones: %w", c, err)
	}

	return Detection{
		Color:   c,
		Boxes:   boxes,
		Centers: Centers(boxes),
	}, nil
}

func (d *Detector) Close() error {
	return d.refiner.Close()
}
