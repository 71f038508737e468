package cones

import (
	"fmt"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
	"image"
)

// RefinerConfig holds the elliptical kernel sizes of the noise filter. Opening
// removes isolated pixels, closing fills small holes.
type RefinerConfig struct {
	OpenErode   int `json:"open_erode"`
	OpenDilate  int `json:"open_dilate"`
	CloseDilate int `json:"close_dilate"`
	CloseErode  int `json:"close_erode"`
}

var DefaultRefinerConfig = RefinerConfig{
	OpenErode:   8,
	OpenDilate:  8,
	CloseDilate: 5,
	CloseErode:  7,
}

func (c RefinerConfig) Validate() error {
	for name, size := range map[string]int{
		"open_erode":   c.OpenErode,
		"open_dilate":  c.OpenDilate,
		"close_dilate": c.CloseDilate,
		"close_erode":  c.CloseErode,
	} {
		if size <= 0 {
			return fmt.Errorf("invalid %s kernel size %d, must be > 0", name, size)
		}
	}
	return nil
}

type morphOp func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) error

type morphStep struct {
	name   string
	op     morphOp
	kernel gocv.Mat
}

// Refiner applies erode, dilate, dilate, erode to a mask, in that order.
type Refiner struct {
	steps []morphStep
}

func NewRefiner(cfg RefinerConfig) *Refiner {
	ellipse := func(size int) gocv.Mat {
		return gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(size, size))
	}
	return &Refiner{
		steps: []morphStep{
			{name: "open erode", op: gocv.Erode, kernel: ellipse(cfg.OpenErode)},
			{name: "open dilate", op: gocv.Dilate, kernel: ellipse(cfg.OpenDilate)},
			{name: "close dilate", op: gocv.Dilate, kernel: ellipse(cfg.CloseDilate)},
			{name: "close erode", op: gocv.Erode, kernel: ellipse(cfg.CloseErode)},
		},
	}
}

// Refine filters mask in place.
func (r *Refiner) Refine(mask *gocv.Mat) error {
	if mask.Empty() {
		return nil
	}
	for _, s := range r.steps {
		if err := s.op(*mask, mask, s.kernel); err != nil {
			return fmt.Errorf("unable to apply %s on mask: %w", s.name, err)
		}
	}
	return nil
}

func (r *Refiner) Close() error {
	var err error
	for _, s := range r.steps {
		err = multierr.Append(err, s.kernel.Close())
	}
	return err
}
