package cones

import (
	"fmt"
	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// Color identifies the cone color class. Values match the ones used by the
// steering formulas: yellow = 0, blue = 1.
type Color int

const (
	Yellow Color = iota
	Blue
)

func (c Color) String() string {
	switch c {
	case Yellow:
		return "Yellow"
	case Blue:
		return "Blue"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// HSV is a pixel value in OpenCV units: hue in [0, 180], saturation and
// value in [0, 255].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

func (h HSV) scalar() gocv.Scalar {
	return gocv.NewScalar(h.H, h.S, h.V, 0)
}

// ColorRange is a closed HSV interval.
type ColorRange struct {
	Min HSV `json:"min"`
	Max HSV `json:"max"`
}

var (
	YellowRange = ColorRange{Min: HSV{H: 19, S: 0, V: 99}, Max: HSV{H: 30, S: 255, V: 255}}
	BlueRange   = ColorRange{Min: HSV{H: 74, S: 91, V: 40}, Max: HSV{H: 133, S: 255, V: 216}}
)

func (r ColorRange) Validate() error {
	channels := []struct {
		name          string
		min, max, top float64
	}{
		{"hue", r.Min.H, r.Max.H, 180},
		{"saturation", r.Min.S, r.Max.S, 255},
		{"value", r.Min.V, r.Max.V, 255},
	}
	for _, c := range channels {
		if c.min < 0 || c.max > c.top {
			return fmt.Errorf("%s range [%v, %v] outside [0, %v]", c.name, c.min, c.max, c.top)
		}
		if c.min > c.max {
			return fmt.Errorf("invalid %s range: min %v > max %v", c.name, c.min, c.max)
		}
	}
	return nil
}

// Swatch returns the hex RGB color at the middle of the range, handy in logs.
func (r ColorRange) Swatch() string {
	c := colorful.Hsv(
		r.Min.H+r.Max.H, // mean hue, OpenCV hue is degrees / 2
		(r.Min.S+r.Max.S)/2./255.,
		(r.Min.V+r.Max.V)/2./255.,
	)
	return c.Clamped().Hex()
}
