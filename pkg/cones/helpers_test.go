package cones

import (
	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
	"image"
	"image/color"
	"testing"
)

// bgr converts an OpenCV HSV triplet to the color gocv expects for drawing.
func bgr(h, s, v float64) color.RGBA {
	r, g, b := colorful.Hsv(h*2, s/255., v/255.).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0}
}

var (
	testYellow = bgr(26, 255, 255)
	testBlue   = bgr(108, 255, 200)
)

type blob struct {
	rect image.Rectangle
	c    color.RGBA
}

// syntheticHSV draws filled blobs on a black BGR frame and returns its HSV
// conversion.
func syntheticHSV(t *testing.T, width, height int, blobs ...blob) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
	defer img.Close()
	for _, b := range blobs {
		gocv.Rectangle(&img, b.rect, b.c, -1)
	}
	hsv := gocv.NewMat()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)
	return hsv
}

// syntheticMask returns a single channel mask with the given rectangles set.
func syntheticMask(width, height int, rects ...image.Rectangle) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8U)
	for _, r := range rects {
		gocv.Rectangle(&mask, r, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	}
	return mask
}
