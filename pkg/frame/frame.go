package frame

import (
	"bytes"
	"context"
	"fmt"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	"image"
	"time"
)

// ReferenceSize is the frame size the tuned windows and thresholds refer to.
var ReferenceSize = image.Pt(640, 480)

// Frame is a BGR image with its capture metadata. The owner must Close it.
type Frame struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Mat       gocv.Mat
}

func (f *Frame) Close() error {
	return f.Mat.Close()
}

// Source delivers one frame per Wait call, blocking until a frame is
// available or ctx is done.
type Source interface {
	Wait(ctx context.Context) (*Frame, error)
}

// Decode reads a jpeg or png payload and converts it to a BGR Mat, resized to
// size unless size is zero.
func Decode(content []byte, size image.Point) (gocv.Mat, error) {
	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("unable to decode image: %w", err)
	}
	return toMat(img, size)
}

func toMat(img image.Image, size image.Point) (gocv.Mat, error) {
	if size != (image.Point{}) && img.Bounds().Size() != size {
		img = imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("unable to convert image to mat: %w", err)
	}
	return mat, nil
}
