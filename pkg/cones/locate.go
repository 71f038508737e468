package cones

import "image"

// Center returns the middle of r, rounding down.
func Center(r image.Rectangle) image.Point {
	return image.Point{
		X: r.Min.X + r.Dx()/2,
		Y: r.Min.Y + r.Dy()/2,
	}
}

func Centers(rects []image.Rectangle) []image.Point {
	centers := make([]image.Point, 0, len(rects))
	for _, r := range rects {
		centers = append(centers, Center(r))
	}
	return centers
}
