package geom

import (
	"image"
	"math"
)

//Point is a 2-D pixel position. Float coordinates so landmark positions rescaled from a
//network heatmap keep their sub-pixel precision.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

//Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

//FromImage converts an integer image.Point
func FromImage(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

//Image rounds the point to the nearest pixel, used when drawing on frames
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

//Norm returns the euclidean length of p seen as a vector
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

//Distance returns the euclidean distance between p and q
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Norm()
}

//Center returns the center of a bounding box, the position proxy for a detected region
func Center(r image.Rectangle) Point {
	return Point{X: float64(r.Min.X) + float64(r.Dx())/2, Y: float64(r.Min.Y) + float64(r.Dy())/2}
}
