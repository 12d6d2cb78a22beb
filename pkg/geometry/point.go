package geometry

import "math"

// Point2D represents a point or vector in image space
type Point2D struct {
	X, Y float64
}

// NewPoint2D creates a new 2D point
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Add returns the sum of two points
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{
		X: p.X + other.X,
		Y: p.Y + other.Y,
	}
}

// Sub returns the difference between two points
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{
		X: p.X - other.X,
		Y: p.Y - other.Y,
	}
}

// Mul multiplies the point by a scalar
func (p Point2D) Mul(scalar float64) Point2D {
	return Point2D{
		X: p.X * scalar,
		Y: p.Y * scalar,
	}
}

// Dot returns the dot product of two vectors
func (p Point2D) Dot(other Point2D) float64 {
	return p.X*other.X + p.Y*other.Y
}

// Length returns the magnitude of the vector
func (p Point2D) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the distance between two points
func (p Point2D) Distance(other Point2D) float64 {
	return p.Sub(other).Length()
}

// Normalize returns a unit vector in the same direction
func (p Point2D) Normalize() Point2D {
	length := p.Length()
	if length == 0 {
		return Point2D{}
	}
	return p.Mul(1.0 / length)
}

// IsFinite reports whether both coordinates are finite numbers
func (p Point2D) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
