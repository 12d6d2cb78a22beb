package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInsufficientPoints is returned when a fit is attempted with fewer than 2 points
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrDegenerateFit is returned when the least-squares system has no unique solution,
	// which happens when every point shares the same x coordinate
	ErrDegenerateFit = errors.New("degenerate point configuration")
)

// FittedLine is a non-vertical line y = Slope*x + Intercept in image space
type FittedLine struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x
func (l FittedLine) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// Segment represents a line segment between two image-space points
type Segment struct {
	Start Point2D
	End   Point2D
}

// NewSegment creates a new segment
func NewSegment(start, end Point2D) Segment {
	return Segment{Start: start, End: end}
}

// Length returns the Euclidean length of the segment
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// Midpoint returns the point halfway between the endpoints
func (s Segment) Midpoint() Point2D {
	return s.Start.Add(s.End).Mul(0.5)
}

// Angle returns the direction of the segment in radians
func (s Segment) Angle() float64 {
	return math.Atan2(s.End.Y-s.Start.Y, s.End.X-s.Start.X)
}

// LabelAnchor returns a point offset from the midpoint along the
// perpendicular bisector, on the upper side for a left-to-right segment.
func (s Segment) LabelAnchor(offset float64) Point2D {
	bisector := s.Angle() + math.Pi/2
	mid := s.Midpoint()
	return Point2D{
		X: mid.X - offset*math.Cos(bisector),
		Y: mid.Y - offset*math.Sin(bisector),
	}
}

// FitLine fits y = m*x + b through the points with ordinary least squares.
// Only vertical residuals are minimized, so near-vertical point sets give
// unstable slopes. This is a known limitation and is not corrected here.
//
// The system solved is the overdetermined A*[m b]ᵀ = y with A = [x 1].
func FitLine(points []Point2D) (FittedLine, error) {
	if len(points) < 2 {
		return FittedLine{}, fmt.Errorf("need at least 2 points to fit a line, got %d: %w", len(points), ErrInsufficientPoints)
	}

	if sameX(points) {
		return FittedLine{}, fmt.Errorf("all %d points share x=%g: %w", len(points), points[0].X, ErrDegenerateFit)
	}

	n := len(points)
	design := mat.NewDense(n, 2, nil)
	ys := mat.NewVecDense(n, nil)
	for i, p := range points {
		design.Set(i, 0, p.X)
		design.Set(i, 1, 1)
		ys.SetVec(i, p.Y)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, ys); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return FittedLine{}, fmt.Errorf("least-squares fit is ill-conditioned (condition %g): %w", float64(cond), ErrDegenerateFit)
		}
		if errors.Is(err, mat.ErrSingular) {
			return FittedLine{}, fmt.Errorf("least-squares fit is singular: %w", ErrDegenerateFit)
		}
		return FittedLine{}, fmt.Errorf("failed to solve least-squares fit: %w", err)
	}

	line := FittedLine{Slope: coef.AtVec(0), Intercept: coef.AtVec(1)}
	if math.IsNaN(line.Slope) || math.IsInf(line.Slope, 0) || math.IsNaN(line.Intercept) || math.IsInf(line.Intercept, 0) {
		return FittedLine{}, fmt.Errorf("least-squares fit produced a non-finite line: %w", ErrDegenerateFit)
	}
	return line, nil
}

func sameX(points []Point2D) bool {
	for _, p := range points[1:] {
		if p.X != points[0].X {
			return false
		}
	}
	return true
}

// ToSegment takes the raw points with minimum and maximum x (first occurrence
// wins on ties) and snaps their y values onto the fitted line. The horizontal
// extent follows the picked points.
func ToSegment(points []Point2D, line FittedLine) Segment {
	if len(points) == 0 {
		return Segment{}
	}

	minP, maxP := points[0], points[0]
	for _, p := range points[1:] {
		if p.X < minP.X {
			minP = p
		}
		if p.X > maxP.X {
			maxP = p
		}
	}

	return Segment{
		Start: Point2D{X: minP.X, Y: line.At(minP.X)},
		End:   Point2D{X: maxP.X, Y: line.At(maxP.X)},
	}
}

// FitSegment fits a line through the points and returns its segment form
func FitSegment(points []Point2D) (Segment, FittedLine, error) {
	line, err := FitLine(points)
	if err != nil {
		return Segment{}, FittedLine{}, err
	}
	return ToSegment(points, line), line, nil
}

// LineCoefficients holds the implicit form A*x + B*y + C = 0 of the infinite
// line through two points
type LineCoefficients struct {
	A, B, C float64
}

// Coefficients returns the implicit line through the segment's endpoints:
// A = y2−y1, B = x1−x2, C = x2·y1 − x1·y2
func (s Segment) Coefficients() LineCoefficients {
	x1, y1 := s.Start.X, s.Start.Y
	x2, y2 := s.End.X, s.End.Y
	return LineCoefficients{
		A: y2 - y1,
		B: x1 - x2,
		C: x2*y1 - x1*y2,
	}
}

// Degenerate reports whether the coefficients describe no line at all
func (c LineCoefficients) Degenerate() bool {
	return c.A == 0 && c.B == 0
}

// Distance returns the perpendicular distance from p to the line
func (c LineCoefficients) Distance(p Point2D) float64 {
	return math.Abs(c.A*p.X+c.B*p.Y+c.C) / math.Sqrt(c.A*c.A+c.B*c.B)
}

// Foot returns the point on the line closest to p
func (c LineCoefficients) Foot(p Point2D) Point2D {
	a, b := c.A, c.B
	norm := a*a + b*b
	return Point2D{
		X: (b*(b*p.X-a*p.Y) - a*c.C) / norm,
		Y: (a*(-b*p.X+a*p.Y) - b*c.C) / norm,
	}
}
