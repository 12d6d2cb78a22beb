package viewer

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// DrawLine draws a solid line of the given pixel width
func DrawLine(img *image.RGBA, from, to geometry.Point2D, width int, col color.RGBA) {
	drawPattern(img, from, to, width, 0, 0, col)
}

// DrawDashedLine draws a line alternating dash pixels on and gap pixels off
func DrawDashedLine(img *image.RGBA, from, to geometry.Point2D, width, dash, gap int, col color.RGBA) {
	drawPattern(img, from, to, width, dash, gap, col)
}

// FillDisc fills a circle centered at center
func FillDisc(img *image.RGBA, center geometry.Point2D, radius float64, col color.RGBA) {
	bounds := img.Bounds()
	r2 := radius * radius

	minX := int(math.Max(float64(bounds.Min.X), math.Floor(center.X-radius)))
	maxX := int(math.Min(float64(bounds.Max.X-1), math.Ceil(center.X+radius)))
	minY := int(math.Max(float64(bounds.Min.Y), math.Floor(center.Y-radius)))
	maxY := int(math.Min(float64(bounds.Max.Y-1), math.Ceil(center.Y+radius)))

	for y := minY; y <= maxY; y++ {
		dy := float64(y) - center.Y
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - center.X
			if dx*dx+dy*dy <= r2 {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// FillRect fills an axis-aligned rectangle clipped to the image
func FillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// drawPattern walks the line with Bresenham's algorithm and stamps a disc of
// the line width at every pixel that falls in an "on" run of the dash pattern.
// A zero dash length means a solid line.
func drawPattern(img *image.RGBA, from, to geometry.Point2D, width, dash, gap int, col color.RGBA) {
	x1, y1 := int(math.Round(from.X)), int(math.Round(from.Y))
	x2, y2 := int(math.Round(to.X)), int(math.Round(to.Y))

	radius := float64(width) / 2
	if radius < 0.5 {
		radius = 0.5
	}

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	period := dash + gap
	step := 0

	for {
		if dash == 0 || step%period < dash {
			if width <= 1 {
				setClipped(img, x1, y1, col)
			} else {
				FillDisc(img, geometry.NewPoint2D(float64(x1), float64(y1)), radius, col)
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
		step++
	}
}

func setClipped(img *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, col)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
