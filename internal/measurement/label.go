package measurement

import (
	"fmt"
	"strconv"

	"github.com/philipparndt/gomeasure/pkg/geometry"
)

const (
	// LabelOffset is the distance in pixels between a line and its on-screen label
	LabelOffset = 10.0
	// ExportLabelOffset is the label distance used in annotated exports
	ExportLabelOffset = 24.0
)

// Label is a piece of text attached to an image-space anchor
type Label struct {
	Text   string
	Anchor geometry.Point2D
	Style  Style
	// Fixed labels are positioned in view space and do not follow zoom
	Fixed bool
	// Boxed labels are drawn over a filled background
	Boxed bool
}

// LineLabel places text on the perpendicular bisector of segment, offset
// pixels away from its midpoint
func LineLabel(text string, segment geometry.Segment, offset float64, style Style) Label {
	return Label{
		Text:   text,
		Anchor: segment.LabelAnchor(offset),
		Style:  style,
	}
}

// FormatLength renders an operator-entered calibration length the way it was typed
func FormatLength(length float64) string {
	return strconv.FormatFloat(length, 'f', -1, 64) + " mm"
}

// FormatDistance renders a droop distance for the on-screen readout
func FormatDistance(distance float64) string {
	return fmt.Sprintf("Distance: %.2f", distance)
}
