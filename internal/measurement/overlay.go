package measurement

import (
	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// Style selects how an overlay element is drawn
type Style int

const (
	StylePoint Style = iota
	StyleFit
	StyleCalibration
	StyleBaseline
	StyleQuery
	StyleDistance
	StyleCaption
	StylePrompt
)

// Marker is a picked point
type Marker struct {
	Position geometry.Point2D
	Style    Style
}

// Line is a segment to draw in image space
type Line struct {
	Segment geometry.Segment
	Style   Style
	Dashed  bool
}

// Overlays is a snapshot of everything a front end draws over the photo.
// All positions are in image space unless a label is Fixed.
type Overlays struct {
	Phase     Phase
	Prompt    string
	CanAccept bool
	Markers   []Marker
	Lines     []Line
	Labels    []Label
	Caption   string

	// SourcePath names the photo the overlays belong to, set for exports
	SourcePath string
}

// LinesWithStyle returns the lines drawn in the given style
func (o Overlays) LinesWithStyle(style Style) []Line {
	var lines []Line
	for _, l := range o.Lines {
		if l.Style == style {
			lines = append(lines, l)
		}
	}
	return lines
}

// LabelsWithStyle returns the labels drawn in the given style
func (o Overlays) LabelsWithStyle(style Style) []Label {
	var labels []Label
	for _, l := range o.Labels {
		if l.Style == style {
			labels = append(labels, l)
		}
	}
	return labels
}

// Prompt returns the operator instruction for a phase
func Prompt(phase Phase) string {
	switch phase {
	case PhaseCalibrating:
		return "Select points along the calibration feature and enter its length (mm)"
	case PhaseBaseline:
		return "Select points to identify the horizontal coordinate system"
	case PhaseMeasuring:
		return "Select point at the bottom of the leaflet to measure the horizontal drop"
	default:
		return ""
	}
}
