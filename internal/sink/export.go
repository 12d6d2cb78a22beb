package sink

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"time"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/geometry"
	"github.com/philipparndt/gomeasure/pkg/photo"
	"github.com/philipparndt/gomeasure/pkg/viewer"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Export tag appended to annotated image names
const exportTag = "M"

var (
	colorRed   = color.RGBA{R: 255, A: 255}
	colorGreen = color.RGBA{G: 128, A: 255}
	colorBlack = color.RGBA{A: 255}
	colorWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Exporter burns overlays into a copy of the photo and writes it next to the source
type Exporter struct {
	// Dir overrides the output folder; empty writes next to the source photo
	Dir string
	Now func() time.Time

	face font.Face
}

// NewExporter creates an exporter with the embedded Go Regular face
func NewExporter(dir string) (*Exporter, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse label font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    20,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create label face: %w", err)
	}
	return &Exporter{Dir: dir, Now: time.Now, face: face}, nil
}

// ExportAnnotatedImage writes src with the overlays drawn on it and returns the new file's path
func (e *Exporter) ExportAnnotatedImage(src image.Image, overlays measurement.Overlays) (string, error) {
	if src == nil {
		return "", fmt.Errorf("no image to export: %w", measurement.ErrFileAccess)
	}

	dst := e.Annotate(src, overlays)

	stem := "measurement"
	ext := ".png"
	if overlays.SourcePath != "" {
		stem = photo.Stem(overlays.SourcePath)
		if photo.IsSupported(overlays.SourcePath) {
			ext = filepath.Ext(overlays.SourcePath)
		}
	}

	dir := outputDir(e.Dir, overlays.SourcePath)
	path, err := writeExclusive(dir, stem, exportTag, ext, e.Now(), func(w io.Writer) error {
		return photo.Encode(w, dst, ext)
	})
	if err != nil {
		return "", fmt.Errorf("failed to export annotated image: %w: %w", measurement.ErrFileAccess, err)
	}
	return path, nil
}

// Annotate returns a copy of src with the overlays drawn on it
func (e *Exporter) Annotate(src image.Image, overlays measurement.Overlays) *image.RGBA {
	dst := photo.ToRGBA(src)

	for _, line := range overlays.Lines {
		col, width := lineStyle(line.Style)
		if line.Dashed {
			viewer.DrawDashedLine(dst, line.Segment.Start, line.Segment.End, width, 4, 4, col)
		} else {
			viewer.DrawLine(dst, line.Segment.Start, line.Segment.End, width, col)
		}
	}

	for _, marker := range overlays.Markers {
		viewer.FillDisc(dst, marker.Position, 3, colorRed)
	}

	y := 10
	if overlays.Caption != "" {
		y = e.drawBoxed(dst, overlays.Caption, 10, y) + 4
	}
	for _, label := range overlays.Labels {
		if label.Fixed {
			y = e.drawBoxed(dst, label.Text, 10, y) + 4
			continue
		}
		col, _ := lineStyle(label.Style)
		e.drawCentered(dst, label.Text, label.Anchor, col)
	}

	return dst
}

func lineStyle(style measurement.Style) (color.RGBA, int) {
	switch style {
	case measurement.StyleCalibration:
		return colorRed, 4
	case measurement.StyleBaseline, measurement.StyleFit:
		return colorGreen, 2
	default:
		return colorRed, 2
	}
}

// drawBoxed draws black text on a white box with its top-left corner at
// (x, y) and returns the bottom edge of the box
func (e *Exporter) drawBoxed(dst *image.RGBA, text string, x, y int) int {
	metrics := e.face.Metrics()
	width := font.MeasureString(e.face, text).Ceil()
	height := metrics.Height.Ceil()

	viewer.FillRect(dst, image.Rect(x, y, x+width, y+height), colorWhite)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorBlack),
		Face: e.face,
		Dot:  fixed.P(x, y+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
	return y + height
}

// drawCentered draws text centered on anchor
func (e *Exporter) drawCentered(dst *image.RGBA, text string, anchor geometry.Point2D, col color.RGBA) {
	metrics := e.face.Metrics()
	width := font.MeasureString(e.face, text).Ceil()
	baseline := int(anchor.Y) + (metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: e.face,
		Dot:  fixed.P(int(anchor.X)-width/2, baseline),
	}
	d.DrawString(text)
}
