package ui

import (
	"image"
	"image/color"
	"testing"

	"github.com/philipparndt/gomeasure/internal/app"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/geometry"
	"github.com/philipparndt/gomeasure/pkg/photo"
	"github.com/philipparndt/gomeasure/pkg/viewer"
)

func solidPhoto(w, h int, col color.RGBA) *photo.Photo {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	viewer.FillRect(img, img.Bounds(), col)
	return &photo.Photo{Image: img, Width: w, Height: h, OriginalWidth: w, OriginalHeight: h}
}

func TestComposeFrameCentersPhoto(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	p := solidPhoto(10, 10, blue)
	transform := viewer.NewViewTransform(10, 10, 20, 20, viewer.DefaultZoomConfig())

	frame := app.Frame{Photo: p, View: transform.State()}
	dst := composeFrame(frame, transform, 20, 20)

	if got := dst.RGBAAt(1, 1); got != colorBackground {
		t.Errorf("background failed: expected %v, got %v", colorBackground, got)
	}
	if got := dst.RGBAAt(10, 10); got.B < 250 || got.R != 0 {
		t.Errorf("photo failed: expected %v, got %v", blue, got)
	}
}

func TestComposeFrameDrawsOverlaysInViewSpace(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	p := solidPhoto(100, 100, white)
	transform := viewer.NewViewTransform(100, 100, 100, 100, viewer.DefaultZoomConfig())
	transform.SetZoomEnabled(true)
	transform.ZoomIn(0, 0)

	overlays := measurement.Overlays{
		Markers: []measurement.Marker{{Position: geometry.NewPoint2D(10, 10), Style: measurement.StylePoint}},
		Lines: []measurement.Line{{
			Segment: geometry.NewSegment(geometry.NewPoint2D(0, 40), geometry.NewPoint2D(50, 40)),
			Style:   measurement.StyleBaseline,
		}},
	}
	frame := app.Frame{Photo: p, View: transform.State(), Overlays: overlays}
	dst := composeFrame(frame, transform, 100, 100)

	// Image point (10, 10) lands at (20, 20) at zoom 2 with the pivot at the corner
	if got := dst.RGBAAt(20, 20); got != colorRed {
		t.Errorf("marker failed: expected %v, got %v", colorRed, got)
	}
	if got := dst.RGBAAt(50, 80); got != colorGreen {
		t.Errorf("baseline failed: expected %v, got %v", colorGreen, got)
	}
}

func TestComposeFrameWithoutPhoto(t *testing.T) {
	transform := viewer.NewViewTransform(0, 0, 10, 10, viewer.DefaultZoomConfig())
	dst := composeFrame(app.Frame{}, transform, 10, 10)
	if got := dst.RGBAAt(5, 5); got != colorBackground {
		t.Errorf("empty frame failed: expected %v, got %v", colorBackground, got)
	}
	if composeFrame(app.Frame{}, transform, 0, 10) != nil {
		t.Error("zero-sized frame should be nil")
	}
}
