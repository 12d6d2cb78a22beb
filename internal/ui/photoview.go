package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"github.com/philipparndt/gomeasure/internal/app"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/viewer"
)

var (
	colorRed        = color.RGBA{R: 255, A: 255}
	colorGreen      = color.RGBA{G: 128, A: 255}
	colorBackground = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// PhotoView shows the session's photo with its overlays and forwards
// clicks and scroll events to the session
type PhotoView struct {
	widget.BaseWidget
	session  *app.Session
	frame    *image.RGBA
	labels   []fyne.CanvasObject
	width    float64
	height   float64
	onChange func()
}

// NewPhotoView creates a view bound to a session
func NewPhotoView(session *app.Session) *PhotoView {
	v := &PhotoView{session: session}
	v.ExtendBaseWidget(v)
	return v
}

// SetOnChange sets the callback run after a click or zoom changed the session
func (v *PhotoView) SetOnChange(callback func()) {
	v.onChange = callback
}

// CreateRenderer creates the renderer for the widget
func (v *PhotoView) CreateRenderer() fyne.WidgetRenderer {
	r := &photoViewRenderer{view: v}
	r.raster = canvas.NewRaster(func(w, h int) image.Image {
		if v.frame == nil {
			return image.NewUniform(colorBackground)
		}
		return v.frame
	})
	r.raster.ScaleMode = canvas.ImageScalePixels
	return r
}

// Render redraws the frame at the given size
func (v *PhotoView) Render(width, height float64) {
	if width != v.width || height != v.height {
		v.width = width
		v.height = height
		v.session.SetViewport(width, height)
	}

	frame := v.session.Render()
	v.frame = composeFrame(frame, v.session.Transform(), int(width), int(height))
	v.labels = v.labels[:0]

	transform := v.session.Transform()
	for _, label := range frame.Overlays.Labels {
		x, y := label.Anchor.X, label.Anchor.Y
		if !label.Fixed {
			x, y = transform.ToView(x, y)
		}
		if x < 0 || y < 0 || x > width || y > height {
			continue
		}

		text := canvas.NewText(label.Text, labelColor(label.Style))
		text.TextSize = 14
		if label.Fixed {
			text.TextStyle = fyne.TextStyle{Bold: true}
			text.Move(fyne.NewPos(float32(x), float32(y)))
		} else {
			size := fyne.MeasureText(label.Text, text.TextSize, text.TextStyle)
			text.Move(fyne.NewPos(float32(x)-size.Width/2, float32(y)-size.Height/2))
		}
		v.labels = append(v.labels, text)
	}

	v.Refresh()
}

// Redraw renders the session again at the current size
func (v *PhotoView) Redraw() {
	v.Render(v.width, v.height)
}

// Tapped picks a point
func (v *PhotoView) Tapped(event *fyne.PointEvent) {
	if v.session.PickPoint(float64(event.Position.X), float64(event.Position.Y)) {
		v.changed()
	}
}

// Scrolled zooms around the pointer while the zoom modifier is held
func (v *PhotoView) Scrolled(event *fyne.ScrollEvent) {
	var zoomed bool
	if event.Scrolled.DY > 0 {
		zoomed = v.session.ZoomIn(float64(event.Position.X), float64(event.Position.Y))
	} else if event.Scrolled.DY < 0 {
		zoomed = v.session.ZoomOut()
	}
	if zoomed {
		v.changed()
	}
}

func (v *PhotoView) changed() {
	v.Redraw()
	if v.onChange != nil {
		v.onChange()
	}
}

// composeFrame scales the visible part of the photo into a viewport-sized
// raster and draws the line and marker overlays on top
func composeFrame(frame app.Frame, transform *viewer.ViewTransform, width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	viewer.FillRect(dst, dst.Bounds(), colorBackground)
	if frame.Photo == nil {
		return dst
	}

	view := frame.View
	target := image.Rect(
		int(view.OriginX),
		int(view.OriginY),
		int(view.OriginX+float64(frame.Photo.Width)*view.Zoom),
		int(view.OriginY+float64(frame.Photo.Height)*view.Zoom),
	)
	xdraw.ApproxBiLinear.Scale(dst, target, frame.Photo.Image, frame.Photo.Image.Bounds(), xdraw.Over, nil)

	toView := transform.PointToView
	for _, line := range frame.Overlays.Lines {
		col, stroke := lineColor(line.Style)
		from, to := toView(line.Segment.Start), toView(line.Segment.End)
		if line.Dashed {
			viewer.DrawDashedLine(dst, from, to, stroke, 4, 4, col)
		} else {
			viewer.DrawLine(dst, from, to, stroke, col)
		}
	}
	for _, marker := range frame.Overlays.Markers {
		viewer.FillDisc(dst, toView(marker.Position), 3, colorRed)
	}
	return dst
}

func lineColor(style measurement.Style) (color.RGBA, int) {
	switch style {
	case measurement.StyleCalibration:
		return colorRed, 3
	case measurement.StyleBaseline, measurement.StyleFit:
		return colorGreen, 2
	default:
		return colorRed, 2
	}
}

func labelColor(style measurement.Style) color.Color {
	switch style {
	case measurement.StyleDistance:
		return color.White
	case measurement.StyleBaseline:
		return colorGreen
	default:
		return colorRed
	}
}

// photoViewRenderer implements fyne.WidgetRenderer
type photoViewRenderer struct {
	view    *PhotoView
	raster  *canvas.Raster
	objects []fyne.CanvasObject
}

func (r *photoViewRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	if float64(size.Width) != r.view.width || float64(size.Height) != r.view.height {
		r.view.Render(float64(size.Width), float64(size.Height))
	}
}

func (r *photoViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *photoViewRenderer) Refresh() {
	r.objects = append([]fyne.CanvasObject{r.raster}, r.view.labels...)
	r.raster.Refresh()
	canvas.Refresh(r.view)
}

func (r *photoViewRenderer) Objects() []fyne.CanvasObject {
	if r.objects == nil {
		return []fyne.CanvasObject{r.raster}
	}
	return r.objects
}

func (r *photoViewRenderer) Destroy() {}
