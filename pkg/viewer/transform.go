package viewer

import (
	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// ZoomConfig controls how zoom steps are applied
type ZoomConfig struct {
	MaxZoom float64 // Zoom-in is refused once the factor has reached this value
	Step    float64 // Multiplier applied per zoom-in
}

// DefaultZoomConfig returns the standard 2x step with the 6.0 cap.
// The cap is checked before doubling, so 8.0 is the largest reachable factor.
func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{
		MaxZoom: 6.0,
		Step:    2.0,
	}
}

// ViewState is the zoom factor and the position of the image's top-left
// corner in view space
type ViewState struct {
	Zoom    float64
	OriginX float64
	OriginY float64
}

// ViewTransform maps between image space and a zoomable view space
type ViewTransform struct {
	config      ZoomConfig
	state       ViewState
	imageW      float64
	imageH      float64
	viewportW   float64
	viewportH   float64
	zoomEnabled bool // Set while the zoom modifier is held
}

// NewViewTransform creates a transform for an image shown in a viewport
func NewViewTransform(imageW, imageH, viewportW, viewportH float64, config ZoomConfig) *ViewTransform {
	t := &ViewTransform{config: config}
	t.Reset(imageW, imageH, viewportW, viewportH)
	return t
}

// Reset loads a new image: zoom returns to 1.0 and the image is centered
func (t *ViewTransform) Reset(imageW, imageH, viewportW, viewportH float64) {
	t.imageW = imageW
	t.imageH = imageH
	t.viewportW = viewportW
	t.viewportH = viewportH
	t.resetView()
}

// SetViewport updates the viewport size. At zoom 1.0 the image is
// re-centered; otherwise the current origin is clamped to the new size.
func (t *ViewTransform) SetViewport(viewportW, viewportH float64) {
	t.viewportW = viewportW
	t.viewportH = viewportH
	if t.state.Zoom == 1.0 {
		t.resetView()
		return
	}
	t.clamp()
}

// SetZoomEnabled toggles the zoom modifier
func (t *ViewTransform) SetZoomEnabled(enabled bool) {
	t.zoomEnabled = enabled
}

// ZoomEnabled reports whether the zoom modifier is held
func (t *ViewTransform) ZoomEnabled() bool {
	return t.zoomEnabled
}

// State returns a copy of the current view state
func (t *ViewTransform) State() ViewState {
	return t.state
}

// ImageSize returns the image dimensions in image pixels
func (t *ViewTransform) ImageSize() (float64, float64) {
	return t.imageW, t.imageH
}

// ViewportSize returns the viewport dimensions
func (t *ViewTransform) ViewportSize() (float64, float64) {
	return t.viewportW, t.viewportH
}

// ToImage converts view coordinates to image coordinates
func (t *ViewTransform) ToImage(viewX, viewY float64) (float64, float64) {
	return (viewX - t.state.OriginX) / t.state.Zoom, (viewY - t.state.OriginY) / t.state.Zoom
}

// ToView converts image coordinates to view coordinates
func (t *ViewTransform) ToView(imageX, imageY float64) (float64, float64) {
	return imageX*t.state.Zoom + t.state.OriginX, imageY*t.state.Zoom + t.state.OriginY
}

// PointToImage converts a view-space point to image space
func (t *ViewTransform) PointToImage(p geometry.Point2D) geometry.Point2D {
	x, y := t.ToImage(p.X, p.Y)
	return geometry.NewPoint2D(x, y)
}

// PointToView converts an image-space point to view space
func (t *ViewTransform) PointToView(p geometry.Point2D) geometry.Point2D {
	x, y := t.ToView(p.X, p.Y)
	return geometry.NewPoint2D(x, y)
}

// ZoomIn multiplies the zoom factor by the configured step, keeping the
// image point under the pivot fixed. Returns false when nothing changed.
// Every overlay must be re-projected with ToView afterwards.
func (t *ViewTransform) ZoomIn(pivotViewX, pivotViewY float64) bool {
	if !t.zoomEnabled {
		return false
	}
	if t.state.Zoom >= t.config.MaxZoom {
		return false
	}

	// Image point under the pivot before zooming
	imageX, imageY := t.ToImage(pivotViewX, pivotViewY)

	t.state.Zoom *= t.config.Step
	t.state.OriginX = pivotViewX - imageX*t.state.Zoom
	t.state.OriginY = pivotViewY - imageY*t.state.Zoom

	t.clamp()
	return true
}

// ZoomOut is a hard reset to zoom 1.0 with the image centered, not the
// inverse of a single ZoomIn step. Returns false when zoom is disabled.
func (t *ViewTransform) ZoomOut() bool {
	if !t.zoomEnabled {
		return false
	}
	t.resetView()
	return true
}

// resetView sets zoom 1.0 and centers the image in the viewport
func (t *ViewTransform) resetView() {
	t.state = ViewState{
		Zoom:    1.0,
		OriginX: (t.viewportW - t.imageW) / 2,
		OriginY: (t.viewportH - t.imageH) / 2,
	}
}

// clamp keeps the scaled image covering the viewport on each axis.
// An axis where the scaled image is smaller than the viewport is centered.
func (t *ViewTransform) clamp() {
	t.state.OriginX = clampAxis(t.state.OriginX, t.imageW*t.state.Zoom, t.viewportW)
	t.state.OriginY = clampAxis(t.state.OriginY, t.imageH*t.state.Zoom, t.viewportH)
}

func clampAxis(origin, scaled, viewport float64) float64 {
	if scaled <= viewport {
		return (viewport - scaled) / 2
	}
	if origin > 0 {
		return 0
	}
	if origin < viewport-scaled {
		return viewport - scaled
	}
	return origin
}
