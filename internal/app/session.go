package app

import (
	"errors"
	"fmt"
	"log"

	"github.com/philipparndt/gomeasure/internal/history"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/internal/sink"
	"github.com/philipparndt/gomeasure/pkg/geometry"
	"github.com/philipparndt/gomeasure/pkg/viewer"
)

// ErrNoPhoto is returned for commands that need a loaded photo
var ErrNoPhoto = errors.New("no photo loaded")

// Session connects one operator's commands to the view transform, the
// measurement workflow and the writers. Commands run one at a time on the
// caller's goroutine.
type Session struct {
	config      Config
	transform   *viewer.ViewTransform
	workflow    *measurement.Workflow
	Photo       PhotoState
	Persistence PersistenceState
	Follow      FollowState
}

// NewSession creates a session and opens its writers
func NewSession(config Config) (*Session, error) {
	if config.Zoom.Step == 0 {
		config.Zoom = viewer.DefaultZoomConfig()
	}
	if config.LogExt == "" {
		config.LogExt = measurement.DefaultLogExtension
	}

	s := &Session{
		config:    config,
		transform: viewer.NewViewTransform(0, 0, config.ViewportWidth, config.ViewportHeight, config.Zoom),
	}

	s.Persistence.sink = config.Sink
	if s.Persistence.sink == nil {
		fileSink, err := sink.NewFileSink(config.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create result sink: %w", err)
		}
		s.Persistence.sink = fileSink
	}

	opts := []measurement.Option{measurement.WithReentryPolicy(config.Reentry)}

	if config.CalPoints {
		s.Persistence.calPoints = sink.NewCalibrationPoints(config.ExportDir, config.LogExt)
		opts = append(opts, measurement.WithCalibrationObserver(s.Persistence.calPoints))
	}

	if config.HistoryPath != "" {
		store, err := history.NewStore(config.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		s.Persistence.history = store
		opts = append(opts, measurement.WithRecorder(store), measurement.WithCalibrationObserver(store))
	}

	s.workflow = measurement.NewWorkflow(s.Persistence.sink, opts...)
	return s, nil
}

// Close stops folder watching and closes the history database
func (s *Session) Close() error {
	var errs []error
	if s.Follow.folderWatcher != nil {
		errs = append(errs, s.Follow.folderWatcher.Close())
		s.Follow.folderWatcher = nil
	}
	if s.Persistence.history != nil {
		errs = append(errs, s.Persistence.history.Close())
		s.Persistence.history = nil
	}
	return errors.Join(errs...)
}

// Workflow returns the measurement workflow
func (s *Session) Workflow() *measurement.Workflow {
	return s.workflow
}

// Transform returns the view transform of the displayed photo
func (s *Session) Transform() *viewer.ViewTransform {
	return s.transform
}

// History returns the history store, or nil when history is disabled
func (s *Session) History() *history.Store {
	return s.Persistence.history
}

// SetViewport updates the viewport size after a window resize
func (s *Session) SetViewport(width, height float64) {
	s.config.ViewportWidth = width
	s.config.ViewportHeight = height
	s.transform.SetViewport(width, height)
}

// SetZoomModifier records whether the zoom modifier key is held
func (s *Session) SetZoomModifier(held bool) {
	s.transform.SetZoomEnabled(held)
}

// ZoomIn zooms around a view-space pivot while the modifier is held
func (s *Session) ZoomIn(viewX, viewY float64) bool {
	if s.Photo.photo == nil {
		return false
	}
	return s.transform.ZoomIn(viewX, viewY)
}

// ZoomOut resets the view while the modifier is held
func (s *Session) ZoomOut() bool {
	if s.Photo.photo == nil {
		return false
	}
	return s.transform.ZoomOut()
}

// PickPoint converts a view-space click into image space and hands it to
// the workflow. Clicks outside the photo are ignored.
func (s *Session) PickPoint(viewX, viewY float64) bool {
	if s.Photo.photo == nil {
		return false
	}
	x, y := s.transform.ToImage(viewX, viewY)
	return s.PickImagePoint(geometry.NewPoint2D(x, y))
}

// PickImagePoint adds a point given directly in image space
func (s *Session) PickImagePoint(p geometry.Point2D) bool {
	if s.Photo.photo == nil {
		return false
	}
	if p.X < 0 || p.Y < 0 || p.X > float64(s.Photo.photo.Width) || p.Y > float64(s.Photo.photo.Height) {
		return false
	}
	return s.workflow.PickPoint(p)
}

// DeleteLastPoint removes the most recent point
func (s *Session) DeleteLastPoint() bool {
	return s.workflow.DeleteLastPoint()
}

// AcceptCalibration parses the operator's length entry and accepts the calibration
func (s *Session) AcceptCalibration(lengthText string) (measurement.CalibrationRecord, error) {
	length, err := measurement.ParsePhysicalLength(lengthText)
	if err != nil {
		return measurement.CalibrationRecord{}, err
	}
	return s.workflow.AcceptCalibration(length)
}

// AcceptBaseline accepts the baseline
func (s *Session) AcceptBaseline() (measurement.BaselineLine, error) {
	return s.workflow.AcceptBaseline()
}

// AcceptMeasurement persists the pending measurement
func (s *Session) AcceptMeasurement() (measurement.MeasurementResult, error) {
	if s.Photo.photo == nil {
		return measurement.MeasurementResult{}, ErrNoPhoto
	}
	result, err := s.workflow.AcceptMeasurement()
	if err != nil {
		return result, err
	}
	log.Printf("Measured %s: %.2f mm -> %s", result.Specimen, result.Distance, result.ExportPath)
	return result, nil
}

// Recalibrate restarts calibration
func (s *Session) Recalibrate() {
	s.workflow.Recalibrate()
}

// Rebaseline restarts baseline acquisition
func (s *Session) Rebaseline() {
	s.workflow.Rebaseline()
}

// Resume returns to measuring with the held calibration and baseline
func (s *Session) Resume() error {
	return s.workflow.Resume()
}

// Render returns the current frame
func (s *Session) Render() Frame {
	return Frame{
		Photo:    s.Photo.photo,
		View:     s.transform.State(),
		Overlays: s.workflow.Render(),
	}
}

// Specimen returns the specimen of the displayed photo
func (s *Session) Specimen() measurement.Specimen {
	return s.Photo.specimen
}
