package measurement

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// Option configures a Workflow
type Option func(*Workflow)

// WithReentryPolicy sets the phase entered after a measurement is persisted
func WithReentryPolicy(policy ReentryPolicy) Option {
	return func(w *Workflow) {
		w.policy = policy
	}
}

// WithRecorder adds a history recorder that receives every persisted result
func WithRecorder(recorder Recorder) Option {
	return func(w *Workflow) {
		w.recorder = recorder
	}
}

// WithCalibrationObserver adds an observer notified before a calibration is committed
func WithCalibrationObserver(observer CalibrationObserver) Option {
	return func(w *Workflow) {
		w.observers = append(w.observers, observer)
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

// Workflow drives calibration, baseline acquisition and measurement for one
// specimen at a time. Every method is a single operator command; state only
// changes when a command succeeds.
type Workflow struct {
	phase       Phase
	points      PointSet
	calibration *CalibrationRecord
	baseline    *BaselineLine
	specimen    Specimen
	last        *MeasurementResult
	// logged is the row already appended for the pending query when a
	// later write of the same measurement failed
	logged *loggedRow

	sink      ResultSink
	recorder  Recorder
	observers []CalibrationObserver
	policy    ReentryPolicy
	now       func() time.Time
}

type loggedRow struct {
	logPath  string
	query    geometry.Point2D
	distance float64
}

// NewWorkflow creates a workflow in the calibrating phase. A nil sink
// computes results without persisting them.
func NewWorkflow(sink ResultSink, opts ...Option) *Workflow {
	w := &Workflow{
		phase:  PhaseCalibrating,
		sink:   sink,
		policy: ReentryBaseline,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Phase returns the active phase
func (w *Workflow) Phase() Phase {
	return w.phase
}

// Policy returns the re-entry policy
func (w *Workflow) Policy() ReentryPolicy {
	return w.policy
}

// Points returns a copy of the points collected in the active phase
func (w *Workflow) Points() PointSet {
	return append(PointSet(nil), w.points...)
}

// HasCalibration reports whether a calibration is held
func (w *Workflow) HasCalibration() bool {
	return w.calibration != nil
}

// HasBaseline reports whether a baseline is held
func (w *Workflow) HasBaseline() bool {
	return w.baseline != nil
}

// Calibration returns the held calibration
func (w *Workflow) Calibration() (CalibrationRecord, bool) {
	if w.calibration == nil {
		return CalibrationRecord{}, false
	}
	return *w.calibration, true
}

// Baseline returns the held baseline
func (w *Workflow) Baseline() (BaselineLine, bool) {
	if w.baseline == nil {
		return BaselineLine{}, false
	}
	return *w.baseline, true
}

// Specimen returns the bound specimen
func (w *Workflow) Specimen() Specimen {
	return w.specimen
}

// LastResult returns the most recently persisted measurement
func (w *Workflow) LastResult() (MeasurementResult, bool) {
	if w.last == nil {
		return MeasurementResult{}, false
	}
	return *w.last, true
}

// BeginSpecimen binds the specimen used by persistence. The phase is unchanged.
func (w *Workflow) BeginSpecimen(specimen Specimen) {
	w.specimen = specimen
	w.points = nil
	w.logged = nil
}

// PickPoint adds an image-space point to the active phase. While measuring
// only one query point is kept: further picks are ignored until it is
// accepted or deleted.
func (w *Workflow) PickPoint(p geometry.Point2D) bool {
	if !p.IsFinite() {
		return false
	}
	if w.phase == PhaseMeasuring && len(w.points) >= 1 {
		return false
	}
	w.points = append(w.points, p)
	return true
}

// DeleteLastPoint removes the most recent point of the active phase
func (w *Workflow) DeleteLastPoint() bool {
	if len(w.points) == 0 {
		return false
	}
	w.points = w.points[:len(w.points)-1]
	return true
}

// CanAccept reports whether the active phase has enough points to be accepted
func (w *Workflow) CanAccept() bool {
	switch w.phase {
	case PhaseCalibrating, PhaseBaseline:
		return len(w.points) >= 2
	case PhaseMeasuring:
		return len(w.points) == 1
	default:
		return false
	}
}

// Fit returns the current fitted segment for the calibrating and baseline phases
func (w *Workflow) Fit() (geometry.Segment, geometry.FittedLine, bool) {
	if w.phase == PhaseMeasuring || len(w.points) < 2 {
		return geometry.Segment{}, geometry.FittedLine{}, false
	}
	segment, line, err := geometry.FitSegment(w.points)
	if err != nil {
		return geometry.Segment{}, geometry.FittedLine{}, false
	}
	return segment, line, true
}

// AcceptCalibration fits the collected points and derives the scale from
// the physical length of the reference feature
func (w *Workflow) AcceptCalibration(physicalLength float64) (CalibrationRecord, error) {
	if w.phase != PhaseCalibrating {
		return CalibrationRecord{}, fmt.Errorf("accept calibration while %s: %w", w.phase, ErrActionNotAllowed)
	}
	if len(w.points) < 2 {
		return CalibrationRecord{}, fmt.Errorf("calibration needs at least 2 points, got %d: %w", len(w.points), ErrInsufficientPoints)
	}

	segment, _, err := geometry.FitSegment(w.points)
	if err != nil {
		return CalibrationRecord{}, fmt.Errorf("failed to fit calibration points: %w", err)
	}

	record, err := AcceptCalibration(segment, physicalLength)
	if err != nil {
		return CalibrationRecord{}, err
	}
	record.Points = append([]geometry.Point2D(nil), w.points...)
	record.AcceptedAt = w.now()

	for _, observer := range w.observers {
		if err := observer.CalibrationAccepted(w.specimen, record); err != nil {
			return CalibrationRecord{}, fmt.Errorf("failed to store calibration points: %w", err)
		}
	}

	w.calibration = &record
	w.last = nil
	w.points = nil
	w.phase = PhaseBaseline
	return record, nil
}

// AcceptBaseline fits the collected points and stores the baseline
func (w *Workflow) AcceptBaseline() (BaselineLine, error) {
	if w.phase != PhaseBaseline {
		return BaselineLine{}, fmt.Errorf("accept baseline while %s: %w", w.phase, ErrActionNotAllowed)
	}
	if len(w.points) < 2 {
		return BaselineLine{}, fmt.Errorf("baseline needs at least 2 points, got %d: %w", len(w.points), ErrInsufficientPoints)
	}

	segment, _, err := geometry.FitSegment(w.points)
	if err != nil {
		return BaselineLine{}, fmt.Errorf("failed to fit baseline points: %w", err)
	}

	baseline, err := AcceptBaseline(segment)
	if err != nil {
		return BaselineLine{}, err
	}

	w.baseline = &baseline
	w.points = nil
	w.phase = PhaseMeasuring
	return baseline, nil
}

// AcceptMeasurement computes the droop distance of the pending query point,
// appends it to the batch log and exports the annotated image. The workflow
// only moves on when both writes succeed.
func (w *Workflow) AcceptMeasurement() (MeasurementResult, error) {
	if w.phase != PhaseMeasuring {
		return MeasurementResult{}, fmt.Errorf("accept measurement while %s: %w", w.phase, ErrActionNotAllowed)
	}
	if len(w.points) != 1 {
		return MeasurementResult{}, fmt.Errorf("measurement needs exactly 1 point, got %d: %w", len(w.points), ErrInsufficientPoints)
	}

	query := w.points[0]
	distance, err := DistanceAndFoot(query, w.baseline, w.calibration)
	if err != nil {
		return MeasurementResult{}, err
	}

	result := MeasurementResult{
		ID:            uuid.NewString(),
		Specimen:      w.specimen.ID,
		SourcePath:    w.specimen.SourcePath,
		Query:         query,
		Foot:          distance.Foot,
		PixelDistance: distance.Pixels,
		Distance:      distance.Physical,
		Scale:         w.calibration.Scale,
		Baseline:      *w.baseline,
		Timestamp:     w.now(),
	}

	if w.sink != nil {
		// A retry after a failed export does not log the same measurement twice
		row := loggedRow{logPath: w.specimen.LogPath, query: query, distance: result.Distance}
		if w.logged == nil || *w.logged != row {
			if err := w.sink.AppendMeasurement(w.specimen.LogPath, w.specimen.ID, result.Distance); err != nil {
				return MeasurementResult{}, fmt.Errorf("failed to append measurement: %w", err)
			}
			w.logged = &row
		}
		path, err := w.sink.ExportAnnotatedImage(w.specimen.Image, w.ExportOverlays())
		if err != nil {
			return MeasurementResult{}, fmt.Errorf("failed to export annotated image: %w", err)
		}
		result.ExportPath = path
	}

	if w.recorder != nil {
		if err := w.recorder.RecordMeasurement(result); err != nil {
			log.Printf("history: %v", err)
		}
	}

	w.last = &result
	w.logged = nil
	w.points = nil
	w.reenter()
	return result, nil
}

func (w *Workflow) reenter() {
	switch w.policy {
	case ReentryCalibrate:
		w.calibration = nil
		w.baseline = nil
		w.phase = PhaseCalibrating
	case ReentryMeasure:
		w.phase = PhaseMeasuring
	default:
		w.baseline = nil
		w.phase = PhaseBaseline
	}
}

// Recalibrate restarts calibration. The held calibration and baseline stay
// in place until a new calibration is accepted.
func (w *Workflow) Recalibrate() {
	w.points = nil
	w.phase = PhaseCalibrating
}

// Rebaseline restarts baseline acquisition and keeps the calibration
func (w *Workflow) Rebaseline() {
	if w.calibration == nil {
		w.Recalibrate()
		return
	}
	w.points = nil
	w.phase = PhaseBaseline
}

// Resume returns to measuring with the held calibration and baseline
func (w *Workflow) Resume() error {
	if w.phase == PhaseMeasuring {
		return nil
	}
	if w.calibration == nil {
		return ErrCalibrationRequired
	}
	if w.baseline == nil {
		return ErrBaselineRequired
	}
	w.points = nil
	w.phase = PhaseMeasuring
	return nil
}

// Render returns what a front end draws for the current state
func (w *Workflow) Render() Overlays {
	overlays := w.overlays(LabelOffset)
	overlays.Prompt = Prompt(w.phase)
	overlays.CanAccept = w.CanAccept()
	return overlays
}

// ExportOverlays returns the overlays burned into an annotated export
func (w *Workflow) ExportOverlays() Overlays {
	overlays := w.overlays(ExportLabelOffset)
	overlays.Caption = w.caption()
	overlays.SourcePath = w.specimen.SourcePath
	return overlays
}

func (w *Workflow) overlays(labelOffset float64) Overlays {
	overlays := Overlays{Phase: w.phase}

	if w.calibration != nil && w.phase != PhaseCalibrating {
		reference := w.calibration.Reference
		overlays.Lines = append(overlays.Lines, Line{Segment: reference, Style: StyleCalibration})
		overlays.Labels = append(overlays.Labels, LineLabel(FormatLength(w.calibration.PhysicalLength), reference, labelOffset, StyleCalibration))
	}
	if w.baseline != nil && w.phase == PhaseMeasuring {
		overlays.Lines = append(overlays.Lines, Line{Segment: w.baseline.Segment(), Style: StyleBaseline})
	}

	markerStyle := StylePoint
	if w.phase == PhaseMeasuring {
		markerStyle = StyleQuery
	}
	for _, p := range w.points {
		overlays.Markers = append(overlays.Markers, Marker{Position: p, Style: markerStyle})
	}

	if segment, _, ok := w.Fit(); ok {
		overlays.Lines = append(overlays.Lines, Line{Segment: segment, Style: StyleFit})
	}

	if w.phase == PhaseMeasuring && len(w.points) == 1 {
		query := w.points[0]
		if distance, err := DistanceAndFoot(query, w.baseline, w.calibration); err == nil {
			overlays.Lines = append(overlays.Lines,
				Line{Segment: geometry.NewSegment(query, distance.Foot), Style: StyleDistance, Dashed: true},
				Line{Segment: geometry.NewSegment(distance.Foot, w.baseline.Start), Style: StyleDistance, Dashed: true},
			)
			overlays.Labels = append(overlays.Labels, Label{
				Text:   FormatDistance(distance.Physical),
				Anchor: geometry.NewPoint2D(10, 10),
				Style:  StyleDistance,
				Fixed:  true,
			})
		}
	}

	return overlays
}

func (w *Workflow) caption() string {
	if w.specimen.SourcePath != "" {
		return filepath.Base(w.specimen.SourcePath)
	}
	if w.specimen.ID.Lot != "" {
		return w.specimen.ID.String()
	}
	return ""
}
