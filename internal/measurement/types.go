package measurement

import (
	"image"
	"time"

	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// Phase is the point-collection phase of the workflow
type Phase int

const (
	PhaseCalibrating Phase = iota
	PhaseBaseline
	PhaseMeasuring
)

func (p Phase) String() string {
	switch p {
	case PhaseCalibrating:
		return "calibrating"
	case PhaseBaseline:
		return "baseline"
	case PhaseMeasuring:
		return "measuring"
	default:
		return "unknown"
	}
}

// ReentryPolicy selects the phase entered after a measurement is persisted
type ReentryPolicy int

const (
	// ReentryBaseline keeps the calibration and asks for a new baseline
	ReentryBaseline ReentryPolicy = iota
	// ReentryCalibrate starts the next specimen from calibration
	ReentryCalibrate
	// ReentryMeasure keeps calibration and baseline for the whole batch
	ReentryMeasure
)

func (r ReentryPolicy) String() string {
	switch r {
	case ReentryBaseline:
		return "baseline"
	case ReentryCalibrate:
		return "calibrate"
	case ReentryMeasure:
		return "measure"
	default:
		return "unknown"
	}
}

// PointSet is the ordered list of points collected in the active phase
type PointSet []geometry.Point2D

// Last returns the most recently added point
func (ps PointSet) Last() (geometry.Point2D, bool) {
	if len(ps) == 0 {
		return geometry.Point2D{}, false
	}
	return ps[len(ps)-1], true
}

// CalibrationRecord is an accepted pixel-to-unit calibration
type CalibrationRecord struct {
	Scale          float64          // Pixels per physical unit, always > 0 and finite
	Reference      geometry.Segment // Fitted reference segment in image space
	PhysicalLength float64          // Operator-supplied length of the reference
	Points         []geometry.Point2D
	AcceptedAt     time.Time
}

// BaselineLine is the accepted reference line for distance queries
type BaselineLine struct {
	Start geometry.Point2D
	End   geometry.Point2D
}

// Segment returns the baseline's endpoints as a segment
func (b BaselineLine) Segment() geometry.Segment {
	return geometry.NewSegment(b.Start, b.End)
}

// Distance is the result of a perpendicular distance query
type Distance struct {
	Pixels   float64
	Physical float64
	Foot     geometry.Point2D
}

// MeasurementResult is one accepted droop measurement
type MeasurementResult struct {
	ID            string
	Specimen      SpecimenID
	SourcePath    string
	Query         geometry.Point2D
	Foot          geometry.Point2D
	PixelDistance float64
	Distance      float64 // Physical units
	Scale         float64
	Baseline      BaselineLine
	Timestamp     time.Time
	ExportPath    string
}

// Specimen is the photographed subject currently being measured
type Specimen struct {
	ID         SpecimenID
	SourcePath string
	Image      image.Image
	LogPath    string
}

// ResultSink persists accepted measurements
type ResultSink interface {
	// AppendMeasurement adds one row to the tabular log at logPath
	AppendMeasurement(logPath string, id SpecimenID, distance float64) error
	// ExportAnnotatedImage writes src with the overlays burned in and returns the written path
	ExportAnnotatedImage(src image.Image, overlays Overlays) (string, error)
}

// Recorder receives every persisted measurement, after the sink succeeded
type Recorder interface {
	RecordMeasurement(result MeasurementResult) error
}

// CalibrationObserver is notified when a calibration is accepted
type CalibrationObserver interface {
	CalibrationAccepted(specimen Specimen, record CalibrationRecord) error
}
