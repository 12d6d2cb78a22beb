package sink

import (
	"image"

	"github.com/philipparndt/gomeasure/internal/measurement"
)

// FileSink persists measurements to the batch log and writes annotated exports
type FileSink struct {
	Log      TableLog
	Exporter *Exporter
}

// NewFileSink creates a sink writing exports to exportDir, or next to each
// photo when exportDir is empty
func NewFileSink(exportDir string) (*FileSink, error) {
	exporter, err := NewExporter(exportDir)
	if err != nil {
		return nil, err
	}
	return &FileSink{Exporter: exporter}, nil
}

// AppendMeasurement appends one row to the log at logPath
func (s *FileSink) AppendMeasurement(logPath string, id measurement.SpecimenID, distance float64) error {
	return s.Log.AppendMeasurement(logPath, id, distance)
}

// ExportAnnotatedImage writes the annotated photo and returns its path
func (s *FileSink) ExportAnnotatedImage(src image.Image, overlays measurement.Overlays) (string, error) {
	return s.Exporter.ExportAnnotatedImage(src, overlays)
}

var (
	_ measurement.ResultSink          = (*FileSink)(nil)
	_ measurement.CalibrationObserver = (*CalibrationPoints)(nil)
)
