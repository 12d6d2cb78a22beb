package sink

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/geometry"
	"github.com/philipparndt/gomeasure/pkg/photo"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func testID(subject string) measurement.SpecimenID {
	return measurement.SpecimenID{Lot: "L9", Subject: subject, Suffix: "x"}
}

func TestAppendCSVWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch_droop.csv")
	var log TableLog

	if err := log.AppendMeasurement(path, testID("S1"), 2.5); err != nil {
		t.Fatalf("AppendMeasurement failed: %v", err)
	}
	if err := log.AppendMeasurement(path, testID("S2"), 3.25); err != nil {
		t.Fatalf("AppendMeasurement failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "Lot #,Subject,Droop Length (mm)" {
		t.Errorf("header failed: got %q", lines[0])
	}
	if lines[1] != "L9,S1,2.5" {
		t.Errorf("row failed: got %q", lines[1])
	}

	rows, err := ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(rows) != 2 || rows[1].Subject != "S2" || math.Abs(rows[1].Distance-3.25) > 1e-10 {
		t.Errorf("ReadLog failed: got %+v", rows)
	}
}

func TestAppendXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch_droop.xlsx")
	var log TableLog

	for i, subject := range []string{"S1", "S2", "S3"} {
		if err := log.AppendMeasurement(path, testID(subject), float64(i)+0.5); err != nil {
			t.Fatalf("AppendMeasurement failed: %v", err)
		}
	}

	rows, err := ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2].Lot != "L9" || rows[2].Subject != "S3" || math.Abs(rows[2].Distance-2.5) > 1e-10 {
		t.Errorf("row failed: got %+v", rows[2])
	}
}

func TestAppendToMissingFolderIsFileAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "log.csv")
	var log TableLog

	err := log.AppendMeasurement(path, testID("S1"), 1)
	if !errors.Is(err, measurement.ErrFileAccess) {
		t.Errorf("AppendMeasurement failed: expected ErrFileAccess, got %v", err)
	}
}

func testOverlays(source string) measurement.Overlays {
	baseline := geometry.NewSegment(geometry.NewPoint2D(0, 150), geometry.NewPoint2D(280, 150))
	query := geometry.NewPoint2D(200, 100)
	foot := geometry.NewPoint2D(200, 150)
	return measurement.Overlays{
		Phase:   measurement.PhaseMeasuring,
		Caption: filepath.Base(source),
		Markers: []measurement.Marker{{Position: query, Style: measurement.StyleQuery}},
		Lines: []measurement.Line{
			{Segment: baseline, Style: measurement.StyleBaseline},
			{Segment: geometry.NewSegment(query, foot), Style: measurement.StyleDistance, Dashed: true},
		},
		Labels: []measurement.Label{
			{Text: "Distance: 3.00", Style: measurement.StyleDistance, Fixed: true},
		},
		SourcePath: source,
	}
}

func TestExportNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "L9_S1_x.png")
	src := image.NewRGBA(image.Rect(0, 0, 100, 60))

	exporter, err := NewExporter("")
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	exporter.Now = func() time.Time { return fixedNow }

	first, err := exporter.ExportAnnotatedImage(src, testOverlays(source))
	if err != nil {
		t.Fatalf("ExportAnnotatedImage failed: %v", err)
	}
	second, err := exporter.ExportAnnotatedImage(src, testOverlays(source))
	if err != nil {
		t.Fatalf("ExportAnnotatedImage failed: %v", err)
	}

	if filepath.Base(first) != "L9_S1_x_2024-05-06_07-08-09_M.png" {
		t.Errorf("export name failed: got %s", filepath.Base(first))
	}
	if first == second {
		t.Errorf("second export reused %s", first)
	}

	p, err := photo.Load(first)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Width != 100 || p.Height != 60 {
		t.Errorf("export size failed: got %dx%d", p.Width, p.Height)
	}
}

func TestExportWithoutImageFails(t *testing.T) {
	exporter, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	if _, err := exporter.ExportAnnotatedImage(nil, measurement.Overlays{}); !errors.Is(err, measurement.ErrFileAccess) {
		t.Errorf("expected ErrFileAccess, got %v", err)
	}
}

func TestAnnotateDrawsOverlays(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 200))
	exporter, err := NewExporter("")
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	dst := exporter.Annotate(src, testOverlays("/tmp/L9_S1_x.png"))

	if got := dst.RGBAAt(250, 150); got != colorGreen {
		t.Errorf("baseline pixel failed: expected %v, got %v", colorGreen, got)
	}
	if got := dst.RGBAAt(200, 100); got != colorRed {
		t.Errorf("marker pixel failed: expected %v, got %v", colorRed, got)
	}
	if got := dst.RGBAAt(11, 11); got == (color.RGBA{}) {
		t.Error("caption box missing at top-left")
	}
	if got := src.RGBAAt(250, 150); got != (color.RGBA{}) {
		t.Error("Annotate modified the source image")
	}
}

func TestCalibrationPointsCSV(t *testing.T) {
	dir := t.TempDir()
	writer := NewCalibrationPoints("", "csv")
	writer.Now = func() time.Time { return fixedNow }

	specimen := measurement.Specimen{SourcePath: filepath.Join(dir, "L9_S1_x.jpg")}
	record := measurement.CalibrationRecord{
		Scale:  2,
		Points: []geometry.Point2D{{X: 1, Y: 2}, {X: 3.5, Y: 4}},
	}
	if err := writer.CalibrationAccepted(specimen, record); err != nil {
		t.Fatalf("CalibrationAccepted failed: %v", err)
	}

	written := writer.Written()
	if len(written) != 1 || filepath.Base(written[0]) != "L9_S1_x_2024-05-06_07-08-09_calPoints.csv" {
		t.Fatalf("Written failed: got %v", written)
	}
	data, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	want := "Calibration Point,X (px),Y (px)\n1,1,2\n2,3.5,4\n"
	if string(data) != want {
		t.Errorf("content failed: expected %q, got %q", want, string(data))
	}
}

func TestCalibrationPointsSkipsWithoutSource(t *testing.T) {
	writer := NewCalibrationPoints(t.TempDir(), "")
	if err := writer.CalibrationAccepted(measurement.Specimen{}, measurement.CalibrationRecord{}); err != nil {
		t.Errorf("CalibrationAccepted failed: %v", err)
	}
	if len(writer.Written()) != 0 {
		t.Errorf("expected nothing written, got %v", writer.Written())
	}
}

func TestFailedWriteLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	writeErr := errors.New("disk full")

	_, err := writeExclusive(dir, "L9_S1_x", calPointsTag, ".csv", fixedNow, func(w io.Writer) error {
		if _, err := w.Write([]byte("Calibration Point,X")); err != nil {
			return err
		}
		return writeErr
	})
	if !errors.Is(err, writeErr) {
		t.Fatalf("writeExclusive failed: expected write error, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no partial file, got %d entries", len(entries))
	}

	// The same name is free for the next attempt
	path, err := writeExclusive(dir, "L9_S1_x", calPointsTag, ".csv", fixedNow, func(w io.Writer) error {
		_, err := w.Write([]byte("ok\n"))
		return err
	})
	if err != nil {
		t.Fatalf("writeExclusive failed: %v", err)
	}
	if filepath.Base(path) != "L9_S1_x_2024-05-06_07-08-09_calPoints.csv" {
		t.Errorf("writeExclusive failed: expected the plain timestamp name, got %s", filepath.Base(path))
	}
}

func TestFileSinkWorkflow(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "L9_S4_x.png")
	sink, err := NewFileSink("")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}

	w := measurement.NewWorkflow(sink)
	w.BeginSpecimen(measurement.Specimen{
		ID:         testID("S4"),
		SourcePath: source,
		Image:      image.NewRGBA(image.Rect(0, 0, 120, 80)),
		LogPath:    measurement.BatchLogPath(source, ".csv"),
	})

	w.PickPoint(geometry.NewPoint2D(10, 70))
	w.PickPoint(geometry.NewPoint2D(50, 70))
	if _, err := w.AcceptCalibration(20); err != nil {
		t.Fatalf("AcceptCalibration failed: %v", err)
	}
	w.PickPoint(geometry.NewPoint2D(0, 60))
	w.PickPoint(geometry.NewPoint2D(100, 60))
	if _, err := w.AcceptBaseline(); err != nil {
		t.Fatalf("AcceptBaseline failed: %v", err)
	}
	w.PickPoint(geometry.NewPoint2D(30, 20))
	result, err := w.AcceptMeasurement()
	if err != nil {
		t.Fatalf("AcceptMeasurement failed: %v", err)
	}

	if math.Abs(result.Distance-20) > 1e-10 {
		t.Errorf("Distance failed: expected 20, got %v", result.Distance)
	}
	if _, err := os.Stat(result.ExportPath); err != nil {
		t.Errorf("export missing: %v", err)
	}
	rows, err := ReadLog(measurement.BatchLogPath(source, ".csv"))
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Subject != "S4" {
		t.Errorf("log failed: got %+v", rows)
	}
}

func TestFileSinkRetryAfterMissingExportDir(t *testing.T) {
	dir := t.TempDir()
	exportDir := filepath.Join(dir, "exports")
	source := filepath.Join(dir, "L9_S5_x.png")
	sink, err := NewFileSink(exportDir)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}

	w := measurement.NewWorkflow(sink)
	w.BeginSpecimen(measurement.Specimen{
		ID:         testID("S5"),
		SourcePath: source,
		Image:      image.NewRGBA(image.Rect(0, 0, 120, 80)),
		LogPath:    measurement.BatchLogPath(source, ".csv"),
	})
	w.PickPoint(geometry.NewPoint2D(10, 70))
	w.PickPoint(geometry.NewPoint2D(50, 70))
	if _, err := w.AcceptCalibration(20); err != nil {
		t.Fatalf("AcceptCalibration failed: %v", err)
	}
	w.PickPoint(geometry.NewPoint2D(0, 60))
	w.PickPoint(geometry.NewPoint2D(100, 60))
	if _, err := w.AcceptBaseline(); err != nil {
		t.Fatalf("AcceptBaseline failed: %v", err)
	}
	w.PickPoint(geometry.NewPoint2D(30, 20))

	if _, err := w.AcceptMeasurement(); !errors.Is(err, measurement.ErrFileAccess) {
		t.Fatalf("AcceptMeasurement failed: expected ErrFileAccess, got %v", err)
	}
	if err := os.Mkdir(exportDir, 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if _, err := w.AcceptMeasurement(); err != nil {
		t.Fatalf("AcceptMeasurement retry failed: %v", err)
	}

	rows, err := ReadLog(measurement.BatchLogPath(source, ".csv"))
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("log failed: expected 1 row, got %d", len(rows))
	}
}
