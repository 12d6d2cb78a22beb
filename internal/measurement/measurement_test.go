package measurement

import (
	"errors"
	"math"
	"testing"

	"github.com/philipparndt/gomeasure/pkg/geometry"
)

func TestAcceptCalibrationScale(t *testing.T) {
	ref := geometry.NewSegment(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(100, 0))
	record, err := AcceptCalibration(ref, 10)
	if err != nil {
		t.Fatalf("AcceptCalibration failed: %v", err)
	}
	if math.Abs(record.Scale-10) > 1e-10 {
		t.Errorf("Scale failed: expected 10, got %v", record.Scale)
	}
	if math.Abs(record.ToPhysical(50)-5) > 1e-10 {
		t.Errorf("ToPhysical failed: expected 5, got %v", record.ToPhysical(50))
	}
}

func TestAcceptCalibrationRejectsBadLength(t *testing.T) {
	ref := geometry.NewSegment(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(100, 0))
	for _, length := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := AcceptCalibration(ref, length); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("AcceptCalibration(%v) failed: expected ErrInvalidInput, got %v", length, err)
		}
	}
}

func TestAcceptCalibrationRejectsZeroLengthReference(t *testing.T) {
	ref := geometry.NewSegment(geometry.NewPoint2D(4, 4), geometry.NewPoint2D(4, 4))
	if _, err := AcceptCalibration(ref, 10); !errors.Is(err, ErrNumericDegeneracy) {
		t.Errorf("AcceptCalibration failed: expected ErrNumericDegeneracy, got %v", err)
	}
}

func TestParsePhysicalLength(t *testing.T) {
	value, err := ParsePhysicalLength(" 12.5 ")
	if err != nil {
		t.Fatalf("ParsePhysicalLength failed: %v", err)
	}
	if value != 12.5 {
		t.Errorf("ParsePhysicalLength failed: expected 12.5, got %v", value)
	}

	for _, text := range []string{"", "abc", "0", "-3"} {
		if _, err := ParsePhysicalLength(text); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParsePhysicalLength(%q) failed: expected ErrInvalidInput, got %v", text, err)
		}
	}
}

func TestDistanceAndFoot(t *testing.T) {
	baseline := BaselineLine{Start: geometry.NewPoint2D(0, 0), End: geometry.NewPoint2D(10, 0)}
	calibration := CalibrationRecord{Scale: 2}

	d, err := DistanceAndFoot(geometry.NewPoint2D(5, 5), &baseline, &calibration)
	if err != nil {
		t.Fatalf("DistanceAndFoot failed: %v", err)
	}
	if math.Abs(d.Pixels-5) > 1e-10 {
		t.Errorf("Pixels failed: expected 5, got %v", d.Pixels)
	}
	if math.Abs(d.Physical-2.5) > 1e-10 {
		t.Errorf("Physical failed: expected 2.5, got %v", d.Physical)
	}
	if math.Abs(d.Foot.X-5) > 1e-10 || math.Abs(d.Foot.Y) > 1e-10 {
		t.Errorf("Foot failed: expected (5, 0), got %v", d.Foot)
	}
}

func TestDistanceAndFootIgnoresSegmentExtent(t *testing.T) {
	baseline := BaselineLine{Start: geometry.NewPoint2D(0, 0), End: geometry.NewPoint2D(10, 0)}
	calibration := CalibrationRecord{Scale: 1}

	d, err := DistanceAndFoot(geometry.NewPoint2D(50, -3), &baseline, &calibration)
	if err != nil {
		t.Fatalf("DistanceAndFoot failed: %v", err)
	}
	if math.Abs(d.Pixels-3) > 1e-10 {
		t.Errorf("Pixels failed: expected 3, got %v", d.Pixels)
	}
	if math.Abs(d.Foot.X-50) > 1e-10 {
		t.Errorf("Foot.X failed: expected 50, got %v", d.Foot.X)
	}
}

func TestDistanceAndFootPreconditions(t *testing.T) {
	baseline := BaselineLine{Start: geometry.NewPoint2D(0, 0), End: geometry.NewPoint2D(10, 0)}
	calibration := CalibrationRecord{Scale: 1}
	q := geometry.NewPoint2D(1, 1)

	if _, err := DistanceAndFoot(q, &baseline, nil); !errors.Is(err, ErrCalibrationRequired) {
		t.Errorf("expected ErrCalibrationRequired, got %v", err)
	}
	if _, err := DistanceAndFoot(q, nil, &calibration); !errors.Is(err, ErrBaselineRequired) {
		t.Errorf("expected ErrBaselineRequired, got %v", err)
	}

	degenerate := BaselineLine{Start: geometry.NewPoint2D(3, 3), End: geometry.NewPoint2D(3, 3)}
	if _, err := DistanceAndFoot(q, &degenerate, &calibration); !errors.Is(err, ErrNumericDegeneracy) {
		t.Errorf("expected ErrNumericDegeneracy, got %v", err)
	}
}

func TestAcceptBaselineKeepsEndpoints(t *testing.T) {
	seg := geometry.NewSegment(geometry.NewPoint2D(1, 2), geometry.NewPoint2D(9, 7))
	baseline, err := AcceptBaseline(seg)
	if err != nil {
		t.Fatalf("AcceptBaseline failed: %v", err)
	}
	if baseline.Start != seg.Start || baseline.End != seg.End {
		t.Errorf("AcceptBaseline failed: expected %v, got %v", seg, baseline)
	}
}

func TestParseSpecimenID(t *testing.T) {
	id, err := ParseSpecimenID("/photos/L42/L42_S07_front_01.jpg")
	if err != nil {
		t.Fatalf("ParseSpecimenID failed: %v", err)
	}
	if id.Lot != "L42" || id.Subject != "S07" || id.Suffix != "front_01" {
		t.Errorf("ParseSpecimenID failed: got %+v", id)
	}
	if id.String() != "L42_S07" {
		t.Errorf("String failed: expected L42_S07, got %s", id.String())
	}

	for _, name := range []string{"plain.jpg", "lot_subject.jpg", "_S1_x.jpg"} {
		if _, err := ParseSpecimenID(name); !errors.Is(err, ErrInvalidSpecimenName) {
			t.Errorf("ParseSpecimenID(%q) failed: expected ErrInvalidSpecimenName, got %v", name, err)
		}
	}
}

func TestBatchLogPath(t *testing.T) {
	got := BatchLogPath("/data/batch7/L1_S1_a.jpg", "")
	if got != "/data/batch7/batch7_droop.xlsx" {
		t.Errorf("BatchLogPath failed: got %s", got)
	}
	got = BatchLogPath("/data/batch7/L1_S1_a.jpg", "csv")
	if got != "/data/batch7/batch7_droop.csv" {
		t.Errorf("BatchLogPath failed: got %s", got)
	}
}

func TestKind(t *testing.T) {
	cases := map[error]ErrorKind{
		nil:                       KindNone,
		ErrInvalidInput:           KindInvalidInput,
		ErrInsufficientPoints:     KindInsufficientPoints,
		ErrBaselineRequired:       KindPrecondition,
		ErrFileAccess:             KindFileAccess,
		geometry.ErrDegenerateFit: KindNumericDegeneracy,
		ErrActionNotAllowed:       KindNotAllowed,
		errors.New("other"):       KindUnknown,
	}
	for err, want := range cases {
		if got := Kind(err); got != want {
			t.Errorf("Kind(%v) failed: expected %s, got %s", err, want, got)
		}
	}
}

func TestLineLabelSitsAboveHorizontalSegment(t *testing.T) {
	seg := geometry.NewSegment(geometry.NewPoint2D(0, 50), geometry.NewPoint2D(100, 50))
	label := LineLabel(FormatLength(10), seg, LabelOffset, StyleCalibration)
	if label.Text != "10 mm" {
		t.Errorf("Text failed: expected \"10 mm\", got %q", label.Text)
	}
	if math.Abs(label.Anchor.X-50) > 1e-10 || math.Abs(label.Anchor.Y-40) > 1e-10 {
		t.Errorf("Anchor failed: expected (50, 40), got %v", label.Anchor)
	}
}
