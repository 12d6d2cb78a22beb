package analysis

import (
	"math"
	"testing"
)

func samples() []Sample {
	return []Sample{
		{Lot: "B", Subject: "S1", Distance: 4},
		{Lot: "A", Subject: "S1", Distance: 2},
		{Lot: "A", Subject: "S2", Distance: 4},
		{Lot: "A", Subject: "S2", Distance: 6},
	}
}

func TestSummarize(t *testing.T) {
	report := Summarize(samples())

	if len(report.Lots) != 2 {
		t.Fatalf("Summarize failed: expected 2 lots, got %d", len(report.Lots))
	}
	a := report.Lots[0]
	if a.Lot != "A" || a.Count != 3 {
		t.Errorf("lot A failed: got %+v", a)
	}
	if math.Abs(a.Mean-4) > 1e-10 {
		t.Errorf("Mean failed: expected 4, got %v", a.Mean)
	}
	if math.Abs(a.StdDev-2) > 1e-10 {
		t.Errorf("StdDev failed: expected 2, got %v", a.StdDev)
	}
	if a.Min != 2 || a.Max != 6 {
		t.Errorf("Min/Max failed: got %v/%v", a.Min, a.Max)
	}
	if len(a.Subjects) != 2 {
		t.Errorf("Subjects failed: expected 2, got %v", a.Subjects)
	}

	b := report.Lots[1]
	if b.Count != 1 || b.StdDev != 0 || b.Mean != 4 {
		t.Errorf("lot B failed: got %+v", b)
	}
	if report.Overall.Count != 4 || math.Abs(report.Overall.Mean-4) > 1e-10 {
		t.Errorf("Overall failed: got %+v", report.Overall)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	report := Summarize(nil)
	if len(report.Lots) != 0 || report.Overall.Count != 0 {
		t.Errorf("Summarize failed: got %+v", report)
	}
}

func TestFindLargestAndSmallest(t *testing.T) {
	largest := FindLargest(samples(), 2)
	if len(largest) != 2 || largest[0].Distance != 6 || largest[1].Distance != 4 {
		t.Errorf("FindLargest failed: got %+v", largest)
	}

	smallest := FindSmallest(samples(), 10)
	if len(smallest) != 4 || smallest[0].Distance != 2 {
		t.Errorf("FindSmallest failed: got %+v", smallest)
	}
}

func TestFindByRange(t *testing.T) {
	found := FindByRange(samples(), 3, 5)
	if len(found) != 2 {
		t.Errorf("FindByRange failed: expected 2, got %d", len(found))
	}
}

func TestFormatMeasurement(t *testing.T) {
	if got := FormatMeasurement(2.345, ""); got != "2.35 mm" {
		t.Errorf("FormatMeasurement failed: expected 2.35 mm, got %s", got)
	}
}
