package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is one droop measurement of a batch log
type Sample struct {
	Lot      string
	Subject  string
	Distance float64
}

// Summary contains statistics over a set of droop measurements
type Summary struct {
	Lot      string
	Count    int
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64 // Sample standard deviation, 0 for a single measurement
	Subjects []string
}

// Report groups droop statistics per lot
type Report struct {
	Lots    []Summary
	Overall Summary
}

// Summarize computes per-lot and overall statistics. Lots are sorted by name.
func Summarize(samples []Sample) Report {
	byLot := make(map[string][]Sample)
	for _, s := range samples {
		byLot[s.Lot] = append(byLot[s.Lot], s)
	}

	lots := make([]string, 0, len(byLot))
	for lot := range byLot {
		lots = append(lots, lot)
	}
	sort.Strings(lots)

	report := Report{Overall: summarize("", samples)}
	for _, lot := range lots {
		report.Lots = append(report.Lots, summarize(lot, byLot[lot]))
	}
	return report
}

func summarize(lot string, samples []Sample) Summary {
	summary := Summary{Lot: lot, Count: len(samples)}
	if len(samples) == 0 {
		return summary
	}

	values := make([]float64, len(samples))
	seen := make(map[string]bool)
	summary.Min = math.MaxFloat64
	summary.Max = -math.MaxFloat64
	for i, s := range samples {
		values[i] = s.Distance
		if s.Distance < summary.Min {
			summary.Min = s.Distance
		}
		if s.Distance > summary.Max {
			summary.Max = s.Distance
		}
		if !seen[s.Subject] {
			seen[s.Subject] = true
			summary.Subjects = append(summary.Subjects, s.Subject)
		}
	}

	if len(values) == 1 {
		summary.Mean = values[0]
		return summary
	}
	summary.Mean, summary.StdDev = stat.MeanStdDev(values, nil)
	return summary
}

// FindByRange finds all samples within a distance range
func FindByRange(samples []Sample, minDistance, maxDistance float64) []Sample {
	var found []Sample
	for _, s := range samples {
		if s.Distance >= minDistance && s.Distance <= maxDistance {
			found = append(found, s)
		}
	}
	return found
}

// FindLargest returns the N samples with the largest droop
func FindLargest(samples []Sample, count int) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance > sorted[j].Distance
	})

	if count > len(sorted) {
		count = len(sorted)
	}

	return sorted[:count]
}

// FindSmallest returns the N samples with the smallest droop
func FindSmallest(samples []Sample, count int) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance < sorted[j].Distance
	})

	if count > len(sorted) {
		count = len(sorted)
	}

	return sorted[:count]
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "mm"
	}
	return fmt.Sprintf("%.2f %s", value, unit)
}
