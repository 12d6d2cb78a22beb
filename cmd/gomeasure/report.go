package main

import (
	"fmt"
	"io"

	"github.com/philipparndt/gomeasure/internal/history"
	"github.com/philipparndt/gomeasure/internal/sink"
	"github.com/philipparndt/gomeasure/pkg/analysis"
	"github.com/spf13/cobra"
)

var (
	reportLot      string
	reportFromDB   string
	reportMin      float64
	reportMax      float64
	reportTop      int
	reportBottom   int
	reportShowRows bool
)

var reportCmd = &cobra.Command{
	Use:   "report [log]",
	Short: "Summarize droop measurements per lot",
	Long: `Read a batch log (.xlsx or .csv) or the history database and print the
count, minimum, maximum, mean and standard deviation per lot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFromDB, "history", "", "Read measurements from this history database instead of a log")
	reportCmd.Flags().StringVar(&reportLot, "lot", "", "Only include this lot")
	reportCmd.Flags().Float64Var(&reportMin, "min", 0, "Only list measurements at or above this distance")
	reportCmd.Flags().Float64Var(&reportMax, "max", 0, "Only list measurements at or below this distance")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "List the N largest measurements")
	reportCmd.Flags().IntVar(&reportBottom, "bottom", 0, "List the N smallest measurements")
	reportCmd.Flags().BoolVar(&reportShowRows, "rows", false, "List every measurement")
}

func runReport(cmd *cobra.Command, args []string) error {
	var samples []analysis.Sample
	var err error
	switch {
	case reportFromDB != "":
		samples, err = samplesFromHistory(reportFromDB, reportLot)
	case len(args) == 1:
		samples, err = samplesFromLog(args[0], reportLot)
	default:
		return fmt.Errorf("either a log file or --history is required")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(samples) == 0 {
		fmt.Fprintln(out, "No measurements found")
		return nil
	}

	report := analysis.Summarize(samples)
	fmt.Fprintln(out, "Droop Report")
	fmt.Fprintln(out, "============")
	for _, s := range report.Lots {
		printSummary(out, s)
	}
	if len(report.Lots) > 1 {
		printSummary(out, report.Overall)
	}

	if cmd.Flags().Changed("min") || cmd.Flags().Changed("max") {
		maxDistance := reportMax
		if !cmd.Flags().Changed("max") {
			maxDistance = report.Overall.Max
		}
		printSamples(out, fmt.Sprintf("Between %.2f and %.2f mm", reportMin, maxDistance),
			analysis.FindByRange(samples, reportMin, maxDistance))
	}
	if reportTop > 0 {
		printSamples(out, fmt.Sprintf("Largest %d", reportTop), analysis.FindLargest(samples, reportTop))
	}
	if reportBottom > 0 {
		printSamples(out, fmt.Sprintf("Smallest %d", reportBottom), analysis.FindSmallest(samples, reportBottom))
	}
	if reportShowRows {
		printSamples(out, "All measurements", samples)
	}
	return nil
}

func samplesFromLog(path, lot string) ([]analysis.Sample, error) {
	rows, err := sink.ReadLog(path)
	if err != nil {
		return nil, err
	}
	var samples []analysis.Sample
	for _, row := range rows {
		if lot != "" && row.Lot != lot {
			continue
		}
		samples = append(samples, analysis.Sample{Lot: row.Lot, Subject: row.Subject, Distance: row.Distance})
	}
	return samples, nil
}

func samplesFromHistory(path, lot string) ([]analysis.Sample, error) {
	store, err := history.NewStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	results, err := store.Measurements(lot)
	if err != nil {
		return nil, err
	}
	samples := make([]analysis.Sample, 0, len(results))
	for _, r := range results {
		samples = append(samples, analysis.Sample{Lot: r.Specimen.Lot, Subject: r.Specimen.Subject, Distance: r.Distance})
	}
	return samples, nil
}

func printSummary(out io.Writer, s analysis.Summary) {
	name := s.Lot
	if name == "" {
		name = "All lots"
	}
	fmt.Fprintf(out, "\n%s:\n", name)
	fmt.Fprintf(out, "  Count: %d\n", s.Count)
	fmt.Fprintf(out, "  Minimum: %s\n", analysis.FormatMeasurement(s.Min, ""))
	fmt.Fprintf(out, "  Maximum: %s\n", analysis.FormatMeasurement(s.Max, ""))
	fmt.Fprintf(out, "  Mean: %s\n", analysis.FormatMeasurement(s.Mean, ""))
	fmt.Fprintf(out, "  Std. deviation: %s\n", analysis.FormatMeasurement(s.StdDev, ""))
}

func printSamples(out io.Writer, title string, samples []analysis.Sample) {
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, s := range samples {
		fmt.Fprintf(out, "  %-10s %-10s %s\n", s.Lot, s.Subject, analysis.FormatMeasurement(s.Distance, ""))
	}
}
