package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/geometry"
	"github.com/spf13/cobra"
)

var (
	fitLength float64
	fitQuery  string
)

var fitCmd = &cobra.Command{
	Use:   "fit x1,y1 x2,y2 [x3,y3 ...]",
	Short: "Fit a line through image points",
	Long: `Fit a least-squares line through two or more image points and print the
segment spanning them. With --length the segment is treated as a calibration
feature and the scale is printed; with --query the perpendicular distance
from that point to the fitted line is printed as well.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFit,
}

func init() {
	rootCmd.AddCommand(fitCmd)

	fitCmd.Flags().Float64Var(&fitLength, "length", 0, "Physical length of the fitted segment in mm")
	fitCmd.Flags().StringVar(&fitQuery, "query", "", "Point x,y whose distance to the line is measured")
}

func runFit(cmd *cobra.Command, args []string) error {
	points := make([]geometry.Point2D, 0, len(args))
	for _, arg := range args {
		p, err := parsePoint(arg)
		if err != nil {
			return err
		}
		points = append(points, p)
	}

	segment, line, err := geometry.FitSegment(points)
	if err != nil {
		return fmt.Errorf("failed to fit line: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Line Fit")
	fmt.Fprintln(out, "========")
	fmt.Fprintf(out, "Points: %d\n", len(points))
	fmt.Fprintf(out, "Slope: %.6f\n", line.Slope)
	fmt.Fprintf(out, "Intercept: %.6f\n", line.Intercept)
	fmt.Fprintf(out, "Segment: (%.2f, %.2f) - (%.2f, %.2f)\n",
		segment.Start.X, segment.Start.Y, segment.End.X, segment.End.Y)
	fmt.Fprintf(out, "Length: %.4f px\n", segment.Length())

	var calibration *measurement.CalibrationRecord
	if cmd.Flags().Changed("length") {
		record, err := measurement.AcceptCalibration(segment, fitLength)
		if err != nil {
			return err
		}
		calibration = &record
		fmt.Fprintf(out, "Scale: %.6f px/mm\n", record.Scale)
	}

	if fitQuery != "" {
		query, err := parsePoint(fitQuery)
		if err != nil {
			return err
		}
		if calibration == nil {
			// Distance in pixels when no calibration was given
			calibration = &measurement.CalibrationRecord{Scale: 1, Reference: segment, PhysicalLength: segment.Length()}
		}
		baseline := measurement.BaselineLine{Start: segment.Start, End: segment.End}
		distance, err := measurement.DistanceAndFoot(query, &baseline, calibration)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Foot: (%.2f, %.2f)\n", distance.Foot.X, distance.Foot.Y)
		fmt.Fprintf(out, "Distance: %.4f px\n", distance.Pixels)
		if cmd.Flags().Changed("length") {
			fmt.Fprintf(out, "Distance: %.4f mm\n", distance.Physical)
		}
	}
	return nil
}

func parsePoint(text string) (geometry.Point2D, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return geometry.Point2D{}, fmt.Errorf("invalid point %q (expected x,y): %w", text, measurement.ErrInvalidInput)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return geometry.Point2D{}, fmt.Errorf("invalid point %q: %w", text, measurement.ErrInvalidInput)
	}
	return geometry.NewPoint2D(x, y), nil
}
