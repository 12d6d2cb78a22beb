package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/philipparndt/gomeasure/internal/app"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/spf13/cobra"
)

var (
	maxSize     int
	logFormat   string
	exportDir   string
	reentry     string
	historyPath string
	calPoints   bool
	strict      bool
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Replay a measurement script",
	Long: `Replay operator commands from a script file, or from stdin when no file
is given. One command per line:

  load <photo>            open a specimen photo
  pick <x> <y>            click in view space
  pick-image <x> <y>      pick a point in image space
  delete                  remove the last point
  calibrate <length>      accept the calibration (mm)
  baseline                accept the baseline
  measure                 accept and log the measurement
  recalibrate | rebaseline | resume
  modifier on|off, zoom-in <x> <y>, zoom-out, viewport <w> <h>, next`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addSessionFlags(runCmd)
	runCmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first failing command")
}

// addSessionFlags registers the flags shared by every command that opens a session
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Fit photos larger than this many pixels per side (0 keeps the original size)")
	cmd.Flags().StringVar(&logFormat, "log-format", "xlsx", "Batch log format: xlsx or csv")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Folder for annotated exports (default: next to each photo)")
	cmd.Flags().StringVar(&reentry, "reentry", "baseline", "Phase after each measurement: baseline, calibrate or measure")
	cmd.Flags().StringVar(&historyPath, "history", "", "SQLite database recording every measurement")
	cmd.Flags().BoolVar(&calPoints, "cal-points", true, "Write the calibration points of every accepted calibration")
}

// sessionConfig builds the session settings from the shared flags
func sessionConfig() (app.Config, error) {
	config := app.DefaultConfig()
	config.MaxWidth = maxSize
	config.MaxHeight = maxSize
	config.ExportDir = exportDir
	config.HistoryPath = historyPath
	config.CalPoints = calPoints

	switch strings.ToLower(logFormat) {
	case "xlsx", ".xlsx":
		config.LogExt = ".xlsx"
	case "csv", ".csv":
		config.LogExt = ".csv"
	default:
		return config, fmt.Errorf("unknown log format %q (expected xlsx or csv)", logFormat)
	}

	switch strings.ToLower(reentry) {
	case "baseline":
		config.Reentry = measurement.ReentryBaseline
	case "calibrate":
		config.Reentry = measurement.ReentryCalibrate
	case "measure":
		config.Reentry = measurement.ReentryMeasure
	default:
		return config, fmt.Errorf("unknown reentry policy %q (expected baseline, calibrate or measure)", reentry)
	}
	return config, nil
}

func runScript(cmd *cobra.Command, args []string) error {
	config, err := sessionConfig()
	if err != nil {
		return err
	}

	var input io.Reader = os.Stdin
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer file.Close()
		input = file
	}

	commands, err := app.ParseScript(input)
	if err != nil {
		return err
	}

	session, err := app.NewSession(config)
	if err != nil {
		return err
	}
	defer session.Close()

	out := cmd.OutOrStdout()
	result, err := session.RunScript(commands, out, strict)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d commands, %d failed, %d measurements\n",
		result.Commands, result.Failed, len(result.Measurements))
	for _, m := range result.Measurements {
		fmt.Fprintf(out, "  %-20s %10.2f mm  %s\n", m.Specimen, m.Distance, m.ExportPath)
	}
	return nil
}
