package main

import (
	"fmt"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/photo"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [photo]",
	Short: "Display information about a specimen photo",
	Long:  "Show the image size, decoder, specimen identity and the batch log the photo's measurements go to.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	p, err := photo.Load(filename)
	if err != nil {
		return fmt.Errorf("failed to load photo: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Photo Information")
	fmt.Fprintln(out, "=================")
	fmt.Fprintf(out, "File: %s\n", filename)
	fmt.Fprintf(out, "Format: %s\n", p.Format)
	fmt.Fprintf(out, "Size: %d x %d px\n\n", p.Width, p.Height)

	id, err := measurement.ParseSpecimenID(filename)
	if err != nil {
		fmt.Fprintf(out, "Specimen: %v\n", err)
		return nil
	}
	fmt.Fprintln(out, "Specimen:")
	fmt.Fprintf(out, "  Lot: %s\n", id.Lot)
	fmt.Fprintf(out, "  Subject: %s\n", id.Subject)
	fmt.Fprintf(out, "  Suffix: %s\n", id.Suffix)
	fmt.Fprintf(out, "  Batch log: %s\n", measurement.BatchLogPath(filename, measurement.DefaultLogExtension))
	return nil
}
