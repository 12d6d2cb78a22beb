package main

import (
	"fmt"
	"log"
	"os"

	"github.com/philipparndt/gomeasure/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gomeasure",
	Short: "Calibrated distance measurement on specimen photos",
	Long: `gomeasure measures the droop of a specimen in a photo. A calibration
feature of known length sets the pixel scale, a baseline line sets the
reference, and every measured point is logged per batch folder together
with an annotated copy of the photo.`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
