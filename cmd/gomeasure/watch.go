package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/philipparndt/gomeasure/internal/app"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "List a batch folder and report new photos as they arrive",
	Long: `Print the measurable photos already in a batch folder, then follow the
folder and report every new photo with its specimen identity until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	out := cmd.OutOrStdout()

	photos, err := app.ListPhotos(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d photo(s) in %s\n", len(photos), dir)
	for _, path := range photos {
		printPhoto(cmd, path)
	}

	config := app.DefaultConfig()
	config.OnNewPhoto = func(path string) {
		printPhoto(cmd, path)
	}
	session, err := app.NewSession(config)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.FollowFolder(dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintf(out, "\n%d new photo(s) seen\n", session.Pending())
	return nil
}

func printPhoto(cmd *cobra.Command, path string) {
	id, err := measurement.ParseSpecimenID(path)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", filepath.Base(path), err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s  lot %s, subject %s\n", filepath.Base(path), id.Lot, id.Subject)
}
