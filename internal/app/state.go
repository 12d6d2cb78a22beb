package app

import (
	"sync"

	"github.com/philipparndt/gomeasure/internal/history"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/internal/sink"
	"github.com/philipparndt/gomeasure/pkg/photo"
	"github.com/philipparndt/gomeasure/pkg/viewer"
	"github.com/philipparndt/gomeasure/pkg/watcher"
)

// Config holds the session settings chosen on the command line
type Config struct {
	MaxWidth       int // Display bound for large photos, 0 keeps the original size
	MaxHeight      int
	ViewportWidth  float64 // Viewport size, 0 uses the displayed photo size
	ViewportHeight float64
	Zoom           viewer.ZoomConfig
	LogExt         string // ".xlsx" (default) or ".csv"
	ExportDir      string // Empty writes exports next to each photo
	Reentry        measurement.ReentryPolicy
	HistoryPath    string // SQLite history database, empty disables history
	CalPoints      bool   // Write a calPoints file on every accepted calibration

	// Sink replaces the file sink, mainly for tests
	Sink measurement.ResultSink
	// OnNewPhoto is called from the watcher goroutine when a followed folder gets a new photo
	OnNewPhoto func(path string)
}

// DefaultConfig returns the settings used when no flags are given
func DefaultConfig() Config {
	return Config{
		Zoom:    viewer.DefaultZoomConfig(),
		LogExt:  measurement.DefaultLogExtension,
		Reentry: measurement.ReentryBaseline,
	}
}

// PhotoState holds the currently displayed photo
type PhotoState struct {
	photo    *photo.Photo
	specimen measurement.Specimen
}

// PersistenceState holds the writers a session owns
type PersistenceState struct {
	sink      measurement.ResultSink
	calPoints *sink.CalibrationPoints
	history   *history.Store
}

// FollowState holds folder watching state for batch mode
type FollowState struct {
	folderWatcher *watcher.FolderWatcher
	mu            sync.Mutex
	pending       []string
	queued        map[string]bool
}

// Frame is everything a front end needs to draw the current state
type Frame struct {
	Photo    *photo.Photo
	View     viewer.ViewState
	Overlays measurement.Overlays
}
