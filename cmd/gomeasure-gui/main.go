package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/gomeasure/internal/app"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/internal/ui"
	"github.com/philipparndt/gomeasure/version"
	"github.com/spf13/cobra"
)

const (
	windowWidth  = 1200
	windowHeight = 900
)

var (
	followDir   string
	logFormat   string
	exportDir   string
	reentry     string
	historyPath string
	calPoints   bool
)

type App struct {
	window  fyne.Window
	session *app.Session
	view    *ui.PhotoView
	panel   *ControlPanel
}

type ControlPanel struct {
	promptLabel   *widget.Label
	specimenLabel *widget.Label
	resultLabel   *widget.Label
	queueLabel    *widget.Label
	lengthEntry   *widget.Entry
	acceptButton  *widget.Button
	deleteButton  *widget.Button
	resumeButton  *widget.Button
	nextButton    *widget.Button
}

var rootCmd = &cobra.Command{
	Use:     "gomeasure-gui [photo]",
	Short:   "Measure specimen droop on photos",
	Version: version.GetFullVersion(),
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringVar(&followDir, "follow", "", "Follow a batch folder and load new photos as they arrive")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "xlsx", "Batch log format: xlsx or csv")
	rootCmd.Flags().StringVar(&exportDir, "export-dir", "", "Folder for annotated exports (default: next to each photo)")
	rootCmd.Flags().StringVar(&reentry, "reentry", "baseline", "Phase after each measurement: baseline, calibrate or measure")
	rootCmd.Flags().StringVar(&historyPath, "history", "", "SQLite database recording every measurement")
	rootCmd.Flags().BoolVar(&calPoints, "cal-points", true, "Write the calibration points of every accepted calibration")
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	config, err := sessionConfig()
	if err != nil {
		return err
	}

	a := fyneapp.New()
	w := a.NewWindow("GoMeasure - Droop Measurement")
	appInstance := &App{window: w}

	// Photos are fitted to 2/3 of the window
	config.MaxWidth = windowWidth * 2 / 3
	config.MaxHeight = windowHeight * 2 / 3
	config.OnNewPhoto = func(string) {
		fyne.Do(appInstance.photoQueued)
	}

	session, err := app.NewSession(config)
	if err != nil {
		return err
	}
	defer session.Close()
	appInstance.session = session

	appInstance.setupMainUI()
	appInstance.setupKeys()

	if len(args) == 1 {
		appInstance.loadFile(args[0])
	}
	if followDir != "" {
		if err := session.FollowFolder(followDir); err != nil {
			return err
		}
	}

	w.Resize(fyne.NewSize(windowWidth, windowHeight))
	w.ShowAndRun()
	return nil
}

func sessionConfig() (app.Config, error) {
	config := app.DefaultConfig()
	config.ExportDir = exportDir
	config.HistoryPath = historyPath
	config.CalPoints = calPoints

	switch strings.ToLower(logFormat) {
	case "xlsx":
		config.LogExt = ".xlsx"
	case "csv":
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

func (a *App) setupMainUI() {
	a.panel = &ControlPanel{
		promptLabel:   widget.NewLabel("Open a specimen photo to start"),
		specimenLabel: widget.NewLabel("Specimen: -"),
		resultLabel:   widget.NewLabel("Last measurement: -"),
		queueLabel:    widget.NewLabel(""),
		lengthEntry:   widget.NewEntry(),
	}
	a.panel.promptLabel.Wrapping = fyne.TextWrapWord
	a.panel.resultLabel.TextStyle = fyne.TextStyle{Bold: true}
	a.panel.lengthEntry.SetPlaceHolder("Calibration length (mm)")
	a.panel.lengthEntry.OnSubmitted = func(string) { a.accept() }

	a.view = ui.NewPhotoView(a.session)
	a.view.SetOnChange(a.updatePanel)

	openButton := widget.NewButton("Open Photo", a.showFileDialog)
	a.panel.deleteButton = widget.NewButton("Delete Point", func() {
		a.session.DeleteLastPoint()
		a.refresh()
	})
	a.panel.acceptButton = widget.NewButton("Accept", a.accept)
	a.panel.acceptButton.Importance = widget.HighImportance
	recalibrateButton := widget.NewButton("Re-Calibrate", func() {
		a.session.Recalibrate()
		a.refresh()
	})
	rebaselineButton := widget.NewButton("Re-Baseline", func() {
		a.session.Rebaseline()
		a.refresh()
	})
	a.panel.resumeButton = widget.NewButton("Resume Measuring", func() {
		if err := a.session.Resume(); err != nil {
			dialog.ShowError(err, a.window)
		}
		a.refresh()
	})
	a.panel.nextButton = widget.NewButton("Next Photo", a.loadNext)

	instructions := widget.NewLabel(
		"Instructions:\n" +
			"• Click to place points\n" +
			"• Hold Ctrl and scroll to zoom\n" +
			"• Backspace removes the last point\n" +
			"• Enter accepts the current step",
	)
	instructions.Wrapping = fyne.TextWrapWord

	infoPanel := container.NewVBox(
		widget.NewLabel("Step:"),
		widget.NewSeparator(),
		a.panel.promptLabel,
		a.panel.lengthEntry,
		a.panel.acceptButton,
		a.panel.deleteButton,
		widget.NewSeparator(),
		a.panel.specimenLabel,
		a.panel.resultLabel,
		a.panel.queueLabel,
		widget.NewSeparator(),
		recalibrateButton,
		rebaselineButton,
		a.panel.resumeButton,
		widget.NewSeparator(),
		instructions,
		widget.NewSeparator(),
		openButton,
		a.panel.nextButton,
	)

	infoScroll := container.NewVScroll(infoPanel)
	infoScroll.SetMinSize(fyne.NewSize(300, 0))

	content := container.NewBorder(nil, nil, nil, infoScroll, a.view)
	a.window.SetContent(content)
	a.updatePanel()
}

// setupKeys tracks the zoom modifier and the keyboard shortcuts
func (a *App) setupKeys() {
	if deskCanvas, ok := a.window.Canvas().(desktop.Canvas); ok {
		deskCanvas.SetOnKeyDown(func(event *fyne.KeyEvent) {
			if isControl(event.Name) {
				a.session.SetZoomModifier(true)
			}
		})
		deskCanvas.SetOnKeyUp(func(event *fyne.KeyEvent) {
			if isControl(event.Name) {
				a.session.SetZoomModifier(false)
			}
		})
	}

	a.window.Canvas().SetOnTypedKey(func(event *fyne.KeyEvent) {
		switch event.Name {
		case fyne.KeyBackspace, fyne.KeyDelete:
			a.session.DeleteLastPoint()
			a.refresh()
		case fyne.KeyReturn, fyne.KeyEnter:
			a.accept()
		}
	})
}

func isControl(name fyne.KeyName) bool {
	return name == desktop.KeyControlLeft || name == desktop.KeyControlRight ||
		name == desktop.KeySuperLeft || name == desktop.KeySuperRight
}

func (a *App) showFileDialog() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.loadFile(reader.URI().Path())
	}, a.window)
}

func (a *App) loadFile(path string) {
	if err := a.session.LoadImage(path); err != nil {
		dialog.ShowError(fmt.Errorf("failed to load photo: %w", err), a.window)
		return
	}
	a.panel.lengthEntry.SetText("")
	a.refresh()
}

func (a *App) loadNext() {
	loaded, err := a.session.LoadNext()
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load photo: %w", err), a.window)
	}
	if loaded {
		a.refresh()
	}
}

// photoQueued runs on the UI goroutine when the followed folder got a new photo.
// The photo is loaded right away unless the operator is working on the current one.
func (a *App) photoQueued() {
	if a.idle() {
		a.loadNext()
		return
	}
	a.updatePanel()
}

// idle reports whether the displayed photo can be replaced without losing work
func (a *App) idle() bool {
	if a.session.Render().Photo == nil {
		return true
	}
	if len(a.session.Workflow().Points()) > 0 {
		return false
	}
	result, ok := a.session.Workflow().LastResult()
	return ok && result.SourcePath == a.session.Specimen().SourcePath
}

func (a *App) accept() {
	var err error
	switch a.session.Workflow().Phase() {
	case measurement.PhaseCalibrating:
		_, err = a.session.AcceptCalibration(a.panel.lengthEntry.Text)
	case measurement.PhaseBaseline:
		_, err = a.session.AcceptBaseline()
	case measurement.PhaseMeasuring:
		var result measurement.MeasurementResult
		result, err = a.session.AcceptMeasurement()
		if err == nil {
			a.panel.resultLabel.SetText(fmt.Sprintf("Last measurement: %s %s",
				result.Specimen, measurement.FormatDistance(result.Distance)))
			if a.session.Pending() > 0 {
				a.loadNext()
				return
			}
		}
	}
	if err != nil {
		dialog.ShowError(err, a.window)
	}
	a.refresh()
}

func (a *App) refresh() {
	a.view.Redraw()
	a.updatePanel()
}

func (a *App) updatePanel() {
	frame := a.session.Render()
	workflow := a.session.Workflow()
	calibrating := workflow.Phase() == measurement.PhaseCalibrating

	if frame.Photo == nil {
		a.panel.promptLabel.SetText("Open a specimen photo to start")
		a.panel.acceptButton.Disable()
		a.panel.deleteButton.Disable()
	} else {
		a.panel.promptLabel.SetText(frame.Overlays.Prompt)
		a.panel.specimenLabel.SetText(fmt.Sprintf("Specimen: %s", a.session.Specimen().ID))
		setEnabled(a.panel.acceptButton, frame.Overlays.CanAccept)
		setEnabled(a.panel.deleteButton, len(workflow.Points()) > 0)
	}

	if calibrating {
		a.panel.lengthEntry.Show()
	} else {
		a.panel.lengthEntry.Hide()
	}
	setEnabled(a.panel.resumeButton, workflow.Phase() != measurement.PhaseMeasuring &&
		workflow.HasCalibration() && workflow.HasBaseline())

	pending := a.session.Pending()
	setEnabled(a.panel.nextButton, pending > 0)
	if pending > 0 {
		a.panel.queueLabel.SetText(fmt.Sprintf("%d new photo(s) waiting", pending))
	} else {
		a.panel.queueLabel.SetText("")
	}
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
	} else {
		button.Disable()
	}
}
