package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/photo"
	"github.com/xuri/excelize/v2"
)

const calPointsTag = "calPoints"

// CalPointsHeader is the first row of a calibration points file
var CalPointsHeader = []string{"Calibration Point", "X (px)", "Y (px)"}

// CalibrationPoints stores the points of every accepted calibration next to
// the photo they were picked on
type CalibrationPoints struct {
	// Dir overrides the output folder; empty writes next to the source photo
	Dir string
	// Ext selects the file format, ".xlsx" or ".csv"
	Ext string
	Now func() time.Time

	written []string
}

// NewCalibrationPoints creates a calibration point writer for the given format
func NewCalibrationPoints(dir, ext string) *CalibrationPoints {
	if ext == "" {
		ext = measurement.DefaultLogExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &CalibrationPoints{Dir: dir, Ext: ext, Now: time.Now}
}

// Written returns the paths of the files written so far
func (c *CalibrationPoints) Written() []string {
	return c.written
}

// CalibrationAccepted writes <stem>_<timestamp>_calPoints<ext>. Nothing is
// written when there is no photo to name the file after.
func (c *CalibrationPoints) CalibrationAccepted(specimen measurement.Specimen, record measurement.CalibrationRecord) error {
	if specimen.SourcePath == "" {
		return nil
	}

	rows := make([][]string, 0, len(record.Points)+1)
	rows = append(rows, CalPointsHeader)
	for i, p := range record.Points {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
		})
	}

	write := func(w io.Writer) error {
		if isCSV(c.Ext) {
			cw := csv.NewWriter(w)
			return cw.WriteAll(rows)
		}
		return writeWorkbook(w, rows)
	}

	dir := outputDir(c.Dir, specimen.SourcePath)
	path, err := writeExclusive(dir, photo.Stem(specimen.SourcePath), calPointsTag, c.Ext, c.Now(), write)
	if err != nil {
		return fmt.Errorf("failed to store calibration points: %w: %w", measurement.ErrFileAccess, err)
	}

	c.written = append(c.written, path)
	return nil
}

func writeWorkbook(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			if n, err := strconv.ParseFloat(v, 64); err == nil && i > 0 {
				values[j] = n
			} else {
				values[j] = v
			}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}
