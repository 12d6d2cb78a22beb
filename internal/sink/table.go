package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/xuri/excelize/v2"
)

// Header is the first row of every droop log
var Header = []string{"Lot #", "Subject", "Droop Length (mm)"}

// Row is one line of a droop log
type Row struct {
	Lot      string
	Subject  string
	Distance float64
}

// TableLog appends droop measurements to spreadsheet or CSV files. The format
// follows the file extension: .csv is written as CSV, anything else as xlsx.
type TableLog struct{}

// AppendMeasurement adds one row to the log at path, creating it with a header first
func (TableLog) AppendMeasurement(path string, id measurement.SpecimenID, distance float64) error {
	if path == "" {
		return fmt.Errorf("no log path set: %w", measurement.ErrFileAccess)
	}

	row := Row{Lot: id.Lot, Subject: id.Subject, Distance: distance}
	var err error
	if isCSV(path) {
		err = appendCSV(path, row)
	} else {
		err = appendXLSX(path, row)
	}
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w: %w", path, measurement.ErrFileAccess, err)
	}
	return nil
}

// ReadLog returns every data row of the log at path
func ReadLog(path string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	if isCSV(path) {
		records, err = readCSV(path)
	} else {
		records, err = readXLSX(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w: %w", path, measurement.ErrFileAccess, err)
	}

	var rows []Row
	for i, record := range records {
		if i == 0 && len(record) > 0 && record[0] == Header[0] {
			continue
		}
		if len(record) < 3 {
			continue
		}
		distance, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s has no distance: %w", i+1, path, err)
		}
		rows = append(rows, Row{Lot: record[0], Subject: record[1], Distance: distance})
	}
	return rows, nil
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func appendCSV(path string, row Row) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write([]string{row.Lot, row.Subject, strconv.FormatFloat(row.Distance, 'f', -1, 64)}); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return records, nil
}

func appendXLSX(path string, row Row) error {
	f, err := openWorkbook(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		header := make([]interface{}, len(Header))
		for i, h := range Header {
			header[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		next = 2
	}

	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	values := []interface{}{row.Lot, row.Subject, row.Distance}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func openWorkbook(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	} else if err != nil {
		return nil, err
	}
	return excelize.OpenFile(path)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}
