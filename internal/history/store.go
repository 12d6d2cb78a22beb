package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/geometry"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS calibrations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL,
	source_path     TEXT,
	scale           REAL NOT NULL,
	physical_length REAL NOT NULL,
	points_json     TEXT NOT NULL,
	accepted_at     TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS measurements (
	measurement_id TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	lot            TEXT NOT NULL,
	subject        TEXT NOT NULL,
	suffix         TEXT,
	source_path    TEXT,
	query_x        REAL NOT NULL,
	query_y        REAL NOT NULL,
	foot_x         REAL NOT NULL,
	foot_y         REAL NOT NULL,
	baseline_json  TEXT NOT NULL,
	pixel_distance REAL NOT NULL,
	distance       REAL NOT NULL,
	scale          REAL NOT NULL,
	export_path    TEXT,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS idx_measurements_lot ON measurements(lot);
`

// Store keeps a queryable history of calibrations and measurements in SQLite.
// Every store instance is one operator session.
type Store struct {
	db        *sql.DB
	sessionID string
}

// NewStore opens a SQLite database, runs migrations and starts a session.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Store{db: db, sessionID: uuid.NewString()}
	if _, err := db.Exec(
		`INSERT INTO sessions (session_id, started_at) VALUES (?, ?)`,
		s.sessionID, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("start session: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionID returns the id of the session this store writes to.
func (s *Store) SessionID() string {
	return s.sessionID
}

// RecordMeasurement stores a persisted measurement.
func (s *Store) RecordMeasurement(r measurement.MeasurementResult) error {
	baseline, err := json.Marshal([]geometry.Point2D{r.Baseline.Start, r.Baseline.End})
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO measurements (measurement_id, session_id, lot, subject, suffix, source_path,
			query_x, query_y, foot_x, foot_y, baseline_json, pixel_distance, distance, scale,
			export_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, s.sessionID, r.Specimen.Lot, r.Specimen.Subject, r.Specimen.Suffix, r.SourcePath,
		r.Query.X, r.Query.Y, r.Foot.X, r.Foot.Y, string(baseline), r.PixelDistance, r.Distance, r.Scale,
		r.ExportPath, r.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

// CalibrationAccepted stores an accepted calibration with its points.
func (s *Store) CalibrationAccepted(specimen measurement.Specimen, record measurement.CalibrationRecord) error {
	points, err := json.Marshal(record.Points)
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO calibrations (session_id, source_path, scale, physical_length, points_json, accepted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.sessionID, specimen.SourcePath, record.Scale, record.PhysicalLength, string(points),
		record.AcceptedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	return nil
}

// Measurements returns stored measurements in insertion order, limited to
// one lot unless lot is empty.
func (s *Store) Measurements(lot string) ([]measurement.MeasurementResult, error) {
	query := `SELECT measurement_id, lot, subject, suffix, source_path, query_x, query_y,
		foot_x, foot_y, baseline_json, pixel_distance, distance, scale, export_path, created_at
		FROM measurements`
	var args []any
	if lot != "" {
		query += ` WHERE lot = ?`
		args = append(args, lot)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var results []measurement.MeasurementResult
	for rows.Next() {
		var (
			r                      measurement.MeasurementResult
			suffix, source, export sql.NullString
			baselineJSON, created  string
		)
		if err := rows.Scan(&r.ID, &r.Specimen.Lot, &r.Specimen.Subject, &suffix, &source,
			&r.Query.X, &r.Query.Y, &r.Foot.X, &r.Foot.Y, &baselineJSON,
			&r.PixelDistance, &r.Distance, &r.Scale, &export, &created); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		r.Specimen.Suffix = suffix.String
		r.SourcePath = source.String
		r.ExportPath = export.String

		var ends []geometry.Point2D
		if err := json.Unmarshal([]byte(baselineJSON), &ends); err != nil {
			return nil, fmt.Errorf("unmarshal baseline: %w", err)
		}
		if len(ends) == 2 {
			r.Baseline = measurement.BaselineLine{Start: ends[0], End: ends[1]}
		}
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, created)
		results = append(results, r)
	}
	return results, rows.Err()
}

// LatestCalibration returns the most recent calibration of any session, or
// nil if none was stored.
func (s *Store) LatestCalibration() (*measurement.CalibrationRecord, error) {
	row := s.db.QueryRow(
		`SELECT scale, physical_length, points_json, accepted_at FROM calibrations ORDER BY id DESC LIMIT 1`,
	)

	var (
		record     measurement.CalibrationRecord
		pointsJSON string
		accepted   string
	)
	if err := row.Scan(&record.Scale, &record.PhysicalLength, &pointsJSON, &accepted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan calibration: %w", err)
	}
	if err := json.Unmarshal([]byte(pointsJSON), &record.Points); err != nil {
		return nil, fmt.Errorf("unmarshal points: %w", err)
	}
	record.AcceptedAt, _ = time.Parse(time.RFC3339Nano, accepted)
	return &record, nil
}

var (
	_ measurement.Recorder            = (*Store)(nil)
	_ measurement.CalibrationObserver = (*Store)(nil)
)
