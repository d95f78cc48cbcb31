package lidardb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/pandarscan/internal/lidar/l2frames"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("lidar session not found")

// StartSession creates a new lidar session record and returns its id.
func (ldb *LidarDB) StartSession(sensorID, model, source string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO lidar_sessions (session_id, sensor_id, model, source)
		VALUES (?, ?, ?, ?)
	`
	if _, err := ldb.Exec(query, id, sensorID, model, source); err != nil {
		return "", fmt.Errorf("failed to start lidar session: %w", err)
	}
	return id, nil
}

// EndSession closes a lidar session and rolls up its scan statistics.
func (ldb *LidarDB) EndSession(sessionID string) error {
	query := `
		UPDATE lidar_sessions
		SET
			end_timestamp = UNIXEPOCH('subsec'),
			scan_count = (SELECT COUNT(*) FROM lidar_scans WHERE session_id = ?),
			point_count = (SELECT COALESCE(SUM(point_count), 0) FROM lidar_scans WHERE session_id = ?)
		WHERE session_id = ?
	`
	res, err := ldb.Exec(query, sessionID, sessionID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end lidar session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// RecordScan stores one scan summary and its return type breakdown in a
// single transaction. It returns the new scan id.
func (ldb *LidarDB) RecordScan(ctx context.Context, sessionID string, sequence uint64, capturedAt float64, s l2frames.ScanSummary) (string, error) {
	tx, err := ldb.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin scan transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lidar_scans (
			scan_id, session_id, sequence, point_count, start_time, end_time,
			mean_distance, std_distance, mean_intensity, min_azimuth, max_azimuth, captured_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, sessionID, int64(sequence), s.Points, s.StartTime, s.EndTime,
		s.MeanDistance, s.StdDistance, s.MeanIntensity, s.MinAzimuth, s.MaxAzimuth, capturedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert lidar scan %d: %w", sequence, err)
	}

	for rt, n := range s.ReturnTypes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lidar_scan_return_types (scan_id, return_type, point_count)
			VALUES (?, ?, ?)
		`, id, rt.String(), n)
		if err != nil {
			return "", fmt.Errorf("failed to insert return types for scan %d: %w", sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit lidar scan %d: %w", sequence, err)
	}
	return id, nil
}

// GetSession loads one session row.
func (ldb *LidarDB) GetSession(sessionID string) (*LidarSession, error) {
	var s LidarSession
	var end sql.NullFloat64
	err := ldb.QueryRow(`
		SELECT session_id, sensor_id, model, source, start_timestamp, end_timestamp, scan_count, point_count
		FROM lidar_sessions
		WHERE session_id = ?
	`, sessionID).Scan(&s.ID, &s.SensorID, &s.Model, &s.Source, &s.StartTimestamp, &end, &s.ScanCount, &s.PointCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lidar session: %w", err)
	}
	if end.Valid {
		s.EndTimestamp = &end.Float64
	}
	return &s, nil
}

// ListScans returns the scans of a session ordered by sequence.
func (ldb *LidarDB) ListScans(sessionID string) ([]LidarScan, error) {
	rows, err := ldb.Query(`
		SELECT scan_id, session_id, sequence, point_count, start_time, end_time,
			mean_distance, std_distance, mean_intensity, min_azimuth, max_azimuth, captured_at
		FROM lidar_scans
		WHERE session_id = ?
		ORDER BY sequence
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lidar scans: %w", err)
	}
	defer rows.Close()

	var scans []LidarScan
	index := make(map[string]int)
	for rows.Next() {
		var sc LidarScan
		var seq int64
		err := rows.Scan(&sc.ID, &sc.SessionID, &seq, &sc.PointCount, &sc.StartTime, &sc.EndTime,
			&sc.MeanDistance, &sc.StdDistance, &sc.MeanIntensity, &sc.MinAzimuth, &sc.MaxAzimuth, &sc.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lidar scan row: %w", err)
		}
		sc.Sequence = uint64(seq)
		sc.ReturnTypes = make(map[string]int)
		index[sc.ID] = len(scans)
		scans = append(scans, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	rtRows, err := ldb.Query(`
		SELECT rt.scan_id, rt.return_type, rt.point_count
		FROM lidar_scan_return_types rt
		JOIN lidar_scans s ON s.scan_id = rt.scan_id
		WHERE s.session_id = ?
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan return types: %w", err)
	}
	defer rtRows.Close()

	for rtRows.Next() {
		var scanID, rt string
		var n int
		if err := rtRows.Scan(&scanID, &rt, &n); err != nil {
			return nil, fmt.Errorf("failed to scan return type row: %w", err)
		}
		if i, ok := index[scanID]; ok {
			scans[i].ReturnTypes[rt] = n
		}
	}
	return scans, rtRows.Err()
}
