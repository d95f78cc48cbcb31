// Package lidardb persists decoded scan summaries in SQLite.
//
// A session groups the scans of one replay or capture. Each completed scan
// is stored as a single row with its summary statistics and a per return
// type point breakdown; individual points are not stored, use the capture
// file for that.
package lidardb

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

type LidarDB struct {
	*sql.DB
}

// NewLidarDB opens (or creates) the database at path and brings its schema
// up to the latest migration.
func NewLidarDB(path string) (*LidarDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	ldb := &LidarDB{db}
	if err := ldb.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("initialized lidar database schema")

	return ldb, nil
}

// LidarSession represents a lidar decoding session
type LidarSession struct {
	ID             string   `json:"session_id"`
	SensorID       string   `json:"sensor_id"`
	Model          string   `json:"model"`
	Source         string   `json:"source"`
	StartTimestamp float64  `json:"start_timestamp"`
	EndTimestamp   *float64 `json:"end_timestamp,omitempty"`
	ScanCount      int      `json:"scan_count"`
	PointCount     int      `json:"point_count"`
}

// LidarScan represents one stored scan summary
type LidarScan struct {
	ID            string         `json:"scan_id"`
	SessionID     string         `json:"session_id"`
	Sequence      uint64         `json:"sequence"`
	PointCount    int            `json:"point_count"`
	StartTime     float64        `json:"start_time"`
	EndTime       float64        `json:"end_time"`
	MeanDistance  float64        `json:"mean_distance"`
	StdDistance   float64        `json:"std_distance"`
	MeanIntensity float64        `json:"mean_intensity"`
	MinAzimuth    int            `json:"min_azimuth"`
	MaxAzimuth    int            `json:"max_azimuth"`
	CapturedAt    float64        `json:"captured_at"`
	ReturnTypes   map[string]int `json:"return_types"`
}
