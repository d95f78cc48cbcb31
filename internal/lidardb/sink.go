package lidardb

import (
	"context"
	"fmt"

	"github.com/banshee-data/pandarscan/internal/lidar/pipeline"
)

// SessionSink records every scan it receives under one session.
type SessionSink struct {
	db        *LidarDB
	sessionID string
}

// NewSessionSink starts a session for sensorID and returns a sink bound to it.
func NewSessionSink(db *LidarDB, sensorID, model, source string) (*SessionSink, error) {
	id, err := db.StartSession(sensorID, model, source)
	if err != nil {
		return nil, err
	}
	return &SessionSink{db: db, sessionID: id}, nil
}

// SessionID returns the id of the session this sink writes to.
func (s *SessionSink) SessionID() string { return s.sessionID }

func (s *SessionSink) WriteScan(ctx context.Context, scan *pipeline.Scan) error {
	var captured float64
	if !scan.CapturedAt.IsZero() {
		captured = float64(scan.CapturedAt.UnixNano()) / 1e9
	}
	if _, err := s.db.RecordScan(ctx, s.sessionID, scan.Sequence, captured, scan.Summary); err != nil {
		return fmt.Errorf("session %s: %w", s.sessionID, err)
	}
	return nil
}

// Close ends the session.
func (s *SessionSink) Close() error {
	return s.db.EndSession(s.sessionID)
}
