package pipeline

import (
	"context"
	"time"

	"github.com/banshee-data/pandarscan/internal/lidar/l2frames"
)

// Scan is one completed rotation as delivered to sinks. Points is owned by
// the decoder and must be treated as read-only.
type Scan struct {
	Sequence   uint64 // 1-based within one pipeline
	SensorID   string
	Model      l2frames.Model
	Points     []l2frames.Point
	Summary    l2frames.ScanSummary
	CapturedAt time.Time // capture time of the packet that closed the scan
}

// ScanSink consumes completed scans. Sinks are called sequentially from the
// replay goroutine.
type ScanSink interface {
	WriteScan(ctx context.Context, scan *Scan) error
}

// ScanSinkFunc adapts a function to ScanSink.
type ScanSinkFunc func(ctx context.Context, scan *Scan) error

func (f ScanSinkFunc) WriteScan(ctx context.Context, scan *Scan) error {
	return f(ctx, scan)
}
