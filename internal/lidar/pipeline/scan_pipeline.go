package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/pandarscan/internal/lidar/l2frames"
	"github.com/banshee-data/pandarscan/internal/lidar/network"
)

// ScanPipelineConfig holds dependencies for a ScanPipeline.
type ScanPipelineConfig struct {
	SensorID string
	Decoder  l2frames.Decoder // required
	Sinks    []ScanSink

	// Stats receives the number of points decoded from each packet. Optional.
	Stats network.PacketStatsInterface

	// KeepEmptyScans forwards rotations with no points to the sinks. The
	// decoder closes an empty scan at startup when the first block sits on
	// the scan phase; by default such scans are dropped.
	KeepEmptyScans bool
}

// ScanPipeline is a network.PacketHandler that decodes payloads and fans
// completed scans out to sinks. It is not safe for concurrent use.
type ScanPipeline struct {
	cfg     ScanPipelineConfig
	seq     uint64
	skipped uint64
}

// NewScanPipeline validates cfg and returns a pipeline.
func NewScanPipeline(cfg ScanPipelineConfig) (*ScanPipeline, error) {
	if cfg.Decoder == nil {
		return nil, errors.New("scan pipeline requires a decoder")
	}
	if cfg.SensorID == "" {
		cfg.SensorID = cfg.Decoder.Model().String()
	}
	return &ScanPipeline{cfg: cfg}, nil
}

// HandlePacket feeds one payload to the decoder. A decode error is returned
// as is; sink errors are joined and returned after every sink has run.
func (p *ScanPipeline) HandlePacket(ctx context.Context, payload []byte, captured time.Time) error {
	dec := p.cfg.Decoder
	before := dec.Stats().Points
	if err := dec.Unpack(payload); err != nil {
		return err
	}
	if p.cfg.Stats != nil {
		p.cfg.Stats.AddPoints(int(dec.Stats().Points - before))
	}
	if !dec.HasScanned() {
		return nil
	}

	pts := dec.Pointcloud()
	if len(pts) == 0 && !p.cfg.KeepEmptyScans {
		p.skipped++
		diagf("%s: skipping empty scan", p.cfg.SensorID)
		return nil
	}

	p.seq++
	scan := &Scan{
		Sequence:   p.seq,
		SensorID:   p.cfg.SensorID,
		Model:      dec.Model(),
		Points:     pts,
		Summary:    l2frames.Summarize(pts),
		CapturedAt: captured,
	}
	tracef("%s scan %d: %d points, %.1f ms, mean range %.2f m",
		scan.SensorID, scan.Sequence, scan.Summary.Points, scan.Summary.Duration()*1000, scan.Summary.MeanDistance)

	var errs []error
	for _, sink := range p.cfg.Sinks {
		if err := sink.WriteScan(ctx, scan); err != nil {
			opsf("%s scan %d: sink failed: %v", scan.SensorID, scan.Sequence, err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scan %d: %w", scan.Sequence, errors.Join(errs...))
	}
	return nil
}

// Scans returns the number of scans delivered to sinks.
func (p *ScanPipeline) Scans() uint64 { return p.seq }

// SkippedScans returns the number of empty scans that were dropped.
func (p *ScanPipeline) SkippedScans() uint64 { return p.skipped }

// Close reports the partial rotation left in the decoder. It is not
// delivered: a scan is only complete once its boundary has been seen.
func (p *ScanPipeline) Close() {
	dec := p.cfg.Decoder
	if !dec.HasScanned() && len(dec.Pointcloud()) > 0 {
		diagf("%s: discarding partial scan of %d points", p.cfg.SensorID, len(dec.Pointcloud()))
	}
	st := dec.Stats()
	diagf("%s: %d packets, %d malformed, %d mode mismatches, %d points, %d scans delivered",
		p.cfg.SensorID, st.Packets, st.Malformed, st.ModeMismatches, st.Points, p.seq)
}
