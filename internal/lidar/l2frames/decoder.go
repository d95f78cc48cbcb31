package l2frames

import (
	"fmt"

	"github.com/banshee-data/pandarscan/internal/lidar/parse"
)

// Decoder turns a stream of raw packets from one sensor into scans.
//
// Unpack ingests one packet. A packet that fails to parse is dropped with
// the decoder state untouched and the parse error returned (it wraps
// parse.ErrMalformedPacket). HasScanned reports whether the last Unpack
// completed a rotation; Pointcloud then returns that rotation's points and
// keeps returning them until the next Unpack starts a new scan.
type Decoder interface {
	Unpack(raw []byte) error
	HasScanned() bool
	Pointcloud() []Point
	Reset()
	Stats() Stats
	Model() Model
}

// Options configures a Decoder. Zero values select the defaults: scan
// start at 0°, dual return mode and a 0.1 m coincidence threshold.
type Options struct {
	// ScanPhase is the azimuth in degrees, [0, 360), where a scan begins.
	ScanPhase float64
	// DualReturnDistanceThreshold is the echo separation in metres below
	// which two dual-return readings count as one surface (Pandar40P). Nil
	// selects DefaultDualReturnDistanceThreshold; 0 never merges echoes.
	DualReturnDistanceThreshold *float64
	ReturnMode                  ReturnMode
	// SequenceSuffix selects accepted Pandar40P payload lengths.
	SequenceSuffix parse.SequenceSuffix
}

func (o Options) withDefaults() (Options, error) {
	if o.ScanPhase < 0 || o.ScanPhase >= 360 {
		return o, fmt.Errorf("scan phase %.2f° outside [0, 360)", o.ScanPhase)
	}
	if o.DualReturnDistanceThreshold == nil {
		th := DefaultDualReturnDistanceThreshold
		o.DualReturnDistanceThreshold = &th
	} else if *o.DualReturnDistanceThreshold < 0 {
		return o, fmt.Errorf("dual return distance threshold must be non-negative, got %f", *o.DualReturnDistanceThreshold)
	}
	return o, nil
}

// Stats counts decoder activity since construction or the last Reset.
type Stats struct {
	Packets        uint64 // packets parsed successfully
	Malformed      uint64 // packets dropped by the parser
	ModeMismatches uint64 // packets whose return mode disagrees with the configured one
	Points         uint64 // points emitted
	Scans          uint64 // rotations completed
}

// NewDecoder builds the decoder for model.
func NewDecoder(model Model, cal Calibration, opts Options) (Decoder, error) {
	switch model {
	case ModelPandar40P:
		return NewPandar40PDecoder(cal, opts)
	case ModelPandarXT32:
		return NewPandarXT32Decoder(cal, opts)
	default:
		return nil, fmt.Errorf("unsupported sensor model %v", model)
	}
}

// decoderState is the mutable per-stream state shared in shape by both
// decoders: the segmenter, counters and a scratch buffer reused per block.
type decoderState struct {
	model      Model
	scanPhase  float64
	seg        *scanSegmenter
	stats      Stats
	scratch    []Point
	warnedMode uint8 // last mismatching packet mode that was logged
}

func newDecoderState(model Model, scanPhase float64) decoderState {
	return decoderState{model: model, scanPhase: scanPhase, seg: newScanSegmenter(scanPhase)}
}

// dropped records a packet the parser rejected.
func (s *decoderState) dropped(err error) error {
	s.stats.Malformed++
	opsf("%s packet dropped: %v", s.model, err)
	return err
}

// mismatch records a packet whose single-return mode disagrees with the
// configured mode. Each distinct packet mode is logged once in a row.
func (s *decoderState) mismatch(code uint8, configured ReturnMode) {
	s.stats.ModeMismatches++
	if s.warnedMode == code {
		return
	}
	s.warnedMode = code
	opsf("%s sensor return mode %s does not match requested return mode %s",
		s.model, parse.ReturnModeName(code), configured)
}

// commit hands the points of one firing to the segmenter.
func (s *decoderState) commit(azimuth uint16, pts []Point) {
	s.stats.Points += uint64(len(pts))
	if s.seg.add(azimuth, pts) {
		s.stats.Scans++
		tracef("%s scan %d complete: %d points, boundary at azimuth %d",
			s.model, s.stats.Scans, len(s.seg.current), azimuth)
	}
}

func (s *decoderState) reset() {
	s.seg = newScanSegmenter(s.scanPhase)
	s.stats = Stats{}
	s.scratch = s.scratch[:0]
	s.warnedMode = 0
}
