package l2frames

import "github.com/banshee-data/pandarscan/internal/lidar/parse"

// scanSegmenter splits the block stream into rotations. A rotation ends at
// the first block whose phase (azimuth relative to the scan start) does not
// exceed the previous block's phase. From then on points go to overflow
// until the next packet begins, at which point overflow becomes the new
// current scan. Until that swap the completed scan stays readable.
type scanSegmenter struct {
	startPhase int // 0.01 degree units
	lastPhase  int
	ready      bool
	current    []Point
	overflow   []Point
}

func newScanSegmenter(scanPhaseDeg float64) *scanSegmenter {
	return &scanSegmenter{startPhase: int(uint16(scanPhaseDeg * 100.0))}
}

// begin is called once per successfully parsed packet, before any block.
func (s *scanSegmenter) begin() {
	if !s.ready {
		return
	}
	// The caller may still hold the old current slice, so overflow is
	// handed over as is and a fresh overflow is started.
	s.current = s.overflow
	s.overflow = nil
	s.ready = false
}

// scan returns the current scan capped at its length, so a caller's append
// reallocates instead of writing into space add will fill.
func (s *scanSegmenter) scan() []Point {
	return s.current[:len(s.current):len(s.current)]
}

// add files the points of one firing at azimuth. It reports true when this
// block completed a scan.
func (s *scanSegmenter) add(azimuth uint16, pts []Point) bool {
	phase := (int(azimuth) - s.startPhase + parse.ROTATION_MAX_UNITS) % parse.ROTATION_MAX_UNITS

	completed := false
	if phase > s.lastPhase && !s.ready {
		s.current = append(s.current, pts...)
	} else {
		s.overflow = append(s.overflow, pts...)
		completed = !s.ready
		s.ready = true
	}
	s.lastPhase = phase
	return completed
}
