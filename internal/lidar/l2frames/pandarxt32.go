package l2frames

import (
	"fmt"

	"github.com/banshee-data/pandarscan/internal/lidar/parse"
)

// PandarXT32Decoder decodes PandarXT32 packets into scans.
//
// The packet's own return mode sets the block step (1, 2 or 3 blocks per
// firing). For multi-return packets the configured ReturnMode picks a
// window inside each group: first keeps the second block, last keeps the
// first, anything else keeps both. Points from multi-return packets are
// not tagged.
type PandarXT32Decoder struct {
	recon  *reconstructor
	timing TimingTables
	mode   ReturnMode
	state  decoderState
}

// NewPandarXT32Decoder validates cal and opts and returns a ready decoder.
func NewPandarXT32Decoder(cal Calibration, opts Options) (*PandarXT32Decoder, error) {
	if err := cal.Validate(parse.PANDARXT32_CHANNELS); err != nil {
		return nil, fmt.Errorf("pandarxt32: %w", err)
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("pandarxt32: %w", err)
	}
	if opts.ReturnMode < ReturnModeDual || opts.ReturnMode > ReturnModeTriple {
		return nil, fmt.Errorf("pandarxt32: return mode %s not supported", opts.ReturnMode)
	}

	timing := PandarXT32Timing()
	d := &PandarXT32Decoder{
		recon:  newReconstructor(cal, timing, timingAdd),
		timing: timing,
		mode:   opts.ReturnMode,
		state:  newDecoderState(ModelPandarXT32, opts.ScanPhase),
	}
	diagf("pandarxt32 decoder: mode=%s phase=%.2f°", d.mode, opts.ScanPhase)
	return d, nil
}

// Unpack ingests one raw packet.
func (d *PandarXT32Decoder) Unpack(raw []byte) error {
	pkt, err := parse.ParsePandarXT32(raw)
	if err != nil {
		return d.state.dropped(err)
	}
	d.state.stats.Packets++
	d.state.seg.begin()

	step, offsets := 1, d.timing.BlockSingle
	switch {
	case pkt.IsDualReturn():
		step, offsets = 2, d.timing.BlockDual
	case pkt.ReturnMode == parse.RETURN_MODE_TRIPLE:
		step, offsets = 3, d.timing.BlockTriple
	default:
		if mode, ok := singleReturnModes[pkt.ReturnMode]; ok && mode != d.mode {
			d.state.mismatch(pkt.ReturnMode, d.mode)
		}
	}

	base := pkt.Seconds()
	blocks := pkt.BlockCount()
	for b := 0; b < blocks; b += step {
		var pts []Point
		if step == 1 {
			pts = d.convert(pkt, base, b)
		} else {
			pts = d.convertMulti(pkt, base, b, offsets[b])
		}
		d.state.commit(pkt.Blocks[b].Azimuth, pts)
	}
	return nil
}

// singleReturnModes maps single-return packet codes to the matching
// configured mode.
var singleReturnModes = map[uint8]ReturnMode{
	parse.RETURN_MODE_FIRST:     ReturnModeFirst,
	parse.RETURN_MODE_STRONGEST: ReturnModeStrongest,
	parse.RETURN_MODE_LAST:      ReturnModeLast,
}

func singleReturnType(code uint8) ReturnType {
	switch code {
	case parse.RETURN_MODE_FIRST:
		return ReturnSingleFirst
	case parse.RETURN_MODE_STRONGEST:
		return ReturnSingleStrongest
	case parse.RETURN_MODE_LAST:
		return ReturnSingleLast
	}
	return ReturnUntagged
}

func (d *PandarXT32Decoder) convert(pkt *parse.Packet, base float64, b int) []Point {
	rt := singleReturnType(pkt.ReturnMode)
	pts := d.state.scratch[:0]
	for c := 0; c < pkt.LaserCount(); c++ {
		if !ValidDistance(pkt.Blocks[b].Units[c].Distance) {
			continue
		}
		pts = append(pts, d.recon.point(pkt, base, b, c, d.timing.BlockSingle[b], rt))
	}
	d.state.scratch = pts
	return pts
}

// convertMulti emits the configured window of the group starting at b. Every
// point in the group shares the group's block offset.
func (d *PandarXT32Decoder) convertMulti(pkt *parse.Packet, base float64, b int, offset float64) []Point {
	head, tail := d.window(b, pkt.BlockCount())
	pts := d.state.scratch[:0]
	for c := 0; c < pkt.LaserCount(); c++ {
		for i := head; i < tail; i++ {
			if !ValidDistance(pkt.Blocks[i].Units[c].Distance) {
				continue
			}
			pts = append(pts, d.recon.point(pkt, base, i, c, offset, ReturnUntagged))
		}
	}
	d.state.scratch = pts
	return pts
}

// window returns the half-open block range kept from the group at b.
func (d *PandarXT32Decoder) window(b, blocks int) (head, tail int) {
	head, tail = b, b+2
	switch d.mode {
	case ReturnModeFirst:
		head = b + 1
	case ReturnModeLast:
		tail = b + 1
	}
	return head, min(tail, blocks)
}

// HasScanned reports whether the last Unpack completed a rotation.
func (d *PandarXT32Decoder) HasScanned() bool { return d.state.seg.ready }

// Pointcloud returns the current scan. After HasScanned turns true it is
// the completed rotation; the slice is not modified by later calls.
func (d *PandarXT32Decoder) Pointcloud() []Point { return d.state.seg.scan() }

// Reset drops all scan state and counters. Configuration is kept.
func (d *PandarXT32Decoder) Reset() { d.state.reset() }

// Stats returns the activity counters.
func (d *PandarXT32Decoder) Stats() Stats { return d.state.stats }

// Model returns ModelPandarXT32.
func (d *PandarXT32Decoder) Model() Model { return ModelPandarXT32 }
