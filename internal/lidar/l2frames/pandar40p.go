package l2frames

import (
	"fmt"
	"math"

	"github.com/banshee-data/pandarscan/internal/lidar/parse"
)

// Pandar40PDecoder decodes Pandar40P packets into scans.
//
// In dual-return packets each firing occupies two adjacent blocks: the even
// block holds the last echo and the odd block the strongest (or, when the
// two coincide, the second strongest). The configured ReturnMode selects
// which of the pair are kept. Channels are visited in firing order.
type Pandar40PDecoder struct {
	recon     *reconstructor
	timing    TimingTables
	mode      ReturnMode
	threshold float64
	suffix    parse.SequenceSuffix
	state     decoderState
}

// NewPandar40PDecoder validates cal and opts and returns a ready decoder.
// Only the dual, strongest and last return modes exist on this sensor.
func NewPandar40PDecoder(cal Calibration, opts Options) (*Pandar40PDecoder, error) {
	if err := cal.Validate(parse.PANDAR40P_CHANNELS); err != nil {
		return nil, fmt.Errorf("pandar40p: %w", err)
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("pandar40p: %w", err)
	}
	switch opts.ReturnMode {
	case ReturnModeDual, ReturnModeStrongest, ReturnModeLast:
	default:
		return nil, fmt.Errorf("pandar40p: return mode %s not supported", opts.ReturnMode)
	}

	timing := Pandar40PTiming()
	d := &Pandar40PDecoder{
		recon:     newReconstructor(cal, timing, timingSubtract),
		timing:    timing,
		mode:      opts.ReturnMode,
		threshold: *opts.DualReturnDistanceThreshold,
		suffix:    opts.SequenceSuffix,
		state:     newDecoderState(ModelPandar40P, opts.ScanPhase),
	}
	diagf("pandar40p decoder: mode=%s phase=%.2f° threshold=%.3fm suffix=%s",
		d.mode, opts.ScanPhase, d.threshold, d.suffix)
	return d, nil
}

// Unpack ingests one raw packet.
func (d *Pandar40PDecoder) Unpack(raw []byte) error {
	pkt, err := parse.ParsePandar40P(raw, d.suffix)
	if err != nil {
		return d.state.dropped(err)
	}
	d.state.stats.Packets++
	d.state.seg.begin()

	dual := pkt.ReturnMode == parse.RETURN_MODE_LAST_STRONGEST
	if !dual {
		if (pkt.ReturnMode == parse.RETURN_MODE_STRONGEST && d.mode != ReturnModeStrongest) ||
			(pkt.ReturnMode == parse.RETURN_MODE_LAST && d.mode != ReturnModeLast) {
			d.state.mismatch(pkt.ReturnMode, d.mode)
		}
	}

	base := pkt.Seconds()
	step := 1
	if dual {
		step = 2
	}
	for b := 0; b+step <= parse.PANDAR40P_BLOCKS; b += step {
		var pts []Point
		if dual {
			pts = d.convertDual(pkt, base, b)
		} else {
			pts = d.convert(pkt, base, b)
		}
		d.state.commit(pkt.Blocks[b].Azimuth, pts)
	}
	return nil
}

// convert emits every valid channel of a single-return block.
func (d *Pandar40PDecoder) convert(pkt *parse.Packet, base float64, b int) []Point {
	rt := ReturnSingleLast
	if pkt.ReturnMode == parse.RETURN_MODE_STRONGEST {
		rt = ReturnSingleStrongest
	}
	pts := d.state.scratch[:0]
	for _, c := range pandar40PFiringOrder {
		if !ValidDistance(pkt.Blocks[b].Units[c].Distance) {
			continue
		}
		pts = append(pts, d.recon.point(pkt, base, b, c, d.timing.BlockSingle[b], rt))
	}
	d.state.scratch = pts
	return pts
}

// convertDual resolves the block pair starting at even block b.
func (d *Pandar40PDecoder) convertDual(pkt *parse.Packet, base float64, b int) []Point {
	even, odd := b, b+1
	pts := d.state.scratch[:0]
	emit := func(block, c int, rt ReturnType) {
		pts = append(pts, d.recon.point(pkt, base, block, c, d.timing.BlockDual[block], rt))
	}

	for _, c := range pandar40PFiringOrder {
		eu := pkt.Blocks[even].Units[c]
		ou := pkt.Blocks[odd].Units[c]
		evenOK := ValidDistance(eu.Distance)
		oddOK := ValidDistance(ou.Distance)

		switch d.mode {
		case ReturnModeStrongest:
			// ties go to the even block
			if eu.Intensity >= ou.Intensity && evenOK {
				emit(even, c, ReturnSingleStrongest)
			} else if eu.Intensity < ou.Intensity && oddOK {
				emit(odd, c, ReturnSingleStrongest)
			}
		case ReturnModeLast:
			if evenOK {
				emit(even, c, ReturnSingleLast)
			}
		case ReturnModeDual:
			switch {
			case evenOK && oddOK && math.Abs(eu.Distance-ou.Distance) < d.threshold:
				emit(even, c, ReturnDualOnly)
			case eu.Intensity >= ou.Intensity:
				if oddOK {
					emit(odd, c, ReturnDualWeakFirst)
				}
				if evenOK {
					emit(even, c, ReturnDualStrongestLast)
				}
			default:
				if oddOK {
					emit(odd, c, ReturnDualStrongestFirst)
				}
				if evenOK {
					emit(even, c, ReturnDualWeakLast)
				}
			}
		}
	}
	d.state.scratch = pts
	return pts
}

// HasScanned reports whether the last Unpack completed a rotation.
func (d *Pandar40PDecoder) HasScanned() bool { return d.state.seg.ready }

// Pointcloud returns the current scan. After HasScanned turns true it is
// the completed rotation; the slice is not modified by later calls.
func (d *Pandar40PDecoder) Pointcloud() []Point { return d.state.seg.scan() }

// Reset drops all scan state and counters. Configuration is kept.
func (d *Pandar40PDecoder) Reset() { d.state.reset() }

// Stats returns the activity counters.
func (d *Pandar40PDecoder) Stats() Stats { return d.state.stats }

// Model returns ModelPandar40P.
func (d *Pandar40PDecoder) Model() Model { return ModelPandar40P }
