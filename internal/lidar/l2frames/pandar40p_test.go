package l2frames

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pandarscan/internal/testutil"
)

func TestPandar40P_SingleReturn(t *testing.T) {
	d, err := NewPandar40PDecoder(flatCalibration(40), Options{ReturnMode: ReturnModeStrongest})
	require.NoError(t, err)

	p := ramp40P(1000, 20, testutil.ModeStrongest)
	p.Microseconds = 500000
	require.NoError(t, d.Unpack(p.Bytes()))
	assert.False(t, d.HasScanned())

	pts := d.Pointcloud()
	require.Len(t, pts, 400)

	// firing order within each block
	assert.Equal(t, uint16(7), pts[0].Ring)
	assert.Equal(t, uint16(19), pts[1].Ring)
	assert.Equal(t, uint16(3), pts[39].Ring)
	assert.Equal(t, uint16(7), pts[40].Ring)
	assert.Equal(t, 1020, pts[40].Azimuth)

	first := pts[0]
	assert.Equal(t, ReturnSingleStrongest, first.ReturnType)
	assert.Equal(t, 1000, first.Azimuth)
	assert.InDelta(t, 10.0, first.Distance, 1e-9)
	assert.InDelta(t, defaultUnix+0.5-(528.62+54.67)/1e6, first.Timestamp, 1e-6)

	last := pts[399]
	assert.InDelta(t, defaultUnix+0.5-(28.58+3.62)/1e6, last.Timestamp, 1e-6)
}

func TestPandar40P_SingleLastTag(t *testing.T) {
	d, err := NewPandar40PDecoder(flatCalibration(40), Options{ReturnMode: ReturnModeLast})
	require.NoError(t, err)
	require.NoError(t, d.Unpack(ramp40P(1000, 20, testutil.ModeLast).Bytes()))
	for _, p := range d.Pointcloud() {
		require.Equal(t, ReturnSingleLast, p.ReturnType)
	}
	assert.Zero(t, d.Stats().ModeMismatches)
}

func TestPandar40P_RangeFilter(t *testing.T) {
	d, err := NewPandar40PDecoder(flatCalibration(40), Options{ReturnMode: ReturnModeStrongest})
	require.NoError(t, err)

	p := ramp40P(1000, 20, testutil.ModeStrongest)
	p.Ranges[0][7] = 20      // 0.08 m, too close
	p.Ranges[0][19] = 26     // 0.104 m, kept
	p.Ranges[0][14] = 0x0101 // no-return sentinel with intensity 1
	p.Intensities[0][14] = 1
	p.Ranges[0][26] = 50001 // 200.004 m, beyond range
	p.Ranges[0][6] = 49999  // 199.996 m, kept
	require.NoError(t, d.Unpack(p.Bytes()))

	pts := d.Pointcloud()
	assert.Len(t, pts, 400-3)
	for _, pt := range pts {
		assert.True(t, ValidDistance(pt.Distance), "ring %d distance %f", pt.Ring, pt.Distance)
	}
	assert.Equal(t, uint16(19), pts[0].Ring, "ring 7 dropped from the head of block 0")
	assert.InDelta(t, 0.104, pts[0].Distance, 1e-9)
}

type echo struct {
	raw       uint16
	intensity uint8
}

type emitted struct {
	odd bool
	rt  ReturnType
}

// dualPair decodes one dual-return packet whose first block pair carries
// even / odd on every channel and whose other pairs are empty.
func dualPair(t *testing.T, opts Options, even, odd echo) []Point {
	t.Helper()
	d, err := NewPandar40PDecoder(flatCalibration(40), opts)
	require.NoError(t, err)

	p := testutil.NewPandar40PPacket(0, 0, 0)
	p.ReturnMode = testutil.ModeDual
	for b := range p.Azimuths {
		p.Azimuths[b] = 1000 + uint16(b/2)*100
	}
	p.Fill(0, even.raw, even.intensity)
	p.Fill(1, odd.raw, odd.intensity)
	require.NoError(t, d.Unpack(p.Bytes()))
	assert.Zero(t, d.Stats().ModeMismatches)
	return d.Pointcloud()
}

func TestPandar40P_DualResolution(t *testing.T) {
	tests := []struct {
		name      string
		mode      ReturnMode
		even, odd echo
		want      []emitted
	}{
		{"dual coincident echoes collapse", ReturnModeDual, echo{2500, 50}, echo{2510, 80},
			[]emitted{{false, ReturnDualOnly}}},
		{"dual strongest is last", ReturnModeDual, echo{5000, 100}, echo{2500, 50},
			[]emitted{{true, ReturnDualWeakFirst}, {false, ReturnDualStrongestLast}}},
		{"dual strongest is first", ReturnModeDual, echo{5000, 50}, echo{2500, 100},
			[]emitted{{true, ReturnDualStrongestFirst}, {false, ReturnDualWeakLast}}},
		{"dual intensity tie", ReturnModeDual, echo{5000, 70}, echo{2500, 70},
			[]emitted{{true, ReturnDualWeakFirst}, {false, ReturnDualStrongestLast}}},
		{"dual last echo missing", ReturnModeDual, echo{0, 0}, echo{2500, 50},
			[]emitted{{true, ReturnDualStrongestFirst}}},
		{"dual invalid echo is never coincident", ReturnModeDual, echo{38, 10}, echo{20, 5},
			[]emitted{{false, ReturnDualStrongestLast}}},
		{"dual both missing", ReturnModeDual, echo{0, 0}, echo{0, 0}, nil},

		{"strongest even", ReturnModeStrongest, echo{5000, 80}, echo{2500, 50},
			[]emitted{{false, ReturnSingleStrongest}}},
		{"strongest odd", ReturnModeStrongest, echo{5000, 50}, echo{2500, 80},
			[]emitted{{true, ReturnSingleStrongest}}},
		{"strongest tie keeps even", ReturnModeStrongest, echo{5000, 60}, echo{2500, 60},
			[]emitted{{false, ReturnSingleStrongest}}},
		{"strongest echo out of range", ReturnModeStrongest, echo{20, 80}, echo{2500, 50}, nil},

		{"last", ReturnModeLast, echo{5000, 10}, echo{2500, 90},
			[]emitted{{false, ReturnSingleLast}}},
		{"last out of range", ReturnModeLast, echo{20, 10}, echo{2500, 90}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := dualPair(t, Options{ReturnMode: tt.mode}, tt.even, tt.odd)
			require.Len(t, pts, 40*len(tt.want))

			for i, w := range tt.want {
				src := tt.even
				if w.odd {
					src = tt.odd
				}
				assert.Equal(t, w.rt, pts[i].ReturnType, "point %d", i)
				assert.Equal(t, uint16(7), pts[i].Ring)
				assert.InDelta(t, float64(src.raw)*0.004, pts[i].Distance, 1e-9)
			}
		})
	}
}

func TestPandar40P_DualThreshold(t *testing.T) {
	pts := dualPair(t, Options{DualReturnDistanceThreshold: ptrFloat64(0.5)}, echo{2500, 50}, echo{2600, 80})
	require.Len(t, pts, 40)
	assert.Equal(t, ReturnDualOnly, pts[0].ReturnType)

	pts = dualPair(t, Options{}, echo{2500, 50}, echo{2600, 80})
	assert.Len(t, pts, 80, "0.4 m apart is two surfaces at the default threshold")

	pts = dualPair(t, Options{DualReturnDistanceThreshold: ptrFloat64(0)}, echo{2500, 50}, echo{2510, 80})
	require.Len(t, pts, 80, "a zero threshold never merges echoes")
	assert.Equal(t, ReturnDualStrongestFirst, pts[0].ReturnType)
	assert.Equal(t, ReturnDualWeakLast, pts[1].ReturnType)
}

func TestPandar40P_DualTiming(t *testing.T) {
	pts := dualPair(t, Options{}, echo{5000, 100}, echo{2500, 50})
	require.Len(t, pts, 80)

	// odd block 1, channel 7
	assert.InDelta(t, defaultUnix-(250.82+54.67)/1e6, pts[0].Timestamp, 1e-6)
	// even block 0, channel 7
	assert.InDelta(t, defaultUnix-(250.82+54.67)/1e6, pts[1].Timestamp, 1e-6)
	assert.Equal(t, 1000, pts[0].Azimuth)
}

func TestPandar40P_DualSegmentsOnEvenBlocks(t *testing.T) {
	d, err := NewPandar40PDecoder(flatCalibration(40), Options{})
	require.NoError(t, err)

	p := testutil.NewPandar40PPacket(0, 2500, 100)
	p.ReturnMode = testutil.ModeDual
	for b := range p.Azimuths {
		// odd blocks carry a wrapped azimuth that must be ignored
		p.Azimuths[b] = 1000 + uint16(b/2)*100
		if b%2 == 1 {
			p.Azimuths[b] = 10
		}
	}
	require.NoError(t, d.Unpack(p.Bytes()))
	assert.False(t, d.HasScanned())
	assert.Len(t, d.Pointcloud(), 5*40)
}

func TestPandar40P_ModeMismatch(t *testing.T) {
	var ops bytes.Buffer
	SetLogWriters(&ops, nil, nil)
	defer SetLogWriters(nil, nil, nil)

	d, err := NewPandar40PDecoder(flatCalibration(40), Options{ReturnMode: ReturnModeDual})
	require.NoError(t, err)

	require.NoError(t, d.Unpack(ramp40P(1000, 20, testutil.ModeStrongest).Bytes()))
	require.NoError(t, d.Unpack(ramp40P(2000, 20, testutil.ModeStrongest).Bytes()))
	assert.Equal(t, uint64(2), d.Stats().ModeMismatches)
	assert.Len(t, d.Pointcloud(), 800, "packets are still decoded")
	assert.Equal(t, 1, strings.Count(ops.String(), "does not match"), "logged once per mode")

	require.NoError(t, d.Unpack(ramp40P(3000, 20, testutil.ModeLast).Bytes()))
	assert.Equal(t, uint64(3), d.Stats().ModeMismatches)
	assert.Equal(t, 2, strings.Count(ops.String(), "does not match"))
}

func TestPandar40P_NoMismatch(t *testing.T) {
	d, err := NewPandar40PDecoder(flatCalibration(40), Options{ReturnMode: ReturnModeStrongest})
	require.NoError(t, err)
	p := ramp40P(1000, 20, testutil.ModeDual)
	require.NoError(t, d.Unpack(p.Bytes()))
	assert.Zero(t, d.Stats().ModeMismatches, "dual packets never warn")
}
