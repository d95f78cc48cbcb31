package parse

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pandarscan/internal/testutil"
)

func TestParsePandar40P_Fields(t *testing.T) {
	p := testutil.NewPandar40PPacket(0, 2500, 100)
	for b := range p.Azimuths {
		p.Azimuths[b] = uint16(1000 + 20*b)
	}
	p.Ranges[4][7] = 1234
	p.Intensities[4][7] = 201
	p.MotorSpeed = 1200
	p.Microseconds = 271005
	p.ReturnMode = testutil.ModeDual

	pkt, err := ParsePandar40P(p.Bytes(), SequenceAuto)
	require.NoError(t, err)

	assert.Equal(t, PANDAR40P_BLOCKS, pkt.BlockCount())
	assert.Equal(t, PANDAR40P_CHANNELS, pkt.LaserCount())
	assert.Equal(t, uint8(PANDAR40P_DISTANCE_UNIT_MM), pkt.Header.DistanceUnit)
	assert.Equal(t, uint16(0xEEFF), pkt.Header.SOB, "preamble 0xFFEE read little-endian")
	assert.False(t, pkt.HasSequence)

	for b := 0; b < PANDAR40P_BLOCKS; b++ {
		assert.Equal(t, uint16(1000+20*b), pkt.Blocks[b].Azimuth)
	}
	assert.InDelta(t, 10.0, pkt.Blocks[0].Units[0].Distance, 1e-9)
	assert.Equal(t, uint8(100), pkt.Blocks[0].Units[0].Intensity)
	assert.InDelta(t, 4.936, pkt.Blocks[4].Units[7].Distance, 1e-9)
	assert.Equal(t, uint8(201), pkt.Blocks[4].Units[7].Intensity)

	assert.Equal(t, uint16(1200), pkt.MotorSpeed)
	assert.Equal(t, uint32(271005), pkt.Microseconds)
	assert.Equal(t, uint8(RETURN_MODE_LAST_STRONGEST), pkt.ReturnMode)
	assert.True(t, pkt.IsDualReturn())
	assert.Equal(t, uint8(0x42), pkt.FactoryInfo)
	assert.Equal(t, time.Date(2021, time.June, 15, 12, 30, 45, 0, time.UTC), pkt.UTC.Time())
}

func TestParsePandar40P_SequenceSuffix(t *testing.T) {
	p := testutil.NewPandar40PPacket(0, 2500, 100)
	standard := p.Bytes()
	p.WithSequence = true
	p.Sequence = 63234
	withSeq := p.Bytes()

	tests := []struct {
		name    string
		data    []byte
		suffix  SequenceSuffix
		wantErr bool
		wantSeq bool
	}{
		{"auto standard", standard, SequenceAuto, false, false},
		{"auto sequence", withSeq, SequenceAuto, false, true},
		{"absent standard", standard, SequenceAbsent, false, false},
		{"absent rejects sequence", withSeq, SequenceAbsent, true, false},
		{"present sequence", withSeq, SequencePresent, false, true},
		{"present rejects standard", standard, SequencePresent, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := ParsePandar40P(tt.data, tt.suffix)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedPacket))
				assert.Nil(t, pkt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeq, pkt.HasSequence)
			if tt.wantSeq {
				assert.Equal(t, uint32(63234), pkt.UDPSequence)
			}
		})
	}
}

func TestParsePandar40P_MalformedSizes(t *testing.T) {
	for _, size := range []int{0, 4, 1261, 1263, 1265, 1267, 1080} {
		_, err := ParsePandar40P(make([]byte, size), SequenceAuto)
		assert.ErrorIs(t, err, ErrMalformedPacket, "size %d", size)
	}
}

func TestParsePandar40P_InvalidReadingsZeroed(t *testing.T) {
	p := testutil.NewPandar40PPacket(0, 2500, 100)
	p.Ranges[0][0], p.Intensities[0][0] = 0x0101, 0x01 // no-return sentinel
	p.Ranges[0][1], p.Intensities[0][1] = 0x0101, 0x02 // same range, real intensity
	p.Ranges[0][2], p.Intensities[0][2] = 60000, 90    // 240 m, beyond range
	p.Ranges[0][3], p.Intensities[0][3] = 50000, 90    // exactly 200 m

	pkt, err := ParsePandar40P(p.Bytes(), SequenceAuto)
	require.NoError(t, err)

	units := pkt.Blocks[0].Units
	assert.Equal(t, Unit{}, units[0])
	assert.InDelta(t, 1.028, units[1].Distance, 1e-9)
	assert.Equal(t, uint8(2), units[1].Intensity)
	assert.Equal(t, Unit{}, units[2])
	assert.InDelta(t, 200.0, units[3].Distance, 1e-9)
}

func TestParsePandar40P_MicrosecondsWrapped(t *testing.T) {
	p := testutil.NewPandar40PPacket(0, 2500, 100)
	p.Microseconds = 1500000

	pkt, err := ParsePandar40P(p.Bytes(), SequenceAuto)
	require.NoError(t, err)
	assert.Equal(t, uint32(500000), pkt.Microseconds)
}

func TestParsePandar40P_SampleDateTime(t *testing.T) {
	// DateTime bytes captured from a live sensor tail.
	p := testutil.NewPandar40PPacket(0, 2500, 100)
	p.DateTime = [6]uint8{0x11, 0x09, 0x06, 0x0e, 0x21, 0x26}
	p.Microseconds = 921856

	pkt, err := ParsePandar40P(p.Bytes(), SequenceAuto)
	require.NoError(t, err)

	assert.Equal(t, DateTime{Year: 117, Month: 8, Day: 6, Hour: 14, Minute: 33, Second: 38}, pkt.UTC)
	want := time.Date(2017, time.September, 6, 14, 33, 38, 0, time.UTC)
	assert.InDelta(t, float64(want.Unix())+0.921856, pkt.Seconds(), 1e-6)
}

func TestParsePandar40P_Idempotent(t *testing.T) {
	p := testutil.NewPandar40PPacket(0, 2500, 100)
	for b := range p.Azimuths {
		p.Azimuths[b] = uint16(35000 + 100*b)
		p.Fill(b, uint16(1000*(b+1)), uint8(b))
	}
	data := p.Bytes()
	orig := bytes.Clone(data)

	first, err := ParsePandar40P(data, SequenceAuto)
	require.NoError(t, err)
	second, err := ParsePandar40P(data, SequenceAuto)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-parse differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, orig, data, "parser must not mutate its input")
}
