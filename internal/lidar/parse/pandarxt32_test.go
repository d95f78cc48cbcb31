package parse

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pandarscan/internal/testutil"
)

func TestParsePandarXT32_Fields(t *testing.T) {
	p := testutil.NewPandarXT32Packet(0, 2500, 60)
	for b := range p.Azimuths {
		p.Azimuths[b] = uint16(18000 + 18*b)
	}
	p.Ranges[2][31] = 750
	p.Intensities[2][31] = 255
	p.Confidences[2][31] = 3
	p.ReturnMode = testutil.ModeTriple
	p.Microseconds = 123456
	p.MotorSpeed = 1200
	p.Sequence = 99

	pkt, err := ParsePandarXT32(p.Bytes())
	require.NoError(t, err)

	h := pkt.Header
	assert.Equal(t, uint16(PANDARXT32_START_OF_PACKET), h.SOB)
	assert.Equal(t, uint8(6), h.ProtocolMajor)
	assert.Equal(t, uint8(1), h.ProtocolMinor)
	assert.Equal(t, PANDARXT32_CHANNELS, pkt.LaserCount())
	assert.Equal(t, PANDARXT32_BLOCKS, pkt.BlockCount())
	assert.Equal(t, uint8(4), h.DistanceUnit)
	assert.Equal(t, uint8(testutil.ModeTriple), h.FirstBlockReturn)

	for b := 0; b < PANDARXT32_BLOCKS; b++ {
		assert.Equal(t, uint16(18000+18*b), pkt.Blocks[b].Azimuth)
	}
	assert.InDelta(t, 10.0, pkt.Blocks[0].Units[0].Distance, 1e-9)
	u := pkt.Blocks[2].Units[31]
	assert.InDelta(t, 3.0, u.Distance, 1e-9)
	assert.Equal(t, uint8(255), u.Intensity)
	assert.Equal(t, uint8(3), u.Confidence)

	assert.Equal(t, uint8(RETURN_MODE_TRIPLE), pkt.ReturnMode)
	assert.Equal(t, uint16(1200), pkt.MotorSpeed)
	assert.Equal(t, uint32(123456), pkt.Microseconds)
	assert.Equal(t, uint32(99), pkt.UDPSequence)
	assert.True(t, pkt.HasSequence)
	assert.Equal(t, time.Date(2021, time.June, 15, 12, 30, 45, 0, time.UTC), pkt.UTC.Time())
}

func TestParsePandarXT32_DistanceUnit(t *testing.T) {
	p := testutil.NewPandarXT32Packet(0, 1000, 60)
	p.DistanceUnit = 2

	pkt, err := ParsePandarXT32(p.Bytes())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pkt.Blocks[0].Units[0].Distance, 1e-9)
}

func TestParsePandarXT32_Malformed(t *testing.T) {
	good := testutil.NewPandarXT32Packet(0, 1000, 60).Bytes()

	badSOB := bytes.Clone(good)
	badSOB[0], badSOB[1] = 0xFF, 0xEE

	tests := map[string][]byte{
		"empty":      nil,
		"short":      good[:1079],
		"long":       append(bytes.Clone(good), 0),
		"40P sized":  make([]byte, PANDAR40P_PACKET_SIZE_STANDARD),
		"bad marker": badSOB,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			pkt, err := ParsePandarXT32(data)
			assert.ErrorIs(t, err, ErrMalformedPacket)
			assert.Nil(t, pkt)
		})
	}
}

func TestParsePandarXT32_ClampsHeaderCounts(t *testing.T) {
	p := testutil.NewPandarXT32Packet(0, 1000, 60)
	p.LaserCount = 200
	p.BlockCount = 200

	pkt, err := ParsePandarXT32(p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, PANDARXT32_CHANNELS, pkt.LaserCount())
	assert.Equal(t, PANDARXT32_BLOCKS, pkt.BlockCount())
}

func TestParsePandarXT32_ShortHeaderCounts(t *testing.T) {
	p := testutil.NewPandarXT32Packet(500, 1000, 60)
	p.LaserCount = 16
	p.BlockCount = 4
	p.ReturnMode = testutil.ModeLast
	p.Microseconds = 42

	pkt, err := ParsePandarXT32(p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, pkt.LaserCount())
	assert.Equal(t, 4, pkt.BlockCount())
	assert.Equal(t, Unit{}, pkt.Blocks[0].Units[16], "channels past the header count stay empty")
	assert.Equal(t, Block{}, pkt.Blocks[4], "blocks past the header count stay empty")

	// The tail follows the shortened body.
	assert.Equal(t, uint8(RETURN_MODE_LAST), pkt.ReturnMode)
	assert.Equal(t, uint32(42), pkt.Microseconds)
}

func TestParsePandarXT32_Idempotent(t *testing.T) {
	p := testutil.NewPandarXT32Packet(0, 1000, 60)
	for b := range p.Azimuths {
		p.Azimuths[b] = uint16(100 * b)
		p.Fill(b, uint16(300*(b+1)), uint8(10*b))
	}
	data := p.Bytes()

	first, err := ParsePandarXT32(data)
	require.NoError(t, err)
	second, err := ParsePandarXT32(data)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-parse differs (-first +second):\n%s", diff)
	}
}
