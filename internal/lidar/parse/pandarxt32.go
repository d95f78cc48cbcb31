package parse

import (
	"encoding/binary"
	"fmt"
)

/*
PandarXT32 LiDAR Packet Layout

PACKET STRUCTURE (1080 bytes):
├── Header (12 bytes)
│   └── SOB 0xEEFF (big-endian) + ProtocolMajor + ProtocolMinor + Reserved(2) +
│       LaserNum + BlockNum + FirstBlockReturn + DisUnit + ReturnNumber + Flags
├── Body (1040 bytes) - 8 blocks × 130 bytes
│   └── Each block: 2-byte azimuth + 32 × (2-byte range + intensity + confidence)
└── Tail (28 bytes)
    └── Reserved(10) + ReturnMode(1) + MotorSpeed(2) + DateTime(6) +
        Timestamp(4) + FactoryInfo(1) + UDPSequence(4)

Laser and block counts come from the header and are clamped to 32 and 8 so
a corrupt header can never index past the fixed arrays. Ranges are scaled
by the header's distance unit (millimetres per LSB).
*/

// PandarXT32 packet structure constants
const (
	PANDARXT32_PACKET_SIZE     = 1080
	PANDARXT32_HEADER_SIZE     = 12
	PANDARXT32_BLOCKS          = 8
	PANDARXT32_CHANNELS        = 32
	PANDARXT32_UNIT_SIZE       = 4 // range(2) + intensity(1) + confidence(1)
	PANDARXT32_AZIMUTH_SIZE    = 2
	PANDARXT32_BLOCK_SIZE      = PANDARXT32_AZIMUTH_SIZE + PANDARXT32_CHANNELS*PANDARXT32_UNIT_SIZE // 130
	PANDARXT32_RESERVED_SIZE   = 10
	PANDARXT32_RETURN_SIZE     = 1
	PANDARXT32_MOTOR_SIZE      = 2
	PANDARXT32_FACTORY_SIZE    = 1
	PANDARXT32_TAIL_SIZE       = PANDARXT32_RESERVED_SIZE + PANDARXT32_RETURN_SIZE + PANDARXT32_MOTOR_SIZE + UTC_SIZE + TIMESTAMP_SIZE + PANDARXT32_FACTORY_SIZE + SEQUENCE_SIZE // 28
	PANDARXT32_START_OF_PACKET = 0xEEFF
)

// ParsePandarXT32 parses one PandarXT32 payload. It never mutates data.
func ParsePandarXT32(data []byte) (*Packet, error) {
	if len(data) != PANDARXT32_PACKET_SIZE {
		return nil, fmt.Errorf("%w: invalid PandarXT32 packet size: expected %d, got %d",
			ErrMalformedPacket, PANDARXT32_PACKET_SIZE, len(data))
	}

	pkt := &Packet{}
	h := &pkt.Header
	h.SOB = binary.BigEndian.Uint16(data[0:2])
	if h.SOB != PANDARXT32_START_OF_PACKET {
		return nil, fmt.Errorf("%w: invalid PandarXT32 start of packet: expected 0x%04X, got 0x%04X",
			ErrMalformedPacket, PANDARXT32_START_OF_PACKET, h.SOB)
	}
	h.ProtocolMajor = data[2]
	h.ProtocolMinor = data[3]
	h.LaserCount = clampCount(data[6], PANDARXT32_CHANNELS)
	h.BlockCount = clampCount(data[7], PANDARXT32_BLOCKS)
	h.FirstBlockReturn = data[8]
	h.DistanceUnit = data[9]
	h.ReturnNumber = data[10]
	h.Flags = data[11]

	if h.LaserCount != data[6] || h.BlockCount != data[7] {
		diagf("PandarXT32 header counts clamped: lasers %d->%d blocks %d->%d",
			data[6], h.LaserCount, data[7], h.BlockCount)
	}

	if h.DistanceUnit == 0 {
		opsf("PandarXT32 header reports a zero distance unit; every range in this packet reads as 0")
	}

	lasers := int(h.LaserCount)
	scale := float64(h.DistanceUnit) / 1000.0
	offset := PANDARXT32_HEADER_SIZE
	for b := 0; b < int(h.BlockCount); b++ {
		block := &pkt.Blocks[b]
		block.Azimuth = binary.LittleEndian.Uint16(data[offset : offset+2])
		offset += PANDARXT32_AZIMUTH_SIZE

		for c := 0; c < lasers; c++ {
			raw := binary.LittleEndian.Uint16(data[offset : offset+2])
			block.Units[c] = Unit{
				Distance:   float64(raw) * scale,
				Intensity:  data[offset+2],
				Confidence: data[offset+3],
			}
			offset += PANDARXT32_UNIT_SIZE
		}
	}

	offset += PANDARXT32_RESERVED_SIZE
	pkt.ReturnMode = data[offset]
	offset += PANDARXT32_RETURN_SIZE
	pkt.MotorSpeed = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += PANDARXT32_MOTOR_SIZE
	pkt.UTC = parseDateTime(data[offset : offset+UTC_SIZE])
	offset += UTC_SIZE
	pkt.Microseconds = binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += TIMESTAMP_SIZE
	pkt.FactoryInfo = data[offset]
	offset += PANDARXT32_FACTORY_SIZE
	pkt.UDPSequence = binary.LittleEndian.Uint32(data[offset : offset+4])
	pkt.HasSequence = true

	tracef("PandarXT32 packet: mode=%s lasers=%d blocks=%d unit=%dmm utc=%s usec=%d seq=%d",
		ReturnModeName(pkt.ReturnMode), h.LaserCount, h.BlockCount, h.DistanceUnit,
		pkt.UTC.Time().Format("2006-01-02 15:04:05"), pkt.Microseconds, pkt.UDPSequence)

	return pkt, nil
}

func clampCount(v, limit uint8) uint8 {
	if v > limit {
		return limit
	}
	return v
}
