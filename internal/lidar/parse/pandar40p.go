package parse

import (
	"encoding/binary"
	"fmt"
)

/*
Pandar40P LiDAR Packet Layout

The Pandar40P sends 1262-byte UDP payloads (1266 with the optional UDP
sequence suffix) containing 10 data blocks of 40 channels each.

PACKET STRUCTURE (1262 bytes):
├── Data Blocks (1240 bytes) - 10 blocks × 124 bytes, starting at offset 0
│   └── Each block: 2-byte preamble (0xFFEE) + 2-byte azimuth + 40 × (2-byte range + 1-byte intensity)
├── Tail (22 bytes) at offset 1240
│   └── Reserved(5) + HighTemp(1) + Reserved(2) + MotorSpeed(2) + Timestamp(4) +
│       ReturnMode(1) + FactoryInfo(1) + DateTime(6)
└── [UDPSequence(4)] when sequencing is enabled

There is no packet header; block preambles start at payload offset 0 and
are not validated (the tail carries no marker either). Ranges are 4 mm
per LSB. A reading of 0x0101 with intensity 0x01 is the sensor's "no
return" pattern and is zeroed, as is anything beyond 200 m.
*/

// Pandar40P packet structure constants
const (
	PANDAR40P_PACKET_SIZE_STANDARD = 1262 // without UDP sequence
	PANDAR40P_PACKET_SIZE_SEQUENCE = 1266 // with 4-byte UDP sequence suffix
	PANDAR40P_BLOCKS               = 10
	PANDAR40P_CHANNELS             = 40
	PANDAR40P_BYTES_PER_CHANNEL    = 3 // 2 bytes distance + 1 byte reflectivity
	PANDAR40P_PREAMBLE_SIZE        = 2
	PANDAR40P_AZIMUTH_SIZE         = 2
	PANDAR40P_BLOCK_SIZE           = PANDAR40P_PREAMBLE_SIZE + PANDAR40P_AZIMUTH_SIZE + PANDAR40P_CHANNELS*PANDAR40P_BYTES_PER_CHANNEL // 124
	PANDAR40P_TAIL_START           = PANDAR40P_BLOCKS * PANDAR40P_BLOCK_SIZE                                                             // 1240
	PANDAR40P_TAIL_SIZE            = 22

	PANDAR40P_DISTANCE_RESOLUTION = 0.004 // metres per LSB
	PANDAR40P_DISTANCE_UNIT_MM    = 4

	// "no return" sentinel: range bytes 0x01 0x01 followed by intensity 0x01
	pandar40pSentinelRange     = 0x0101
	pandar40pSentinelIntensity = 0x01
	pandar40pMaxRangeMetres    = 200.0
)

// SequenceSuffix selects which Pandar40P payload lengths are accepted.
type SequenceSuffix int

const (
	// SequenceAuto accepts payloads with or without the UDP sequence suffix.
	SequenceAuto SequenceSuffix = iota
	// SequenceAbsent accepts only 1262-byte payloads.
	SequenceAbsent
	// SequencePresent accepts only 1266-byte payloads.
	SequencePresent
)

func (s SequenceSuffix) String() string {
	switch s {
	case SequenceAuto:
		return "auto"
	case SequenceAbsent:
		return "absent"
	case SequencePresent:
		return "present"
	default:
		return fmt.Sprintf("SequenceSuffix(%d)", int(s))
	}
}

// ParseSequenceSuffix maps a configuration string to a SequenceSuffix.
func ParseSequenceSuffix(s string) (SequenceSuffix, error) {
	switch s {
	case "", "auto":
		return SequenceAuto, nil
	case "absent", "none":
		return SequenceAbsent, nil
	case "present":
		return SequencePresent, nil
	default:
		return SequenceAuto, fmt.Errorf("unknown sequence suffix %q (want auto, absent or present)", s)
	}
}

// ParsePandar40P parses one Pandar40P payload. It never mutates data.
func ParsePandar40P(data []byte, suffix SequenceSuffix) (*Packet, error) {
	pkt := &Packet{}

	switch {
	case len(data) == PANDAR40P_PACKET_SIZE_STANDARD && suffix != SequencePresent:
	case len(data) == PANDAR40P_PACKET_SIZE_SEQUENCE && suffix != SequenceAbsent:
		pkt.HasSequence = true
		pkt.UDPSequence = binary.LittleEndian.Uint32(data[PANDAR40P_PACKET_SIZE_STANDARD:])
	default:
		return nil, fmt.Errorf("%w: invalid Pandar40P packet size %d (sequence suffix %s)",
			ErrMalformedPacket, len(data), suffix)
	}

	pkt.Header = Header{
		LaserCount:   PANDAR40P_CHANNELS,
		BlockCount:   PANDAR40P_BLOCKS,
		DistanceUnit: PANDAR40P_DISTANCE_UNIT_MM,
	}

	offset := 0
	for b := 0; b < PANDAR40P_BLOCKS; b++ {
		parsePandar40PBlock(data[offset:offset+PANDAR40P_BLOCK_SIZE], &pkt.Blocks[b])
		offset += PANDAR40P_BLOCK_SIZE
	}
	pkt.Header.SOB = pkt.Blocks[0].SOB

	parsePandar40PTail(data[PANDAR40P_TAIL_START:PANDAR40P_TAIL_START+PANDAR40P_TAIL_SIZE], pkt)

	tracef("Pandar40P packet: mode=%s motor=%d RPM utc=%s usec=%d seq=%d",
		ReturnModeName(pkt.ReturnMode), pkt.MotorSpeed, pkt.UTC.Time().Format("2006-01-02 15:04:05"),
		pkt.Microseconds, pkt.UDPSequence)

	return pkt, nil
}

// parsePandar40PBlock decodes one 124-byte block into block.
func parsePandar40PBlock(data []byte, block *Block) {
	block.SOB = binary.LittleEndian.Uint16(data[0:2])
	block.Azimuth = binary.LittleEndian.Uint16(data[2:4])

	offset := PANDAR40P_PREAMBLE_SIZE + PANDAR40P_AZIMUTH_SIZE
	for c := 0; c < PANDAR40P_CHANNELS; c++ {
		raw := binary.LittleEndian.Uint16(data[offset : offset+2])
		intensity := data[offset+2]
		distance := float64(raw) * PANDAR40P_DISTANCE_RESOLUTION

		if (raw == pandar40pSentinelRange && intensity == pandar40pSentinelIntensity) ||
			distance > pandar40pMaxRangeMetres {
			distance = 0
			intensity = 0
		}

		block.Units[c] = Unit{Distance: distance, Intensity: intensity}
		offset += PANDAR40P_BYTES_PER_CHANNEL
	}
}

// parsePandar40PTail decodes the 22-byte tail.
func parsePandar40PTail(data []byte, pkt *Packet) {
	pkt.HighTemp = data[5]
	pkt.MotorSpeed = binary.LittleEndian.Uint16(data[8:10])
	pkt.Microseconds = binary.LittleEndian.Uint32(data[10:14]) % 1000000
	pkt.ReturnMode = data[14]
	pkt.FactoryInfo = data[15]
	pkt.UTC = parseDateTime(data[16:22])
	pkt.Header.FirstBlockReturn = pkt.ReturnMode
}
