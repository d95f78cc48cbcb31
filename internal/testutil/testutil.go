// Package testutil provides shared test utilities and fixtures.
//
// The builders here assemble synthetic sensor payloads byte by byte so the
// parser, decoder and replay tests exercise the real wire layout. They do
// not import the parse package, which lets parse tests use them too.
package testutil

import "encoding/binary"

// Return-mode codes written into synthetic tails.
const (
	ModeFirst     = 0x33
	ModeStrongest = 0x37
	ModeLast      = 0x38
	ModeDual      = 0x39
	ModeTriple    = 0x3d
)

// DefaultDateTime is 2021-06-15 12:30:45 UTC in the sensor's 6 byte layout.
var DefaultDateTime = [6]uint8{21, 6, 15, 12, 30, 45}

// Pandar40PPacket describes a synthetic Pandar40P payload.
type Pandar40PPacket struct {
	Azimuths     [10]uint16
	Ranges       [10][40]uint16 // raw, 4 mm per LSB
	Intensities  [10][40]uint8
	MotorSpeed   uint16
	Microseconds uint32
	ReturnMode   uint8
	FactoryInfo  uint8
	DateTime     [6]uint8
	WithSequence bool
	Sequence     uint32
}

// NewPandar40PPacket returns a strongest-return packet with every block at
// azimuth and every channel reading rangeRaw / intensity.
func NewPandar40PPacket(azimuth uint16, rangeRaw uint16, intensity uint8) *Pandar40PPacket {
	p := &Pandar40PPacket{
		MotorSpeed:  600,
		ReturnMode:  ModeStrongest,
		FactoryInfo: 0x42,
		DateTime:    DefaultDateTime,
	}
	for b := range p.Azimuths {
		p.Azimuths[b] = azimuth
		p.Fill(b, rangeRaw, intensity)
	}
	return p
}

// Fill sets every channel of block b to the same reading.
func (p *Pandar40PPacket) Fill(b int, rangeRaw uint16, intensity uint8) {
	for c := range p.Ranges[b] {
		p.Ranges[b][c] = rangeRaw
		p.Intensities[b][c] = intensity
	}
}

// Bytes serialises the packet: 1262 bytes, or 1266 with WithSequence.
func (p *Pandar40PPacket) Bytes() []byte {
	size := 1262
	if p.WithSequence {
		size += 4
	}
	buf := make([]byte, size)

	offset := 0
	for b := 0; b < 10; b++ {
		buf[offset] = 0xFF
		buf[offset+1] = 0xEE
		binary.LittleEndian.PutUint16(buf[offset+2:], p.Azimuths[b])
		offset += 4
		for c := 0; c < 40; c++ {
			binary.LittleEndian.PutUint16(buf[offset:], p.Ranges[b][c])
			buf[offset+2] = p.Intensities[b][c]
			offset += 3
		}
	}

	tail := buf[1240:1262]
	binary.LittleEndian.PutUint16(tail[8:10], p.MotorSpeed)
	binary.LittleEndian.PutUint32(tail[10:14], p.Microseconds)
	tail[14] = p.ReturnMode
	tail[15] = p.FactoryInfo
	copy(tail[16:22], p.DateTime[:])

	if p.WithSequence {
		binary.LittleEndian.PutUint32(buf[1262:], p.Sequence)
	}
	return buf
}

// PandarXT32Packet describes a synthetic PandarXT32 payload.
type PandarXT32Packet struct {
	SOB           uint16
	ProtocolMajor uint8
	ProtocolMinor uint8
	LaserCount    uint8
	BlockCount    uint8
	DistanceUnit  uint8
	Azimuths      [8]uint16
	Ranges        [8][32]uint16
	Intensities   [8][32]uint8
	Confidences   [8][32]uint8
	ReturnMode    uint8
	MotorSpeed    uint16
	DateTime      [6]uint8
	Microseconds  uint32
	FactoryInfo   uint8
	Sequence      uint32
}

// NewPandarXT32Packet returns a single-return (first) packet with every
// block at azimuth and every channel reading rangeRaw / intensity, using a
// 4 mm distance unit.
func NewPandarXT32Packet(azimuth uint16, rangeRaw uint16, intensity uint8) *PandarXT32Packet {
	p := &PandarXT32Packet{
		SOB:           0xEEFF,
		ProtocolMajor: 6,
		ProtocolMinor: 1,
		LaserCount:    32,
		BlockCount:    8,
		DistanceUnit:  4,
		ReturnMode:    ModeFirst,
		MotorSpeed:    600,
		DateTime:      DefaultDateTime,
		FactoryInfo:   0x42,
	}
	for b := range p.Azimuths {
		p.Azimuths[b] = azimuth
		p.Fill(b, rangeRaw, intensity)
	}
	return p
}

// Fill sets every channel of block b to the same reading.
func (p *PandarXT32Packet) Fill(b int, rangeRaw uint16, intensity uint8) {
	for c := range p.Ranges[b] {
		p.Ranges[b][c] = rangeRaw
		p.Intensities[b][c] = intensity
	}
}

// Bytes serialises the packet into its 1080 byte wire form. Blocks and
// channels are laid out at the stride implied by LaserCount and BlockCount.
func (p *PandarXT32Packet) Bytes() []byte {
	buf := make([]byte, 1080)
	binary.BigEndian.PutUint16(buf[0:2], p.SOB)
	buf[2] = p.ProtocolMajor
	buf[3] = p.ProtocolMinor
	buf[6] = p.LaserCount
	buf[7] = p.BlockCount
	buf[8] = p.ReturnMode
	buf[9] = p.DistanceUnit
	buf[11] = 0x01

	lasers := min(int(p.LaserCount), 32)
	blocks := min(int(p.BlockCount), 8)
	offset := 12
	for b := 0; b < blocks; b++ {
		binary.LittleEndian.PutUint16(buf[offset:], p.Azimuths[b])
		offset += 2
		for c := 0; c < lasers; c++ {
			binary.LittleEndian.PutUint16(buf[offset:], p.Ranges[b][c])
			buf[offset+2] = p.Intensities[b][c]
			buf[offset+3] = p.Confidences[b][c]
			offset += 4
		}
	}

	offset += 10
	buf[offset] = p.ReturnMode
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], p.MotorSpeed)
	offset += 2
	copy(buf[offset:offset+6], p.DateTime[:])
	offset += 6
	binary.LittleEndian.PutUint32(buf[offset:], p.Microseconds)
	offset += 4
	buf[offset] = p.FactoryInfo
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], p.Sequence)
	return buf
}
