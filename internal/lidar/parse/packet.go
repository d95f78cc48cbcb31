package parse

import (
	"errors"
	"time"
)

// ErrMalformedPacket is returned (wrapped) for any buffer that cannot be a
// packet of the requested sensor model: wrong length or a missing
// start-of-block marker. Callers should test with errors.Is.
var ErrMalformedPacket = errors.New("malformed packet")

// Sizes shared by both sensor models.
const (
	MaxBlocks   = 10 // largest block count of any supported model (Pandar40P)
	MaxChannels = 40 // largest laser count of any supported model (Pandar40P)

	UTC_SIZE       = 6 // year-2000, month, day, hour, minute, second
	TIMESTAMP_SIZE = 4 // microsecond part of UTC, little-endian
	SEQUENCE_SIZE  = 4 // optional UDP sequence number, little-endian

	ROTATION_MAX_UNITS = 36000 // 360.00 degrees in azimuth units
)

// Return-mode codes as reported in the packet tail.
const (
	RETURN_MODE_FIRST           = 0x33
	RETURN_MODE_STRONGEST       = 0x37
	RETURN_MODE_LAST            = 0x38
	RETURN_MODE_LAST_STRONGEST  = 0x39 // dual
	RETURN_MODE_LAST_FIRST      = 0x3b // dual
	RETURN_MODE_FIRST_STRONGEST = 0x3c // dual
	RETURN_MODE_TRIPLE          = 0x3d
)

// Header holds the fixed packet header. Only the PandarXT32 transmits one;
// for Pandar40P packets the counts and distance unit are filled from the
// model constants so downstream code can treat both models alike.
type Header struct {
	SOB              uint16 // start-of-block marker
	ProtocolMajor    uint8
	ProtocolMinor    uint8
	LaserCount       uint8 // clamped to the model maximum
	BlockCount       uint8 // clamped to the model maximum
	FirstBlockReturn uint8
	DistanceUnit     uint8 // millimetres per LSB
	ReturnNumber     uint8
	Flags            uint8
}

// Unit is one laser channel's reading within a block.
type Unit struct {
	Distance   float64 // metres; 0 for no return or a rejected reading
	Intensity  uint8
	Confidence uint8 // PandarXT32 only
}

// Block is one firing instant: an azimuth and a reading per channel.
type Block struct {
	SOB     uint16 // per-block preamble (Pandar40P only)
	Azimuth uint16 // 0.01 degree units, 0-35999
	Units   [MaxChannels]Unit
}

// DateTime is the whole-second UTC part of the packet timestamp with the
// calendar conventions of struct tm: Year counts from 1900 and Month is
// zero-based.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Time returns the calendar value as a UTC instant. Out-of-range fields are
// normalised the way timegm does.
func (d DateTime) Time() time.Time {
	return time.Date(1900+d.Year, time.Month(d.Month+1), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

// Unix returns seconds since the epoch.
func (d DateTime) Unix() int64 {
	return d.Time().Unix()
}

// Packet is the structured form of one raw sensor packet.
type Packet struct {
	Header       Header
	Blocks       [MaxBlocks]Block
	ReturnMode   uint8
	MotorSpeed   uint16 // RPM
	HighTemp     uint8  // Pandar40P only
	FactoryInfo  uint8
	UTC          DateTime
	Microseconds uint32
	UDPSequence  uint32
	HasSequence  bool
}

// BlockCount returns the number of populated blocks.
func (p *Packet) BlockCount() int {
	return int(p.Header.BlockCount)
}

// LaserCount returns the number of populated channels per block.
func (p *Packet) LaserCount() int {
	return int(p.Header.LaserCount)
}

// Seconds returns the packet reference time in fractional Unix seconds.
func (p *Packet) Seconds() float64 {
	return float64(p.UTC.Unix()) + float64(p.Microseconds)/1e6
}

// IsDualReturn reports whether the packet carries two echoes per firing.
func (p *Packet) IsDualReturn() bool {
	switch p.ReturnMode {
	case RETURN_MODE_LAST_STRONGEST, RETURN_MODE_LAST_FIRST, RETURN_MODE_FIRST_STRONGEST:
		return true
	}
	return false
}

// parseDateTime decodes the 6 byte UTC field. The sensor firmware is known
// to report years off by a century; a year that lands at or beyond 2100 is
// pulled back by 100.
func parseDateTime(b []byte) DateTime {
	year := int(b[0]) + 100
	if year >= 200 {
		year -= 100
	}
	return DateTime{
		Year:   year,
		Month:  int(b[1]) - 1,
		Day:    int(b[2]),
		Hour:   int(b[3]),
		Minute: int(b[4]),
		Second: int(b[5]),
	}
}

// ReturnModeName returns a human-readable name for a return-mode code.
func ReturnModeName(code uint8) string {
	switch code {
	case RETURN_MODE_FIRST:
		return "first"
	case RETURN_MODE_STRONGEST:
		return "strongest"
	case RETURN_MODE_LAST:
		return "last"
	case RETURN_MODE_LAST_STRONGEST:
		return "last+strongest"
	case RETURN_MODE_LAST_FIRST:
		return "last+first"
	case RETURN_MODE_FIRST_STRONGEST:
		return "first+strongest"
	case RETURN_MODE_TRIPLE:
		return "triple"
	default:
		return "unknown"
	}
}
