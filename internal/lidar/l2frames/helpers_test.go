package l2frames

import (
	"time"

	"github.com/banshee-data/pandarscan/internal/testutil"
)

// flatCalibration returns n channels at zero elevation and zero offset.
func flatCalibration(n int) Calibration {
	return Calibration{
		Elevation:     make([]float64, n),
		AzimuthOffset: make([]float64, n),
	}
}

func ptrFloat64(v float64) *float64 { return &v }

// defaultUnix is testutil.DefaultDateTime in Unix seconds.
var defaultUnix = float64(time.Date(2021, time.June, 15, 12, 30, 45, 0, time.UTC).Unix())

// ramp40P builds a Pandar40P packet whose block azimuths start at start and
// advance by step.
func ramp40P(start, step uint16, mode uint8) *testutil.Pandar40PPacket {
	p := testutil.NewPandar40PPacket(0, 2500, 100)
	p.ReturnMode = mode
	for b := range p.Azimuths {
		p.Azimuths[b] = start + uint16(b)*step
	}
	return p
}

// rampXT32 is the PandarXT32 counterpart of ramp40P.
func rampXT32(start, step uint16, mode uint8) *testutil.PandarXT32Packet {
	p := testutil.NewPandarXT32Packet(0, 2500, 100)
	p.ReturnMode = mode
	for b := range p.Azimuths {
		p.Azimuths[b] = start + uint16(b)*step
	}
	return p
}
