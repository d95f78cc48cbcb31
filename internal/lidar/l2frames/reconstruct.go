package l2frames

import (
	"math"

	"github.com/banshee-data/pandarscan/internal/lidar/parse"
)

// timingSign selects how the firing correction is applied to the packet
// time. The two sensor families stamp packets at different reference
// instants, so the correction runs in opposite directions.
type timingSign float64

const (
	timingSubtract timingSign = -1 // Pandar40P: packet time is the end of the packet
	timingAdd      timingSign = 1  // PandarXT32: packet time precedes the firings
)

// reconstructor turns one unit of a parsed packet into a Point. Angle
// trigonometry that depends only on calibration is computed once.
type reconstructor struct {
	cosElevation    []float64
	sinElevation    []float64
	azimuthOffset   []float64 // degrees
	azimuthOffsetCU []int     // 0.01 degree units, rounded
	firing          []float64 // microseconds
	sign            timingSign
}

func newReconstructor(cal Calibration, timing TimingTables, sign timingSign) *reconstructor {
	n := len(cal.Elevation)
	r := &reconstructor{
		cosElevation:    make([]float64, n),
		sinElevation:    make([]float64, n),
		azimuthOffset:   append([]float64(nil), cal.AzimuthOffset...),
		azimuthOffsetCU: make([]int, n),
		firing:          timing.Firing,
		sign:            sign,
	}
	for c := 0; c < n; c++ {
		elev := deg2rad(cal.Elevation[c])
		r.cosElevation[c] = math.Cos(elev)
		r.sinElevation[c] = math.Sin(elev)
		r.azimuthOffsetCU[c] = int(math.Round(cal.AzimuthOffset[c] * 100))
	}
	return r
}

// point builds the Point for channel of block. base is the packet time in
// Unix seconds and blockOffset the block's entry from the active table.
// The caller is responsible for range filtering.
func (r *reconstructor) point(pkt *parse.Packet, base float64, block, channel int, blockOffset float64, rt ReturnType) Point {
	b := &pkt.Blocks[block]
	u := b.Units[channel]

	azimuth := deg2rad(r.azimuthOffset[channel] + float64(b.Azimuth)/100.0)
	xy := u.Distance * r.cosElevation[channel]

	return Point{
		X:          xy * math.Sin(azimuth),
		Y:          xy * math.Cos(azimuth),
		Z:          u.Distance * r.sinElevation[channel],
		Intensity:  u.Intensity,
		Distance:   u.Distance,
		Ring:       uint16(channel),
		Azimuth:    int(b.Azimuth) + r.azimuthOffsetCU[channel],
		ReturnType: rt,
		Timestamp:  base + float64(r.sign)*(blockOffset+r.firing[channel])/1e6,
	}
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
