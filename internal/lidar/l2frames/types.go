package l2frames

import (
	"fmt"
	"strings"
)

// Valid range window for a reading, in metres: (MinRange, MaxRange].
const (
	MinRange = 0.1
	MaxRange = 200.0

	// DefaultDualReturnDistanceThreshold is the echo separation below which
	// two dual-return readings are treated as one surface.
	DefaultDualReturnDistanceThreshold = 0.1
)

// ValidDistance reports whether d lies in (MinRange, MaxRange].
func ValidDistance(d float64) bool {
	return d > MinRange && d <= MaxRange
}

// ReturnType tags which echo a point came from.
type ReturnType uint8

const (
	ReturnUntagged ReturnType = iota
	ReturnSingleStrongest
	ReturnSingleLast
	ReturnDualStrongestFirst
	ReturnDualStrongestLast
	ReturnDualWeakFirst
	ReturnDualWeakLast
	ReturnDualOnly
	ReturnSingleFirst
)

func (r ReturnType) String() string {
	switch r {
	case ReturnUntagged:
		return "untagged"
	case ReturnSingleStrongest:
		return "single_strongest"
	case ReturnSingleLast:
		return "single_last"
	case ReturnDualStrongestFirst:
		return "dual_strongest_first"
	case ReturnDualStrongestLast:
		return "dual_strongest_last"
	case ReturnDualWeakFirst:
		return "dual_weak_first"
	case ReturnDualWeakLast:
		return "dual_weak_last"
	case ReturnDualOnly:
		return "dual_only"
	case ReturnSingleFirst:
		return "single_first"
	default:
		return fmt.Sprintf("ReturnType(%d)", uint8(r))
	}
}

// ReturnMode is the decoder's configured echo selection policy.
type ReturnMode int

const (
	ReturnModeDual ReturnMode = iota
	ReturnModeFirst
	ReturnModeStrongest
	ReturnModeLast
	ReturnModeTriple
)

func (m ReturnMode) String() string {
	switch m {
	case ReturnModeDual:
		return "dual"
	case ReturnModeFirst:
		return "first"
	case ReturnModeStrongest:
		return "strongest"
	case ReturnModeLast:
		return "last"
	case ReturnModeTriple:
		return "triple"
	default:
		return fmt.Sprintf("ReturnMode(%d)", int(m))
	}
}

// ParseReturnMode maps a configuration string to a ReturnMode.
func ParseReturnMode(s string) (ReturnMode, error) {
	switch strings.ToLower(s) {
	case "", "dual":
		return ReturnModeDual, nil
	case "first":
		return ReturnModeFirst, nil
	case "strongest":
		return ReturnModeStrongest, nil
	case "last":
		return ReturnModeLast, nil
	case "triple":
		return ReturnModeTriple, nil
	default:
		return ReturnModeDual, fmt.Errorf("unknown return mode %q", s)
	}
}

// Model identifies a supported sensor.
type Model int

const (
	ModelPandar40P Model = iota
	ModelPandarXT32
)

func (m Model) String() string {
	switch m {
	case ModelPandar40P:
		return "pandar40p"
	case ModelPandarXT32:
		return "pandarxt32"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// Channels returns the laser count of the model.
func (m Model) Channels() int {
	if m == ModelPandarXT32 {
		return 32
	}
	return 40
}

// ParseModel maps a configuration string to a Model.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(s) {
	case "", "pandar40p", "p40p":
		return ModelPandar40P, nil
	case "pandarxt32", "xt32", "pandarxt":
		return ModelPandarXT32, nil
	default:
		return ModelPandar40P, fmt.Errorf("unknown sensor model %q", s)
	}
}

// Point is one calibrated measurement in the sensor-local frame:
// X right, Y forward, Z up.
type Point struct {
	X, Y, Z    float64 // metres
	Intensity  uint8
	Distance   float64 // metres
	Ring       uint16  // channel id
	Azimuth    int     // 0.01 degree units, calibration corrected, not wrapped
	ReturnType ReturnType
	Timestamp  float64 // Unix seconds
}
