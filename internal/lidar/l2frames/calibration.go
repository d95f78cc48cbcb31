package l2frames

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Calibration holds per-channel angle corrections, indexed by channel id.
type Calibration struct {
	Elevation     []float64 // degrees above the horizontal plane
	AzimuthOffset []float64 // degrees, added to the block azimuth
}

// Validate checks that the table covers exactly channels lasers.
func (c Calibration) Validate(channels int) error {
	if len(c.Elevation) != channels {
		return fmt.Errorf("calibration has %d elevation angles, sensor has %d channels", len(c.Elevation), channels)
	}
	if len(c.AzimuthOffset) != channels {
		return fmt.Errorf("calibration has %d azimuth offsets, sensor has %d channels", len(c.AzimuthOffset), channels)
	}
	return nil
}

// LoadCalibrationFile reads an angle correction CSV from path.
func LoadCalibrationFile(path string) (Calibration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("failed to open calibration file: %w", err)
	}
	defer f.Close()
	return ReadCalibrationCSV(f)
}

// ReadCalibrationCSV parses an angle correction table with the header
// Channel,Elevation,Azimuth. Channels are 1-based in the file and must form
// a contiguous run starting at 1; rows may appear in any order.
func ReadCalibrationCSV(r io.Reader) (Calibration, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return Calibration{}, fmt.Errorf("failed to read calibration CSV: %w", err)
	}
	if len(records) < 2 {
		return Calibration{}, fmt.Errorf("insufficient data in angle correction file")
	}

	header := records[0]
	if len(header) != 3 ||
		!strings.EqualFold(strings.TrimSpace(header[0]), "channel") ||
		!strings.EqualFold(strings.TrimSpace(header[1]), "elevation") ||
		!strings.EqualFold(strings.TrimSpace(header[2]), "azimuth") {
		return Calibration{}, fmt.Errorf("invalid header in angle correction file, expected: Channel,Elevation,Azimuth")
	}

	rows := records[1:]
	cal := Calibration{
		Elevation:     make([]float64, len(rows)),
		AzimuthOffset: make([]float64, len(rows)),
	}
	seen := make([]bool, len(rows))
	for i, record := range rows {
		line := i + 2
		if len(record) != 3 {
			return Calibration{}, fmt.Errorf("invalid record at line %d: expected 3 fields", line)
		}
		channel, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return Calibration{}, fmt.Errorf("invalid channel number at line %d: %w", line, err)
		}
		elevation, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return Calibration{}, fmt.Errorf("invalid elevation at line %d: %w", line, err)
		}
		azimuth, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return Calibration{}, fmt.Errorf("invalid azimuth at line %d: %w", line, err)
		}
		if channel < 1 || channel > len(rows) {
			return Calibration{}, fmt.Errorf("channel number %d out of range (1-%d) at line %d", channel, len(rows), line)
		}
		if seen[channel-1] {
			return Calibration{}, fmt.Errorf("duplicate channel %d at line %d", channel, line)
		}
		seen[channel-1] = true
		cal.Elevation[channel-1] = elevation
		cal.AzimuthOffset[channel-1] = azimuth
	}
	return cal, nil
}
