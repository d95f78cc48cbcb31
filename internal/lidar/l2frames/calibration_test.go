package l2frames

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCalibrationCSV(t *testing.T) {
	csvData := "Channel,Elevation,Azimuth\n" +
		"2, -1.5, 1.042\n" +
		"1,15,-1.042\n" +
		"3,0,3.125\n"

	cal, err := ReadCalibrationCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, []float64{15, -1.5, 0}, cal.Elevation)
	assert.Equal(t, []float64{-1.042, 1.042, 3.125}, cal.AzimuthOffset)
	assert.NoError(t, cal.Validate(3))
	assert.Error(t, cal.Validate(40))
}

func TestReadCalibrationCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", "", "insufficient data"},
		{"header only", "Channel,Elevation,Azimuth\n", "insufficient data"},
		{"bad header", "Laser,Elevation,Azimuth\n1,0,0\n", "invalid header"},
		{"bad channel", "Channel,Elevation,Azimuth\nx,0,0\n", "invalid channel number at line 2"},
		{"bad elevation", "Channel,Elevation,Azimuth\n1,up,0\n", "invalid elevation at line 2"},
		{"bad azimuth", "Channel,Elevation,Azimuth\n1,0,left\n", "invalid azimuth at line 2"},
		{"out of range", "Channel,Elevation,Azimuth\n1,0,0\n3,0,0\n", "out of range"},
		{"duplicate", "Channel,Elevation,Azimuth\n1,0,0\n1,1,1\n", "duplicate channel 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCalibrationCSV(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCalibrationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "angles.csv")
	var b strings.Builder
	b.WriteString("Channel,Elevation,Azimuth\n")
	for c := 1; c <= 32; c++ {
		b.WriteString(fmt.Sprintf("%d,-1,0.5\n", c))
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))

	cal, err := LoadCalibrationFile(path)
	require.NoError(t, err)
	assert.NoError(t, cal.Validate(ModelPandarXT32.Channels()))

	_, err = LoadCalibrationFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
