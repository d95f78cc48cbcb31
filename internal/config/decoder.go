package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/pandarscan/internal/lidar/l2frames"
	"github.com/banshee-data/pandarscan/internal/lidar/parse"
)

// Defaults applied by the Get* accessors.
const (
	DefaultModel          = "pandar40p"
	DefaultReturnMode     = "dual"
	DefaultScanPhase      = 0.0
	DefaultSequenceSuffix = "auto"
	DefaultUDPPort        = 2368

	maxFileSize = 1 * 1024 * 1024 // 1MB
)

// DecoderConfig describes one sensor feed. Fields omitted from the file keep
// their defaults, so partial configs are safe.
type DecoderConfig struct {
	SensorID                    *string  `json:"sensor_id,omitempty" yaml:"sensor_id,omitempty"`
	Model                       *string  `json:"model,omitempty" yaml:"model,omitempty"`
	ReturnMode                  *string  `json:"return_mode,omitempty" yaml:"return_mode,omitempty"`
	ScanPhase                   *float64 `json:"scan_phase,omitempty" yaml:"scan_phase,omitempty"` // degrees
	DualReturnDistanceThreshold *float64 `json:"dual_return_distance_threshold,omitempty" yaml:"dual_return_distance_threshold,omitempty"`
	SequenceSuffix              *string  `json:"sequence_suffix,omitempty" yaml:"sequence_suffix,omitempty"` // auto, absent, present
	UDPPort                     *int     `json:"udp_port,omitempty" yaml:"udp_port,omitempty"`
	KeepEmptyScans              *bool    `json:"keep_empty_scans,omitempty" yaml:"keep_empty_scans,omitempty"`

	// Angle corrections come from a Channel,Elevation,Azimuth CSV or inline
	// arrays indexed by channel id. A relative file path is resolved against
	// the directory of the config file.
	CalibrationFile *string   `json:"calibration_file,omitempty" yaml:"calibration_file,omitempty"`
	Elevation       []float64 `json:"elevation,omitempty" yaml:"elevation,omitempty"`
	AzimuthOffset   []float64 `json:"azimuth_offset,omitempty" yaml:"azimuth_offset,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultDecoderConfig returns a config with every scalar field set to its
// default. Calibration is left empty.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		Model:                       ptrString(DefaultModel),
		ReturnMode:                  ptrString(DefaultReturnMode),
		ScanPhase:                   ptrFloat64(DefaultScanPhase),
		DualReturnDistanceThreshold: ptrFloat64(l2frames.DefaultDualReturnDistanceThreshold),
		SequenceSuffix:              ptrString(DefaultSequenceSuffix),
		UDPPort:                     ptrInt(DefaultUDPPort),
		KeepEmptyScans:              ptrBool(false),
	}
}

// LoadDecoderConfig loads a DecoderConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
func LoadDecoderConfig(path string) (*DecoderConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &DecoderConfig{}
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if cfg.CalibrationFile != nil && *cfg.CalibrationFile != "" && !filepath.IsAbs(*cfg.CalibrationFile) {
		cfg.CalibrationFile = ptrString(filepath.Join(filepath.Dir(cleanPath), *cfg.CalibrationFile))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *DecoderConfig) Validate() error {
	model, err := l2frames.ParseModel(c.GetModel())
	if err != nil {
		return err
	}
	if _, err := l2frames.ParseReturnMode(c.GetReturnMode()); err != nil {
		return err
	}
	if _, err := parse.ParseSequenceSuffix(c.GetSequenceSuffix()); err != nil {
		return err
	}

	if phase := c.GetScanPhase(); phase < 0 || phase >= 360 {
		return fmt.Errorf("scan_phase must be in [0, 360), got %f", phase)
	}
	if th := c.GetDualReturnDistanceThreshold(); th < 0 {
		return fmt.Errorf("dual_return_distance_threshold must be non-negative, got %f", th)
	}
	if port := c.GetUDPPort(); port < 1 || port > 65535 {
		return fmt.Errorf("udp_port must be between 1 and 65535, got %d", port)
	}

	inline := len(c.Elevation) > 0 || len(c.AzimuthOffset) > 0
	if inline && c.GetCalibrationFile() != "" {
		return fmt.Errorf("set either calibration_file or inline elevation/azimuth_offset, not both")
	}
	if inline {
		cal := l2frames.Calibration{Elevation: c.Elevation, AzimuthOffset: c.AzimuthOffset}
		if err := cal.Validate(model.Channels()); err != nil {
			return err
		}
	}
	return nil
}

// GetSensorID returns the sensor_id value, or the model name when unset.
func (c *DecoderConfig) GetSensorID() string {
	if c.SensorID == nil || *c.SensorID == "" {
		return c.GetModel()
	}
	return *c.SensorID
}

// GetModel returns the model value or the default.
func (c *DecoderConfig) GetModel() string {
	if c.Model == nil || *c.Model == "" {
		return DefaultModel
	}
	return *c.Model
}

// GetReturnMode returns the return_mode value or the default.
func (c *DecoderConfig) GetReturnMode() string {
	if c.ReturnMode == nil || *c.ReturnMode == "" {
		return DefaultReturnMode
	}
	return *c.ReturnMode
}

// GetScanPhase returns the scan_phase value or the default.
func (c *DecoderConfig) GetScanPhase() float64 {
	if c.ScanPhase == nil {
		return DefaultScanPhase
	}
	return *c.ScanPhase
}

// GetDualReturnDistanceThreshold returns the dual_return_distance_threshold value or the default.
func (c *DecoderConfig) GetDualReturnDistanceThreshold() float64 {
	if c.DualReturnDistanceThreshold == nil {
		return l2frames.DefaultDualReturnDistanceThreshold
	}
	return *c.DualReturnDistanceThreshold
}

// GetSequenceSuffix returns the sequence_suffix value or the default.
func (c *DecoderConfig) GetSequenceSuffix() string {
	if c.SequenceSuffix == nil || *c.SequenceSuffix == "" {
		return DefaultSequenceSuffix
	}
	return *c.SequenceSuffix
}

// GetUDPPort returns the udp_port value or the default.
func (c *DecoderConfig) GetUDPPort() int {
	if c.UDPPort == nil {
		return DefaultUDPPort
	}
	return *c.UDPPort
}

// GetKeepEmptyScans returns the keep_empty_scans value or the default.
func (c *DecoderConfig) GetKeepEmptyScans() bool {
	if c.KeepEmptyScans == nil {
		return false
	}
	return *c.KeepEmptyScans
}

// GetCalibrationFile returns the calibration_file value or "".
func (c *DecoderConfig) GetCalibrationFile() string {
	if c.CalibrationFile == nil {
		return ""
	}
	return *c.CalibrationFile
}

// DecoderModel returns the parsed sensor model.
func (c *DecoderConfig) DecoderModel() (l2frames.Model, error) {
	return l2frames.ParseModel(c.GetModel())
}

// DecoderOptions converts the config into decoder options.
func (c *DecoderConfig) DecoderOptions() (l2frames.Options, error) {
	mode, err := l2frames.ParseReturnMode(c.GetReturnMode())
	if err != nil {
		return l2frames.Options{}, err
	}
	suffix, err := parse.ParseSequenceSuffix(c.GetSequenceSuffix())
	if err != nil {
		return l2frames.Options{}, err
	}
	return l2frames.Options{
		ScanPhase:                   c.GetScanPhase(),
		DualReturnDistanceThreshold: ptrFloat64(c.GetDualReturnDistanceThreshold()),
		ReturnMode:                  mode,
		SequenceSuffix:              suffix,
	}, nil
}

// Calibration returns the angle corrections, loading calibration_file when
// set. It errors when neither source is configured.
func (c *DecoderConfig) Calibration() (l2frames.Calibration, error) {
	if path := c.GetCalibrationFile(); path != "" {
		return l2frames.LoadCalibrationFile(path)
	}
	if len(c.Elevation) == 0 && len(c.AzimuthOffset) == 0 {
		return l2frames.Calibration{}, fmt.Errorf("no calibration configured: set calibration_file or elevation/azimuth_offset")
	}
	return l2frames.Calibration{Elevation: c.Elevation, AzimuthOffset: c.AzimuthOffset}, nil
}

// NewDecoder builds the decoder described by the config.
func (c *DecoderConfig) NewDecoder() (l2frames.Decoder, error) {
	model, err := c.DecoderModel()
	if err != nil {
		return nil, err
	}
	opts, err := c.DecoderOptions()
	if err != nil {
		return nil, err
	}
	cal, err := c.Calibration()
	if err != nil {
		return nil, err
	}
	return l2frames.NewDecoder(model, cal, opts)
}
