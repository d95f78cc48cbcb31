// Command pandar-decode replays a Hesai Pandar40P or PandarXT32 capture
// through the scan decoder and hands each completed rotation to the
// configured sinks: a SQLite summary store, PNG plots and HTML charts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/banshee-data/pandarscan/internal/config"
	"github.com/banshee-data/pandarscan/internal/lidar"
	"github.com/banshee-data/pandarscan/internal/lidar/l1packets"
	"github.com/banshee-data/pandarscan/internal/lidar/monitor"
	"github.com/banshee-data/pandarscan/internal/lidar/pipeline"
	"github.com/banshee-data/pandarscan/internal/lidardb"
	"github.com/banshee-data/pandarscan/internal/version"
)

// options holds the parsed command line.
type options struct {
	ConfigPath  string
	Calibration string
	Model       string
	PCAPFile    string
	UDPPort     int
	Speed       float64
	DBPath      string
	PlotDir     string
	ChartDir    string
	PlotEvery   int
	LogFile     string
	Debug       bool
	Trace       bool
	Version     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("pandar-decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.ConfigPath, "config", "", "decoder config file (.json, .yaml)")
	fs.StringVar(&o.Calibration, "calibration", "", "angle correction CSV (overrides config)")
	fs.StringVar(&o.Model, "model", "", "sensor model: pandar40p or pandarxt32 (overrides config)")
	fs.StringVar(&o.PCAPFile, "pcap", "", "capture file to replay (pcap or pcapng)")
	fs.IntVar(&o.UDPPort, "udp-port", 0, "UDP port carrying sensor data (overrides config)")
	fs.Float64Var(&o.Speed, "speed", 0, "replay speed multiplier; 0 replays as fast as possible")
	fs.StringVar(&o.DBPath, "db", "", "SQLite database for scan summaries")
	fs.StringVar(&o.PlotDir, "plot-dir", "", "base directory for PNG scan plots")
	fs.StringVar(&o.ChartDir, "chart-dir", "", "base directory for HTML scan charts")
	fs.IntVar(&o.PlotEvery, "plot-every", 10, "render one scan in N")
	fs.StringVar(&o.LogFile, "log-file", "", "also write the ops log to this rotated file")
	fs.BoolVar(&o.Debug, "debug", false, "enable diagnostic logging")
	fs.BoolVar(&o.Trace, "trace", false, "enable per-packet trace logging")
	fs.BoolVar(&o.Version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if !o.Version && o.PCAPFile == "" {
		return o, fmt.Errorf("-pcap is required")
	}
	return o, nil
}

// setupLogging routes every package's streams. The returned func closes the
// rotated log file, if any.
func setupLogging(o options, stderr io.Writer) func() {
	ops := stderr
	var rotator *lumberjack.Logger
	if o.LogFile != "" {
		rotator = &lumberjack.Logger{
			Filename:   o.LogFile,
			MaxSize:    25,
			MaxAge:     7,
			MaxBackups: 5,
		}
		ops = io.MultiWriter(stderr, rotator)
	}
	log.SetOutput(ops)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	w := lidar.LogWriters{Ops: ops}
	if o.Debug || o.Trace {
		w.Diag = ops
	}
	if o.Trace {
		w.Trace = ops
	}
	lidar.SetLogWriters(w)

	return func() {
		if rotator != nil {
			rotator.Close()
		}
	}
}

func loadConfig(o options) (*config.DecoderConfig, error) {
	cfg := config.DefaultDecoderConfig()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadDecoderConfig(o.ConfigPath); err != nil {
			return nil, err
		}
	}
	if o.Model != "" {
		cfg.Model = &o.Model
	}
	if o.Calibration != "" {
		cfg.CalibrationFile = &o.Calibration
		cfg.Elevation, cfg.AzimuthOffset = nil, nil
	}
	if o.UDPPort != 0 {
		cfg.UDPPort = &o.UDPPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run replays the capture and writes a summary to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.Version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	closeLog := setupLogging(o, stderr)
	defer closeLog()

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	dec, err := cfg.NewDecoder()
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	sensorID := cfg.GetSensorID()

	var sinks []pipeline.ScanSink
	sinks = append(sinks, pipeline.ScanSinkFunc(func(_ context.Context, scan *pipeline.Scan) error {
		fmt.Fprintf(stdout, "scan %d: %d points, %.1f ms, azimuth %d-%d, mean range %.2f m\n",
			scan.Sequence, scan.Summary.Points, scan.Summary.Duration()*1000,
			scan.Summary.MinAzimuth, scan.Summary.MaxAzimuth, scan.Summary.MeanDistance)
		return nil
	}))

	if o.DBPath != "" {
		ldb, err := lidardb.NewLidarDB(o.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer ldb.Close()
		session, err := lidardb.NewSessionSink(ldb, sensorID, dec.Model().String(), o.PCAPFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := session.Close(); err != nil {
				log.Printf("failed to end session %s: %v", session.SessionID(), err)
			}
		}()
		sinks = append(sinks, session)
		lidar.Diagf("recording scans to %s (session %s)", o.DBPath, session.SessionID())
	}

	if o.PlotDir != "" {
		plotter, err := monitor.NewScanPlotter(sensorID, monitor.MakePlotOutputDir(o.PlotDir, o.PCAPFile), o.PlotEvery)
		if err != nil {
			return err
		}
		sinks = append(sinks, plotter)
	}

	if o.ChartDir != "" {
		chart, err := monitor.NewScanChart(monitor.MakePlotOutputDir(o.ChartDir, o.PCAPFile), o.PlotEvery, 4)
		if err != nil {
			return err
		}
		sinks = append(sinks, chart)
	}

	stats := l1packets.NewPacketStats()
	pipe, err := pipeline.NewScanPipeline(pipeline.ScanPipelineConfig{
		SensorID:       sensorID,
		Decoder:        dec,
		Sinks:          sinks,
		Stats:          stats,
		KeepEmptyScans: cfg.GetKeepEmptyScans(),
	})
	if err != nil {
		return err
	}

	lidar.Opsf("replaying %s as %s (%s) on UDP port %d", o.PCAPFile, sensorID, dec.Model(), cfg.GetUDPPort())
	res, err := l1packets.ReadPCAPFile(ctx, o.PCAPFile, pipe, l1packets.ReplayConfig{
		UDPPort:         cfg.GetUDPPort(),
		SpeedMultiplier: o.Speed,
		Stats:           stats,
	})
	pipe.Close()
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	st := dec.Stats()
	fmt.Fprintf(stdout, "%s: %d packets (%d rejected, %d skipped), %d malformed, %d mode mismatches\n",
		sensorID, res.Packets, res.Errors, res.Skipped, st.Malformed, st.ModeMismatches)
	fmt.Fprintf(stdout, "%s: %d points, %d scans delivered, %d empty scans skipped in %s\n",
		sensorID, st.Points, pipe.Scans(), pipe.SkippedScans(), res.Elapsed)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatalf("pandar-decode: %v", err)
	}
}
