package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pandarscan/internal/lidar/pipeline"
	"github.com/banshee-data/pandarscan/internal/security"
)

// viridis ramp used for intensity.
var intensityRamp = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ScanChart writes every Nth scan as an HTML scatter coloured by intensity.
type ScanChart struct {
	outputDir string
	every     uint64
	stride    int

	// AssetsHost overrides the echarts JS location, for offline viewing.
	AssetsHost string
}

// NewScanChart creates outputDir. stride thins the points drawn so pages stay
// responsive; values below 1 draw every point.
func NewScanChart(outputDir string, every, stride int) (*ScanChart, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &ScanChart{outputDir: outputDir, every: uint64(max(every, 1)), stride: max(stride, 1)}, nil
}

func (sc *ScanChart) WriteScan(ctx context.Context, scan *pipeline.Scan) error {
	if scan.Sequence%sc.every != 0 || len(scan.Points) == 0 {
		return nil
	}

	data := make([]opts.ScatterData, 0, len(scan.Points)/sc.stride+1)
	pad := 1.0
	for i := 0; i < len(scan.Points); i += sc.stride {
		pt := scan.Points[i]
		data = append(data, opts.ScatterData{Value: []interface{}{pt.X, pt.Y, int(pt.Intensity)}})
		pad = max(pad, abs(pt.X), abs(pt.Y))
	}

	initOpts := opts.Initialization{PageTitle: "LiDAR Scan", Theme: "dark", Width: "900px", Height: "900px"}
	if sc.AssetsHost != "" {
		initOpts.AssetsHost = sc.AssetsHost
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s scan %d", scan.SensorID, scan.Sequence), Subtitle: fmt.Sprintf("model=%s points=%d stride=%d", scan.Model, len(scan.Points), sc.stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        255,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: intensityRamp},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))

	file := filepath.Join(sc.outputDir, fmt.Sprintf("%s_scan_%06d.html", security.SanitizeFilename(scan.SensorID), scan.Sequence))
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create scan chart: %w", err)
	}
	if err := scatter.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render scan chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	tracef("wrote scan chart %s (%d of %d points)", file, len(data), len(scan.Points))
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
