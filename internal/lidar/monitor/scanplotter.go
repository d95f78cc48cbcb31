package monitor

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pandarscan/internal/lidar/pipeline"
	"github.com/banshee-data/pandarscan/internal/security"
)

// ScanPlotter renders every Nth scan as an X/Y scatter coloured by ring.
type ScanPlotter struct {
	mu        sync.Mutex
	outputDir string
	sensorID  string
	every     uint64
	written   []string

	// Plot extent in metres either side of the sensor.
	Extent float64
}

// NewScanPlotter creates outputDir and returns a plotter that renders one
// scan in every. every <= 1 renders all scans.
func NewScanPlotter(sensorID, outputDir string, every int) (*ScanPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if every < 1 {
		every = 1
	}
	return &ScanPlotter{
		outputDir: outputDir,
		sensorID:  sensorID,
		every:     uint64(every),
		Extent:    50,
	}, nil
}

// WriteScan renders scan when its sequence is selected. Scans without points
// are skipped.
func (sp *ScanPlotter) WriteScan(ctx context.Context, scan *pipeline.Scan) error {
	if scan.Sequence%sp.every != 0 || len(scan.Points) == 0 {
		return nil
	}

	byRing := make(map[uint16]plotter.XYs)
	maxRing := uint16(0)
	for _, pt := range scan.Points {
		if math.Abs(pt.X) > sp.Extent || math.Abs(pt.Y) > sp.Extent {
			continue
		}
		byRing[pt.Ring] = append(byRing[pt.Ring], plotter.XY{X: pt.X, Y: pt.Y})
		maxRing = max(maxRing, pt.Ring)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s scan %d - %d points", scan.SensorID, scan.Sequence, len(scan.Points))
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.X.Min, p.X.Max = -sp.Extent, sp.Extent
	p.Y.Min, p.Y.Max = -sp.Extent, sp.Extent
	p.Add(plotter.NewGrid())

	colors := ringColors(int(maxRing) + 1)
	for ring := uint16(0); ring <= maxRing; ring++ {
		pts, ok := byRing[ring]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("ring %d: %w", ring, err)
		}
		s.GlyphStyle.Color = colors[ring]
		s.GlyphStyle.Radius = vg.Points(0.6)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}

	file := filepath.Join(sp.outputDir, fmt.Sprintf("%s_scan_%06d.png", security.SanitizeFilename(sp.sensorID), scan.Sequence))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("save scan plot: %w", err)
	}

	sp.mu.Lock()
	sp.written = append(sp.written, file)
	sp.mu.Unlock()
	diagf("wrote scan plot %s", file)
	return nil
}

// Files returns the paths written so far.
func (sp *ScanPlotter) Files() []string {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return append([]string(nil), sp.written...)
}

// ringColors spreads n rings over the hues from red (ring 0) to blue.
func ringColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	return palette.Rainbow(n, palette.Red, palette.Blue, 1, 0.9, 1).Colors()
}
