package l2frames

import (
	"gonum.org/v1/gonum/stat"
)

// ScanSummary condenses one completed scan into a few statistics.
type ScanSummary struct {
	Points        int
	StartTime     float64 // earliest point timestamp, Unix seconds
	EndTime       float64 // latest point timestamp, Unix seconds
	MeanDistance  float64
	StdDistance   float64
	MeanIntensity float64
	MinAzimuth    int // 0.01 degree units
	MaxAzimuth    int
	ReturnTypes   map[ReturnType]int
}

// Summarize computes a ScanSummary for pts. An empty scan yields a zero
// summary with an empty ReturnTypes map.
func Summarize(pts []Point) ScanSummary {
	s := ScanSummary{Points: len(pts), ReturnTypes: make(map[ReturnType]int)}
	if len(pts) == 0 {
		return s
	}

	dist := make([]float64, len(pts))
	inten := make([]float64, len(pts))
	s.StartTime, s.EndTime = pts[0].Timestamp, pts[0].Timestamp
	s.MinAzimuth, s.MaxAzimuth = pts[0].Azimuth, pts[0].Azimuth
	for i, p := range pts {
		dist[i] = p.Distance
		inten[i] = float64(p.Intensity)
		s.StartTime = min(s.StartTime, p.Timestamp)
		s.EndTime = max(s.EndTime, p.Timestamp)
		s.MinAzimuth = min(s.MinAzimuth, p.Azimuth)
		s.MaxAzimuth = max(s.MaxAzimuth, p.Azimuth)
		s.ReturnTypes[p.ReturnType]++
	}

	if len(pts) > 1 {
		s.MeanDistance, s.StdDistance = stat.MeanStdDev(dist, nil)
	} else {
		s.MeanDistance = dist[0]
	}
	s.MeanIntensity = stat.Mean(inten, nil)
	return s
}

// Duration returns the time spanned by the scan in seconds.
func (s ScanSummary) Duration() float64 {
	return s.EndTime - s.StartTime
}
