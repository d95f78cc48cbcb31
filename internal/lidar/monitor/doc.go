// Package monitor renders completed scans for offline inspection.
//
// ScanPlotter writes a top-down PNG per scan using gonum/plot, and
// ScanChart writes an interactive go-echarts HTML page. Both implement
// pipeline.ScanSink and can be attached to a replay.
package monitor
