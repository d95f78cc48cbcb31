// Package l2frames owns Layer 2 (Frames) of the LiDAR data model.
//
// Responsibilities: turning parsed Hesai packets into calibrated,
// timestamped Cartesian points, resolving multi-echo return modes, and
// segmenting the point stream into full-rotation scans. Key types: Point,
// Calibration, TimingTables, Decoder.
//
// Dependency rule: L2 may depend on L1 (parse), but never on higher layers.
//
// A Decoder is stateful and not safe for concurrent use; run one per
// sensor stream and feed it from a single goroutine. Calibration and
// TimingTables values are read-only after construction and may be shared.
package l2frames
