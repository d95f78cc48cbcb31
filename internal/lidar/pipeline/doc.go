// Package pipeline wires packet replay to scan decoding and hands every
// completed scan to a set of sinks (storage, plots, logging).
//
// This package is the composition root: it imports from layer packages
// (network, l2frames) but none of those packages import pipeline/.
package pipeline
