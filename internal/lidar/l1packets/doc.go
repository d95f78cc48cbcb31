// Package l1packets owns Layer 1 (Packets) of the LiDAR data model.
//
// Responsibilities: PCAP replay of raw UDP payloads and low-level byte
// parsing of Hesai Pandar40P and PandarXT32 packets. This layer produces
// structured packets consumed by L2 (Frames).
//
// Dependency rule: L1 has no inward dependencies on higher layers.
package l1packets
