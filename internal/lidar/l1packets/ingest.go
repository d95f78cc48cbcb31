package l1packets

import (
	"github.com/banshee-data/pandarscan/internal/lidar/network"
	"github.com/banshee-data/pandarscan/internal/lidar/parse"
)

// Type aliases re-export packet ingestion and parsing types from
// the network/ and parse/ subpackages. These aliases enable callers
// to import from l1packets while the implementation remains in
// dedicated subpackages.

// Ingestion types (from network/).

// PacketHandler consumes replayed UDP payloads.
type PacketHandler = network.PacketHandler

// PacketHandlerFunc adapts a function to PacketHandler.
type PacketHandlerFunc = network.PacketHandlerFunc

// ReplayConfig configures PCAP replay.
type ReplayConfig = network.ReplayConfig

// ReplayResult summarises one replay.
type ReplayResult = network.ReplayResult

// PacketStats accumulates packet counters between reports.
type PacketStats = network.PacketStats

// Constructor and function re-exports.

// NewPacketStats creates a packet statistics collector.
var NewPacketStats = network.NewPacketStats

// ReadPCAPFile replays a pcap or pcapng file.
var ReadPCAPFile = network.ReadPCAPFile

// CountPCAPPackets counts matching UDP payloads in a capture file.
var CountPCAPPackets = network.CountPCAPPackets

// Parsing types (from parse/).

// Packet is one decoded sensor packet.
type Packet = parse.Packet

// SequenceSuffix selects accepted Pandar40P payload lengths.
type SequenceSuffix = parse.SequenceSuffix

// ErrMalformedPacket is wrapped by every parse failure.
var ErrMalformedPacket = parse.ErrMalformedPacket

// ParsePandar40P parses a Pandar40P payload.
var ParsePandar40P = parse.ParsePandar40P

// ParsePandarXT32 parses a PandarXT32 payload.
var ParsePandarXT32 = parse.ParsePandarXT32

// ParseSequenceSuffix maps a configuration string to a SequenceSuffix.
var ParseSequenceSuffix = parse.ParseSequenceSuffix
