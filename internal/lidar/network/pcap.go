package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/pandarscan/internal/timeutil"
)

// PacketHandler consumes UDP payloads in capture order. The payload is only
// valid for the duration of the call.
type PacketHandler interface {
	HandlePacket(ctx context.Context, payload []byte, captured time.Time) error
}

// PacketHandlerFunc adapts a function to PacketHandler.
type PacketHandlerFunc func(ctx context.Context, payload []byte, captured time.Time) error

func (f PacketHandlerFunc) HandlePacket(ctx context.Context, payload []byte, captured time.Time) error {
	return f(ctx, payload, captured)
}

// ReplayConfig configures PCAP replay.
type ReplayConfig struct {
	// UDPPort keeps only datagrams to or from this port. Zero keeps all UDP.
	UDPPort int

	// SpeedMultiplier paces replay against capture timestamps (1.0 = real
	// time, 2.0 = twice as fast). Zero replays as fast as possible.
	SpeedMultiplier float64

	// Stats receives packet, drop and byte counts. Optional.
	Stats PacketStatsInterface

	// ProgressInterval logs progress every N packets. Zero uses 10000.
	ProgressInterval int

	// Clock paces replay. Nil uses the wall clock.
	Clock timeutil.Clock
}

// ReplayResult summarises one replay.
type ReplayResult struct {
	Packets  uint64 // UDP payloads handed to the handler
	Errors   uint64 // payloads the handler rejected
	Skipped  uint64 // frames that were not matching UDP
	Elapsed  time.Duration
	FirstCap time.Time
	LastCap  time.Time
}

// pcapngMagic is the section header block type that opens a pcapng file.
var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

// packetDataSource is satisfied by both pcapgo.Reader and pcapgo.NgReader.
type packetDataSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func openCapture(r io.Reader) (packetDataSource, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if string(magic) == string(pcapngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcapng stream: %w", err)
		}
		return ng, nil
	}
	rd, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap stream: %w", err)
	}
	return rd, nil
}

// ReadPCAPFile replays the UDP payloads in a pcap or pcapng file into handler.
func ReadPCAPFile(ctx context.Context, pcapFile string, handler PacketHandler, cfg ReplayConfig) (ReplayResult, error) {
	f, err := os.Open(pcapFile)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer f.Close()

	log.Printf("PCAP replay: %s (udp port %d, speed %.1fx)", pcapFile, cfg.UDPPort, cfg.SpeedMultiplier)
	return ReadPCAP(ctx, f, handler, cfg)
}

// ReadPCAP replays a capture stream into handler. Handler errors are counted
// and logged but do not stop the replay; a cancelled context does.
func ReadPCAP(ctx context.Context, r io.Reader, handler PacketHandler, cfg ReplayConfig) (ReplayResult, error) {
	stats := cfg.Stats
	if stats == nil {
		stats = &noopStats{}
	}
	progress := cfg.ProgressInterval
	if progress <= 0 {
		progress = 10000
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	var res ReplayResult
	startTime := clock.Now()
	err := forEachUDP(ctx, r, cfg.UDPPort, &res, func(payload []byte, captured time.Time) error {
		if cfg.SpeedMultiplier > 0 && !res.LastCap.IsZero() {
			delay := time.Duration(float64(captured.Sub(res.LastCap)) / cfg.SpeedMultiplier)
			if delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-clock.After(delay):
				}
			}
		}
		if res.FirstCap.IsZero() {
			res.FirstCap = captured
		}
		res.LastCap = captured
		res.Packets++
		stats.AddPacket(len(payload))

		if handler != nil {
			if err := handler.HandlePacket(ctx, payload, captured); err != nil {
				res.Errors++
				stats.AddDropped()
				if res.Errors <= 10 || res.Errors%1000 == 0 {
					log.Printf("Error handling PCAP packet %d: %v", res.Packets, err)
				}
			}
		}

		if res.Packets%uint64(progress) == 0 {
			elapsed := clock.Since(startTime)
			log.Printf("PCAP progress: %d packets processed in %v (%.0f pkt/s)",
				res.Packets, elapsed, float64(res.Packets)/elapsed.Seconds())
		}
		return nil
	})
	res.Elapsed = clock.Since(startTime)
	if err != nil {
		log.Printf("PCAP replay stopped after %d packets: %v", res.Packets, err)
		return res, err
	}
	log.Printf("PCAP replay complete: %d packets (%d rejected, %d skipped) in %v",
		res.Packets, res.Errors, res.Skipped, res.Elapsed)
	return res, nil
}

// CountPCAPPackets counts the UDP payloads matching udpPort in a capture
// file. This enables progress reporting before a replay starts.
func CountPCAPPackets(pcapFile string, udpPort int) (uint64, error) {
	f, err := os.Open(pcapFile)
	if err != nil {
		return 0, fmt.Errorf("failed to open PCAP file %s for counting: %w", pcapFile, err)
	}
	defer f.Close()

	var (
		res   ReplayResult
		count uint64
	)
	err = forEachUDP(context.Background(), f, udpPort, &res, func([]byte, time.Time) error {
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	log.Printf("PCAP packet count: %d packets on udp port %d in %s", count, udpPort, pcapFile)
	return count, nil
}

// forEachUDP decodes every frame in r and calls fn with the payload of each
// non-empty UDP datagram on udpPort. Other frames are counted in res.Skipped.
// A truncated final record ends the stream quietly.
func forEachUDP(ctx context.Context, r io.Reader, udpPort int, res *ReplayResult, fn func([]byte, time.Time) error) error {
	src, err := openCapture(r)
	if err != nil {
		return err
	}

	packetSource := gopacket.NewPacketSource(src, src.LinkType())
	packetSource.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		packet, err := packetSource.NextPacket()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("failed to read capture record: %w", err)
		}

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			res.Skipped++
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			res.Skipped++
			continue
		}
		if udpPort != 0 && int(udp.DstPort) != udpPort && int(udp.SrcPort) != udpPort {
			res.Skipped++
			continue
		}
		if len(udp.Payload) == 0 {
			res.Skipped++
			continue
		}

		if err := fn(udp.Payload, packet.Metadata().Timestamp); err != nil {
			return err
		}
	}
}
