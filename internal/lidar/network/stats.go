package network

import (
	"log"
	"sync"
	"time"
)

// PacketStatsInterface provides packet statistics management
type PacketStatsInterface interface {
	AddPacket(bytes int)
	AddDropped()
	AddPoints(count int)
	LogStats(parsePackets bool)
}

// noopStats is a PacketStatsInterface implementation that does nothing.
// It is used as a safe default when no stats collector is provided.
type noopStats struct{}

func (n *noopStats) AddPacket(bytes int)        {}
func (n *noopStats) AddDropped()                {}
func (n *noopStats) AddPoints(count int)        {}
func (n *noopStats) LogStats(parsePackets bool) {}

// PacketStats accumulates replay counters between reports. It is safe for
// concurrent use.
type PacketStats struct {
	mu           sync.Mutex
	packetCount  int64
	byteCount    int64
	droppedCount int64
	pointCount   int64
	lastReset    time.Time
}

// NewPacketStats returns a collector whose first interval starts now.
func NewPacketStats() *PacketStats {
	return &PacketStats{lastReset: time.Now()}
}

func (ps *PacketStats) AddPacket(bytes int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.packetCount++
	ps.byteCount += int64(bytes)
}

func (ps *PacketStats) AddDropped() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.droppedCount++
}

func (ps *PacketStats) AddPoints(count int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.pointCount += int64(count)
}

// GetAndReset returns the counters for the interval since the last reset
// and starts a new interval.
func (ps *PacketStats) GetAndReset() (packets int64, bytes int64, dropped int64, points int64, duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := time.Now()
	duration = now.Sub(ps.lastReset)
	packets = ps.packetCount
	bytes = ps.byteCount
	dropped = ps.droppedCount
	points = ps.pointCount

	ps.packetCount = 0
	ps.byteCount = 0
	ps.droppedCount = 0
	ps.pointCount = 0
	ps.lastReset = now

	return
}

// LogStats reports and resets the current interval.
func (ps *PacketStats) LogStats(parsePackets bool) {
	packets, bytes, dropped, points, duration := ps.GetAndReset()
	secs := duration.Seconds()
	if secs <= 0 {
		secs = 1
	}
	if parsePackets {
		log.Printf("Packets: %d (%.1f pkt/s, %.2f MB/s), dropped: %d, points: %d (%.0f pts/s)",
			packets, float64(packets)/secs, float64(bytes)/secs/1e6, dropped, points, float64(points)/secs)
		return
	}
	log.Printf("Packets: %d (%.1f pkt/s, %.2f MB/s), dropped: %d",
		packets, float64(packets)/secs, float64(bytes)/secs/1e6, dropped)
}
