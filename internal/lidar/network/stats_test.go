package network

import (
	"bytes"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestPacketStats_GetAndReset(t *testing.T) {
	ps := NewPacketStats()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ps.AddPacket(100)
			ps.AddPoints(40)
			ps.AddDropped()
		}()
	}
	wg.Wait()

	packets, bytes, dropped, points, duration := ps.GetAndReset()
	if packets != 8 || bytes != 800 || dropped != 8 || points != 320 {
		t.Fatalf("got packets=%d bytes=%d dropped=%d points=%d", packets, bytes, dropped, points)
	}
	if duration < 0 || duration > time.Minute {
		t.Errorf("unexpected interval %v", duration)
	}

	packets, _, _, _, _ = ps.GetAndReset()
	if packets != 0 {
		t.Errorf("counters not reset: %d", packets)
	}
}

func TestPacketStats_LogStats(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	ps := NewPacketStats()
	ps.AddPacket(1262)
	ps.AddPoints(400)
	ps.LogStats(true)
	if !strings.Contains(buf.String(), "Packets: 1") || !strings.Contains(buf.String(), "points: 400") {
		t.Errorf("unexpected log line %q", buf.String())
	}

	buf.Reset()
	ps.AddPacket(1262)
	ps.LogStats(false)
	if strings.Contains(buf.String(), "points:") {
		t.Errorf("points reported without parsing: %q", buf.String())
	}
}

func TestNoopStats(t *testing.T) {
	var s PacketStatsInterface = &noopStats{}
	s.AddPacket(1)
	s.AddDropped()
	s.AddPoints(1)
	s.LogStats(true)
}
