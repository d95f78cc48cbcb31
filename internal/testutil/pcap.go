package testutil

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PCAPFrame is one datagram to write into a synthetic capture.
type PCAPFrame struct {
	Payload  []byte
	DstPort  uint16
	Captured time.Time
}

// WritePCAP writes frames as Ethernet/IPv4/UDP records in classic pcap
// format. Frames with a zero Captured time are stamped 1 ms apart from
// DefaultCaptureTime.
func WritePCAP(w io.Writer, frames []PCAPFrame) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("write pcap header: %w", err)
	}

	for i, f := range frames {
		data, err := udpFrame(f.Payload, f.DstPort)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		ts := f.Captured
		if ts.IsZero() {
			ts = DefaultCaptureTime.Add(time.Duration(i) * time.Millisecond)
		}
		ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(data), Length: len(data)}
		if err := pw.WritePacket(ci, data); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// DefaultCaptureTime is the capture timestamp of the first synthetic frame.
var DefaultCaptureTime = time.Date(2021, time.June, 15, 12, 30, 45, 0, time.UTC)

// UDPFrames wraps payloads as frames addressed to port.
func UDPFrames(port uint16, payloads ...[]byte) []PCAPFrame {
	frames := make([]PCAPFrame, len(payloads))
	for i, p := range payloads {
		frames[i] = PCAPFrame{Payload: p, DstPort: port}
	}
	return frames
}

func udpFrame(payload []byte, dstPort uint16) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x0f, 0x53, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(192, 168, 1, 201),
		DstIP:    net.IPv4(255, 255, 255, 255),
	}
	udp := &layers.UDP{
		SrcPort: 10000,
		DstPort: layers.UDPPort(dstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
