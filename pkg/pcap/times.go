// Package pcap extracts per-frame timing from capture files. Frame numbers
// are assigned by capture order, starting at 1, matching the numbering the
// external decoder uses.
package pcap

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// FrameTimes reads every frame in the capture and returns frame number →
// fractional epoch seconds. No protocol filter is applied.
func FrameTimes(filePath string) (map[int]float64, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	times := make(map[int]float64)
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	frame := 0
	for packet := range packetSource.Packets() {
		frame++
		meta := packet.Metadata()
		if meta == nil || meta.Timestamp.IsZero() {
			continue
		}
		times[frame] = float64(meta.Timestamp.UnixNano()) / float64(time.Second)
	}
	return times, nil
}
