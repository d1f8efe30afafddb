// Package capture acquires raw frames from pcap sources and feeds them to
// the connection tracker.
package capture

import (
	"context"
	"sync"
	"time"

	"github.com/endorses/flowcat/internal/pkg/capture/pcaptypes"
	"github.com/endorses/flowcat/internal/pkg/constants"
	"github.com/endorses/flowcat/internal/pkg/logger"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// FrameInfo carries one captured frame: the raw bytes, the capture
// timestamp, and the link type of the source handle.
type FrameInfo struct {
	Data      []byte
	Timestamp time.Time
	LinkType  layers.LinkType
}

// Init opens every interface, runs one capture goroutine per interface
// pushing frames into a shared channel, and blocks until the single
// processor goroutine has drained it. The processor being singular is what
// preserves strict per-frame ordering for the state machine.
func Init(ctx context.Context, ifaces []pcaptypes.PcapInterface, filter string, processor func(<-chan FrameInfo)) {
	frameChan := make(chan FrameInfo, constants.FrameChannelBuffer)
	var wg sync.WaitGroup
	var processorWg sync.WaitGroup
	processorWg.Add(1)
	for _, iface := range ifaces {
		wg.Add(1)
		go func(pif pcaptypes.PcapInterface) {
			defer wg.Done()
			if err := pif.SetHandle(); err != nil {
				logger.Error("Could not open capture handle",
					"interface", pif.Name(),
					"error", err)
				return
			}
			handle, err := pif.Handle()
			if err != nil {
				logger.Error("Interface has no usable handle",
					"interface", pif.Name(),
					"error", err)
				return
			}
			defer handle.Close()
			captureFromInterface(ctx, pif, filter, frameChan)
		}(iface)
	}
	go func() {
		wg.Wait()
		close(frameChan)
	}()
	go func() {
		defer processorWg.Done()
		processor(frameChan)
	}()
	processorWg.Wait()
}

func captureFromInterface(ctx context.Context, iface pcaptypes.PcapInterface, filter string, ch chan<- FrameInfo) {
	handle, err := iface.Handle()
	if err != nil {
		logger.Error("Unable to get handle", "interface", iface.Name(), "error", err)
		return
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			logger.Error("Error setting BPF filter",
				"interface", iface.Name(),
				"filter", filter,
				"error", err)
			return
		}
	}
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packets := packetSource.Packets()
	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-packets:
			if !ok {
				return
			}
			ch <- FrameInfo{
				Data:      packet.Data(),
				Timestamp: packet.Metadata().Timestamp,
				LinkType:  handle.LinkType(),
			}
		}
	}
}
