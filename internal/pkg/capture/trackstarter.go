package capture

import (
	"context"
	"os"
	"strings"

	"github.com/endorses/flowcat/internal/pkg/capture/pcaptypes"
	"github.com/endorses/flowcat/internal/pkg/decode"
	"github.com/endorses/flowcat/internal/pkg/logger"
	"github.com/endorses/flowcat/internal/pkg/output"
	"github.com/endorses/flowcat/internal/pkg/tracker"
	"github.com/google/gopacket/layers"
	"github.com/spf13/viper"
)

// EventSink consumes transition events produced by the processing loop.
type EventSink interface {
	Write(*tracker.Event) error
}

// StartLiveTracker tracks connections on one or more live interfaces
// (comma separated) until the context is cancelled.
func StartLiveTracker(ctx context.Context, interfaces, filter string, jsonOut bool) {
	var devices []pcaptypes.PcapInterface
	for _, device := range strings.Split(interfaces, ",") {
		devices = append(devices, pcaptypes.CreateLiveInterface(strings.TrimSpace(device)))
	}
	StartTracker(ctx, devices, filter, jsonOut)
}

// StartOfflineTracker tracks connections from a pcap file and returns
// when the file is exhausted.
func StartOfflineTracker(ctx context.Context, readFile, filter string, jsonOut bool) {
	file, err := os.Open(readFile)
	if err != nil {
		logger.Error("Could not read file",
			"file", readFile,
			"error", err)
		return
	}
	defer file.Close()

	devices := []pcaptypes.PcapInterface{pcaptypes.CreateOfflineInterface(file)}
	StartTracker(ctx, devices, filter, jsonOut)
}

// StartTracker wires the capture sources to a fresh tracker instance and
// a stdout renderer, then runs the processing loop to completion.
func StartTracker(ctx context.Context, devices []pcaptypes.PcapInterface, filter string, jsonOut bool) {
	trk := tracker.New(tracker.Config{
		FlowIdleTTL:   viper.GetDuration("flow_idle_ttl"),
		SweepInterval: viper.GetDuration("flow_sweep_interval"),
	})
	defer trk.Close()

	sink := output.NewRenderer(os.Stdout, jsonOut)

	logger.Info("Starting connection tracker", "filter", filter)
	Init(ctx, devices, filter, func(ch <-chan FrameInfo) {
		processFrames(ctx, ch, trk, sink)
	})
	logger.Info("Capture finished", "tracked_flows", trk.Flows())
}

// processFrames drains the frame channel one frame at a time:
// decode -> state machine step -> event rendering. Frames that are not
// Ethernet/IPv4/TCP are skipped; malformed frames are dropped with a
// warning and never touch the connection table.
func processFrames(ctx context.Context, ch <-chan FrameInfo, trk *tracker.Tracker, sink EventSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if frame.LinkType != layers.LinkTypeEthernet {
				logger.Debug("Skipping non-Ethernet frame", "link_type", frame.LinkType)
				continue
			}
			pkt, err := decode.Decode(frame.Data)
			if err != nil {
				if decode.IsNotApplicable(err) {
					continue
				}
				logger.Warn("Dropping malformed frame",
					"length", len(frame.Data),
					"error", err)
				continue
			}
			ev := trk.Process(pkt, frame.Timestamp)
			if ev == nil {
				continue
			}
			if err := sink.Write(ev); err != nil {
				logger.Error("Could not write event", "error", err)
			}
		}
	}
}
