package track

import (
	"context"

	"github.com/endorses/flowcat/internal/pkg/capture"
	"github.com/endorses/flowcat/internal/pkg/signals"
	"github.com/spf13/cobra"
)

var TrackCmd = &cobra.Command{
	Use:   "track",
	Short: "Start flowcat in track mode",
	Long:  `Start flowcat in track mode. Follow TCP connection state on the specified device or pcap file.`,
	Run:   trackConnections,
}

var (
	interfaces string
	filter     string
	readFile   string
	jsonOut    bool
)

func trackConnections(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup := signals.SetupHandler(ctx, cancel)
	defer cleanup()

	if readFile == "" {
		capture.StartLiveTracker(ctx, interfaces, filter, jsonOut)
	} else {
		capture.StartOfflineTracker(ctx, readFile, filter, jsonOut)
	}
}

func init() {
	TrackCmd.PersistentFlags().StringVarP(&interfaces, "interface", "i", "any", "interface(s) to monitor, comma separated")
	TrackCmd.PersistentFlags().StringVarP(&filter, "filter", "f", "", "bpf filter to apply")
	TrackCmd.PersistentFlags().StringVarP(&readFile, "read-file", "r", "", "read from pcap file")
	TrackCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit events as JSON")
}
