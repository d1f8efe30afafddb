// Package pcaptypes abstracts live and offline pcap capture handles.
package pcaptypes

import (
	"os"

	"github.com/google/gopacket/pcap"
)

// MaxPcapSnapshotLen captures full frames; 65535 covers the largest
// Ethernet frame we can see.
const MaxPcapSnapshotLen = 65535

type PcapInterface interface {
	SetHandle() error
	Handle() (*pcap.Handle, error)
	Name() string
}

func CreateLiveInterface(device string) PcapInterface {
	return &liveInterface{Device: device}
}

func CreateOfflineInterface(file *os.File) PcapInterface {
	return &offlineInterface{file: file}
}
