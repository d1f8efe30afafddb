package pcaptypes

import (
	"errors"
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/spf13/viper"
)

// DefaultPcapBufferSize is the default kernel buffer size for packet capture.
// The default libpcap value (~2MB) causes kernel drops on busy interfaces.
const DefaultPcapBufferSize = 16 * 1024 * 1024 // 16MB

type liveInterface struct {
	Device string
	handle *pcap.Handle
}

func (iface *liveInterface) SetHandle() error {
	// Close existing handle if it exists to prevent leaks
	if iface.handle != nil {
		iface.handle.Close()
		iface.handle = nil
	}

	promiscuous := viper.GetBool("promiscuous")

	// A finite read timeout keeps the capture goroutine responsive to
	// context cancellation; BlockForever would hang it on a quiet link.
	// Configure via pcap_timeout_ms in the config file or env.
	timeoutMs := viper.GetInt("pcap_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 200
	}
	timeout := time.Duration(timeoutMs) * time.Millisecond

	// Configurable kernel buffer size for high-traffic interfaces.
	// Configure via pcap_buffer_size in the config file or env.
	bufferSize := viper.GetInt("pcap_buffer_size")
	if bufferSize <= 0 {
		bufferSize = DefaultPcapBufferSize
	}

	// Use inactive handle to set buffer size before activation
	inactive, err := pcap.NewInactiveHandle(iface.Device)
	if err != nil {
		return err
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(MaxPcapSnapshotLen); err != nil {
		return err
	}
	if err := inactive.SetPromisc(promiscuous); err != nil {
		return err
	}
	if err := inactive.SetTimeout(timeout); err != nil {
		return err
	}
	if err := inactive.SetBufferSize(bufferSize); err != nil {
		return err
	}

	handle, err := inactive.Activate()
	if err != nil {
		return err
	}

	iface.handle = handle
	return nil
}

func (iface *liveInterface) Handle() (*pcap.Handle, error) {
	if iface.handle == nil {
		return nil, errors.New("interface has no handle")
	}
	return iface.handle, nil
}

func (iface *liveInterface) Name() string {
	return iface.Device
}
