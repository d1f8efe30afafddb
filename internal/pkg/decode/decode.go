// Package decode extracts TCP connection metadata from raw Ethernet frames.
//
// Parsing is done with explicit byte-offset reads and length validation
// rather than casting into header structs, so a truncated or corrupt frame
// can never cause an out-of-bounds access. Frames that are not IPv4/TCP are
// reported as not-applicable and are expected to be skipped by the caller.
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

const (
	// EthernetHeaderLen is the fixed length of an untagged Ethernet II header.
	EthernetHeaderLen = 14

	// MinIPv4HeaderLen is the minimum IPv4 header length (IHL = 5).
	MinIPv4HeaderLen = 20

	// MinTCPHeaderLen is the minimum TCP header length (data offset = 5).
	MinTCPHeaderLen = 20

	etherTypeIPv4 = 0x0800
	ipProtoTCP    = 6
)

var (
	// ErrNotIPv4 reports a frame whose EtherType is not IPv4. Not a decode
	// failure; the caller should silently skip the frame.
	ErrNotIPv4 = errors.New("not an IPv4 frame")

	// ErrNotTCP reports an IPv4 packet carrying a protocol other than TCP.
	// Not a decode failure; the caller should silently skip the packet.
	ErrNotTCP = errors.New("not a TCP segment")

	// ErrTruncatedPacket reports a buffer shorter than its own declared
	// header lengths.
	ErrTruncatedPacket = errors.New("truncated packet")

	// ErrInconsistentLength reports header length fields that contradict
	// each other, e.g. a negative computed payload length.
	ErrInconsistentLength = errors.New("inconsistent header lengths")
)

// Flags is the TCP flag set relevant to connection lifecycle tracking.
type Flags struct {
	SYN bool
	ACK bool
	FIN bool
	RST bool
	PSH bool
	URG bool
}

// Packet holds the decoded fields of one TCP segment. Addresses and ports
// are in host order.
type Packet struct {
	SrcIP      uint32
	DstIP      uint32
	SrcPort    uint16
	DstPort    uint16
	Flags      Flags
	PayloadLen int
}

// IsNotApplicable reports whether err marks a frame that is simply not
// IPv4/TCP, as opposed to a structurally invalid one.
func IsNotApplicable(err error) bool {
	return errors.Is(err, ErrNotIPv4) || errors.Is(err, ErrNotTCP)
}

// Decode parses one Ethernet-framed buffer into a Packet. It returns
// ErrNotIPv4/ErrNotTCP for frames outside the tracker's scope, and
// ErrTruncatedPacket/ErrInconsistentLength for structurally invalid ones.
// Decode never mutates any state; a bad frame is the caller's to drop.
func Decode(data []byte) (*Packet, error) {
	if len(data) < EthernetHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes, need %d for Ethernet header",
			ErrTruncatedPacket, len(data), EthernetHeaderLen)
	}
	if binary.BigEndian.Uint16(data[12:14]) != etherTypeIPv4 {
		return nil, ErrNotIPv4
	}

	ip := data[EthernetHeaderLen:]
	if len(ip) < MinIPv4HeaderLen {
		return nil, fmt.Errorf("%w: %d bytes after Ethernet header, need %d for IPv4 header",
			ErrTruncatedPacket, len(ip), MinIPv4HeaderLen)
	}

	if ip[9] != ipProtoTCP {
		return nil, ErrNotTCP
	}

	ipHeaderLen := int(ip[0]&0x0f) * 4
	if ipHeaderLen < MinIPv4HeaderLen {
		return nil, fmt.Errorf("%w: IHL %d below IPv4 minimum", ErrInconsistentLength, ipHeaderLen)
	}
	if len(ip) < ipHeaderLen {
		return nil, fmt.Errorf("%w: IHL declares %d bytes, %d available",
			ErrTruncatedPacket, ipHeaderLen, len(ip))
	}

	tcp := ip[ipHeaderLen:]
	if len(tcp) < MinTCPHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes after IPv4 header, need %d for TCP header",
			ErrTruncatedPacket, len(tcp), MinTCPHeaderLen)
	}

	tcpHeaderLen := int(tcp[12]>>4) * 4
	if tcpHeaderLen < MinTCPHeaderLen {
		return nil, fmt.Errorf("%w: TCP data offset %d below minimum", ErrInconsistentLength, tcpHeaderLen)
	}
	if len(tcp) < tcpHeaderLen {
		return nil, fmt.Errorf("%w: TCP data offset declares %d bytes, %d available",
			ErrTruncatedPacket, tcpHeaderLen, len(tcp))
	}

	totalLen := int(binary.BigEndian.Uint16(ip[2:4]))
	payloadLen := totalLen - ipHeaderLen - tcpHeaderLen
	if payloadLen < 0 {
		return nil, fmt.Errorf("%w: total length %d smaller than headers (%d+%d)",
			ErrInconsistentLength, totalLen, ipHeaderLen, tcpHeaderLen)
	}

	flagBits := tcp[13]
	return &Packet{
		SrcIP:   binary.BigEndian.Uint32(ip[12:16]),
		DstIP:   binary.BigEndian.Uint32(ip[16:20]),
		SrcPort: binary.BigEndian.Uint16(tcp[0:2]),
		DstPort: binary.BigEndian.Uint16(tcp[2:4]),
		Flags: Flags{
			FIN: flagBits&0x01 != 0,
			SYN: flagBits&0x02 != 0,
			RST: flagBits&0x04 != 0,
			PSH: flagBits&0x08 != 0,
			ACK: flagBits&0x10 != 0,
			URG: flagBits&0x20 != 0,
		},
		PayloadLen: payloadLen,
	}, nil
}

// IPString renders a host-order IPv4 address in dotted-quad form.
func IPString(ip uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], ip)
	return net.IP(b[:]).String()
}
