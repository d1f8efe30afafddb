// Package flow provides the canonical identity of a bidirectional TCP flow.
package flow

import (
	"fmt"

	"github.com/endorses/flowcat/internal/pkg/decode"
)

// Key is the undirected identity of a TCP flow. The endpoint with the
// numerically smaller address (ties broken by port) is always endpoint A,
// so packets travelling in either direction map to the same Key.
// Keys are comparable and safe to use as map keys.
type Key struct {
	IPA   uint32
	PortA uint16
	IPB   uint32
	PortB uint16
}

// Canonical builds the Key for a directional (src, dst) endpoint pair.
// Canonical(a, b) == Canonical(b, a) for every pair of endpoints.
func Canonical(srcIP uint32, srcPort uint16, dstIP uint32, dstPort uint16) Key {
	if srcIP < dstIP || (srcIP == dstIP && srcPort <= dstPort) {
		return Key{IPA: srcIP, PortA: srcPort, IPB: dstIP, PortB: dstPort}
	}
	return Key{IPA: dstIP, PortA: dstPort, IPB: srcIP, PortB: srcPort}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d <-> %s:%d",
		decode.IPString(k.IPA), k.PortA, decode.IPString(k.IPB), k.PortB)
}
