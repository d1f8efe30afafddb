package flow

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ipU32(s string) uint32 {
	return binary.BigEndian.Uint32(net.ParseIP(s).To4())
}

func TestCanonical_Symmetry(t *testing.T) {
	tests := []struct {
		name  string
		ipA   string
		portA uint16
		ipB   string
		portB uint16
	}{
		{"distinct addresses", "192.168.1.100", 8080, "10.0.0.1", 80},
		{"equal addresses, distinct ports", "10.0.0.1", 443, "10.0.0.1", 55000},
		{"equal addresses and ports", "10.0.0.1", 80, "10.0.0.1", 80},
		{"loopback", "127.0.0.1", 6379, "127.0.0.1", 41234},
		{"high addresses", "255.255.255.254", 1, "0.0.0.1", 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := Canonical(ipU32(tt.ipA), tt.portA, ipU32(tt.ipB), tt.portB)
			reverse := Canonical(ipU32(tt.ipB), tt.portB, ipU32(tt.ipA), tt.portA)
			assert.Equal(t, forward, reverse, "both directions must map to one key")
		})
	}
}

func TestCanonical_Ordering(t *testing.T) {
	// The numerically smaller address always becomes endpoint A
	key := Canonical(ipU32("192.168.1.100"), 8080, ipU32("10.0.0.1"), 80)
	assert.Equal(t, ipU32("10.0.0.1"), key.IPA)
	assert.Equal(t, uint16(80), key.PortA)
	assert.Equal(t, ipU32("192.168.1.100"), key.IPB)
	assert.Equal(t, uint16(8080), key.PortB)
}

func TestCanonical_PortTiebreak(t *testing.T) {
	// Equal addresses order by port
	key := Canonical(ipU32("10.0.0.1"), 55000, ipU32("10.0.0.1"), 443)
	assert.Equal(t, uint16(443), key.PortA)
	assert.Equal(t, uint16(55000), key.PortB)
}

func TestKey_String(t *testing.T) {
	key := Canonical(ipU32("192.168.1.100"), 8080, ipU32("10.0.0.1"), 80)
	assert.Equal(t, "10.0.0.1:80 <-> 192.168.1.100:8080", key.String())
}
