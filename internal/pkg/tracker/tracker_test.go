package tracker

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/endorses/flowcat/internal/pkg/decode"
	"github.com/endorses/flowcat/internal/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipU32(s string) uint32 {
	return binary.BigEndian.Uint32(net.ParseIP(s).To4())
}

func pkt(srcIP string, srcPort uint16, dstIP string, dstPort uint16, flags decode.Flags, payloadLen int) *decode.Packet {
	return &decode.Packet{
		SrcIP:      ipU32(srcIP),
		DstIP:      ipU32(dstIP),
		SrcPort:    srcPort,
		DstPort:    dstPort,
		Flags:      flags,
		PayloadLen: payloadLen,
	}
}

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	trk := New(Config{})
	t.Cleanup(trk.Close)
	return trk
}

func TestTracker_FullLifecycle(t *testing.T) {
	trk := newTestTracker(t)
	now := time.Now()

	// client:  192.168.1.100:8080, server: 10.0.0.1:80
	packets := []*decode.Packet{
		pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{SYN: true}, 0),
		pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{SYN: true, ACK: true}, 0),
		pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{ACK: true}, 0), // handshake ACK, silent
		pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{FIN: true, ACK: true}, 0),
		pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{ACK: true}, 0),
		pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{FIN: true, ACK: true}, 0),
		pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{ACK: true}, 0),
	}

	var events []*Event
	for _, p := range packets {
		if ev := trk.Process(p, now); ev != nil {
			events = append(events, ev)
		}
	}

	// The handshake-completing ACK arrives with the flow already
	// Established (the SYN-ACK established it), so it reports nothing.
	wantReasons := []Reason{ReasonSyn, ReasonSynAck, ReasonFin, ReasonAck, ReasonFin, ReasonAck}
	require.Len(t, events, len(wantReasons))
	for i, want := range wantReasons {
		assert.Equal(t, want, events[i].Reason, "event %d", i)
	}

	wantStates := []State{StateSynSent, StateEstablished, StateFinWait1, StateFinWait2, StateTimeWait, StateClosed}
	for i, want := range wantStates {
		assert.Equal(t, want, events[i].To, "event %d target state", i)
	}

	assert.Equal(t, 0, trk.Flows(), "fully closed flow must leave no table entry")

	// All events belong to the one canonical flow
	key := flow.Canonical(ipU32("10.0.0.1"), 80, ipU32("192.168.1.100"), 8080)
	for _, ev := range events {
		assert.Equal(t, key, ev.Flow)
	}
}

func TestTracker_ConcreteHandshakeScenario(t *testing.T) {
	trk := newTestTracker(t)
	now := time.Now()

	ev1 := trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{SYN: true}, 0), now)
	require.NotNil(t, ev1)
	ev2 := trk.Process(pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{SYN: true, ACK: true}, 0), now)
	require.NotNil(t, ev2)

	wantKey := flow.Key{IPA: ipU32("10.0.0.1"), PortA: 80, IPB: ipU32("192.168.1.100"), PortB: 8080}
	assert.Equal(t, wantKey, ev1.Flow)
	assert.Equal(t, wantKey, ev2.Flow)

	assert.Equal(t, StateEstablished,
		trk.State(ipU32("192.168.1.100"), 8080, ipU32("10.0.0.1"), 80))
	assert.Equal(t, 1, trk.Flows())
}

func TestTracker_RSTDominance(t *testing.T) {
	states := []State{
		StateSynSent, StateSynReceived, StateEstablished, StateFinWait1,
		StateFinWait2, StateCloseWait, StateLastAck, StateTimeWait, StateClosing,
	}

	for _, state := range states {
		t.Run(state.String(), func(t *testing.T) {
			trk := newTestTracker(t)
			key := flow.Canonical(ipU32("10.0.0.1"), 80, ipU32("192.168.1.100"), 8080)
			trk.table.Set(key, state)

			ev := trk.Process(pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{RST: true}, 0), time.Now())
			require.NotNil(t, ev)
			assert.Equal(t, ReasonRst, ev.Reason)
			assert.Equal(t, state, ev.From)
			assert.Equal(t, StateClosed, ev.To)
			assert.Equal(t, 0, trk.Flows())
		})
	}
}

func TestTracker_IdempotentRemoval(t *testing.T) {
	trk := newTestTracker(t)
	now := time.Now()

	trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{SYN: true}, 0), now)
	require.Equal(t, 1, trk.Flows())

	rst := pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{RST: true}, 0)
	ev := trk.Process(rst, now)
	require.NotNil(t, ev)
	assert.Equal(t, 0, trk.Flows())

	// A second RST against the absent entry still reports a reset but
	// the table stays untouched.
	ev = trk.Process(rst, now)
	require.NotNil(t, ev)
	assert.Equal(t, StateClosed, ev.From)
	assert.Equal(t, StateClosed, ev.To)
	assert.Equal(t, 0, trk.Flows())

	// Repeating the final closing ACK after removal matches nothing
	ack := pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{ACK: true}, 0)
	assert.Nil(t, trk.Process(ack, now))
	assert.Equal(t, 0, trk.Flows())
}

func TestTracker_UnmatchedInputIsNoOp(t *testing.T) {
	trk := newTestTracker(t)
	now := time.Now()

	trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{SYN: true}, 0), now)
	trk.Process(pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{SYN: true, ACK: true}, 0), now)
	require.Equal(t, StateEstablished, trk.State(ipU32("10.0.0.1"), 80, ipU32("192.168.1.100"), 8080))

	// A bare ACK with no payload in Established reports nothing and
	// changes nothing.
	ev := trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{ACK: true}, 0), now)
	assert.Nil(t, ev)
	assert.Equal(t, StateEstablished, trk.State(ipU32("10.0.0.1"), 80, ipU32("192.168.1.100"), 8080))
	assert.Equal(t, 1, trk.Flows())
}

func TestTracker_DataTransfer(t *testing.T) {
	trk := newTestTracker(t)
	now := time.Now()

	trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{SYN: true}, 0), now)
	trk.Process(pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{SYN: true, ACK: true}, 0), now)

	ev := trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{ACK: true, PSH: true}, 512), now)
	require.NotNil(t, ev)
	assert.Equal(t, ReasonData, ev.Reason)
	assert.Equal(t, StateEstablished, ev.From)
	assert.Equal(t, StateEstablished, ev.To)
	assert.Equal(t, 512, ev.PayloadLen)
	assert.Equal(t, 1, trk.Flows())
}

func TestTracker_SimultaneousClose(t *testing.T) {
	trk := newTestTracker(t)
	now := time.Now()

	key := flow.Canonical(ipU32("10.0.0.1"), 80, ipU32("192.168.1.100"), 8080)
	trk.table.Set(key, StateEstablished)

	ev := trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{FIN: true, ACK: true}, 0), now)
	require.NotNil(t, ev)
	assert.Equal(t, StateFinWait1, ev.To)

	ev = trk.Process(pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{FIN: true, ACK: true}, 0), now)
	require.NotNil(t, ev)
	assert.Equal(t, StateClosing, ev.To)
	assert.Equal(t, ReasonFin, ev.Reason)

	ev = trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{ACK: true}, 0), now)
	require.NotNil(t, ev)
	assert.Equal(t, StateClosed, ev.To)
	assert.Equal(t, 0, trk.Flows())
}

func TestTracker_PassiveClosePath(t *testing.T) {
	// CloseWait is unreachable from observed traffic (the active-close
	// rule always intercepts the first FIN) but the passive-close rules
	// still hold when the state is present.
	trk := newTestTracker(t)
	now := time.Now()

	key := flow.Canonical(ipU32("10.0.0.1"), 80, ipU32("192.168.1.100"), 8080)
	trk.table.Set(key, StateCloseWait)

	ev := trk.Process(pkt("10.0.0.1", 80, "192.168.1.100", 8080, decode.Flags{FIN: true, ACK: true}, 0), now)
	require.NotNil(t, ev)
	assert.Equal(t, StateLastAck, ev.To)

	ev = trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{ACK: true}, 0), now)
	require.NotNil(t, ev)
	assert.Equal(t, StateClosed, ev.To)
	assert.Equal(t, 0, trk.Flows())
}

func TestTracker_EventCarriesDirection(t *testing.T) {
	trk := newTestTracker(t)
	now := time.Now()

	ev := trk.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{SYN: true}, 0), now)
	require.NotNil(t, ev)
	assert.Equal(t, ipU32("192.168.1.100"), ev.SrcIP)
	assert.Equal(t, uint16(8080), ev.SrcPort)
	assert.Equal(t, ipU32("10.0.0.1"), ev.DstIP)
	assert.Equal(t, uint16(80), ev.DstPort)
	assert.Equal(t, now, ev.Timestamp)
}

func TestTracker_IndependentInstances(t *testing.T) {
	trkA := newTestTracker(t)
	trkB := newTestTracker(t)

	trkA.Process(pkt("192.168.1.100", 8080, "10.0.0.1", 80, decode.Flags{SYN: true}, 0), time.Now())

	assert.Equal(t, 1, trkA.Flows())
	assert.Equal(t, 0, trkB.Flows(), "trackers must not share table state")
}
