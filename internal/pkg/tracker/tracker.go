// Package tracker maintains per-flow TCP connection state from decoded
// packets and reports every lifecycle transition as an Event.
package tracker

import (
	"time"

	"github.com/endorses/flowcat/internal/pkg/decode"
	"github.com/endorses/flowcat/internal/pkg/flow"
)

// Config holds tracker tunables.
type Config struct {
	// FlowIdleTTL is how long a flow may go without packets before its
	// table entry is evicted. Zero selects the default.
	FlowIdleTTL time.Duration

	// SweepInterval is how often idle flows are swept. Zero selects the
	// default.
	SweepInterval time.Duration
}

// Tracker owns one connection table and steps its state machine once per
// processed packet. Each Tracker instance is independent; nothing is
// shared between trackers.
type Tracker struct {
	table *Table
}

// New creates a Tracker with its own connection table.
func New(cfg Config) *Tracker {
	return &Tracker{
		table: NewTable(cfg.FlowIdleTTL, cfg.SweepInterval),
	}
}

// Process runs one state machine step for a decoded packet captured at ts.
// It returns the resulting Event, or nil when the packet matches no rule
// (in which case neither the table nor any state is touched).
func (t *Tracker) Process(pkt *decode.Packet, ts time.Time) *Event {
	key := flow.Canonical(pkt.SrcIP, pkt.SrcPort, pkt.DstIP, pkt.DstPort)
	current, _ := t.table.Lookup(key)

	next, reason, matched := transition(current, pkt.Flags, pkt.PayloadLen)
	if !matched {
		return nil
	}

	if next == StateClosed {
		t.table.Remove(key)
	} else {
		t.table.Set(key, next)
	}

	return &Event{
		Flow:       key,
		From:       current,
		To:         next,
		Reason:     reason,
		SrcIP:      pkt.SrcIP,
		DstIP:      pkt.DstIP,
		SrcPort:    pkt.SrcPort,
		DstPort:    pkt.DstPort,
		PayloadLen: pkt.PayloadLen,
		Timestamp:  ts,
	}
}

// State returns the tracked state of the flow identified by the given
// directional endpoints. Read-only diagnostic; an untracked flow reports
// StateClosed.
func (t *Tracker) State(srcIP uint32, srcPort uint16, dstIP uint32, dstPort uint16) State {
	state, _ := t.table.Lookup(flow.Canonical(srcIP, srcPort, dstIP, dstPort))
	return state
}

// Flows returns the number of currently tracked flows.
func (t *Tracker) Flows() int {
	return t.table.Size()
}

// Close releases the tracker's background resources.
func (t *Tracker) Close() {
	t.table.Close()
}
