package tracker

import (
	"time"

	"github.com/endorses/flowcat/internal/pkg/flow"
)

// Reason classifies what in the packet drove a transition.
type Reason uint8

const (
	ReasonSyn Reason = iota
	ReasonSynAck
	ReasonAck
	ReasonFin
	ReasonRst
	ReasonData
)

var reasonNames = map[Reason]string{
	ReasonSyn:    "SYN",
	ReasonSynAck: "SYN-ACK",
	ReasonAck:    "ACK",
	ReasonFin:    "FIN",
	ReasonRst:    "RST",
	ReasonData:   "DATA",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// Event records one state machine step for one processed packet. Events
// are immutable once produced; the directional src/dst fields preserve the
// packet's orientation, which the undirected flow key deliberately drops.
type Event struct {
	Flow       flow.Key
	From       State
	To         State
	Reason     Reason
	SrcIP      uint32
	DstIP      uint32
	SrcPort    uint16
	DstPort    uint16
	PayloadLen int
	Timestamp  time.Time
}
