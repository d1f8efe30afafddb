// Package constants provides shared constants used across flowcat components.
package constants

import "time"

// Channel buffer sizes
const (
	// SignalChannelBuffer is the buffer size for OS signal channels.
	// Signals are infrequent and must never block the sender.
	SignalChannelBuffer = 1

	// FrameChannelBuffer is the buffer size for the captured-frame channel.
	// Sized to absorb capture bursts while the single processor goroutine
	// keeps per-frame ordering.
	FrameChannelBuffer = 1000
)

// Flow table defaults
const (
	// DefaultFlowIdleTTL is how long a flow may stay in the connection
	// table without traffic before it is evicted. Covers flows whose
	// close sequence is never observed.
	DefaultFlowIdleTTL = 5 * time.Minute

	// DefaultFlowSweepInterval is how often the idle eviction sweep runs.
	DefaultFlowSweepInterval = 1 * time.Minute
)
