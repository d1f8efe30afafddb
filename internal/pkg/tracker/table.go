package tracker

import (
	"sync"
	"time"

	"github.com/endorses/flowcat/internal/pkg/constants"
	"github.com/endorses/flowcat/internal/pkg/flow"
	"github.com/endorses/flowcat/internal/pkg/logger"
)

type tableEntry struct {
	state    State
	lastSeen time.Time
}

// Table maps canonical flow keys to their tracked connection state.
// Entries for flows whose close sequence is never observed (capture
// started mid-flow, lost FIN/ACK) would otherwise live forever, so the
// table evicts entries idle longer than ttl.
type Table struct {
	conns map[flow.Key]tableEntry
	ttl   time.Duration
	mu    sync.RWMutex
	done  chan struct{}
}

// NewTable creates a connection table and starts its eviction sweep.
// Non-positive ttl or sweepInterval fall back to the package defaults.
func NewTable(ttl, sweepInterval time.Duration) *Table {
	if ttl <= 0 {
		ttl = constants.DefaultFlowIdleTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = constants.DefaultFlowSweepInterval
	}

	table := &Table{
		conns: make(map[flow.Key]tableEntry),
		ttl:   ttl,
		done:  make(chan struct{}),
	}

	go table.sweep(sweepInterval)

	return table
}

// Lookup returns the tracked state for key. An absent entry reports
// StateClosed, false.
func (t *Table) Lookup(key flow.Key) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.conns[key]
	if !ok {
		return StateClosed, false
	}
	return entry.state, true
}

// Set stores state for key and refreshes its idle timestamp.
func (t *Table) Set(key flow.Key, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conns[key] = tableEntry{state: state, lastSeen: time.Now()}
}

// Remove deletes the entry for key. Removing an absent key is a no-op.
func (t *Table) Remove(key flow.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.conns, key)
}

// Size returns the number of tracked flows.
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.conns)
}

// sweep periodically evicts idle entries until Close is called.
func (t *Table) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := t.evictIdle(time.Now()); evicted > 0 {
				logger.Debug("Evicted idle flows",
					"evicted", evicted,
					"remaining", t.Size())
			}
		case <-t.done:
			return
		}
	}
}

// evictIdle removes entries not touched within the idle TTL as of now,
// returning how many were dropped.
func (t *Table) evictIdle(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for key, entry := range t.conns {
		if now.Sub(entry.lastSeen) > t.ttl {
			delete(t.conns, key)
			evicted++
		}
	}
	return evicted
}

// Close stops the eviction sweep goroutine.
func (t *Table) Close() {
	select {
	case <-t.done:
		// Already closed
	default:
		close(t.done)
	}
}
