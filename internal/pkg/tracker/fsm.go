package tracker

import "github.com/endorses/flowcat/internal/pkg/decode"

// transition is the pure TCP lifecycle step function. Rules are evaluated
// in order and the first match wins; an unmatched (state, flags) pair is a
// no-op and reports matched == false.
//
// The rule order mirrors the observed-traffic model this tracker uses: the
// flow is watched from a single capture point, so the side that sends the
// first FIN always drives Established into FinWait1. The passive-close
// rules (CloseWait, LastAck) are kept for completeness but are not
// reachable from Established under this ordering.
func transition(current State, flags decode.Flags, payloadLen int) (next State, reason Reason, matched bool) {
	// RST aborts from any state, including an absent entry.
	if flags.RST {
		return StateClosed, ReasonRst, true
	}

	switch current {
	case StateClosed:
		if flags.SYN && !flags.ACK {
			return StateSynSent, ReasonSyn, true
		}
	case StateSynSent:
		if flags.SYN && flags.ACK {
			return StateEstablished, ReasonSynAck, true
		}
		if flags.ACK && !flags.SYN && !flags.FIN {
			return StateEstablished, ReasonAck, true
		}
	case StateEstablished:
		if payloadLen > 0 {
			return StateEstablished, ReasonData, true
		}
		if flags.FIN {
			return StateFinWait1, ReasonFin, true
		}
	case StateFinWait1:
		if flags.ACK && !flags.FIN {
			return StateFinWait2, ReasonAck, true
		}
		if flags.FIN {
			return StateClosing, ReasonFin, true
		}
	case StateFinWait2:
		if flags.FIN {
			return StateTimeWait, ReasonFin, true
		}
	case StateTimeWait:
		// Removal on the final ACK, with no wall-clock TIME_WAIT delay.
		if flags.ACK {
			return StateClosed, ReasonAck, true
		}
	case StateClosing:
		if flags.ACK {
			return StateClosed, ReasonAck, true
		}
	case StateCloseWait:
		if flags.FIN {
			return StateLastAck, ReasonFin, true
		}
	case StateLastAck:
		if flags.ACK {
			return StateClosed, ReasonAck, true
		}
	}

	return current, 0, false
}
