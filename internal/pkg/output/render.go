package output

import (
	"fmt"
	"io"
	"time"

	"github.com/endorses/flowcat/internal/pkg/decode"
	"github.com/endorses/flowcat/internal/pkg/tracker"
)

// Renderer writes one line per tracker event, either human-readable or as
// JSON records. Timestamps are rendered relative to the first event so
// live and offline captures read the same way.
type Renderer struct {
	w      io.Writer
	start  time.Time
	json   bool
	pretty bool
}

// NewRenderer creates a renderer writing to w. When jsonMode is set,
// events are emitted as JSON, pretty-printed if stdout is a TTY.
func NewRenderer(w io.Writer, jsonMode bool) *Renderer {
	return &Renderer{w: w, json: jsonMode, pretty: IsTTY()}
}

type jsonEvent struct {
	Time       float64 `json:"time"`
	Flow       string  `json:"flow"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Reason     string  `json:"reason"`
	Src        string  `json:"src"`
	Dst        string  `json:"dst"`
	PayloadLen int     `json:"payload_len,omitempty"`
}

// Write renders a single event.
func (r *Renderer) Write(ev *tracker.Event) error {
	if r.start.IsZero() {
		r.start = ev.Timestamp
	}
	elapsed := ev.Timestamp.Sub(r.start).Seconds()

	if r.json {
		return r.writeJSON(ev, elapsed)
	}
	return r.writeLine(ev, elapsed)
}

func (r *Renderer) writeJSON(ev *tracker.Event, elapsed float64) error {
	data, err := MarshalJSONPretty(jsonEvent{
		Time:       elapsed,
		Flow:       ev.Flow.String(),
		From:       ev.From.String(),
		To:         ev.To.String(),
		Reason:     ev.Reason.String(),
		Src:        fmt.Sprintf("%s:%d", decode.IPString(ev.SrcIP), ev.SrcPort),
		Dst:        fmt.Sprintf("%s:%d", decode.IPString(ev.DstIP), ev.DstPort),
		PayloadLen: ev.PayloadLen,
	}, r.pretty)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	_, err = fmt.Fprintf(r.w, "%s\n", data)
	return err
}

func (r *Renderer) writeLine(ev *tracker.Event, elapsed float64) error {
	marker, label, arrow := describe(ev)

	endpoints := fmt.Sprintf("%s:%d %s %s:%d",
		decode.IPString(ev.SrcIP), ev.SrcPort,
		arrow,
		decode.IPString(ev.DstIP), ev.DstPort)

	size := ""
	if ev.Reason == tracker.ReasonData {
		size = fmt.Sprintf(" (%d bytes)", ev.PayloadLen)
	}

	states := fmt.Sprintf("[%s -> %s]", ev.From, ev.To)
	if ev.From == ev.To {
		states = fmt.Sprintf("[%s]", ev.To)
	}

	_, err := fmt.Fprintf(r.w, "[%.3f] %s %s: %s%s %s\n",
		elapsed, marker, label, endpoints, size, states)
	return err
}

// describe picks the marker, label, and direction arrow for an event.
// Directional packets (SYN, FIN, data) keep "->"; acknowledgements and
// resets describe the flow as a whole with "<->".
func describe(ev *tracker.Event) (marker, label, arrow string) {
	switch ev.Reason {
	case tracker.ReasonRst:
		return "🔴", "connection reset (RST)", "<->"
	case tracker.ReasonSyn:
		return "🟢", "connection opening (SYN)", "->"
	case tracker.ReasonSynAck:
		return "🟢", "connection established (SYN-ACK)", "<->"
	case tracker.ReasonData:
		return "📦", "data transfer", "->"
	case tracker.ReasonAck:
		switch ev.To {
		case tracker.StateEstablished:
			return "🟢", "connection confirmed (ACK)", "<->"
		case tracker.StateFinWait2:
			return "🔵", "close acknowledged (ACK)", "<->"
		default:
			return "🔵", "connection fully closed (ACK)", "<->"
		}
	case tracker.ReasonFin:
		switch ev.To {
		case tracker.StateFinWait1:
			return "🔵", "close initiated (FIN)", "->"
		case tracker.StateClosing:
			return "🔵", "simultaneous close (FIN)", "<->"
		case tracker.StateTimeWait:
			return "🔵", "peer closed (FIN)", "<->"
		default:
			return "🔵", "passive close (FIN)", "->"
		}
	}
	return "❔", "state change", "->"
}
