package endpoint

import (
	"log/slog"

	"github.com/Seizzzz/arqsuite/internal/arq/frame"
	"github.com/Seizzzz/arqsuite/internal/arq/policy"
	"github.com/Seizzzz/arqsuite/internal/arq/seqnum"
)

// Endpoint is one side of a sliding-window link: a sender and a receiver
// sharing a sequence space and a policy.Variant, driven by events pushed in
// through HandleEvent. It holds no reference to any concrete transport —
// all I/O goes through Env — so a test can run two Endpoints back to back
// over an in-process link (internal/sim) with no globals (spec.md §9).
type Endpoint struct {
	variant policy.Variant
	seq     seqnum.Space
	log     *slog.Logger

	send *sender
	recv *receiver

	phlReady bool
	admitted bool
}

// New creates an Endpoint for the given variant. A nil logger is replaced
// with slog.Default().
func New(v policy.Variant, log *slog.Logger) *Endpoint {
	if log == nil {
		log = slog.Default()
	}
	seq := seqnum.Space{Modulus: v.MaxSeq + 1}
	return &Endpoint{
		variant: v,
		seq:     seq,
		log:     log,
		send:    newSender(v, seq),
		recv:    newReceiver(v, seq),
	}
}

// Variant returns the policy this endpoint was constructed with.
func (e *Endpoint) Variant() policy.Variant {
	return e.variant
}

// Outstanding returns nbuffered, the number of unacknowledged frames
// in flight (spec.md §8 invariant 1/2).
func (e *Endpoint) Outstanding() uint8 {
	return e.send.nbuffered
}

// HandleEvent dispatches one event per spec.md §4.5 and recomputes
// network-layer admission afterwards. This is the "event loop ... becomes a
// method on [the endpoint] struct" spec.md §9 calls for; internal/sim drives
// the actual wait-for-event pump and calls this once per event.
func (e *Endpoint) HandleEvent(rawEnv Env, ev Event) {
	// Every frame this endpoint transmits — DATA, standalone ACK, or NAK
	// — clears phl_ready until the next PHYSICAL_LAYER_READY event
	// (spec.md §4.2 put_frame). sender and receiver call env.SendFrame
	// directly, so phl_ready is tracked by wrapping Env once per event
	// rather than threading a callback through both.
	env := trackingEnv{Env: rawEnv, phlReady: &e.phlReady}

	switch ev.Kind {
	case NetworkLayerReady:
		e.send.onNetworkReady(env, e.recv.ackValue())

	case PhysicalLayerReady:
		e.phlReady = true

	case FrameReceived:
		e.onFrameReceived(env, ev.Frame)

	case DataTimeout:
		e.log.Debug("data timeout", "variant", e.variant.Name, "slot", ev.Slot)
		e.send.onDataTimeout(env, ev.Slot, e.recv.ackValue())

	case AckTimeout:
		e.log.Debug("ack timeout", "variant", e.variant.Name, "ack", e.recv.ackValue())
		env.SendFrame(frame.BuildAck(e.recv.ackValue()))
	}

	e.updateAdmission(env)
}

func (e *Endpoint) onFrameReceived(env Env, buf []byte) {
	f, err := frame.Parse(buf, e.variant.PktLen)
	if err != nil {
		e.log.Debug("corrupt frame", "variant", e.variant.Name, "error", err)
		e.recv.onCRCFailure(env)
		return
	}

	// Cumulative ACK is processed for every valid frame regardless of
	// kind, and — per spec.md §9 "Cumulative ACK on every inbound
	// frame" — before any NAK-triggered retransmit decision, so that
	// decision sees ack_expected already advanced through the NAK's own
	// ack field.
	e.send.onAckReceived(env, f.Ack)

	switch f.Kind {
	case frame.Data:
		e.log.Debug("recv data", "variant", e.variant.Name, "seq", f.Seq, "ack", f.Ack)
		e.recv.onDataFrame(env, f)
	case frame.Nak:
		e.log.Debug("recv nak", "variant", e.variant.Name, "ack", f.Ack)
		e.send.onNakReceived(env, f.Ack, e.recv.ackValue())
	case frame.Ack:
		e.log.Debug("recv ack", "variant", e.variant.Name, "ack", f.Ack)
	}
}

// trackingEnv decorates an Env so every SendFrame call also clears the
// endpoint's phl_ready flag, regardless of whether the send originated from
// the sender (DATA) or the receiver (standalone ACK/NAK).
type trackingEnv struct {
	Env
	phlReady *bool
}

func (t trackingEnv) SendFrame(buf []byte) {
	t.Env.SendFrame(buf)
	*t.phlReady = false
}

// updateAdmission implements spec.md §4.5's end-of-iteration gate: enable
// the network layer iff nbuffered < window_size and the physical layer is
// idle, else disable it.
func (e *Endpoint) updateAdmission(env Env) {
	want := e.send.hasRoom() && e.phlReady
	if want == e.admitted {
		return
	}
	e.admitted = want
	if want {
		env.EnableNetworkLayer()
	} else {
		env.DisableNetworkLayer()
	}
}
