package endpoint

import (
	"github.com/Seizzzz/arqsuite/internal/arq/frame"
	"github.com/Seizzzz/arqsuite/internal/arq/policy"
	"github.com/Seizzzz/arqsuite/internal/arq/seqnum"
)

// sender holds the sliding-window send state: the ring buffer of
// outstanding payloads, the lower/upper window edges, and per-slot
// retransmission timer bookkeeping. Grounded on the shape of
// _teacher_ref/netstack/tcp.go's tcpSendBuffer (oldest/ack/markRetransmitted)
// generalised from a byte-offset retransmission queue to the fixed-slot
// ring spec.md §3 describes.
type sender struct {
	variant policy.Variant
	seq     seqnum.Space

	sendBuffer [][]byte // ring of PKT_LEN payloads, indexed by seq % ringSize
	timerArmed []bool   // per-slot: is a data timer currently running

	ackExpected     uint8
	nextFrameToSend uint8
	nbuffered       uint8
}

func newSender(v policy.Variant, seq seqnum.Space) *sender {
	ringSize := v.RingSize()
	return &sender{
		variant:    v,
		seq:        seq,
		sendBuffer: make([][]byte, ringSize),
		timerArmed: make([]bool, ringSize),
	}
}

func (s *sender) slot(n uint8) uint8 {
	return n % uint8(len(s.sendBuffer))
}

// hasRoom reports whether the network layer should be admitted: nbuffered
// is strictly below the variant's window size (spec.md §3 invariant).
func (s *sender) hasRoom() bool {
	return s.nbuffered < s.variant.WindowSize
}

// onNetworkReady implements spec.md §4.3 on_network_ready: copy a packet
// into the send buffer, emit DATA piggybacking the current cumulative ACK,
// arm the slot's data timer, stop the ACK timer (piggybacked), and advance
// the upper window edge.
func (s *sender) onNetworkReady(env Env, currentAck uint8) {
	seq := s.nextFrameToSend
	slot := s.slot(seq)

	payload := env.GetPacket()
	s.sendBuffer[slot] = payload
	s.nbuffered++

	s.transmit(env, seq, currentAck)
	s.nextFrameToSend = s.seq.Inc(s.nextFrameToSend)

	if s.variant.HasAck {
		env.StopAckTimer()
	}
}

// transmit builds and sends the DATA frame for seq from the send buffer
// and (re)arms its data timer. Used by onNetworkReady and every
// retransmission path.
func (s *sender) transmit(env Env, seq, currentAck uint8) {
	slot := s.slot(seq)
	buf := frame.BuildData(seq, currentAck, s.sendBuffer[slot], s.variant.PktLen)
	env.SendFrame(buf)
	env.StartTimer(slot, s.variant.DataTimer)
	s.timerArmed[slot] = true
}

// onAckReceived implements the cumulative-ACK loop shared by every
// variant (spec.md §4.5: "receiving any valid frame processes its ack
// field via the cumulative-ACK loop regardless of frame kind"). It must be
// called for every inbound frame, not just ACK frames.
func (s *sender) onAckReceived(env Env, ackNr uint8) {
	for s.seq.Between(s.ackExpected, ackNr, s.nextFrameToSend) {
		slot := s.slot(s.ackExpected)
		if s.timerArmed[slot] {
			env.StopTimer(slot)
			s.timerArmed[slot] = false
		}
		s.nbuffered--
		s.ackExpected = s.seq.Inc(s.ackExpected)
	}
}

// retransmitWindow resends every outstanding frame starting at
// ackExpected, restarting next_frame_to_send at the lower edge first — the
// GBN on_data_timeout / on_nak_received policy (spec.md §4.3).
func (s *sender) retransmitWindow(env Env, currentAck uint8) {
	s.nextFrameToSend = s.ackExpected
	n := s.nbuffered
	for i := uint8(0); i < n; i++ {
		s.transmit(env, s.nextFrameToSend, currentAck)
		s.nextFrameToSend = s.seq.Inc(s.nextFrameToSend)
	}
}

// retransmitSlot resends a single outstanding frame by sequence number —
// the Selective-Repeat on_data_timeout / on_nak_received policy.
func (s *sender) retransmitSlot(env Env, seqNr, currentAck uint8) {
	s.transmit(env, seqNr, currentAck)
}

// resolveTimerArg recovers the true sequence number from the slot index
// the timer service reports, per spec.md §4.3/§9: the timer service only
// knows `seq % NR_BUFS`, and disambiguation relies on at most one sequence
// per slot being outstanding at a time (guaranteed by window_size ==
// NR_BUFS).
func (s *sender) resolveTimerArg(arg uint8) uint8 {
	if s.seq.Between(s.ackExpected, arg, s.nextFrameToSend) {
		return arg
	}
	return s.seq.Add(arg, s.variant.NRBufs)
}

// onDataTimeout implements spec.md §4.3 on_data_timeout for both policy
// shapes. arg is the raw value the timer service reports (a full sequence
// number for GBN, seq % NR_BUFS for SR).
func (s *sender) onDataTimeout(env Env, arg, currentAck uint8) {
	if s.variant.RetransmitWholeWindow {
		s.retransmitWindow(env, currentAck)
		return
	}
	seqNr := s.resolveTimerArg(arg)
	s.retransmitSlot(env, seqNr, currentAck)
}

// onNakReceived implements spec.md §4.3 on_nak_received for the
// NAK-bearing variants. ackNr is the NAK frame's ack field (the cumulative
// boundary, already applied via onAckReceived before this is called).
func (s *sender) onNakReceived(env Env, ackNr, currentAck uint8) {
	if s.variant.RetransmitWholeWindow {
		s.retransmitWindow(env, currentAck)
		return
	}
	target := s.seq.Inc(ackNr)
	if s.seq.Between(s.ackExpected, target, s.nextFrameToSend) {
		s.retransmitSlot(env, target, currentAck)
	}
}
