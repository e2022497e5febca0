package endpoint

import (
	"github.com/Seizzzz/arqsuite/internal/arq/frame"
	"github.com/Seizzzz/arqsuite/internal/arq/policy"
	"github.com/Seizzzz/arqsuite/internal/arq/seqnum"
)

// receiver holds the receive-window state: the lowest sequence not yet
// delivered, and — for Selective Repeat only — the upper window edge, the
// out-of-order reassembly buffer, and the NAK-suppression flag. Grounded on
// _teacher_ref/netstack/tcp.go's tcpRecvBuffer (insert/collectContiguous),
// generalised from byte offsets to the fixed-slot ring spec.md §3/§4.4
// describe.
type receiver struct {
	variant policy.Variant
	seq     seqnum.Space

	frameExpected uint8

	// Selective Repeat only.
	tooFar     uint8
	arrived    []bool
	recvBuffer [][]byte
	noNak      bool
}

func newReceiver(v policy.Variant, seq seqnum.Space) *receiver {
	r := &receiver{variant: v, seq: seq, noNak: true}
	if v.BufferOutOfOrder {
		r.tooFar = v.NRBufs
		r.arrived = make([]bool, v.NRBufs)
		r.recvBuffer = make([][]byte, v.NRBufs)
	}
	return r
}

// ackValue returns (frame_expected - 1) mod (MAX_SEQ+1), the cumulative-ACK
// value every outgoing frame carries (spec.md §3).
func (r *receiver) ackValue() uint8 {
	return r.seq.Add(r.frameExpected, r.variant.MaxSeq)
}

// onDataFrame implements spec.md §4.4's receiver DATA handling, dispatching
// to the GBN or Selective-Repeat shape per the variant's BufferOutOfOrder
// flag.
func (r *receiver) onDataFrame(env Env, f frame.Frame) {
	if r.variant.BufferOutOfOrder {
		r.onDataFrameSR(env, f)
		return
	}
	r.onDataFrameGBN(env, f)
}

// onDataFrameGBN accepts DATA only in strict sequence order. Out-of-order
// DATA (including for GBN-nak) is silently discarded: original_source's
// surviving GBN program only emits a NAK on CRC failure, never on a seq
// mismatch with a valid checksum.
func (r *receiver) onDataFrameGBN(env Env, f frame.Frame) {
	if f.Seq != r.frameExpected {
		return
	}
	env.PutPacket(f.Data)
	if r.variant.HasAck {
		env.StartAckTimer(r.variant.AckTimer)
	}
	r.frameExpected = r.seq.Inc(r.frameExpected)
}

// onDataFrameSR implements the Selective-Repeat receiver: NAK suppression
// on a seq mismatch, window-bounded out-of-order buffering, and draining
// the in-order prefix once the gap closes. Mirrors original_source's
// Selective.c: `if (seq != frame_expected && no_nak) send NAK; else
// start_ack_timer`. The else covers both the expected-seq case and a
// duplicate/out-of-order frame arriving after a NAK has already been sent
// for this gap (no_nak already false) — that duplicate must still arm the
// ACK timer so the sender learns, even though it carries no new data.
func (r *receiver) onDataFrameSR(env Env, f frame.Frame) {
	if f.Seq != r.frameExpected && r.noNak {
		env.SendFrame(frame.BuildNak(r.ackValue()))
		r.noNak = false
	} else {
		env.StartAckTimer(r.variant.AckTimer)
	}

	if !r.seq.Between(r.frameExpected, f.Seq, r.tooFar) {
		return
	}
	idx := f.Seq % r.variant.NRBufs
	if r.arrived[idx] {
		return
	}
	r.arrived[idx] = true
	r.recvBuffer[idx] = f.Data

	for r.arrived[r.frameExpected%r.variant.NRBufs] {
		idx := r.frameExpected % r.variant.NRBufs
		env.PutPacket(r.recvBuffer[idx])
		r.noNak = true
		r.arrived[idx] = false
		r.frameExpected = r.seq.Inc(r.frameExpected)
		r.tooFar = r.seq.Inc(r.tooFar)
		env.StartAckTimer(r.variant.AckTimer)
	}
}

// onCRCFailure implements spec.md §7's corrupt-frame taxonomy: GBN-ack and
// GBN-noack drop silently; GBN-nak NAKs unconditionally on every CRC
// failure (original_source has no no_nak gate on this path); Selective
// Repeat NAKs only if no_nak is still set, then clears it.
func (r *receiver) onCRCFailure(env Env) {
	if !r.variant.CRCFailureNak {
		return
	}
	if r.variant.BufferOutOfOrder {
		if r.noNak {
			env.SendFrame(frame.BuildNak(r.ackValue()))
			r.noNak = false
		}
		return
	}
	env.SendFrame(frame.BuildNak(r.ackValue()))
}
