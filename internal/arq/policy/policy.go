// Package policy captures the four axes that distinguish the sliding-window
// variants (spec.md §4.6, §9 "Variant selection") as data rather than
// separate programs: MAX_SEQ, window size, the two timer durations, and the
// flags selecting retransmit-on-timeout shape, CRC-failure response, and
// whether the variant emits standalone ACK/NAK frames at all.
package policy

import "time"

// Name identifies one of the four variants from spec.md §2.
type Name string

const (
	GBNAck   Name = "gbn-ack"
	GBNNak   Name = "gbn-nak"
	GBNNoAck Name = "gbn-noack"
	SR       Name = "sr"
)

// Variant is the full set of policy knobs for one endpoint. The zero value
// is not meaningful; use one of the constructors below or load one from a
// scenario config (internal/config).
type Variant struct {
	Name Name

	// MaxSeq is MAX_SEQ; the sequence space is [0, MaxSeq] mod (MaxSeq+1).
	MaxSeq uint8

	// WindowSize bounds nbuffered: MaxSeq for GBN, NRBufs for Selective
	// Repeat (spec.md §3 invariants).
	WindowSize uint8

	// NRBufs is the Selective-Repeat receive/send buffer count,
	// (MaxSeq+1)/2. Zero for GBN variants, which have no separate ring
	// size distinct from the sequence space.
	NRBufs uint8

	// BufferOutOfOrder selects the SR receiver's out-of-order reassembly
	// (spec.md §4.4) instead of the GBN receiver's accept-only-in-order
	// rule.
	BufferOutOfOrder bool

	// CRCFailureNak selects "emit a NAK on CRC failure" (GBN-nak, SR)
	// over "silently drop" (GBN-ack, GBN-noack). Out-of-order DATA with a
	// valid CRC is silently dropped by every GBN variant, including
	// GBN-nak — confirmed against original_source/GoBckN(ack).c, whose
	// FRAME_RECEIVED handler has no else-branch for a seq mismatch.
	CRCFailureNak bool

	// HasAck selects whether the receiver ever emits a standalone ACK
	// frame (delayed-ACK timer) or relies purely on DATA piggyback
	// (GBN-noack, spec.md §2 table and §9 Open Question).
	HasAck bool

	// RetransmitWholeWindow selects the GBN on_data_timeout policy
	// (retransmit every outstanding frame) over the SR single-slot
	// policy (spec.md §4.3).
	RetransmitWholeWindow bool

	// PktLen is the fixed network-layer packet size the frame codec
	// pads/trims DATA payloads to.
	PktLen int

	// DataTimer / AckTimer are the retransmission and delayed-ACK
	// durations. AckTimer is unused when HasAck is false.
	DataTimer time.Duration
	AckTimer  time.Duration
}

// RingSize returns the size of the send/receive buffer ring: NRBufs for
// Selective Repeat, MaxSeq+1 for the GBN variants (spec.md §3).
func (v Variant) RingSize() uint8 {
	if v.NRBufs > 0 {
		return v.NRBufs
	}
	return v.MaxSeq + 1
}

// NewGBNAck returns the Go-Back-N-with-cumulative-ACK policy: MAX_SEQ=7,
// delayed standalone ACKs, no NAK, whole-window retransmit on timeout.
func NewGBNAck(pktLen int) Variant {
	return Variant{
		Name:                  GBNAck,
		MaxSeq:                7,
		WindowSize:            7,
		HasAck:                true,
		RetransmitWholeWindow: true,
		PktLen:                pktLen,
		DataTimer:             4500 * time.Millisecond,
		AckTimer:              300 * time.Millisecond,
	}
}

// NewGBNNak returns the Go-Back-N-with-NAK policy: same window as
// GBN-ack, plus a NAK emitted on CRC failure to trigger fast retransmit of
// the whole window.
func NewGBNNak(pktLen int) Variant {
	v := NewGBNAck(pktLen)
	v.Name = GBNNak
	v.CRCFailureNak = true
	return v
}

// NewGBNNoAck returns the Go-Back-N piggyback-only policy: MAX_SEQ=31, no
// standalone ACK frame ever emitted, no NAK, whole-window retransmit.
func NewGBNNoAck(pktLen int) Variant {
	return Variant{
		Name:                  GBNNoAck,
		MaxSeq:                31,
		WindowSize:            31,
		HasAck:                false,
		RetransmitWholeWindow: true,
		PktLen:                pktLen,
		DataTimer:             2000 * time.Millisecond,
	}
}

// NewSR returns the Selective-Repeat policy. spec.md §2 lists 43 and 63
// for maxSeq; the value is not checked here. NRBufs is derived as
// (maxSeq+1)/2.
func NewSR(maxSeq uint8, pktLen int) Variant {
	return Variant{
		Name:             SR,
		MaxSeq:           maxSeq,
		WindowSize:       (maxSeq + 1) / 2,
		NRBufs:           (maxSeq + 1) / 2,
		BufferOutOfOrder: true,
		CRCFailureNak:    true,
		HasAck:           true,
		PktLen:           pktLen,
		DataTimer:        4500 * time.Millisecond,
		AckTimer:         300 * time.Millisecond,
	}
}
