package endpoint

import (
	"testing"
	"time"

	"github.com/Seizzzz/arqsuite/internal/arq/frame"
	"github.com/Seizzzz/arqsuite/internal/arq/policy"
)

// fakeEnv is a synchronous, in-memory stand-in for Env, grounded on the
// same "fake the transport, assert on recorded effects" shape as
// _teacher_ref/netstack/netstack_test.go's newTestNetStack/awaitFrame
// fixture, simplified to single-threaded since these tests drive one
// endpoint directly rather than two over a real link.
type fakeEnv struct {
	outbox    [][]byte
	pending   [][]byte // packets queued for GetPacket
	delivered [][]byte // packets PutPacket received, in order

	timerArmed map[uint8]bool
	ackArmed   bool

	enabled bool
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{timerArmed: make(map[uint8]bool)}
}

func (e *fakeEnv) SendFrame(buf []byte) {
	cp := append([]byte(nil), buf...)
	e.outbox = append(e.outbox, cp)
}

func (e *fakeEnv) GetPacket() []byte {
	p := e.pending[0]
	e.pending = e.pending[1:]
	return p
}

func (e *fakeEnv) PutPacket(data []byte) {
	e.delivered = append(e.delivered, append([]byte(nil), data...))
}

func (e *fakeEnv) StartTimer(slot uint8, d time.Duration) { e.timerArmed[slot] = true }
func (e *fakeEnv) StopTimer(slot uint8)                   { e.timerArmed[slot] = false }
func (e *fakeEnv) StartAckTimer(d time.Duration)          { e.ackArmed = true }
func (e *fakeEnv) StopAckTimer()                          { e.ackArmed = false }
func (e *fakeEnv) EnableNetworkLayer()                    { e.enabled = true }
func (e *fakeEnv) DisableNetworkLayer()                   { e.enabled = false }

func packetWithID(id uint16, pktLen int) []byte {
	buf := make([]byte, pktLen)
	buf[0] = byte(id >> 8)
	buf[1] = byte(id)
	return buf
}

// TestCleanSendThreePackets exercises spec.md §8 scenario 1: three packets
// submitted back to back on a lossless link are delivered in order and
// nbuffered returns to zero once all three are ACKed.
func TestCleanSendThreePackets(t *testing.T) {
	const pktLen = 8
	sender := New(policy.NewGBNAck(pktLen), nil)
	receiver := New(policy.NewGBNAck(pktLen), nil)

	senderEnv := newFakeEnv()
	senderEnv.pending = [][]byte{
		packetWithID(0, pktLen), packetWithID(1, pktLen), packetWithID(2, pktLen),
	}
	receiverEnv := newFakeEnv()

	for i := 0; i < 3; i++ {
		sender.HandleEvent(senderEnv, Event{Kind: NetworkLayerReady})
	}
	if got := sender.Outstanding(); got != 3 {
		t.Fatalf("Outstanding() after 3 sends = %d, want 3", got)
	}

	for _, dataFrame := range senderEnv.outbox {
		receiver.HandleEvent(receiverEnv, Event{Kind: FrameReceived, Frame: dataFrame})
	}
	if len(receiverEnv.delivered) != 3 {
		t.Fatalf("delivered %d packets, want 3", len(receiverEnv.delivered))
	}
	for i, pkt := range receiverEnv.delivered {
		if id := uint16(pkt[0])<<8 | uint16(pkt[1]); id != uint16(i) {
			t.Errorf("delivered[%d] ID = %d, want %d", i, id, i)
		}
	}

	// Receiver's piggyback on its own next DATA (none here) never fires;
	// drive the ACK timeout to get the standalone ACK, then feed it back.
	receiver.HandleEvent(receiverEnv, Event{Kind: AckTimeout})
	ackFrame := receiverEnv.outbox[len(receiverEnv.outbox)-1]
	sender.HandleEvent(senderEnv, Event{Kind: FrameReceived, Frame: ackFrame})

	if got := sender.Outstanding(); got != 0 {
		t.Fatalf("Outstanding() after ACK = %d, want 0", got)
	}
}

// TestGBNDataTimeoutRetransmitsWholeWindow exercises spec.md §8 scenario 5:
// every outstanding frame is retransmitted, in order, on a single timeout.
func TestGBNDataTimeoutRetransmitsWholeWindow(t *testing.T) {
	const pktLen = 8
	sender := New(policy.NewGBNAck(pktLen), nil)
	env := newFakeEnv()
	env.pending = [][]byte{
		packetWithID(0, pktLen), packetWithID(1, pktLen),
		packetWithID(2, pktLen), packetWithID(3, pktLen),
	}
	for i := 0; i < 4; i++ {
		sender.HandleEvent(env, Event{Kind: NetworkLayerReady})
	}
	env.outbox = nil // discard the original sends; only check the retransmit burst

	sender.HandleEvent(env, Event{Kind: DataTimeout, Slot: 0})

	if len(env.outbox) != 4 {
		t.Fatalf("retransmitted %d frames, want 4", len(env.outbox))
	}
	for i, f := range env.outbox {
		if f[2] != byte(i) {
			t.Errorf("retransmit[%d] seq = %d, want %d", i, f[2], i)
		}
	}
}

// TestSRSingleSlotTimeoutDisambiguation exercises the SR timer-arg recovery
// of spec.md §4.3/§9: the timer service only reports seq % NR_BUFS, and the
// sender must recover the true sequence via the Between test.
func TestSRSingleSlotTimeoutDisambiguation(t *testing.T) {
	const pktLen = 8
	v := policy.NewSR(7, pktLen) // small space for an easy-to-reason-about test: NRBufs = 4
	sender := New(v, nil)
	env := newFakeEnv()
	env.pending = make([][]byte, 0)
	for id := uint16(0); id < 4; id++ {
		env.pending = append(env.pending, packetWithID(id, pktLen))
	}
	for i := 0; i < 4; i++ {
		sender.HandleEvent(env, Event{Kind: NetworkLayerReady})
	}
	// ackExpected=0, nextFrameToSend=4, NRBufs=4: arg=0 could mean seq 0
	// (in window) directly.
	env.outbox = nil
	sender.HandleEvent(env, Event{Kind: DataTimeout, Slot: 0})
	if len(env.outbox) != 1 || env.outbox[0][2] != 0 {
		t.Fatalf("expected single retransmit of seq 0, got %v", env.outbox)
	}

	// ACK seq 0 and 1 (ack field names the cumulative boundary: ack=1
	// acknowledges everything up to and including seq 1).
	ackFrame := frame.BuildAck(1)
	sender.HandleEvent(env, Event{Kind: FrameReceived, Frame: ackFrame})
	if sender.Outstanding() != 2 {
		t.Fatalf("Outstanding() after ack = %d, want 2", sender.Outstanding())
	}

	// Now ackExpected=2, nextFrameToSend=4. Slot 0 is ambiguous: could be
	// seq 0 (already acked, stale) or seq 4 (not yet sent, impossible) —
	// but slot 2 is unambiguous for seq 2, so use that to prove recovery:
	// arg=2 is in [2,4) directly.
	env.outbox = nil
	sender.HandleEvent(env, Event{Kind: DataTimeout, Slot: 2})
	if len(env.outbox) != 1 || env.outbox[0][2] != 2 {
		t.Fatalf("expected retransmit of seq 2, got %v", env.outbox)
	}
}

// TestGBNNakCRCFailureTriggersRetransmit exercises spec.md §8 scenario 2: a
// corrupted DATA frame makes the receiver emit a NAK, which the sender uses
// to retransmit the whole window immediately rather than waiting out the
// data timer.
func TestGBNNakCRCFailureTriggersRetransmit(t *testing.T) {
	const pktLen = 8
	sender := New(policy.NewGBNNak(pktLen), nil)
	receiver := New(policy.NewGBNNak(pktLen), nil)

	senderEnv := newFakeEnv()
	senderEnv.pending = [][]byte{
		packetWithID(0, pktLen), packetWithID(1, pktLen), packetWithID(2, pktLen),
	}
	receiverEnv := newFakeEnv()

	for i := 0; i < 3; i++ {
		sender.HandleEvent(senderEnv, Event{Kind: NetworkLayerReady})
	}

	corrupt := append([]byte(nil), senderEnv.outbox[0]...)
	corrupt[len(corrupt)-1] ^= 0xFF // break the CRC trailer
	receiver.HandleEvent(receiverEnv, Event{Kind: FrameReceived, Frame: corrupt})

	if len(receiverEnv.delivered) != 0 {
		t.Fatalf("delivered %d packets before any valid DATA arrived, want 0", len(receiverEnv.delivered))
	}
	if len(receiverEnv.outbox) != 1 {
		t.Fatalf("receiver emitted %d frames on CRC failure, want 1 (a NAK)", len(receiverEnv.outbox))
	}
	nak := receiverEnv.outbox[0]
	if frame.Kind(nak[0]) != frame.Nak {
		t.Fatalf("receiver's frame kind = %v, want NAK", frame.Kind(nak[0]))
	}

	senderEnv.outbox = nil
	sender.HandleEvent(senderEnv, Event{Kind: FrameReceived, Frame: nak})
	if len(senderEnv.outbox) != 3 {
		t.Fatalf("NAK retransmitted %d frames, want 3 (whole window)", len(senderEnv.outbox))
	}
	for i, f := range senderEnv.outbox {
		if f[2] != byte(i) {
			t.Errorf("retransmit[%d] seq = %d, want %d", i, f[2], i)
		}
	}
}

// TestSROutOfOrderBufferingAndDrain exercises spec.md §8 scenario 3: a
// Selective-Repeat receiver buffers an out-of-order DATA frame and drains
// the whole in-order prefix once the gap closes, delivering packets to the
// network layer in order despite arriving out of order.
func TestSROutOfOrderBufferingAndDrain(t *testing.T) {
	const pktLen = 8
	v := policy.NewSR(7, pktLen) // NRBufs = 4
	sender := New(v, nil)
	receiver := New(v, nil)

	senderEnv := newFakeEnv()
	senderEnv.pending = [][]byte{
		packetWithID(0, pktLen), packetWithID(1, pktLen), packetWithID(2, pktLen),
	}
	receiverEnv := newFakeEnv()

	for i := 0; i < 3; i++ {
		sender.HandleEvent(senderEnv, Event{Kind: NetworkLayerReady})
	}

	// Deliver seq 1 and 2 before seq 0: the receiver must buffer them
	// without delivering anything yet.
	receiver.HandleEvent(receiverEnv, Event{Kind: FrameReceived, Frame: senderEnv.outbox[1]})
	receiver.HandleEvent(receiverEnv, Event{Kind: FrameReceived, Frame: senderEnv.outbox[2]})
	if len(receiverEnv.delivered) != 0 {
		t.Fatalf("delivered %d packets before seq 0 arrived, want 0", len(receiverEnv.delivered))
	}

	// Now seq 0 arrives, closing the gap: all three should drain in order.
	receiver.HandleEvent(receiverEnv, Event{Kind: FrameReceived, Frame: senderEnv.outbox[0]})
	if len(receiverEnv.delivered) != 3 {
		t.Fatalf("delivered %d packets after gap closed, want 3", len(receiverEnv.delivered))
	}
	for i, pkt := range receiverEnv.delivered {
		if id := uint16(pkt[0])<<8 | uint16(pkt[1]); id != uint16(i) {
			t.Errorf("delivered[%d] ID = %d, want %d", i, id, i)
		}
	}
}
