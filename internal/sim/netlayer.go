package sim

import "sync"

// PacketSource is the simulated network layer's outbound side: a
// deterministic queue of packets, each PktLen bytes with its sequence index
// stamped into the first two bytes, matching the packetWithID convention
// the endpoint package's own tests use to check delivery order.
type PacketSource struct {
	mu     sync.Mutex
	pktLen int
	next   uint16
	total  int
}

// NewPacketSource returns a source that will offer count packets of pktLen
// bytes each.
func NewPacketSource(count, pktLen int) *PacketSource {
	return &PacketSource{pktLen: pktLen, total: count}
}

// HasNext reports whether another packet remains to be offered.
func (s *PacketSource) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.next) < s.total
}

// Next returns the next packet and advances the queue. Next must not be
// called when HasNext is false.
func (s *PacketSource) Next() []byte {
	s.mu.Lock()
	id := s.next
	s.next++
	pktLen := s.pktLen
	s.mu.Unlock()

	buf := make([]byte, pktLen)
	buf[0] = byte(id >> 8)
	if pktLen > 1 {
		buf[1] = byte(id)
	}
	return buf
}

// PacketSink is the simulated network layer's inbound side: it records
// every packet delivered, in the order put_packet received them, for
// spec.md §8's in-order-delivery invariant to be checked against.
type PacketSink struct {
	mu        sync.Mutex
	delivered [][]byte
}

// NewPacketSink returns an empty sink.
func NewPacketSink() *PacketSink {
	return &PacketSink{}
}

// Put records data as the next delivered packet.
func (s *PacketSink) Put(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, append([]byte(nil), data...))
}

// Delivered returns a snapshot of every packet recorded so far, in order.
func (s *PacketSink) Delivered() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.delivered))
	copy(out, s.delivered)
	return out
}

// Len reports how many packets have been delivered so far.
func (s *PacketSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}
