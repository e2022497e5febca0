// Package endpoint implements the core sliding-window sender/receiver state
// machine (spec.md §4) as a single struct per peer, parameterised by a
// policy.Variant, so that multiple endpoints (e.g. in tests, or the two
// ends of a simulated link) can coexist rather than sharing process-wide
// globals — the encapsulation spec.md §9 "Global mutable state" calls for.
package endpoint

import "time"

// Env is the set of external collaborators spec.md §6 names: the
// physical-layer driver, the network-layer packet source/sink, the timer
// service, and the network-layer admission gate. An Endpoint never talks
// to these directly except through this interface, keeping the core
// independent of how frames are actually carried (internal/sim implements
// Env for tests and the CLI demo).
type Env interface {
	// SendFrame hands a fully framed, CRC-trailered buffer to the
	// physical layer. Corresponds to spec.md's put_frame/send_frame.
	SendFrame(buf []byte)

	// GetPacket returns the next outbound network-layer packet. It is
	// only called from onNetworkReady, which the event source is
	// expected to emit only when a packet is actually available.
	GetPacket() []byte

	// PutPacket delivers a packet to the network layer exactly once, in
	// order.
	PutPacket(data []byte)

	// StartTimer arms the per-slot data-retransmission timer for slot,
	// replacing any timer already running for that slot.
	StartTimer(slot uint8, d time.Duration)

	// StopTimer disarms the per-slot data-retransmission timer for slot.
	// A no-op if none is running.
	StopTimer(slot uint8)

	// StartAckTimer arms the singleton delayed-ACK timer, replacing any
	// timer already running.
	StartAckTimer(d time.Duration)

	// StopAckTimer disarms the delayed-ACK timer. A no-op if none is
	// running.
	StopAckTimer()

	// EnableNetworkLayer / DisableNetworkLayer gate NETWORK_LAYER_READY
	// emission; called at the end of HandleEvent per spec.md §4.5, and
	// only when the admission state changes.
	EnableNetworkLayer()
	DisableNetworkLayer()
}
