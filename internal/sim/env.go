package sim

import (
	"sync/atomic"
	"time"

	"github.com/Seizzzz/arqsuite/internal/arq/endpoint"
	"github.com/Seizzzz/arqsuite/internal/pcap"
)

// Env implements endpoint.Env for one side of a simulated link, wiring the
// physical layer to a Link, the network layer to a PacketSource/PacketSink
// pair, and the timer service to a TimerService. It is not referenced
// directly by the endpoint — only through the Env interface — preserving
// spec.md §9's "no globals" requirement even with two of these coexisting
// in the same process (internal/sim's own tests run two side by side).
type Env struct {
	link    *Link
	source  *PacketSource
	sink    *PacketSink
	timers  *TimerService
	capture *pcap.Capture

	enabled atomic.Bool
}

// NewEnv returns an Env for one endpoint. events is the channel the owning
// runner's event-loop goroutine drains; TimerService expiries are posted to
// it directly, and PhysicalLayerReady/FrameReceived are posted by the
// runner's own goroutines (see runner.go), since SendFrame has no return
// path to report "physical layer busy" in this simulation.
func NewEnv(link *Link, source *PacketSource, sink *PacketSink, events chan<- endpoint.Event, capture *pcap.Capture) *Env {
	return &Env{
		link:    link,
		source:  source,
		sink:    sink,
		timers:  NewTimerService(events),
		capture: capture,
	}
}

// SendFrame hands buf to the simulated physical layer (the Link), and
// records it to the pcap capture if one is attached — capturing pre-
// impairment, exactly as the frame left the sender, which is what spec.md
// §3's wire format describes.
func (e *Env) SendFrame(buf []byte) {
	if e.capture != nil {
		_ = e.capture.Record(buf)
	}
	e.link.Send(buf)
}

// GetPacket returns the next packet the simulated network layer offers.
func (e *Env) GetPacket() []byte {
	return e.source.Next()
}

// PutPacket delivers data to the simulated network layer's sink.
func (e *Env) PutPacket(data []byte) {
	e.sink.Put(data)
}

func (e *Env) StartTimer(slot uint8, d time.Duration) { e.timers.StartTimer(slot, d) }
func (e *Env) StopTimer(slot uint8)                   { e.timers.StopTimer(slot) }
func (e *Env) StartAckTimer(d time.Duration)          { e.timers.StartAckTimer(d) }
func (e *Env) StopAckTimer()                          { e.timers.StopAckTimer() }

// EnableNetworkLayer / DisableNetworkLayer flip the admission flag runner.go's
// pump goroutine polls to decide whether to post NETWORK_LAYER_READY.
func (e *Env) EnableNetworkLayer()  { e.enabled.Store(true) }
func (e *Env) DisableNetworkLayer() { e.enabled.Store(false) }

// admitted reports the current network-layer admission state.
func (e *Env) admitted() bool { return e.enabled.Load() }

// HasMorePackets reports whether this side's network layer still has a
// packet to offer.
func (e *Env) HasMorePackets() bool { return e.source.HasNext() }

// Stop disarms every timer owned by this Env, for clean shutdown.
func (e *Env) Stop() { e.timers.Stop() }
