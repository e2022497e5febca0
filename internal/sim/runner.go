package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Seizzzz/arqsuite/internal/arq/endpoint"
	"github.com/Seizzzz/arqsuite/internal/arq/policy"
	"github.com/Seizzzz/arqsuite/internal/pcap"
)

// Config fully parameterises one simulated run: the variant both endpoints
// share, how many packets each side's network layer offers, the link
// impairment model (applied independently in each direction), and an
// optional pcap trace path.
type Config struct {
	Variant policy.Variant

	PacketsAToB int
	PacketsBToA int

	Link LinkConfig

	SeedAToB int64
	SeedBToA int64

	PcapPath string

	Logger *slog.Logger

	// OnProgress, if set, is called periodically with the running delivery
	// counts so a CLI can drive a progress bar (cmd/arqsim).
	OnProgress func(deliveredAtB, wantAtB, deliveredAtA, wantAtA int)
}

// Result reports what a Run produced: every packet each side's network
// layer received, in delivery order, for spec.md §8's testable properties
// to be checked against.
type Result struct {
	DeliveredAtB [][]byte // packets A sent that B's network layer received
	DeliveredAtA [][]byte // packets B sent that A's network layer received
	Duration     time.Duration
}

// Run wires up two endpoints over a simulated bidirectional link and drives
// them to completion: every packet either side's network layer offered has
// either been delivered to the other side's sink or the context expired.
// Grounded on _examples/m-lab-etl/active/poller.go's errgroup.Group usage
// (eg.Go(f); eg.Wait()) for goroutine lifecycle, generalised from a job
// pool to the fixed set of per-endpoint pump/receive goroutines a two-party
// simulated link needs.
func Run(ctx context.Context, cfg Config) (Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var capture *pcap.Capture
	if cfg.PcapPath != "" {
		c, err := pcap.Open(cfg.PcapPath, 65535)
		if err != nil {
			return Result{}, fmt.Errorf("sim: open pcap capture: %w", err)
		}
		capture = c
		defer capture.Close()
	}

	eventsA := make(chan endpoint.Event, 256)
	eventsB := make(chan endpoint.Event, 256)
	inboundA := make(chan []byte, 256)
	inboundB := make(chan []byte, 256)

	linkAtoB := NewLink(cfg.Link, cfg.SeedAToB, inboundB)
	linkBtoA := NewLink(cfg.Link, cfg.SeedBToA, inboundA)

	sourceA := NewPacketSource(cfg.PacketsAToB, cfg.Variant.PktLen)
	sourceB := NewPacketSource(cfg.PacketsBToA, cfg.Variant.PktLen)
	sinkB := NewPacketSink() // receives what A sends
	sinkA := NewPacketSink() // receives what B sends

	envA := NewEnv(linkAtoB, sourceA, sinkA, eventsA, capture)
	envB := NewEnv(linkBtoA, sourceB, sinkB, eventsB, capture)
	defer envA.Stop()
	defer envB.Stop()

	epA := endpoint.New(cfg.Variant, log.With("side", "A"))
	epB := endpoint.New(cfg.Variant, log.With("side", "B"))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(runCtx)

	eg.Go(func() error { runEventLoop(egCtx, epA, envA, eventsA); return nil })
	eg.Go(func() error { runEventLoop(egCtx, epB, envB, eventsB); return nil })
	eg.Go(func() error { forwardFrames(egCtx, inboundA, eventsA); return nil })
	eg.Go(func() error { forwardFrames(egCtx, inboundB, eventsB); return nil })
	eg.Go(func() error { pumpNetworkLayer(egCtx, envA, eventsA); return nil })
	eg.Go(func() error { pumpNetworkLayer(egCtx, envB, eventsB); return nil })

	start := time.Now()

	// Physical layer is idle at startup on both sides.
	eventsA <- endpoint.Event{Kind: endpoint.PhysicalLayerReady}
	eventsB <- endpoint.Event{Kind: endpoint.PhysicalLayerReady}

	wantAtB := cfg.PacketsAToB
	wantAtA := cfg.PacketsBToA

	eg.Go(func() error {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-egCtx.Done():
				return nil
			case <-ticker.C:
				atB, atA := sinkB.Len(), sinkA.Len()
				if cfg.OnProgress != nil {
					cfg.OnProgress(atB, wantAtB, atA, wantAtA)
				}
				if atB >= wantAtB && atA >= wantAtA {
					cancel()
					return nil
				}
			}
		}
	})

	_ = eg.Wait()

	if ctx.Err() != nil && (sinkB.Len() < wantAtB || sinkA.Len() < wantAtA) {
		return Result{}, fmt.Errorf("sim: run did not complete: delivered %d/%d (A->B), %d/%d (B->A): %w",
			sinkB.Len(), wantAtB, sinkA.Len(), wantAtA, ctx.Err())
	}

	return Result{
		DeliveredAtB: sinkB.Delivered(),
		DeliveredAtA: sinkA.Delivered(),
		Duration:     time.Since(start),
	}, nil
}

// runEventLoop is the single goroutine permitted to call ep.HandleEvent,
// preserving the "one struct, driven serially" model spec.md §9 calls for.
func runEventLoop(ctx context.Context, ep *endpoint.Endpoint, env *Env, events <-chan endpoint.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			ep.HandleEvent(env, ev)
		}
	}
}

// forwardFrames turns frames the Link delivered into FRAME_RECEIVED events
// on the owning endpoint's event queue.
func forwardFrames(ctx context.Context, inbound <-chan []byte, events chan<- endpoint.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case buf := <-inbound:
			select {
			case events <- endpoint.Event{Kind: endpoint.FrameReceived, Frame: buf}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// pumpNetworkLayer posts NETWORK_LAYER_READY whenever the endpoint has
// admitted the network layer and a packet remains to send. It stands in
// for the original design's external event source deciding when to call
// wait_for_event with that event (spec.md §4.5): here the decision is
// "admission is open and the simulated network layer has something to
// offer". At most one NETWORK_LAYER_READY is outstanding at a time. While
// admission is closed it posts PHYSICAL_LAYER_READY instead: SendFrame
// never blocks, so the simulated physical layer is idle again by the next
// tick.
func pumpNetworkLayer(ctx context.Context, env *Env, events chan<- endpoint.Event) {
	ticker := time.NewTicker(200 * time.Microsecond)
	defer ticker.Stop()
	posted := false // a NETWORK_LAYER_READY is queued and not yet handled
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			admitted := env.admitted()
			if (posted && admitted) || !env.HasMorePackets() {
				continue
			}
			posted = admitted
			ev := endpoint.Event{Kind: endpoint.PhysicalLayerReady}
			if admitted {
				ev.Kind = endpoint.NetworkLayerReady
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
