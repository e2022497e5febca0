// Package sim provides the simulated physical link, network layer, and
// timer service the endpoint package's Env interface names as external
// collaborators (spec.md §6), so a pair of internal/arq/endpoint.Endpoint
// values can actually exchange frames end to end. Grounded on the shape of
// _teacher_ref/netstack/test/gvisor_test.go's channel-based harness
// (buffered chan []byte standing in for a wire, a goroutine per direction),
// generalised from a gVisor/netstack pairing to two ARQ endpoints and given
// an actual impairment model instead of a transparent pipe.
package sim

import (
	"math/rand"
	"sync"
	"time"
)

// LinkConfig parameterises one direction of a simulated link: independent
// per-frame probabilities for loss, corruption, reordering, and
// duplication, plus the propagation delay range frames experience.
type LinkConfig struct {
	LossProb      float64
	CorruptProb   float64
	ReorderProb   float64
	DuplicateProb float64

	MinDelay time.Duration
	MaxDelay time.Duration
}

// Link carries frames in one direction, applying LinkConfig's impairments
// before delivering each frame onto Out. There is no third-party
// deterministic-RNG library anywhere in the retrieved pack, so this uses
// stdlib math/rand directly, seeded per link for reproducible runs.
type Link struct {
	cfg LinkConfig
	out chan<- []byte

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLink returns a Link that delivers impaired frames onto out.
func NewLink(cfg LinkConfig, seed int64, out chan<- []byte) *Link {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Link{cfg: cfg, out: out, rng: rand.New(rand.NewSource(seed))}
}

// Send submits buf to the link. It is non-blocking: delivery (or its
// absence, on a simulated loss) happens on its own goroutine after a
// random delay, so concurrent sends can complete out of submission order —
// the same mechanism the ReorderProb knob amplifies deliberately.
func (l *Link) Send(buf []byte) {
	l.mu.Lock()
	drop := l.rng.Float64() < l.cfg.LossProb
	corrupt := l.rng.Float64() < l.cfg.CorruptProb
	duplicate := l.rng.Float64() < l.cfg.DuplicateProb
	delay := l.randomDelayLocked()
	var dupDelay time.Duration
	if duplicate {
		dupDelay = l.randomDelayLocked()
	}
	l.mu.Unlock()

	if drop {
		return
	}

	cp := append([]byte(nil), buf...)
	if corrupt && len(cp) > 0 {
		cp[len(cp)-1] ^= 0xFF
	}

	go l.deliverAfter(cp, delay)
	if duplicate {
		go l.deliverAfter(append([]byte(nil), cp...), dupDelay)
	}
}

// randomDelayLocked must be called with l.mu held.
func (l *Link) randomDelayLocked() time.Duration {
	span := l.cfg.MaxDelay - l.cfg.MinDelay
	d := l.cfg.MinDelay
	if span > 0 {
		d += time.Duration(l.rng.Int63n(int64(span)))
	}
	if l.rng.Float64() < l.cfg.ReorderProb {
		d += span + time.Duration(l.rng.Int63n(int64(span)+1))
	}
	return d
}

func (l *Link) deliverAfter(buf []byte, d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
	l.out <- buf
}
