// Package config loads a YAML scenario file describing one simulation run:
// which variant to exercise, any policy overrides, and the link-impairment
// knobs. Grounded on cmd/ccapp/site_config.go's LoadSiteConfig: a missing
// file is not an error, and yields a zero-value config the caller fills
// in with defaults rather than failing the run.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Seizzzz/arqsuite/internal/arq/policy"
)

// Scenario describes one simulation run, loaded from YAML.
type Scenario struct {
	// Variant names one of "gbn-ack", "gbn-nak", "gbn-noack", "sr".
	// Defaults to "gbn-ack" when empty.
	Variant string `yaml:"variant"`

	// MaxSeq overrides the variant's default MAX_SEQ when non-zero.
	MaxSeq uint8 `yaml:"max_seq"`

	// PktLen is the fixed network-layer packet size. Defaults to 32.
	PktLen int `yaml:"pkt_len"`

	// DataTimerMS / AckTimerMS override the variant's default timer
	// durations, in milliseconds, when non-zero.
	DataTimerMS int `yaml:"data_timer_ms"`
	AckTimerMS  int `yaml:"ack_timer_ms"`

	// PacketsAToB / PacketsBToA are the number of network-layer packets
	// each side's simulated network layer offers. Defaults to 20 / 0 (a
	// one-way bulk transfer, the shape every original_source program
	// demonstrates).
	PacketsAToB int `yaml:"packets_a_to_b"`
	PacketsBToA int `yaml:"packets_b_to_a"`

	// Loss / Corrupt / Reorder / Duplicate are per-frame probabilities in
	// [0, 1] applied independently by the simulated link in each direction.
	Loss      float64 `yaml:"loss"`
	Corrupt   float64 `yaml:"corrupt"`
	Reorder   float64 `yaml:"reorder"`
	Duplicate float64 `yaml:"duplicate"`

	// SeedAToB / SeedBToA seed the two link directions' impairment RNGs
	// independently so a run is reproducible.
	SeedAToB int64 `yaml:"seed_a_to_b"`
	SeedBToA int64 `yaml:"seed_b_to_a"`

	// PcapPath, if non-empty, writes every frame the link carries to a
	// libpcap-formatted file at this path (internal/pcap).
	PcapPath string `yaml:"pcap_path"`
}

// defaultPktLen matches the original_source programs' `#define PKT_LEN`
// convention of a small fixed payload, large enough to carry a 2-byte
// packet ID.
const defaultPktLen = 32

// defaultPacketsAToB is the bulk-transfer size used when a scenario doesn't
// specify one.
const defaultPacketsAToB = 20

// Load reads and parses a scenario file at path. A missing file is not an
// error: it returns the zero-value Scenario, which Policy and PacketCounts
// fill in with defaults, rather than failing the run, matching
// LoadSiteConfig's posture.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("scenario config not found, using defaults", "path", path)
			return Scenario{}, nil
		}
		return Scenario{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	slog.Debug("loaded scenario config", "path", path, "variant", s.Variant)
	return s, nil
}

// Policy builds the policy.Variant this scenario describes, applying any
// overrides on top of the named preset.
func (s Scenario) Policy() policy.Variant {
	pktLen := s.PktLen
	if pktLen == 0 {
		pktLen = defaultPktLen
	}

	var v policy.Variant
	switch policy.Name(s.Variant) {
	case policy.GBNNak:
		v = policy.NewGBNNak(pktLen)
	case policy.GBNNoAck:
		v = policy.NewGBNNoAck(pktLen)
	case policy.SR:
		maxSeq := s.MaxSeq
		if maxSeq == 0 {
			maxSeq = 63
		}
		v = policy.NewSR(maxSeq, pktLen)
	case policy.GBNAck, "":
		v = policy.NewGBNAck(pktLen)
	default:
		v = policy.NewGBNAck(pktLen)
	}

	if s.MaxSeq != 0 && policy.Name(s.Variant) != policy.SR {
		v.MaxSeq = s.MaxSeq
		v.WindowSize = s.MaxSeq
	}
	if s.DataTimerMS != 0 {
		v.DataTimer = msDuration(s.DataTimerMS)
	}
	if s.AckTimerMS != 0 {
		v.AckTimer = msDuration(s.AckTimerMS)
	}
	return v
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// PacketCounts returns the number of network-layer packets each side's
// simulated network layer should offer, applying the bulk-transfer default
// when the scenario leaves both unset.
func (s Scenario) PacketCounts() (aToB, bToA int) {
	if s.PacketsAToB == 0 && s.PacketsBToA == 0 {
		return defaultPacketsAToB, 0
	}
	return s.PacketsAToB, s.PacketsBToA
}
