package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Seizzzz/arqsuite/internal/arq/policy"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Variant != "" {
		t.Fatalf("expected zero-value Scenario, got %+v", s)
	}
	v := s.Policy()
	if v.Name != policy.GBNAck {
		t.Fatalf("default policy = %v, want gbn-ack", v.Name)
	}
}

func TestLoadParsesScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yml")
	writeFile(t, path, `
variant: sr
max_seq: 63
pkt_len: 16
packets_a_to_b: 50
loss: 0.1
corrupt: 0.05
seed_a_to_b: 42
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := s.Policy()
	if v.Name != policy.SR {
		t.Fatalf("policy = %v, want sr", v.Name)
	}
	if v.NRBufs != 32 {
		t.Fatalf("NRBufs = %d, want 32", v.NRBufs)
	}
	aToB, bToA := s.PacketCounts()
	if aToB != 50 || bToA != 0 {
		t.Fatalf("PacketCounts = (%d, %d), want (50, 0)", aToB, bToA)
	}
}

func TestPacketCountsDefaultsToBulkTransfer(t *testing.T) {
	var s Scenario
	aToB, bToA := s.PacketCounts()
	if aToB != defaultPacketsAToB || bToA != 0 {
		t.Fatalf("PacketCounts = (%d, %d), want (%d, 0)", aToB, bToA, defaultPacketsAToB)
	}
}

func writeFile(tb testing.TB, path, content string) {
	tb.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}
