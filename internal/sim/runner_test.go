package sim

import (
	"context"
	"testing"
	"time"

	"github.com/Seizzzz/arqsuite/internal/arq/policy"
)

func TestRunCleanTransferGBNAck(t *testing.T) {
	cfg := Config{
		Variant:     policy.NewGBNAck(16),
		PacketsAToB: 10,
		Link: LinkConfig{
			MinDelay: time.Millisecond,
			MaxDelay: 3 * time.Millisecond,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.DeliveredAtB) != 10 {
		t.Fatalf("delivered %d packets, want 10", len(result.DeliveredAtB))
	}
	for i, pkt := range result.DeliveredAtB {
		id := int(pkt[0])<<8 | int(pkt[1])
		if id != i {
			t.Errorf("delivered[%d] id = %d, want %d", i, id, i)
		}
	}
}

func TestRunSurvivesLossAndCorruption(t *testing.T) {
	cfg := Config{
		Variant:     policy.NewGBNNak(16),
		PacketsAToB: 15,
		Link: LinkConfig{
			LossProb:    0.1,
			CorruptProb: 0.1,
			MinDelay:    time.Millisecond,
			MaxDelay:    4 * time.Millisecond,
		},
		SeedAToB: 1,
		SeedBToA: 2,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.DeliveredAtB) != 15 {
		t.Fatalf("delivered %d packets, want 15", len(result.DeliveredAtB))
	}
	for i, pkt := range result.DeliveredAtB {
		id := int(pkt[0])<<8 | int(pkt[1])
		if id != i {
			t.Errorf("delivered[%d] id = %d, want %d (out-of-order or duplicate delivery)", i, id, i)
		}
	}
}

func TestRunSelectiveRepeatReordering(t *testing.T) {
	cfg := Config{
		Variant:     policy.NewSR(7, 16), // NRBufs = 4
		PacketsAToB: 12,
		Link: LinkConfig{
			ReorderProb: 0.3,
			MinDelay:    time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
		},
		SeedAToB: 7,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.DeliveredAtB) != 12 {
		t.Fatalf("delivered %d packets, want 12", len(result.DeliveredAtB))
	}
	for i, pkt := range result.DeliveredAtB {
		id := int(pkt[0])<<8 | int(pkt[1])
		if id != i {
			t.Errorf("delivered[%d] id = %d, want %d", i, id, i)
		}
	}
}
