// Command arqsim runs one simulated sliding-window link to completion and
// reports the outcome. Grounded on cmd/cc/main.go's run()-error/os.Exit
// shape: flag-based CLI, slog configured once at startup, a single run()
// error funnelled to os.Exit(1).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Seizzzz/arqsuite/internal/config"
	"github.com/Seizzzz/arqsuite/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "arqsim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	scenarioPath := flag.String("scenario", "", "Path to a YAML scenario file (default: built-in gbn-ack bulk transfer)")
	pcapOverride := flag.String("pcap", "", "Write a libpcap trace to this path (overrides the scenario's pcap_path)")
	dbg := flag.Bool("debug", false, "Enable debug logging")
	timeout := flag.Duration("timeout", 30*time.Second, "Maximum time to let the simulation run")
	flag.Parse()

	level := slog.LevelInfo
	if *dbg {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var scenario config.Scenario
	if *scenarioPath != "" {
		s, err := config.Load(*scenarioPath)
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		scenario = s
	}

	pcapPath := scenario.PcapPath
	if *pcapOverride != "" {
		pcapPath = *pcapOverride
	}

	variant := scenario.Policy()
	aToB, bToA := scenario.PacketCounts()

	slog.Info("starting simulation",
		"variant", variant.Name,
		"max_seq", variant.MaxSeq,
		"packets_a_to_b", aToB,
		"packets_b_to_a", bToA,
	)

	total := aToB + bToA
	bar := progressbar.Default(int64(total))

	var delivered int
	cfg := sim.Config{
		Variant:     variant,
		PacketsAToB: aToB,
		PacketsBToA: bToA,
		Link: sim.LinkConfig{
			LossProb:      scenario.Loss,
			CorruptProb:   scenario.Corrupt,
			ReorderProb:   scenario.Reorder,
			DuplicateProb: scenario.Duplicate,
			MinDelay:      time.Millisecond,
			MaxDelay:      5 * time.Millisecond,
		},
		SeedAToB: scenario.SeedAToB,
		SeedBToA: scenario.SeedBToA,
		PcapPath: pcapPath,
		Logger:   slog.Default(),
		OnProgress: func(atB, wantB, atA, wantA int) {
			if d := (atB + atA) - delivered; d > 0 {
				delivered += d
				_ = bar.Add(d)
			}
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	result, err := sim.Run(ctx, cfg)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("simulation timed out after %s: %w", *timeout, err)
		}
		return err
	}
	_ = bar.Finish()

	slog.Info("simulation complete",
		"delivered_a_to_b", len(result.DeliveredAtB),
		"delivered_b_to_a", len(result.DeliveredAtA),
		"duration", result.Duration,
	)
	if pcapPath != "" {
		slog.Info("wrote packet capture", "path", pcapPath)
	}
	return nil
}
