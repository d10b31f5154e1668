package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hartyporpoise/smusensors/internal/api"
	"github.com/hartyporpoise/smusensors/internal/clock"
	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/cpu"
	"github.com/hartyporpoise/smusensors/internal/metrics"
	"github.com/hartyporpoise/smusensors/internal/poll"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

func newServeCommand(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	fmt.Print(banner)
	logger := newLogger(cfg)

	// ── 1. Driver ─────────────────────────────────────────────────────────
	access, err := smu.Open(cfg.SysfsPath)
	if err != nil {
		return err
	}
	if codename, err := access.Codename(); err == nil {
		fmt.Printf("Processor: %s\n", codename)
	}
	if version, err := access.TableVersion(); err == nil {
		fmt.Printf("PM table:  %#x\n", version)
	}

	// ── 2. CPU detection (for /api/info) ──────────────────────────────────
	topo := cpu.Detect()
	fmt.Printf("CPU:       %s\n", topo.ModelName)
	fmt.Printf("Cores:     %d physical / %d logical\n\n", topo.PhysicalCores, topo.LogicalCores)

	ctx, stop := signalContext(ctx)
	defer stop()

	// ── 3. Poll loop ──────────────────────────────────────────────────────
	mc := metrics.NewCollector(clock.Real())
	srv := api.NewServer(cfg, access, coreHint(cfg), topo, mc, logger)
	loop := &poll.Loop{
		Clock:    clock.Real(),
		Interval: cfg.Interval,
		Step:     srv.Poll,
		Observe:  mc.RecordRead,
		OnError: func(err error) error {
			logger.Warn("poll failed", "kind", smu.KindOf(err).String(), "error", err)
			return nil
		},
	}
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	// ── 4. HTTP server ────────────────────────────────────────────────────
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	fmt.Printf("  smu-sensors is running at http://%s\n\n", addr)
	if err := srv.Run(ctx, addr); err != nil {
		stop()
		<-loopDone
		return err
	}
	return <-loopDone
}
