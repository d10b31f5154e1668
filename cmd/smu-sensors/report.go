package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/hartyporpoise/smusensors/internal/clock"
	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/output"
	"github.com/hartyporpoise/smusensors/internal/poll"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

func outputOptions(cfg *config.Config, access *smu.Access) output.Options {
	firmware, _ := access.FirmwareVersion()
	return output.Options{Format: cfg.Format, Firmware: firmware, Sections: cfg.Sections}
}

func runOnce(cfg *config.Config, w io.Writer) error {
	access, reader, err := openReader(cfg)
	if err != nil {
		return err
	}
	snap, err := reader.Read()
	if err != nil {
		return err
	}
	return output.Write(w, snap, outputOptions(cfg, access))
}

// runWatch re-reads every cfg.Interval until interrupted. A failed
// read is reported and the next one attempted. Text frames clear the
// screen when w is a terminal; JSON frames are one document per line.
func runWatch(ctx context.Context, cfg *config.Config, w io.Writer) error {
	access, reader, err := openReader(cfg)
	if err != nil {
		return err
	}
	opts := outputOptions(cfg, access)
	logger := newLogger(cfg)
	clearScreen := cfg.Format == config.FormatText && isTerminal(w)

	ctx, stop := signalContext(ctx)
	defer stop()

	return poll.Run(ctx, clock.Real(), cfg.Interval,
		func(ctx context.Context) error {
			snap, err := reader.Read()
			if err != nil {
				return err
			}
			if clearScreen {
				io.WriteString(w, output.ClearScreen)
			}
			if cfg.Format == config.FormatJSON {
				return output.EncodeJSON(w, snap, false)
			}
			return output.Write(w, snap, opts)
		},
		func(err error) error {
			fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
			logger.Debug("read failed", "kind", smu.KindOf(err).String(), "error", err)
			return nil
		})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
