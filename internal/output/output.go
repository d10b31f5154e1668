// Package output renders decoded snapshots for people and programs:
// a sectioned text report, JSON, and CBOR.
package output

import (
	"fmt"
	"io"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

// ClearScreen moves the cursor home and clears the terminal; watch
// mode writes it before each frame.
const ClearScreen = "\x1b[2J\x1b[H"

// Options selects how a snapshot is rendered.
type Options struct {
	// Format is config.FormatText, FormatJSON or FormatCBOR.
	Format string

	// Firmware is the SMU firmware version shown in the text header.
	Firmware string

	// Sections filters text output.
	Sections config.Sections
}

// Write renders snap to w in opts.Format.
func Write(w io.Writer, snap *smu.Snapshot, opts Options) error {
	switch opts.Format {
	case config.FormatText, "":
		return WriteText(w, snap, opts.Firmware, opts.Sections)
	case config.FormatJSON:
		return EncodeJSON(w, snap, true)
	case config.FormatCBOR:
		return EncodeCBOR(w, snap)
	}
	return fmt.Errorf("output: unknown format %q", opts.Format)
}
