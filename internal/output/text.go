package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

// defaultCoresPerCCD groups cores when the codename has no topology.
const defaultCoresPerCCD = 8

// WriteText writes the human-readable report. Per-core lines are shown
// only for values > 0, which hides parked and offline cores along with
// arrays the table version does not carry (NaN).
func WriteText(w io.Writer, snap *smu.Snapshot, firmware string, sections config.Sections) error {
	_, err := io.WriteString(w, FormatText(snap, firmware, sections))
	return err
}

// FormatText returns the report WriteText writes.
func FormatText(snap *smu.Snapshot, firmware string, sections config.Sections) string {
	var b strings.Builder

	// ── Header ──
	fmt.Fprintf(&b, "AMD Ryzen (%s)\n", snap.Codename)
	if firmware != "" {
		fmt.Fprintf(&b, "%s | ", firmware)
	}
	fmt.Fprintf(&b, "PM Table v%#x\n\n", snap.Version)

	if sections.ShowTemps() {
		writeTemps(&b, snap)
	}
	if sections.ShowPower() {
		writePower(&b, snap)
	}
	if sections.ShowFreq() {
		writeFreqs(&b, snap)
	}
	if sections.All() {
		b.WriteString("Voltages:\n")
		fmt.Fprintf(&b, "  VCore:          %.3fV\n", snap.CoreVoltage)
		fmt.Fprintf(&b, "  VSoC:           %.3fV\n", snap.SoCVoltage)
	}
	return b.String()
}

func writeTemps(b *strings.Builder, snap *smu.Snapshot) {
	b.WriteString("Temperatures:\n")
	fmt.Fprintf(b, "  Tctl:           %+.1f°C  (limit: %.1f°C)\n", snap.Tctl, snap.ThermalLimit)
	fmt.Fprintf(b, "  SoC:            %+.1f°C\n", snap.SoCTemp)

	perCCD := snap.Codename.Topology().CoresPerDie
	if perCCD <= 0 {
		perCCD = defaultCoresPerCCD
	}
	temps := snap.CoreTemps
	for start := 0; start < len(temps); start += perCCD {
		end := min(start+perCCD, len(temps))
		if !anyPositive(temps[start:end]) {
			continue
		}
		fmt.Fprintf(b, "  CCD%d:\n", start/perCCD)
		for i := start; i < end; i++ {
			if temps[i] > 0 {
				fmt.Fprintf(b, "    Core %2d:      %+.1f°C\n", i, temps[i])
			}
		}
	}
	b.WriteString("\n")
}

func writePower(b *strings.Builder, snap *smu.Snapshot) {
	b.WriteString("Power:\n")
	fmt.Fprintf(b, "  Package:        %.1fW / %.1fW (PPT)\n", snap.PPTValue, snap.PPTLimit)
	fmt.Fprintf(b, "  TDC:            %.1fA / %.1fA\n", snap.TDCValue, snap.TDCLimit)
	fmt.Fprintf(b, "  EDC:            %.1fA / %.1fA\n", snap.EDCValue, snap.EDCLimit)
	fmt.Fprintf(b, "  SoC:            %.1fW\n", snap.SoCPower)
	for i, p := range snap.CorePower {
		if p > 0 {
			fmt.Fprintf(b, "  Core %2d:        %.2fW\n", i, p)
		}
	}
	b.WriteString("\n")
}

func writeFreqs(b *strings.Builder, snap *smu.Snapshot) {
	b.WriteString("Frequencies:\n")
	fmt.Fprintf(b, "  FCLK:           %.0f MHz\n", snap.FabricClock)
	fmt.Fprintf(b, "  MCLK:           %.0f MHz\n", snap.MemoryClock)
	for i, f := range snap.CoreFreqs {
		if f > 0 {
			fmt.Fprintf(b, "  Core %2d:        %.0f MHz (eff: %.0f)  C0: %.1f%%\n",
				i, f, snap.CoreFreqsEff[i], snap.CoreC0[i])
		}
	}
	b.WriteString("\n")
}

func anyPositive(values []float32) bool {
	for _, v := range values {
		if v > 0 {
			return true
		}
	}
	return false
}
