package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hartyporpoise/smusensors/internal/smu"
)

// socTempScale is the full-scale value of the SoC temperature gauge;
// the table carries no SoC limit.
const socTempScale = 80

// View renders the dashboard.
func (model Model) View() string {
	var sections []string
	sections = append(sections, model.viewHeader())

	if model.err != nil {
		sections = append(sections, model.box("Error",
			lipgloss.NewStyle().Foreground(model.theme.Error).Render(model.err.Error())))
	}
	if snap := model.snapshot; snap != nil {
		if model.showPower {
			sections = append(sections, model.viewLimits(snap))
		}
		if model.showTemps {
			sections = append(sections, model.viewTemps(snap))
		}
		sections = append(sections, model.viewCores(snap))
	} else if model.err == nil {
		sections = append(sections, lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("Reading PM table…"))
	}

	sections = append(sections, model.viewFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model Model) viewHeader() string {
	title := "AMD Ryzen"
	if model.snapshot != nil {
		title = fmt.Sprintf("AMD Ryzen (%s) | PM Table v%#x", model.snapshot.Codename, model.snapshot.Version)
	}
	if model.firmware != "" {
		title += " | " + model.firmware
	}
	title += fmt.Sprintf(" | %dms", model.interval.Milliseconds())
	return lipgloss.NewStyle().Bold(true).Foreground(model.theme.Title).Render(title)
}

func (model Model) viewLimits(snap *smu.Snapshot) string {
	width := model.gaugeWidth()
	lines := []string{
		model.gaugeLine("PPT", snap.PPTValue, snap.PPTLimit, fmt.Sprintf("%.1fW / %.1fW", snap.PPTValue, snap.PPTLimit), width),
		model.gaugeLine("TDC", snap.TDCValue, snap.TDCLimit, fmt.Sprintf("%.1fA / %.1fA", snap.TDCValue, snap.TDCLimit), width),
		model.gaugeLine("EDC", snap.EDCValue, snap.EDCLimit, fmt.Sprintf("%.1fA / %.1fA", snap.EDCValue, snap.EDCLimit), width),
	}
	return model.box("Limits", strings.Join(lines, "\n"))
}

func (model Model) viewTemps(snap *smu.Snapshot) string {
	width := model.gaugeWidth()
	tctlColor := model.theme.Level(snap.Tctl, 70, 85)
	socColor := model.theme.Level(snap.SoCTemp, 50, 70)
	lines := []string{
		model.gauge("Tctl", ratio(snap.Tctl, snap.ThermalLimit), tctlColor,
			fmt.Sprintf("%.1f°C / %.1f°C", snap.Tctl, snap.ThermalLimit), width),
		model.gauge("SoC", ratio(snap.SoCTemp, socTempScale), socColor,
			fmt.Sprintf("%.1f°C", snap.SoCTemp), width),
	}
	return model.box("Temperatures", strings.Join(lines, "\n"))
}

// viewCores renders one line per reading kind; values <= 0 (parked
// cores, absent arrays) are skipped.
func (model Model) viewCores(snap *smu.Snapshot) string {
	var lines []string
	if model.showTemps {
		lines = append(lines, model.coreLine("Temps:", snap.CoreTemps, func(v float32) (string, lipgloss.Color) {
			return fmt.Sprintf("%5.1f°C", v), model.theme.Level(v, 70, 85)
		}))
	}
	if model.showFreq {
		lines = append(lines, model.coreLine("Freqs:", snap.CoreFreqs, func(v float32) (string, lipgloss.Color) {
			return fmt.Sprintf("%4.0fMHz", v), model.theme.Label
		}))
	}
	if model.showPower {
		lines = append(lines, model.coreLine("Power:", snap.CorePower, func(v float32) (string, lipgloss.Color) {
			return fmt.Sprintf("%5.2fW", v), model.theme.Power
		}))
	}
	if model.showFreq {
		lines = append(lines, model.coreLine("C0:", snap.CoreC0, func(v float32) (string, lipgloss.Color) {
			return fmt.Sprintf("%5.1f%%", v), model.theme.C0
		}))
	}
	if len(lines) == 0 {
		return ""
	}
	return model.box("Per-Core Metrics", strings.Join(lines, "\n"))
}

func (model Model) coreLine(label string, values []float32, render func(float32) (string, lipgloss.Color)) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(8).Foreground(model.theme.Label).Render(label))
	for i, v := range values {
		if !(v > 0) {
			continue
		}
		text, color := render(v)
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("C%d: %s  ", i, text)))
	}
	return b.String()
}

func (model Model) viewFooter() string {
	var parts []string
	for _, binding := range model.keys.ShortHelp() {
		help := binding.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", help.Key, help.Desc))
	}
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(" " + strings.Join(parts, "  "))
}

func (model Model) gaugeLine(label string, value, limit float32, text string, width int) string {
	r := ratio(value, limit)
	return model.gauge(label, r, model.theme.Level(float32(r), 0.75, 0.9), text, width)
}

// gauge renders "label [█████░░░░░] text" with the filled part colored.
func (model Model) gauge(label string, r float64, color lipgloss.Color, text string, width int) string {
	filled := int(r*float64(width) + 0.5)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(model.theme.Border).Render(strings.Repeat("░", width-filled))
	name := lipgloss.NewStyle().Width(6).Foreground(model.theme.Label).Render(label)
	return fmt.Sprintf("%s %s %s", name, bar, text)
}

func (model Model) gaugeWidth() int {
	return max(10, min(60, model.width-36))
}

func (model Model) box(title, body string) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(model.theme.Title).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.Border).
		Padding(0, 1).
		Render(heading + "\n" + body)
}

// ratio returns value/limit clamped to [0, 1]. A non-positive limit or
// NaN reading gives 0.
func ratio(value, limit float32) float64 {
	if !(limit > 0) || !(value > 0) {
		return 0
	}
	return min(1, float64(value)/float64(limit))
}
