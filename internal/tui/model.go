// Package tui is the interactive terminal dashboard: limit and
// temperature gauges plus per-core readings, refreshed on a timer.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

// IntervalStep is how much +/- change the refresh interval.
const IntervalStep = 100 * time.Millisecond

// Source performs one read. smu.Reader.Read satisfies it.
type Source func() (*smu.Snapshot, error)

type tickMsg struct{}

type readMsg struct {
	snapshot *smu.Snapshot
	err      error
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	source   Source
	firmware string
	interval time.Duration
	keys     KeyMap
	theme    Theme
	width    int

	snapshot *smu.Snapshot
	err      error

	showTemps bool
	showPower bool
	showFreq  bool
}

// NewModel returns a dashboard polling source every interval.
func NewModel(source Source, firmware string, interval time.Duration) Model {
	return Model{
		source:    source,
		firmware:  firmware,
		interval:  max(interval, config.MinInterval),
		keys:      DefaultKeyMap,
		theme:     DefaultTheme,
		width:     80,
		showTemps: true,
		showPower: true,
		showFreq:  true,
	}
}

// Interval returns the current refresh interval.
func (model Model) Interval() time.Duration { return model.interval }

// Init reads once immediately.
func (model Model) Init() tea.Cmd {
	return model.read()
}

func (model Model) read() tea.Cmd {
	source := model.source
	return func() tea.Msg {
		snap, err := source()
		return readMsg{snapshot: snap, err: err}
	}
}

func (model Model) tick() tea.Cmd {
	return tea.Tick(model.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Update handles key presses, window resizes, and the read/tick cycle.
// Exactly one tick or read is outstanding at a time, so an interval
// change applies from the next tick on.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.ToggleTemps):
			model.showTemps = !model.showTemps
		case key.Matches(message, model.keys.TogglePower):
			model.showPower = !model.showPower
		case key.Matches(message, model.keys.ToggleFreq):
			model.showFreq = !model.showFreq
		case key.Matches(message, model.keys.Slower):
			model.interval += IntervalStep
		case key.Matches(message, model.keys.Faster):
			if next := model.interval - IntervalStep; next >= config.MinInterval {
				model.interval = next
			}
		}
		return model, nil

	case tea.WindowSizeMsg:
		model.width = message.Width
		return model, nil

	case readMsg:
		// A failed read keeps the last good snapshot on screen.
		if message.err != nil {
			model.err = message.err
		} else {
			model.snapshot, model.err = message.snapshot, nil
		}
		return model, model.tick()

	case tickMsg:
		return model, model.read()
	}
	return model, nil
}

// Run starts the dashboard on the alternate screen and blocks until
// the user quits.
func Run(source Source, firmware string, interval time.Duration) error {
	_, err := tea.NewProgram(NewModel(source, firmware, interval), tea.WithAltScreen()).Run()
	return err
}
