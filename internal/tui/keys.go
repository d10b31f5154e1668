package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings.
type KeyMap struct {
	Quit key.Binding

	// Section toggles.
	ToggleTemps key.Binding
	TogglePower key.Binding
	ToggleFreq  key.Binding

	// Refresh interval.
	Slower key.Binding // +100ms
	Faster key.Binding // -100ms, not below the minimum
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ToggleTemps: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "temps"),
	),
	TogglePower: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "power"),
	),
	ToggleFreq: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "freq"),
	),
	Slower: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "slower"),
	),
	Faster: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "faster"),
	),
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.ToggleTemps, k.TogglePower, k.ToggleFreq, k.Slower, k.Faster}
}
