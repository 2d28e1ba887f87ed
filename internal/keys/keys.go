package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the kiosk.
type KeyMap struct {
	// Capture flow
	Start  key.Binding
	Cancel key.Binding
	Retry  key.Binding

	// Notifications
	Dismiss    key.Binding
	DismissAll key.Binding

	// Help toggle
	Help key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Start: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter", "mark my attendance"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c", "esc"),
			key.WithHelp("c/esc", "cancel"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss notification"),
		),
		DismissAll: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss all"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Cancel, k.Retry, k.Help, k.Quit}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Cancel, k.Retry},
		{k.Dismiss, k.DismissAll},
		{k.Help, k.Quit},
	}
}
