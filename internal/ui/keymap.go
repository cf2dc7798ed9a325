package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit          key.Binding
	SwitchFocus   key.Binding
	Up            key.Binding
	Down          key.Binding
	Submit        key.Binding
	Cancel        key.Binding
	NewChat       key.Binding
	Rename        key.Binding
	DismissNotice key.Binding
	SignOut       key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:          key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	SwitchFocus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Up:            key.NewBinding(key.WithKeys("up", "k")),
	Down:          key.NewBinding(key.WithKeys("down", "j")),
	Submit:        key.NewBinding(key.WithKeys("enter")),
	Cancel:        key.NewBinding(key.WithKeys("esc")),
	NewChat:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Rename:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
	DismissNotice: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "dismiss")),
	SignOut:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "sign out")),
	ScrollUp:      key.NewBinding(key.WithKeys("pgup")),
	ScrollDown:    key.NewBinding(key.WithKeys("pgdown")),
}
