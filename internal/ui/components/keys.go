// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import "github.com/charmbracelet/bubbles/key"

// DialogKeyMap holds the bindings shared by the modal dialogs.
type DialogKeyMap struct {
	Keep    key.Binding
	End     key.Binding
	Next    key.Binding
	Prev    key.Binding
	Accept  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultDialogKeyMap returns the default dialog bindings.
func DefaultDialogKeyMap() DialogKeyMap {
	return DialogKeyMap{
		Keep: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "keep session"),
		),
		End: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "end session"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "tab", "l"),
			key.WithHelp("→/tab", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "shift+tab", "h"),
			key.WithHelp("←", "previous"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "no"),
		),
	}
}
