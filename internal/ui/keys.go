package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/nhath/ezgrid/internal/config"
)

type keyMap struct {
	Exit        key.Binding
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	ScrollLeft  key.Binding
	ScrollRight key.Binding
	NextColumn  key.Binding
	PrevColumn  key.Binding
	Sort        key.Binding
	SortMulti   key.Binding
	Reload      key.Binding
	Filter      key.Binding
}

func binding(keys []string, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(strings.Join(keys, "/"), desc),
	)
}

func newKeyMap(k config.KeyMap) keyMap {
	return keyMap{
		Exit:        binding(k.Exit, "quit"),
		Up:          binding(k.Up, "up"),
		Down:        binding(k.Down, "down"),
		PageUp:      binding(k.PageUp, "page up"),
		PageDown:    binding(k.PageDown, "page down"),
		Top:         binding(k.Top, "first row"),
		Bottom:      binding(k.Bottom, "last row"),
		ScrollLeft:  binding(k.ScrollLeft, "scroll left"),
		ScrollRight: binding(k.ScrollRight, "scroll right"),
		NextColumn:  binding(k.NextColumn, "next column"),
		PrevColumn:  binding(k.PrevColumn, "previous column"),
		Sort:        binding(k.Sort, "sort by column"),
		SortMulti:   binding(k.SortMulti, "add column to sort"),
		Reload:      binding(k.Reload, "reload"),
		Filter:      binding(k.Filter, "filter"),
	}
}
