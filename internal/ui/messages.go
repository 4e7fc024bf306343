// internal/ui/messages.go
package ui

import "github.com/nhath/ezgrid/internal/grid"

// GridEventMsg carries the result of a grid job back to the event loop
type GridEventMsg struct {
	Event grid.Event
}

// frameMsg applies the scroll input coalesced since the last frame
type frameMsg struct{}
