package ui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/nhath/ezgrid/internal/config"
	"github.com/nhath/ezgrid/internal/grid"
	"github.com/nhath/ezgrid/internal/query"
)

func newTestModel(t *testing.T, rows int) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	InitStyles(cfg.Theme)

	data := make([]map[string]any, rows)
	for i := range data {
		data[i] = map[string]any{"id": int64(i + 1), "name": fmt.Sprintf("name-%03d", i+1)}
	}
	src := query.NewMemorySource()
	src.AddTable("people", []query.Field{
		{Column: "id", SQLType: "INTEGER"},
		{Column: "name", SQLType: "TEXT"},
	}, data)

	rh, err := cfg.Grid.RowHeight()
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	sel := query.NewSelection()
	g := grid.New(src, sel, grid.Options{
		Table:         "people",
		RootFontSize:  cfg.Grid.RootFontSize,
		TableFontSize: cfg.Grid.TableFontSize,
		RowHeight:     &rh,
		Logger:        logger,
	})
	m := NewModel(g, sel, Options{Connection: "memory", Grid: cfg.Grid, Keys: cfg.Keys})

	m = pump(t, m, m.Init())
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	return m
}

// pump runs cmd and feeds grid results back until no jobs remain. Ticks
// and other messages are dropped.
func pump(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case GridEventMsg:
			next, cmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, cmd)
		}
	}
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return pump(t, next.(Model), cmd)
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func firstVisible(t *testing.T, m Model) any {
	t.Helper()
	vis := m.grid.Ranges().Visible
	for _, r := range m.grid.VisibleRows() {
		if r.Index == vis.Start {
			if r.Record == nil {
				t.Fatalf("row %d not loaded", r.Index)
			}
			return r.Record["id"]
		}
	}
	t.Fatal("no visible rows")
	return nil
}

func TestModelLoadsAndRenders(t *testing.T) {
	m := newTestModel(t, 200)

	if m.grid.Loading() {
		t.Fatal("grid still loading")
	}
	if got := m.grid.TotalRows(); got != 200 {
		t.Fatalf("TotalRows = %d, want 200", got)
	}
	// 30 lines minus 5 of chrome, one line per row, fetched three viewports deep
	if w, ok := m.grid.Window(); !ok || w.Offset != 0 || w.Limit != 75 {
		t.Errorf("window = %+v, %v", w, ok)
	}

	view := m.View()
	for _, want := range []string{"name-001", "name-025", "people", "1-25 of 200"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
	if strings.Contains(view, "name-026") {
		t.Error("row below the viewport was rendered")
	}
}

func TestModelKeyScrolling(t *testing.T) {
	m := newTestModel(t, 200)

	m = update(t, m, keyPress("j"))
	if !m.frameScheduled {
		t.Fatal("expected a frame to be scheduled")
	}
	m = update(t, m, keyPress("j"))
	m = update(t, m, frameMsg{})
	if got := m.grid.ScrollTop(); got != 2 {
		t.Errorf("ScrollTop = %v, want 2", got)
	}
	if m.frameScheduled {
		t.Error("frame flag should clear once applied")
	}

	m = update(t, m, keyPress("G"))
	if got := firstVisible(t, m); got != int64(176) {
		t.Errorf("first visible id = %v, want 176", got)
	}
	m = update(t, m, keyPress("g"))
	if got := m.grid.ScrollTop(); got != 0 {
		t.Errorf("ScrollTop = %v, want 0", got)
	}
}

func TestModelMouseWheel(t *testing.T) {
	m := newTestModel(t, 200)

	m = update(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m = update(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m = update(t, m, frameMsg{})
	if got := m.grid.ScrollTop(); got != 2*wheelRows {
		t.Errorf("ScrollTop = %v, want %v", got, 2*wheelRows)
	}
}

func TestModelScrollbarDrag(t *testing.T) {
	m := newTestModel(t, 200)
	right := m.width - 1

	m = update(t, m, tea.MouseMsg{X: right, Y: tableChromeTop, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if !m.grid.Dragging() {
		t.Fatal("expected a drag on the scrollbar")
	}
	_, vh := m.viewportSize()
	m = update(t, m, tea.MouseMsg{X: right, Y: tableChromeTop + int(vh) - 1, Action: tea.MouseActionMotion})
	m = update(t, m, tea.MouseMsg{X: right, Action: tea.MouseActionRelease})
	if m.grid.Dragging() {
		t.Error("drag should end on release")
	}
	if got := firstVisible(t, m); got != int64(176) {
		t.Errorf("first visible id = %v, want 176", got)
	}
}

func TestModelSortKeys(t *testing.T) {
	m := newTestModel(t, 200)

	m = update(t, m, keyPress("s"))
	m = update(t, m, keyPress("s"))
	want := query.Sort{{Column: "id", Desc: true}}
	if diff := cmp.Diff(want, m.grid.Sort()); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}
	if got := firstVisible(t, m); got != int64(200) {
		t.Errorf("first visible id = %v, want 200", got)
	}
	if !strings.Contains(m.View(), "id ▼") {
		t.Error("header should show the sort direction")
	}

	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("S"))
	want = query.Sort{{Column: "id", Desc: true}, {Column: "name"}}
	if diff := cmp.Diff(want, m.grid.Sort()); diff != "" {
		t.Errorf("multi sort mismatch (-want +got):\n%s", diff)
	}
}

func TestModelFilterPrompt(t *testing.T) {
	m := newTestModel(t, 200)

	m = update(t, m, keyPress("/"))
	if !m.filtering {
		t.Fatal("expected the filter prompt")
	}
	m.filter.SetValue("id > 150 and name like 'name-1%'")
	m = update(t, m, keyPress("enter"))
	if m.filtering {
		t.Fatal("prompt should close on a valid filter")
	}
	if got := m.grid.TotalRows(); got != 49 {
		t.Errorf("TotalRows = %d, want 49", got)
	}
	if got := firstVisible(t, m); got != int64(151) {
		t.Errorf("first visible id = %v, want 151", got)
	}

	m = update(t, m, keyPress("/"))
	m.filter.SetValue("missing = 1")
	m = update(t, m, keyPress("enter"))
	if !m.filtering {
		t.Error("prompt should stay open on a bad filter")
	}
	if _, errMsg := m.Status(); !strings.Contains(errMsg, "unknown column") {
		t.Errorf("error = %q", errMsg)
	}
	m = update(t, m, keyPress("esc"))
	if m.filtering || m.grid.TotalRows() != 49 {
		t.Error("esc should close the prompt and keep the filter")
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, 10)
	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
	if m.ctx.Err() == nil {
		t.Error("context should be cancelled on quit")
	}
}
