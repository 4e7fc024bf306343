// internal/ui/model.go
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhath/ezgrid/internal/config"
	"github.com/nhath/ezgrid/internal/grid"
	"github.com/nhath/ezgrid/internal/query"
	"github.com/nhath/ezgrid/internal/scroll"
)

const (
	// border, header and header separator above the rows, border below
	tableChromeTop    = 3
	tableChromeBottom = 1
	statusBarHeight   = 1
	// left border plus the scrollbar column
	chromeWidth = 2

	wheelRows   = 3
	scrollCells = 4
)

// Options configures the root model
type Options struct {
	// Connection is shown in the status bar, e.g. a profile DSN
	Connection string
	Grid       config.GridConfig
	Keys       config.KeyMap
}

// Model is the root Bubble Tea model: one grid filling the terminal
type Model struct {
	grid      *grid.Grid
	selection *query.Selection
	opts      Options
	keys      keyMap

	ctx    context.Context
	cancel context.CancelFunc

	feed   *scroll.Feed
	detach func()

	spinner   spinner.Model
	filter    textinput.Model
	filtering bool

	width, height  int
	focus          int
	frameScheduled bool
	statusMsg      string
	errorMsg       string
}

// NewModel wraps g. sel is the selection g was created with; nil disables
// the filter prompt.
func NewModel(g *grid.Grid, sel *query.Selection, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	ti := textinput.New()
	ti.Prompt = "filter> "
	ti.PromptStyle = PromptStyle
	ti.Placeholder = "age >= 30 and name like 'A%'"

	feed := &scroll.Feed{}
	m := Model{
		grid:      g,
		selection: sel,
		opts:      opts,
		keys:      newKeyMap(opts.Keys),
		ctx:       ctx,
		cancel:    cancel,
		feed:      feed,
		spinner:   sp,
		filter:    ti,
	}
	m.detach = g.AttachInput(feed)
	return m
}

// Init queues the schema fetch
func (m Model) Init() tea.Cmd {
	m.grid.Init()
	return tea.Batch(m.runJobs(), m.spinner.Tick)
}

// runJobs turns the grid's queued backend work into commands. Each job runs
// off the event loop and reports back as a GridEventMsg.
func (m Model) runJobs() tea.Cmd {
	jobs := m.grid.Jobs()
	if len(jobs) == 0 {
		return nil
	}
	ctx := m.ctx
	cmds := make([]tea.Cmd, len(jobs))
	for i, job := range jobs {
		cmds[i] = func() tea.Msg {
			return GridEventMsg{Event: job(ctx)}
		}
	}
	return tea.Batch(cmds...)
}

// scheduleFrame asks for a frame tick when input is waiting and none is
// scheduled
func (m *Model) scheduleFrame() tea.Cmd {
	if m.frameScheduled || !m.grid.PendingInput() {
		return nil
	}
	m.frameScheduled = true
	rate := m.opts.Grid.FrameRate
	if rate <= 0 {
		rate = 60
	}
	return tea.Tick(time.Second/time.Duration(rate), func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

func (m Model) rowHeight() float64 {
	return float64(m.grid.Layout().RowHeight)
}

func (m Model) viewportSize() (float64, float64) {
	w := m.width - chromeWidth
	h := m.height - tableChromeTop - tableChromeBottom - statusBarHeight
	return float64(max(w, 0)), float64(max(h, 0))
}

// Update handles messages and updates model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filter.Width = max(msg.Width-12, 10)
		m.grid.Resize(m.viewportSize())

	case GridEventMsg:
		m.grid.Handle(msg.Event)
		if err := m.grid.Err(); err != nil {
			m.errorMsg = err.Error()
		}

	case frameMsg:
		m.frameScheduled = false
		m.grid.Frame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		if m.filtering {
			var cmd tea.Cmd
			m, cmd = m.handleFilterKey(msg)
			cmds = append(cmds, cmd)
			break
		}
		if key.Matches(msg, m.keys.Exit) {
			m.close()
			return m, tea.Quit
		}
		m.handleKey(msg)
		if m.filtering {
			cmds = append(cmds, textinput.Blink)
		}
	}

	cmds = append(cmds, m.scheduleFrame(), m.runJobs())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	_, vh := m.viewportSize()
	rh := m.rowHeight()
	m.statusMsg = ""

	switch {
	case key.Matches(msg, m.keys.Up):
		m.grid.ScrollBy(scroll.Delta{DY: -rh})
	case key.Matches(msg, m.keys.Down):
		m.grid.ScrollBy(scroll.Delta{DY: rh})
	case key.Matches(msg, m.keys.PageUp):
		m.grid.ScrollBy(scroll.Delta{DY: -vh})
	case key.Matches(msg, m.keys.PageDown):
		m.grid.ScrollBy(scroll.Delta{DY: vh})
	case key.Matches(msg, m.keys.Top):
		m.grid.ScrollToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.grid.ScrollToRow(m.grid.TotalRows() - 1)
	case key.Matches(msg, m.keys.ScrollLeft):
		m.grid.ScrollBy(scroll.Delta{DX: -scrollCells})
	case key.Matches(msg, m.keys.ScrollRight):
		m.grid.ScrollBy(scroll.Delta{DX: scrollCells})
	case key.Matches(msg, m.keys.NextColumn):
		m.focusColumn(m.focus + 1)
	case key.Matches(msg, m.keys.PrevColumn):
		m.focusColumn(m.focus - 1)
	case key.Matches(msg, m.keys.Sort), key.Matches(msg, m.keys.SortMulti):
		m.toggleSort(key.Matches(msg, m.keys.SortMulti))
	case key.Matches(msg, m.keys.Reload):
		m.errorMsg = ""
		m.grid.Init()
	case key.Matches(msg, m.keys.Filter):
		if m.selection != nil && m.grid.Schema() != nil {
			m.filtering = true
			m.filter.SetValue(m.filterText())
			m.filter.CursorEnd()
			m.filter.Focus()
		}
	}
}

func (m Model) filterText() string {
	if m.selection == nil || m.selection.Current().IsEmpty() {
		return ""
	}
	return m.selection.Current().String()
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEnter:
		f, err := query.ParseFilter(m.filter.Value(), m.grid.Schema())
		if err != nil {
			m.statusMsg = ""
			m.errorMsg = err.Error()
			return m, nil
		}
		m.filtering = false
		m.filter.Blur()
		m.errorMsg = ""
		m.selection.Update(f)
		m.statusMsg = "filter: " + f.String()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *Model) toggleSort(multi bool) {
	cols := m.grid.Layout().Columns
	if m.focus < 0 || m.focus >= len(cols) {
		return
	}
	if err := m.grid.ToggleSort(cols[m.focus].Key, multi); err != nil {
		m.errorMsg = err.Error()
		return
	}
	m.statusMsg = "sort: " + m.grid.Sort().String()
}

// focusColumn moves the column focus and scrolls the column into view
func (m *Model) focusColumn(i int) {
	cols := m.grid.Layout().Columns
	if len(cols) == 0 {
		return
	}
	i = max(0, min(i, len(cols)-1))
	m.focus = i

	c := cols[i]
	vw, _ := m.viewportSize()
	left := m.grid.ScrollLeft()
	switch {
	case float64(c.Offset) < left:
		m.grid.ScrollToX(float64(c.Offset))
	case float64(c.End()) > left+vw:
		m.grid.ScrollToX(float64(c.End()) - vw)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	rh := m.rowHeight()
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Shift {
			m.feed.Emit(scroll.Delta{DX: -scrollCells})
			return
		}
		m.feed.Emit(scroll.Delta{DY: -wheelRows * rh})
		return
	case tea.MouseButtonWheelDown:
		if msg.Shift {
			m.feed.Emit(scroll.Delta{DX: scrollCells})
			return
		}
		m.feed.Emit(scroll.Delta{DY: wheelRows * rh})
		return
	case tea.MouseButtonWheelLeft:
		m.feed.Emit(scroll.Delta{DX: -scrollCells})
		return
	case tea.MouseButtonWheelRight:
		m.feed.Emit(scroll.Delta{DX: scrollCells})
		return
	}

	// the rightmost column is the scrollbar track
	onTrack := msg.X == m.width-1
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && onTrack && m.grid.BeginDrag() {
			m.grid.DragTo(m.trackFraction(msg.Y))
		}
	case tea.MouseActionMotion:
		if m.grid.Dragging() {
			m.grid.DragTo(m.trackFraction(msg.Y))
		}
	case tea.MouseActionRelease:
		if m.grid.Dragging() {
			m.grid.EndDrag()
		}
	}
}

// trackFraction maps a terminal row on the scrollbar to a position in the
// dataset
func (m Model) trackFraction(y int) float64 {
	_, vh := m.viewportSize()
	if vh <= 1 {
		return 0
	}
	f := float64(y-tableChromeTop) / (vh - 1)
	return max(0, min(1, f))
}

func (m *Model) close() {
	m.cancel()
	if m.detach != nil {
		m.detach()
	}
	m.grid.Close()
}

// Grid returns the displayed grid
func (m Model) Grid() *grid.Grid { return m.grid }

// Status returns the last status and error messages
func (m Model) Status() (status, err string) { return m.statusMsg, m.errorMsg }
