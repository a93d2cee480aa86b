// Package dashboard provides the usage dashboard tab: the option selector,
// the daily chart and the summary cards.
package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/j-veylop/llm-usage-tui/internal/app"
	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/nav"
	"github.com/j-veylop/llm-usage-tui/internal/ui/components"
	"github.com/j-veylop/llm-usage-tui/internal/ui/styles"
	"github.com/j-veylop/llm-usage-tui/internal/viewmodel"
)

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Left        key.Binding
	Right       key.Binding
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Detail      key.Binding
	ScrollLeft  key.Binding
	ScrollRight key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next column"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev option"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next option"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "drill down"),
		),
		Detail: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "daily detail"),
		),
		ScrollLeft: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "older days"),
		),
		ScrollRight: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "newer days"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state    *app.State
	src      viewmodel.Source
	builder  *viewmodel.Builder
	commands *app.Commands
	spinner  components.LoadingSpinner
	keys     keyMap
	viewport viewport.Model
	detail   table.Model
	width    int
	height   int
	// offset is how many days the chart is scrolled back from the latest day.
	offset     int
	showDetail bool
}

// New creates a new dashboard model.
func New(state *app.State, src viewmodel.Source, builder *viewmodel.Builder, commands *app.Commands) *Model {
	t := table.New(table.WithFocused(false))
	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle.Padding(0, 1)
	s.Cell = styles.TableCellStyle
	s.Selected = s.Cell
	t.SetStyles(s)

	return &Model{
		state:    state,
		src:      src,
		builder:  builder,
		commands: commands,
		spinner:  components.NewSpinner("Fetching usage..."),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		detail:   t,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.DataUpdatedMsg:
		if msg.Provider == m.state.Nav().Selection.Provider {
			m.dropVanishedDrill()
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// build computes the view for the current selector state.
func (m *Model) build() (viewmodel.View, error) {
	return m.builder.Build(m.src, m.state.Nav())
}

// dropVanishedDrill clears a drill-down whose bucket is no longer material
// after a refresh.
func (m *Model) dropVanishedDrill() {
	st := m.state.Nav()
	if st.Selection.Drill == "" {
		return
	}
	v, err := m.build()
	if err != nil {
		return
	}
	if !lo.Contains(v.DrillTargets, st.Selection.Drill) {
		st.Selection.Drill = ""
		m.state.SetNav(st)
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	st := m.state.Nav()

	var targets []string
	var buildErr tea.Cmd
	if v, err := m.build(); err == nil {
		targets = v.DrillTargets
	} else {
		logger.Error("cannot build dashboard view", "error", err)
		buildErr = m.commands.Error("dashboard", err)
	}

	var next nav.State
	switch {
	case key.Matches(msg, m.keys.Left):
		next = st.Left()
	case key.Matches(msg, m.keys.Right):
		next = st.Right()
	case key.Matches(msg, m.keys.Up):
		next = st.Up(targets)
	case key.Matches(msg, m.keys.Down):
		next = st.Down(targets)
	case key.Matches(msg, m.keys.Toggle):
		next = st.Toggle()
		if next.Expanded && len(targets) == 0 {
			return m.commands.NotifyInfo("No group is large enough to drill into")
		}
	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		return nil
	case key.Matches(msg, m.keys.ScrollLeft):
		m.offset++
		return nil
	case key.Matches(msg, m.keys.ScrollRight):
		m.offset = max(m.offset-1, 0)
		return nil
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	m.state.SetNav(next)
	// A range or metric switch can fold the drilled bucket away.
	m.dropVanishedDrill()
	next = m.state.Nav()
	if next.Selection == st.Selection {
		return buildErr
	}
	if next.Selection.Provider != st.Selection.Provider || next.Selection.Range != st.Selection.Range {
		m.offset = 0
	}
	return tea.Batch(buildErr, m.commands.SelectionChanged(next.Selection))
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Left,
		m.keys.Right,
		m.keys.Up,
		m.keys.Down,
		m.keys.Toggle,
		m.keys.Detail,
		m.keys.ScrollLeft,
		m.keys.ScrollRight,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Left, m.keys.Right, m.keys.Up, m.keys.Down},
		{m.keys.Toggle, m.keys.Detail},
		{m.keys.ScrollLeft, m.keys.ScrollRight},
	}
}

// selection returns the current selection.
func (m *Model) selection() models.Selection {
	return m.state.Nav().Selection
}
