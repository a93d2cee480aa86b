package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/llm-usage-tui/internal/ui/styles"
)

// LoadingSpinner is a dot spinner followed by a muted label, shown while a
// provider fetch is in flight.
type LoadingSpinner struct {
	model spinner.Model
	label string
}

// NewSpinner creates a spinner with the given label.
func NewSpinner(label string) LoadingSpinner {
	m := spinner.New(spinner.WithSpinner(spinner.Dot))
	m.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return LoadingSpinner{model: m, label: label}
}

// Init starts the animation.
func (l LoadingSpinner) Init() tea.Cmd {
	return l.model.Tick
}

// Update advances the animation on tick messages.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.model, cmd = l.model.Update(msg)
	return l, cmd
}

// View renders the spinner frame alone.
func (l LoadingSpinner) View() string {
	return l.model.View()
}

// ViewWithLabel renders the frame followed by the label.
func (l LoadingSpinner) ViewWithLabel() string {
	return l.model.View() + " " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(l.label)
}

// SetLabel replaces the label.
func (l *LoadingSpinner) SetLabel(label string) {
	l.label = label
}

// Label returns the current label.
func (l LoadingSpinner) Label() string {
	return l.label
}

// RenderSpinnerCentered places the labelled spinner in the middle of a
// width by height box.
func RenderSpinnerCentered(s *LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.ViewWithLabel(), width, height)
}
