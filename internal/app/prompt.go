package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/ui/styles"
)

// keyPrompt asks for a provider's admin key when none is configured.
type keyPrompt struct {
	input    textinput.Model
	provider models.Provider
	active   bool
}

func newKeyPrompt() keyPrompt {
	ti := textinput.New()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 48
	ti.Prompt = "› "
	return keyPrompt{input: ti}
}

// open shows the prompt for a provider with an empty input.
func (k *keyPrompt) open(p models.Provider) tea.Cmd {
	k.provider = p
	k.active = true
	k.input.Reset()
	k.input.Placeholder = p.EnvKey()
	return k.input.Focus()
}

func (k *keyPrompt) close() {
	k.active = false
	k.input.Blur()
	k.input.Reset()
}

// value returns the trimmed input.
func (k *keyPrompt) value() string {
	return strings.TrimSpace(k.input.Value())
}

func (k *keyPrompt) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	k.input, cmd = k.input.Update(msg)
	return cmd
}

func (k *keyPrompt) view() string {
	var lines []string
	lines = append(lines, styles.TitleStyle.Render(fmt.Sprintf("%s admin key", k.provider)))
	lines = append(lines, styles.HelpStyle.Render(
		fmt.Sprintf("No %s is configured. Paste an admin key to load data.", k.provider.EnvKey())))
	lines = append(lines, "")
	lines = append(lines, styles.FocusedBorderStyle.Render(k.input.View()))
	lines = append(lines, "")
	lines = append(lines, styles.HelpStyle.Render("enter save • esc skip"))
	return styles.ModalContentStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
