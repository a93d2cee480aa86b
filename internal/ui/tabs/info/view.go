package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/ui/styles"
	"github.com/j-veylop/llm-usage-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderCredentialsCard())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderCredentialsCard shows which providers have an admin key.
func (m *Model) renderCredentialsCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Admin Keys"))

	for _, p := range models.Providers {
		status := styles.WarningTextStyle.Render("missing")
		if m.creds != nil && m.creds.HasCredential(p) {
			status = styles.SuccessTextStyle.Render("configured")
		}
		rows = append(rows, m.renderConfigRow(p.String(), fmt.Sprintf("%s  %s", status, styles.HelpStyle.Render(p.EnvKey()))))
	}

	if last := m.state.GetLastUpdated(); !last.IsZero() {
		rows = append(rows, "")
		rows = append(rows, m.renderConfigRow("Last Refresh", last.Format("2006-01-02 15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the effective settings.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))

	if cfg := m.config; cfg != nil {
		rows = append(rows, m.renderConfigRow("Env File", orDefault(cfg.EnvFile, "(none)")))
		rows = append(rows, m.renderConfigRow("Log File", orDefault(cfg.LogFile, "(none)")))
		rows = append(rows, m.renderConfigRow("Log Level", cfg.LogLevel))
		rows = append(rows, m.renderConfigRow("OpenAI API", orDefault(cfg.OpenAIBaseURL, "default")))
		rows = append(rows, m.renderConfigRow("Anthropic API", orDefault(cfg.AnthropicBaseURL, "default")))
		rows = append(rows, m.renderConfigRow("Timeout", cfg.RequestTimeout.String()))
		rows = append(rows, m.renderConfigRow("Max Retries", fmt.Sprintf("%d", cfg.MaxRetries)))
		rows = append(rows, "")
		rows = append(rows, m.renderConfigRow("Noise Floor", models.FormatCost(cfg.CostNoiseFloor)))
		rows = append(rows, m.renderConfigRow("Materiality", fmt.Sprintf("%.0f%%", cfg.MaterialityThreshold*100)))
		rows = append(rows, m.renderConfigRow("Outliers", fmt.Sprintf("%.1fx p%.0f", cfg.OutlierRatio, cfg.OutlierPercentile*100)))
		alert := "off"
		if cfg.CostAlertThreshold > 0 {
			alert = models.FormatCost(cfg.CostAlertThreshold) + " / day"
		}
		rows = append(rows, m.renderConfigRow("Spend Alert", alert))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About"))

	rows = append(rows, m.renderConfigRow("Version", version.GetVersion()))
	rows = append(rows, m.renderConfigRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderConfigRow("Git Commit", version.GetCommit()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
