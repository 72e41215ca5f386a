// Рендер
package ui

import (
	"fmt"
	"strings"
)

// View реализует tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing UI..."
	}

	header := headerStyle.
		Width(m.viewport.Width).
		Render(fmt.Sprintf(" ZABBIX CHAT | MODEL: %s ", m.modelName))

	border := borderStyle.
		Width(m.viewport.Width).
		Render(strings.Repeat("─", max(m.viewport.Width, 1)))

	footer := ""
	if m.loading {
		footer = m.spinner.View() + " Thinking..."
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		border,
		m.textarea.View(),
		footer,
	)
}
