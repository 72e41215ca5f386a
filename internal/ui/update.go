// Логика - Обрабатывает нажатия клавиш и результаты агента.

package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/poncho-zabbix/pkg/events"
)

// Update реализует tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := m.textarea.Height() + 3 // граница + строка спиннера

		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 0 {
			vpHeight = 0
		}

		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
		m.textarea.SetWidth(msg.Width)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" || m.loading {
				return m, nil
			}
			m.textarea.Reset()
			m.appendLog(userMsgStyle("You: ") + input)

			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.ask(input))
		}

	case EventMsg:
		if line, ok := describeEvent(msg.Event); ok {
			m.appendLog(line)
		}

	case AnswerMsg:
		m.loading = false
		m.appendLog(assistantMsgStyle("Assistant: ") + msg.Text)

	case ErrorMsg:
		m.loading = false
		m.appendLog(errorMsgStyle("Error: ") + msg.Err.Error())
	}

	if m.loading {
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, spCmd)
	}
	return m, tea.Batch(tiCmd, vpCmd)
}

// describeEvent возвращает строку лога для событий, которые стоит показать.
func describeEvent(e events.Event) (string, bool) {
	switch data := e.Data.(type) {
	case events.ToolCallData:
		return statusMsgStyle("→ " + data.ToolName + " " + data.Args), true
	case events.StatusData:
		return statusMsgStyle("· " + data.Description), true
	default:
		return "", false
	}
}

func (m *Model) appendLog(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

// refresh переносит строки по ширине окна и прокручивает вниз.
func (m *Model) refresh() {
	width := m.viewport.Width
	wrapped := make([]string, len(m.lines))
	for i, line := range m.lines {
		if width > 0 {
			line = wordwrap.String(line, width)
		}
		wrapped[i] = line
	}
	m.viewport.SetContent(strings.Join(wrapped, "\n"))
	m.viewport.GotoBottom()
}
