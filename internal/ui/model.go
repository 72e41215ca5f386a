// Package ui — TUI чата с агентом на Bubble Tea.
//
// Агент работает в tea.Cmd; его события (вызовы инструментов, статусы
// Zabbix) приходят в Update как EventMsg через ProgramEmitter.
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-zabbix/pkg/events"
)

// Runner — то, что отвечает на вопрос пользователя (agent.Agent).
type Runner interface {
	Run(ctx context.Context, query string) (string, error)
}

// AnswerMsg — финальный ответ агента.
type AnswerMsg struct {
	Text string
}

// ErrorMsg — агент завершился ошибкой.
type ErrorMsg struct {
	Err error
}

// EventMsg — событие агента или инструмента.
type EventMsg struct {
	Event events.Event
}

// ProgramEmitter пересылает события в программу Bubble Tea.
//
// send обычно (*tea.Program).Send.
func ProgramEmitter(send func(tea.Msg)) events.Emitter {
	return events.EmitterFunc(func(_ context.Context, e events.Event) {
		send(EventMsg{Event: e})
	})
}

// Model — модель чата.
type Model struct {
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	runner    Runner
	ctx       context.Context
	modelName string

	lines   []string // Строки лога до переноса
	loading bool
	ready   bool
}

// New создаёт модель чата. ctx отменяет текущий запрос при выходе.
func New(ctx context.Context, runner Runner, modelName string) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your Zabbix hosts, items or problems..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.SetHeight(3)
	ta.CharLimit = 1000
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false) // Enter отправляет, не переносит строку

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		viewport:  viewport.New(0, 0),
		textarea:  ta,
		spinner:   sp,
		runner:    runner,
		ctx:       ctx,
		modelName: modelName,
	}
	m.lines = []string{
		assistantMsgStyle("Zabbix chat. Enter sends, Ctrl+C or Esc quits."),
	}
	return m
}

// Init реализует tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.runner.Run(m.ctx, query)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return AnswerMsg{Text: answer}
	}
}
