// Package agent — ReAct цикл поверх llm.Provider и реестра инструментов.
//
// Basic usage:
//
//	ag := agent.New(provider, registry, agent.WithEmitter(emitter))
//	answer, _ := ag.Run(ctx, "Which hosts have problems right now?")
//
// Агент хранит историю диалога между вызовами Run, поэтому подходит для чата.
// Инструменты получают Emitter агента через контекст и отправляют в него статусы.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/poncho-zabbix/pkg/events"
	"github.com/ilkoid/poncho-zabbix/pkg/llm"
	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
)

// DefaultMaxIterations — лимит шагов LLM на один запрос.
const DefaultMaxIterations = 10

// DefaultSystemPrompt описывает роль ассистента и порядок работы с инструментами.
const DefaultSystemPrompt = `You are a monitoring assistant with read-only access to a Zabbix server.
Start from the host list, then the item list of a host, before asking for item values or history.
Use only host and item names returned by the tools. Answer concisely.`

// ErrMaxIterations — модель не дала финального ответа за отведённое число шагов.
var ErrMaxIterations = errors.New("max iterations reached without final answer")

// Agent — ReAct агент.
//
// Thread-safe: параллельные Run сериализуются, история общая.
type Agent struct {
	provider      llm.Provider
	registry      *tools.Registry
	emitter       events.Emitter
	systemPrompt  string
	maxIterations int
	toolTimeout   time.Duration

	mu      sync.Mutex
	history []llm.Message
}

// Option настраивает Agent.
type Option func(*Agent)

// WithEmitter задаёт приёмник событий агента и статусов инструментов.
func WithEmitter(e events.Emitter) Option {
	return func(a *Agent) { a.emitter = e }
}

// WithSystemPrompt перекрывает DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithMaxIterations задаёт лимит шагов; 0 оставляет дефолт.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithToolTimeout ограничивает время одного вызова инструмента.
func WithToolTimeout(d time.Duration) Option {
	return func(a *Agent) { a.toolTimeout = d }
}

// New создаёт агента.
func New(provider llm.Provider, registry *tools.Registry, opts ...Option) *Agent {
	a := &Agent{
		provider:      provider,
		registry:      registry,
		systemPrompt:  DefaultSystemPrompt,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run добавляет query в историю и крутит цикл "LLM → инструменты" до
// финального ответа модели.
//
// Ошибка инструмента не прерывает цикл: её текст уходит модели как результат.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	runID := uuid.NewString()
	utils.Info("Running agent query", "run_id", runID, "query", query)
	a.emit(ctx, events.EventThinking, events.ThinkingData{Query: query})

	if len(a.history) == 0 && a.systemPrompt != "" {
		a.history = append(a.history, llm.SystemMessage(a.systemPrompt))
	}
	a.history = append(a.history, llm.UserMessage(query))

	defs := a.registry.GetDefinitions()
	toolCtx := ctx
	if a.emitter != nil {
		toolCtx = events.WithEmitter(ctx, a.emitter)
	}

	for i := 0; i < a.maxIterations; i++ {
		msg, err := a.provider.Generate(ctx, a.history, defs)
		if err != nil {
			a.emit(ctx, events.EventError, events.ErrorData{Err: err})
			utils.Error("Agent query failed", "run_id", runID, "iteration", i, "error", err)
			return "", fmt.Errorf("llm generate: %w", err)
		}
		a.history = append(a.history, msg)

		if len(msg.ToolCalls) == 0 {
			a.emit(ctx, events.EventMessage, events.MessageData{Content: msg.Content})
			a.emit(ctx, events.EventDone, events.MessageData{Content: msg.Content})
			utils.Info("Agent query completed", "run_id", runID, "iterations", i+1, "result_length", len(msg.Content))
			return msg.Content, nil
		}

		for _, tc := range msg.ToolCalls {
			result := a.callTool(toolCtx, tc)
			a.history = append(a.history, llm.ToolResultMessage(tc.ID, result))
		}
	}

	a.emit(ctx, events.EventError, events.ErrorData{Err: ErrMaxIterations})
	utils.Warn("Agent stopped", "run_id", runID, "max_iterations", a.maxIterations)
	return "", ErrMaxIterations
}

// callTool выполняет один вызов и возвращает текст для модели.
func (a *Agent) callTool(ctx context.Context, tc llm.ToolCall) string {
	a.emit(ctx, events.EventToolCall, events.ToolCallData{ToolName: tc.Name, Args: tc.Args})

	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := a.registry.Call(ctx, tc.Name, utils.CleanJsonBlock(tc.Args))
	if err != nil {
		utils.Warn("Tool call rejected", "tool", tc.Name, "error", err)
		result = fmt.Sprintf("Error: %v", err)
	}

	a.emit(ctx, events.EventToolResult, events.ToolResultData{
		ToolName: tc.Name,
		Result:   result,
		Duration: time.Since(start),
	})
	return result
}

// History возвращает копию истории диалога.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// Reset очищает историю диалога.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

func (a *Agent) emit(ctx context.Context, typ events.EventType, data events.EventData) {
	events.Send(ctx, a.emitter, typ, data)
}
