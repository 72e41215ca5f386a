// Интерфейс Tool и структуры определений.

package tools

import "context"

// JSONSchema представляет JSON Schema для параметров инструмента.
//
// Используется вместо interface{} для типобезопасности.
// Формат соответствует JSON Schema specification для Function Calling API.
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для LLM (Function Calling API format).
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"` // JSON Schema объекта аргументов
}

// Tool — контракт, который должен реализовать любой инструмент.
type Tool interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента.
	// argsJSON — это сырой JSON с аргументами, который прислала LLM.
	// Возвращает текст для LLM. Ошибка означает только невалидные аргументы:
	// сбои удалённой системы инструмент сам превращает в текст.
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// ObjectSchema собирает JSON Schema объекта аргументов.
//
// properties: имя → {"type": ..., "description": ...}.
func ObjectSchema(properties map[string]any, required ...string) JSONSchema {
	if properties == nil {
		properties = map[string]any{}
	}
	if required == nil {
		required = []string{}
	}
	return JSONSchema{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// StringProperty описывает строковый аргумент.
func StringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

