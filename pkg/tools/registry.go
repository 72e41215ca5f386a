// Реестр инструментов Zabbix с проверкой схем аргументов.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry — потокобезопасное хранилище инструментов.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry создает новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// validateToolDefinition проверяет схему аргументов: объект, required — список
// строк, и каждое обязательное поле описано в properties.
func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Parameters == nil {
		return fmt.Errorf("tool '%s': parameters cannot be nil", def.Name)
	}

	typeVal, ok := def.Parameters["type"]
	if !ok {
		return fmt.Errorf("tool '%s': parameters must have 'type' field", def.Name)
	}
	if typeVal != "object" {
		return fmt.Errorf("tool '%s': parameters.type must be 'object', got: '%v'", def.Name, typeVal)
	}

	required, err := requiredNames(def.Parameters["required"])
	if err != nil {
		return fmt.Errorf("tool '%s': %w", def.Name, err)
	}
	if len(required) == 0 {
		return nil
	}

	props, _ := def.Parameters["properties"].(map[string]any)
	for _, name := range required {
		if _, ok := props[name]; !ok {
			return fmt.Errorf("tool '%s': required field '%s' is not in parameters.properties", def.Name, name)
		}
	}
	return nil
}

// requiredNames принимает []string из ObjectSchema и []any после json.Unmarshal.
func requiredNames(v any) ([]string, error) {
	switch r := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return r, nil
	case []any:
		names := make([]string, len(r))
		for i, item := range r {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameters.required[%d] must be a string, got: %T", i, item)
			}
			names[i] = s
		}
		return names, nil
	default:
		return nil, fmt.Errorf("parameters.required must be an array")
	}
}

// Register добавляет инструмент в реестр с валидацией схемы.
//
// Возвращает ошибку если определение инструмента не валидно.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()

	if err := validateToolDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = tool
	return nil
}

// Get ищет инструмент по имени.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}
	return tool, nil
}

// GetDefinitions возвращает список всех определений для отправки в LLM.
//
// Порядок — по имени, чтобы промпт был одинаковым между запусками.
func (r *Registry) GetDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names возвращает отсортированные имена зарегистрированных инструментов.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call находит инструмент и выполняет его. Пустые аргументы заменяются на "{}".
func (r *Registry) Call(ctx context.Context, name, argsJSON string) (string, error) {
	tool, err := r.Get(name)
	if err != nil {
		return "", err
	}
	if argsJSON == "" {
		argsJSON = "{}"
	}
	return tool.Execute(ctx, argsJSON)
}
