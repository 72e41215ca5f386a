package std

import (
	"fmt"

	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
)

// Tools возвращает все инструменты набора в фиксированном порядке.
func (s *Toolset) Tools() []tools.Tool {
	return []tools.Tool{
		NewHostListTool(s),
		NewItemListTool(s),
		NewItemValueTool(s),
		NewItemHistoryTool(s),
		NewProblemListTool(s),
	}
}

// SetupZabbixTools регистрирует включённые инструменты в реестре.
//
// Пустая секция tools в конфигурации включает все инструменты.
func SetupZabbixTools(registry *tools.Registry, set *Toolset, cfg *config.AppConfig) error {
	for _, tool := range set.Tools() {
		name := tool.Definition().Name
		if !cfg.ToolEnabled(name) {
			utils.Debug("Tool disabled by config", "tool", name)
			continue
		}
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
		utils.Debug("Tool registered", "tool", name)
	}
	return nil
}
