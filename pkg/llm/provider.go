// Интерфейс Провайдера через который работает всё приложение.

package llm

import (
	"context"

	"github.com/ilkoid/poncho-zabbix/pkg/tools"
)

// Provider — контракт для любого AI-сервиса.
type Provider interface {
	// Generate отправляет историю и определения инструментов, возвращает ответ модели.
	// Если модель решила вызвать инструменты, они лежат в Message.ToolCalls.
	Generate(ctx context.Context, messages []Message, defs []tools.ToolDefinition) (Message, error)
}
