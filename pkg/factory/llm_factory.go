// Package factory выбирает реализацию llm.Provider по models.definitions.<name>.provider.
package factory

import (
	"fmt"
	"strings"

	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/llm"
	"github.com/ilkoid/poncho-zabbix/pkg/llm/openai"
)

// openAICompatible — провайдеры с OpenAI-совместимым /chat/completions.
var openAICompatible = map[string]bool{
	"":           true,
	"openai":     true,
	"zai":        true,
	"deepseek":   true,
	"openrouter": true,
	"ollama":     true,
}

// NewLLMProvider создает провайдера на основе конфигурации модели.
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(modelDef.Provider))
	if !openAICompatible[provider] {
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
	if modelDef.ModelName == "" {
		return nil, fmt.Errorf("model_name is required for provider %q", modelDef.Provider)
	}
	return openai.NewClient(modelDef), nil
}
