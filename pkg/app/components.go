// Package app собирает компоненты приложения из config.yaml для разных
// точек входа (MCP сервер, чат, утилита проверки инструментов).
//
// Entry points занимаются только инициализацией и оркестрацией; вся сборка здесь.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/ilkoid/poncho-zabbix/pkg/agent"
	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/events"
	"github.com/ilkoid/poncho-zabbix/pkg/factory"
	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/tools/std"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
)

// Components содержит собранные компоненты приложения.
type Components struct {
	Config   *config.AppConfig
	Zabbix   *zabbix.Client
	Toolset  *std.Toolset
	Registry *tools.Registry
}

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder реализует стандартную стратегию поиска config.yaml.
//
// Порядок поиска:
//  1. Флаг -config (если указан)
//  2. Текущая директория
//  3. Директория бинарника
//  4. Родительские директории (для запуска из cmd/<util>/)
type DefaultConfigPathFinder struct {
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml.
//
// Если файл не найден, возвращает ./config.yaml: ошибку вернёт Load.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	candidates := []string{"config.yaml"}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "config.yaml"))
	}
	candidates = append(candidates,
		filepath.Join("..", "config.yaml"),
		filepath.Join("..", "..", "config.yaml"),
	)

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return resolveAbsPath(p)
		}
	}
	return resolveAbsPath("config.yaml")
}

// InitializeConfig подгружает .env рядом с конфигом и загружает конфигурацию.
//
// Переменные из .env не перекрывают уже заданные в окружении.
func InitializeConfig(finder ConfigPathFinder) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()

	envPath := filepath.Join(filepath.Dir(cfgPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, cfgPath, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
		utils.Debug("Environment loaded", "path", envPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// Initialize создаёт клиент Zabbix, набор инструментов и реестр.
//
// extra добавляются после опций из конфигурации и перекрывают их.
func Initialize(cfg *config.AppConfig, extra ...std.Option) (*Components, error) {
	client, err := zabbix.New(cfg.Zabbix)
	if err != nil {
		return nil, fmt.Errorf("zabbix client: %w", err)
	}

	opts, err := std.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	set := std.NewToolset(client, append(opts, extra...)...)

	registry := tools.NewRegistry()
	if err := std.SetupZabbixTools(registry, set, cfg); err != nil {
		return nil, err
	}

	utils.Info("Components initialized",
		"zabbix_url", cfg.Zabbix.URL,
		"auth_mode", string(client.AuthMode()),
		"tools", len(registry.Names()))

	return &Components{
		Config:   cfg,
		Zabbix:   client,
		Toolset:  set,
		Registry: registry,
	}, nil
}

// NewAgent создаёт ReAct агента на модели modelName (пусто = models.default_chat).
//
// Провайдер выбирается через factory.NewLLMProvider.
func (c *Components) NewAgent(modelName string, emitter events.Emitter) (*agent.Agent, error) {
	modelDef, ok := c.Config.GetChatModel(modelName)
	if !ok {
		return nil, fmt.Errorf("model %q is not defined in models.definitions", modelName)
	}

	provider, err := factory.NewLLMProvider(modelDef)
	if err != nil {
		return nil, err
	}

	return agent.New(provider, c.Registry,
		agent.WithEmitter(emitter),
		agent.WithSystemPrompt(c.Config.App.SystemPrompt),
		agent.WithMaxIterations(c.Config.App.MaxIterations),
		agent.WithToolTimeout(c.Config.App.ToolTimeout),
	), nil
}

func resolveAbsPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
