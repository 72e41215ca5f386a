package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Режимы передачи учётных данных в Zabbix API.
const (
	// AuthBody — токен в поле "auth" JSON-RPC конверта, Content-Type application/json-rpc.
	AuthBody = "body"
	// AuthBearer — токен в заголовке Authorization: Bearer, поле "auth" не передаётся.
	AuthBearer = "bearer"
)

// Стили представления ответа инструмента для LLM.
const (
	// PresentationLeadIn — "Here is the requested ...: <данные>".
	PresentationLeadIn = "lead_in"
	// PresentationDescribe — "Describe the Zabbix API response ...: <данные>" с обрезкой.
	PresentationDescribe = "describe"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Zabbix ZabbixConfig          `yaml:"zabbix"`
	Tools  map[string]ToolConfig `yaml:"tools"`
	Models ModelsConfig          `yaml:"models"`
	App    AppSpecific           `yaml:"app"`
	MCP    MCPConfig             `yaml:"mcp"`
}

// ZabbixConfig — подключение к Zabbix API.
type ZabbixConfig struct {
	URL               string `yaml:"url"`                 // Например "https://zabbix.local/api_jsonrpc.php"
	APIToken          string `yaml:"api_token"`           // Поддерживает ${VAR}
	AuthMode          string `yaml:"auth_mode"`           // "body" или "bearer"
	Timeout           string `yaml:"timeout"`             // Пусто = без таймаута
	RateLimit         int    `yaml:"rate_limit"`          // Запросов в минуту, 0 = без ограничения
	BurstLimit        int    `yaml:"burst_limit"`         // Burst для rate limiter
	MaxResponseLength int    `yaml:"max_response_length"` // Обрезка ответа в describe-режиме
	DefaultItemHost   string `yaml:"default_item_host"`   // Хост для zabbix_item_list без аргумента
	HistoryWindow     string `yaml:"history_window"`      // Глубина истории, например "1h"
	Timezone          string `yaml:"timezone"`            // Для отображения времени истории
}

// GetDefaults возвращает копию с дефолтными значениями для незаполненных полей.
func (c *ZabbixConfig) GetDefaults() ZabbixConfig {
	result := *c

	if result.URL == "" {
		result.URL = os.Getenv("ZABBIX_API_URL")
	}
	if result.APIToken == "" {
		result.APIToken = os.Getenv("ZABBIX_API_TOKEN")
	}
	if result.AuthMode == "" {
		result.AuthMode = AuthBody
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 1
	}
	if result.MaxResponseLength == 0 {
		result.MaxResponseLength = 4096
	}
	if result.HistoryWindow == "" {
		result.HistoryWindow = "1h"
	}
	if result.Timezone == "" {
		result.Timezone = "Local"
	}

	return result
}

// TimeoutDuration парсит Timeout. Пустая строка означает отсутствие таймаута.
func (c ZabbixConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid zabbix.timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// HistoryWindowDuration парсит HistoryWindow (по умолчанию 1 час).
func (c ZabbixConfig) HistoryWindowDuration() (time.Duration, error) {
	if c.HistoryWindow == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(c.HistoryWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid zabbix.history_window %q: %w", c.HistoryWindow, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("zabbix.history_window must be positive, got %s", d)
	}
	return d, nil
}

// Location возвращает часовой пояс для форматирования истории.
func (c ZabbixConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid zabbix.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ToolConfig — настройки конкретного инструмента.
type ToolConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Description string `yaml:"description"` // Перекрывает встроенное описание для LLM
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас модели для чата
	Definitions map[string]ModelDef `yaml:"definitions"`
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "zai", "openrouter" и т.д.
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Go умеет парсить строки вида "60s", "1m"
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug         bool   `yaml:"debug"`
	LogFile       string `yaml:"log_file"`     // Пусто = файл с timestamp в текущей директории
	Presentation  string `yaml:"presentation"` // "lead_in" или "describe"
	MaxIterations int    `yaml:"max_iterations"`
	SystemPrompt  string `yaml:"system_prompt"`

	ToolTimeout time.Duration `yaml:"tool_timeout"` // Лимит одного вызова инструмента в агенте, 0 = без лимита
}

// MCPConfig — настройки MCP сервера.
type MCPConfig struct {
	Addr        string `yaml:"addr"`
	Path        string `yaml:"path"`
	Stateless   bool   `yaml:"stateless"`
	MetricsPath string `yaml:"metrics_path"`
}

// GetDefaults возвращает копию с дефолтными значениями.
func (c *MCPConfig) GetDefaults() MCPConfig {
	result := *c
	if result.Addr == "" {
		result.Addr = ":8765"
	}
	if result.Path == "" {
		result.Path = "/mcp"
	}
	if result.MetricsPath == "" {
		result.MetricsPath = "/metrics"
	}
	return result
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает YAML из памяти. ${VAR} и $VAR заменяются значениями окружения.
func Parse(raw []byte) (*AppConfig, error) {
	contentWithEnv := os.ExpandEnv(string(raw))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.Zabbix = cfg.Zabbix.GetDefaults()
	cfg.MCP = cfg.MCP.GetDefaults()
	if cfg.App.Presentation == "" {
		cfg.App.Presentation = PresentationLeadIn
	}
	if cfg.App.MaxIterations == 0 {
		cfg.App.MaxIterations = 10
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.Zabbix.URL == "" {
		return fmt.Errorf("zabbix.url is required (or set ZABBIX_API_URL)")
	}
	switch c.Zabbix.AuthMode {
	case AuthBody:
	case AuthBearer:
		if c.Zabbix.APIToken == "" {
			return fmt.Errorf("zabbix.api_token is required for bearer auth")
		}
	default:
		return fmt.Errorf("zabbix.auth_mode must be %q or %q, got %q", AuthBody, AuthBearer, c.Zabbix.AuthMode)
	}
	if _, err := c.Zabbix.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Zabbix.HistoryWindowDuration(); err != nil {
		return err
	}
	if _, err := c.Zabbix.Location(); err != nil {
		return err
	}
	if c.App.ToolTimeout < 0 {
		return fmt.Errorf("app.tool_timeout must be non-negative")
	}
	if c.Zabbix.RateLimit < 0 {
		return fmt.Errorf("zabbix.rate_limit must be non-negative")
	}

	switch c.App.Presentation {
	case PresentationLeadIn, PresentationDescribe:
	default:
		return fmt.Errorf("app.presentation must be %q or %q, got %q", PresentationLeadIn, PresentationDescribe, c.App.Presentation)
	}

	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}
	return nil
}

// GetChatModel возвращает конфигурацию модели по имени или модель по умолчанию.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// ToolEnabled сообщает, включён ли инструмент.
// Пустая секция tools включает все инструменты.
func (c *AppConfig) ToolEnabled(name string) bool {
	if len(c.Tools) == 0 {
		return true
	}
	tc, ok := c.Tools[name]
	return ok && tc.Enabled
}
