// Package zabbix — клиент JSON-RPC API Zabbix.
//
// Architecture:
//
// Это API SDK, а не "тупой" HTTP клиент. Он предоставляет:
//   - Call: один JSON-RPC запрос (конверт, авторизация, извлечение result)
//   - Типизированные методы host.get, item.get, problem.get, history.get
//   - Классификацию ошибок для диагностики
//   - DecideHistoryType: выбор типа истории по значению метрики
//
// Usage pattern:
//   - pkg/zabbix - переиспользуемый SDK
//   - pkg/tools/std - тонкие обёртки для LLM function calling
//
// Клиент не делает retry и не кеширует. Таймаут и rate limit выключены,
// пока не заданы в конфигурации.
package zabbix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/metrics"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
	"golang.org/x/time/rate"
)

// Content-Type для двух режимов авторизации.
const (
	ContentTypeJSONRPC = "application/json-rpc"
	ContentTypeJSON    = "application/json"
)

// maxErrorBody — сколько байт тела ответа попадает в текст ошибки.
const maxErrorBody = 512

// AuthMode определяет, где передаётся токен.
type AuthMode string

const (
	// AuthBody — токен в поле "auth" конверта.
	AuthBody AuthMode = config.AuthBody
	// AuthBearer — токен в заголовке Authorization: Bearer <token>.
	AuthBearer AuthMode = config.AuthBearer
)

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет подменять HTTP клиент в тестах.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client — клиент Zabbix API.
//
// Неизменяем после создания, безопасен для параллельного использования.
type Client struct {
	url        string
	token      string
	authMode   AuthMode
	httpClient HTTPClient
	limiter    *rate.Limiter
	now        func() time.Time
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock подменяет источник текущего времени (для time_from в history.get).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New создаёт клиент из конфигурации.
//
// Поля с нулевыми значениями используют дефолты через GetDefaults().
// Возвращает ошибку, если URL пуст, режим авторизации неизвестен или
// для bearer режима не задан токен.
func New(cfg config.ZabbixConfig, opts ...Option) (*Client, error) {
	cfg = cfg.GetDefaults()

	if cfg.URL == "" {
		return nil, fmt.Errorf("zabbix.url is required")
	}

	mode := AuthMode(cfg.AuthMode)
	switch mode {
	case AuthBody:
	case AuthBearer:
		if cfg.APIToken == "" {
			return nil, fmt.Errorf("zabbix API token is not configured: set zabbix.api_token before making API calls")
		}
	default:
		return nil, fmt.Errorf("unknown zabbix.auth_mode %q", cfg.AuthMode)
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	c := &Client{
		url:        cfg.URL,
		token:      cfg.APIToken,
		authMode:   mode,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}

	if cfg.RateLimit > 0 {
		// rateLimit в запросах/минуту → rate.Limit в запросах/секунду
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), cfg.BurstLimit)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AuthMode возвращает режим авторизации клиента.
func (c *Client) AuthMode() AuthMode {
	return c.authMode
}

// envelope собирает JSON-RPC конверт для метода.
func (c *Client) envelope(method string, params any) Request {
	req := Request{
		JSONRPC: ProtocolVersion,
		Method:  method,
		Params:  params,
		ID:      RequestID,
	}
	if c.authMode == AuthBody {
		token := c.token
		req.Auth = &token
	}
	return req
}

// Call выполняет один JSON-RPC запрос и разбирает result в dest.
//
// dest может быть nil — тогда result только проверяется на наличие.
// Любая ошибка возвращается как *TransportError.
func (c *Client) Call(ctx context.Context, method string, params any, dest any) error {
	start := time.Now()
	err := c.call(ctx, method, params, dest)
	metrics.ObserveRPC(method, err, time.Since(start))

	if err != nil {
		te := newTransportError(method, err)
		utils.Error("Zabbix API request failed",
			"method", method,
			"error_type", te.Type.String(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return te
	}

	utils.Debug("Zabbix API request done",
		"method", method,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *Client) call(ctx context.Context, method string, params any, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	body, err := json.Marshal(c.envelope(method, params))
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	switch c.authMode {
	case AuthBearer:
		httpReq.Header.Set("Content-Type", ContentTypeJSON)
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	default:
		httpReq.Header.Set("Content-Type", ContentTypeJSONRPC)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("zabbix api error: status %d, body: %s", resp.StatusCode, truncateBody(respBody))
	}

	var rpcResp Response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w (body: %s)", err, truncateBody(respBody))
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return ErrMissingResult
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, dest); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
