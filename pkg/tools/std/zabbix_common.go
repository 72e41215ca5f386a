// Package std содержит инструменты Zabbix для LLM function calling.
//
// Каждый инструмент делает один или два JSON-RPC запроса через pkg/zabbix
// и возвращает строку для LLM. Ошибки Zabbix не поднимаются выше
// инструмента: они превращаются в текст с фиксированным префиксом.
package std

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/events"
	"github.com/ilkoid/poncho-zabbix/pkg/metrics"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
)

// NotMonitoredMessage — ответ, когда item не найден или у него нет истории.
const NotMonitoredMessage = "The requested item is not monitored on the selected host."

// DescribePrefix — вступление describe-режима.
const DescribePrefix = "Describe the Zabbix API response you received to the user who requested it: "

// Outcome — исход операции.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeError
)

// String возвращает метку исхода для логов и метрик.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return metrics.OutcomeNotFound
	case OutcomeError:
		return metrics.OutcomeError
	default:
		return metrics.OutcomeOK
	}
}

// Result — типизированный результат операции до превращения в текст.
type Result struct {
	Outcome Outcome
	Payload any   // Данные для OutcomeOK
	Err     error // Причина для OutcomeError
}

func ok(payload any) Result { return Result{Outcome: OutcomeOK, Payload: payload} }

func notFound() Result { return Result{Outcome: OutcomeNotFound} }

func failed(err error) Result { return Result{Outcome: OutcomeError, Err: err} }

// Operation — фиксированные тексты одной операции.
type Operation struct {
	Tool        string
	LeadIn      string // "Here is the requested ...: "
	ErrorPrefix string // "Error occurred while retrieving ...: "
	StatusOK    string // Статус после успешного ответа
	StatusError string // Статус после ошибки
}

// Presenter превращает Result в строку для LLM.
type Presenter interface {
	Present(op Operation, res Result) string
}

// LeadInPresenter: "Here is the requested list of hosts: [...]".
type LeadInPresenter struct{}

// Present реализует Presenter.
func (LeadInPresenter) Present(op Operation, res Result) string {
	switch res.Outcome {
	case OutcomeNotFound:
		return NotMonitoredMessage
	case OutcomeError:
		return op.ErrorPrefix + errorText(res.Err)
	default:
		return op.LeadIn + renderJSON(res.Payload)
	}
}

// DescribePresenter просит LLM описать ответ Zabbix и обрезает текст до MaxLength символов.
type DescribePresenter struct {
	MaxLength int
}

// Present реализует Presenter.
func (p DescribePresenter) Present(_ Operation, res Result) string {
	switch res.Outcome {
	case OutcomeNotFound:
		return NotMonitoredMessage
	case OutcomeError:
		return p.truncate(DescribePrefix + renderJSON(map[string]string{"Exception": errorText(res.Err)}))
	default:
		return p.truncate(DescribePrefix + renderJSON(res.Payload))
	}
}

func (p DescribePresenter) truncate(s string) string {
	if p.MaxLength <= 0 || utf8.RuneCountInString(s) <= p.MaxLength {
		return s
	}
	utils.Debug("Truncating tool response", "max_length", p.MaxLength)
	runes := []rune(s)
	return string(runes[:p.MaxLength])
}

// NewPresenter выбирает Presenter по app.presentation.
func NewPresenter(presentation string, maxLength int) Presenter {
	if presentation == config.PresentationDescribe {
		return DescribePresenter{MaxLength: maxLength}
	}
	return LeadInPresenter{}
}

// Options — настройки Toolset.
type Options struct {
	Presenter       Presenter
	Emitter         events.Emitter // Приёмник статусов, если в контексте нет своего
	Location        *time.Location
	HistoryWindow   time.Duration
	DefaultItemHost string
	Descriptions    map[string]string // Перекрытие описаний инструментов
}

// Option настраивает Toolset.
type Option func(*Options)

// WithPresenter задаёт стиль ответа.
func WithPresenter(p Presenter) Option {
	return func(o *Options) { o.Presenter = p }
}

// WithEmitter задаёт приёмник статусов по умолчанию.
func WithEmitter(e events.Emitter) Option {
	return func(o *Options) { o.Emitter = e }
}

// WithLocation задаёт часовой пояс для времени истории.
func WithLocation(loc *time.Location) Option {
	return func(o *Options) { o.Location = loc }
}

// WithHistoryWindow задаёт глубину истории.
func WithHistoryWindow(d time.Duration) Option {
	return func(o *Options) { o.HistoryWindow = d }
}

// WithDefaultItemHost задаёт хост для списка items без аргумента.
func WithDefaultItemHost(host string) Option {
	return func(o *Options) { o.DefaultItemHost = host }
}

// WithDescription перекрывает описание инструмента для LLM.
func WithDescription(tool, description string) Option {
	return func(o *Options) {
		if description == "" {
			return
		}
		if o.Descriptions == nil {
			o.Descriptions = make(map[string]string)
		}
		o.Descriptions[tool] = description
	}
}

// OptionsFromConfig переводит конфигурацию в набор Option.
func OptionsFromConfig(cfg *config.AppConfig) ([]Option, error) {
	zc := cfg.Zabbix.GetDefaults()

	loc, err := zc.Location()
	if err != nil {
		return nil, err
	}
	window, err := zc.HistoryWindowDuration()
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithPresenter(NewPresenter(cfg.App.Presentation, zc.MaxResponseLength)),
		WithLocation(loc),
		WithHistoryWindow(window),
		WithDefaultItemHost(zc.DefaultItemHost),
	}
	for name, tc := range cfg.Tools {
		opts = append(opts, WithDescription(name, tc.Description))
	}
	return opts, nil
}

// Toolset — операции Zabbix поверх одного клиента.
//
// Неизменяем после создания; методы безопасны для параллельного вызова.
type Toolset struct {
	client *zabbix.Client
	opts   Options
}

// NewToolset создаёт набор инструментов.
func NewToolset(client *zabbix.Client, opts ...Option) *Toolset {
	o := Options{
		Presenter:     LeadInPresenter{},
		Location:      time.Local,
		HistoryWindow: time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Toolset{client: client, opts: o}
}

// description возвращает описание из конфигурации или встроенное.
func (s *Toolset) description(tool, builtin string) string {
	if d, ok := s.opts.Descriptions[tool]; ok {
		return d
	}
	return builtin
}

// finish отправляет статус (один раз), пишет лог и метрику, возвращает текст.
func (s *Toolset) finish(ctx context.Context, op Operation, res Result) string {
	status := op.StatusOK
	if res.Outcome == OutcomeError {
		status = op.StatusError
	}

	emitter := s.opts.Emitter
	if e, found := events.EmitterFrom(ctx); found {
		emitter = e
	}
	events.Send(ctx, emitter, events.EventStatus, events.StatusData{Description: status, Done: true})

	metrics.ObserveTool(op.Tool, res.Outcome.String())
	if res.Outcome == OutcomeError {
		utils.Warn("Tool finished with error", "tool", op.Tool, "error", res.Err)
	} else {
		utils.Info("Tool finished", "tool", op.Tool, "outcome", res.Outcome.String())
	}

	return s.opts.Presenter.Present(op, res)
}

// renderJSON сериализует данные без HTML-экранирования.
// Ключи map сортируются, поэтому повторный вызов даёт тот же текст.
func renderJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "null"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
