package zabbix

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Версия протокола и идентификатор запроса фиксированы: клиент не держит
// параллельных запросов в полёте и не сопоставляет ответы по id.
const (
	ProtocolVersion = "2.0"
	RequestID       = 1
)

// Методы Zabbix API, которые использует клиент.
const (
	MethodHostGet    = "host.get"
	MethodItemGet    = "item.get"
	MethodProblemGet = "problem.get"
	MethodHistoryGet = "history.get"
)

// Request — JSON-RPC 2.0 конверт запроса.
//
// Auth заполняется только в режиме AuthBody; в режиме AuthBearer поле
// опускается и токен уходит в заголовок Authorization.
type Request struct {
	JSONRPC string  `json:"jsonrpc"`
	Method  string  `json:"method"`
	Params  any     `json:"params"`
	ID      int     `json:"id"`
	Auth    *string `json:"auth,omitempty"`
}

// Response — JSON-RPC 2.0 конверт ответа. Result или Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Host — устройство под мониторингом.
//
// Status: "0" — мониторится, "1" — не мониторится.
type Host struct {
	HostID string `json:"hostid,omitempty"`
	Host   string `json:"host"`
	Status string `json:"status,omitempty"`
}

// Monitored сообщает, включён ли мониторинг хоста.
func (h Host) Monitored() bool {
	return h.Status == "0"
}

// Item — метрика хоста.
//
// Type — код, который Zabbix вернул в поле "type"; он используется как тип
// истории при запросе history.get (см. DecideHistoryType).
type Item struct {
	ItemID      string `json:"itemid,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LastValue   string `json:"lastvalue,omitempty"`
	Units       string `json:"units,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Problem — обнаруженная проблема.
type Problem struct {
	EventID string `json:"eventid,omitempty"`
	Name    string `json:"name"`
}

// HistoryPoint — значение метрики в момент Clock (Unix секунды).
type HistoryPoint struct {
	ItemID string `json:"itemid,omitempty"`
	Clock  int64  `json:"clock"`
	Value  string `json:"value"`
}

// UnmarshalJSON принимает clock и value и как строки, и как числа.
// Zabbix отдаёт строки, но прокси и старые версии встречаются разные.
func (p *HistoryPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemID json.RawMessage `json:"itemid"`
		Clock  json.RawMessage `json:"clock"`
		Value  json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	clock, err := strconv.ParseInt(unquote(raw.Clock), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid history clock %s: %w", raw.Clock, err)
	}

	p.ItemID = unquote(raw.ItemID)
	p.Clock = clock
	p.Value = unquote(raw.Value)
	return nil
}

// unquote возвращает строку JSON без кавычек или число как есть.
func unquote(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ItemQuery — параметры item.get.
type ItemQuery struct {
	Host       string   // Точное имя хоста, пусто = все хосты
	NameSearch string   // Подстрока имени метрики
	Output     []string // Проекция полей
}

// params собирает тело params для item.get.
func (q ItemQuery) params() map[string]any {
	p := map[string]any{
		"output": q.Output,
	}
	if q.Host != "" {
		p["host"] = q.Host
	}
	if q.NameSearch != "" {
		p["search"] = map[string]any{"name": q.NameSearch}
	}
	return p
}

// HistoryQuery — параметры history.get.
type HistoryQuery struct {
	ItemID   string
	History  HistoryType
	TimeFrom int64    // Unix секунды
	Output   []string // Проекция полей
}

func (q HistoryQuery) params() map[string]any {
	return map[string]any{
		"itemids":   q.ItemID,
		"history":   int(q.History),
		"time_from": q.TimeFrom,
		"output":    q.Output,
	}
}
