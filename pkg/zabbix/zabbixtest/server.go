// Package zabbixtest — поддельный Zabbix JSON-RPC сервер для тестов.
package zabbixtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Recorded — запрос, который получил сервер.
type Recorded struct {
	Header  http.Header
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
	Auth    *string         `json:"auth"`
	Raw     map[string]json.RawMessage
}

// ParamsMap разбирает params в map.
func (r Recorded) ParamsMap() map[string]any {
	var m map[string]any
	_ = json.Unmarshal(r.Params, &m)
	return m
}

// Handler отвечает на один метод. Возвращаемое значение сериализуется как result.
type Handler func(r Recorded) any

// Server — поддельный Zabbix API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	raw      map[string]string
	requests []Recorded
}

// NewServer запускает сервер. Остановить через Close.
func NewServer() *Server {
	s := &Server{
		handlers: make(map[string]Handler),
		raw:      make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Result регистрирует фиксированный result для метода.
func (s *Server) Result(method string, result any) {
	s.Handle(method, func(Recorded) any { return result })
}

// Handle регистрирует обработчик метода.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// RawBody заставляет сервер отвечать на метод телом body как есть.
func (s *Server) RawBody(method, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[method] = body
}

// RPCError заставляет сервер отвечать на метод JSON-RPC ошибкой.
func (s *Server) RPCError(method string, code int, message, data string) {
	body, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"error":   map[string]any{"code": code, "message": message, "data": data},
		"id":      1,
	})
	s.RawBody(method, string(body))
}

// Requests возвращает копию полученных запросов.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsFor возвращает запросы к методу.
func (s *Server) RequestsFor(method string) []Recorded {
	var out []Recorded
	for _, r := range s.Requests() {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var rec Recorded
	if err := json.Unmarshal(body, &rec); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	_ = json.Unmarshal(body, &rec.Raw)
	rec.Header = req.Header.Clone()

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	raw, hasRaw := s.raw[rec.Method]
	h, hasHandler := s.handlers[rec.Method]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if hasRaw {
		_, _ = io.WriteString(w, raw)
		return
	}
	if !hasHandler {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": -32601, "message": "Method not found.", "data": rec.Method},
			"id":      1,
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"result":  h(rec),
		"id":      1,
	})
}
