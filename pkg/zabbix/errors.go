package zabbix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType представляет тип ошибки при работе с Zabbix API.
type ErrorType int

const (
	ErrUnknown ErrorType = iota
	ErrAuthFailed
	ErrTimeout
	ErrNetwork
	ErrRPC
	ErrBadResponse
)

// String возвращает строковое представление типа ошибки.
func (e ErrorType) String() string {
	switch e {
	case ErrAuthFailed:
		return "authentication_failed"
	case ErrTimeout:
		return "timeout"
	case ErrNetwork:
		return "network_error"
	case ErrRPC:
		return "rpc_error"
	case ErrBadResponse:
		return "bad_response"
	default:
		return "unknown"
	}
}

// HumanMessage возвращает человекочитаемое сообщение для типа ошибки.
func (e ErrorType) HumanMessage() string {
	switch e {
	case ErrAuthFailed:
		return "Zabbix API token is invalid or missing. Check ZABBIX_API_TOKEN."
	case ErrTimeout:
		return "Zabbix API did not respond in time."
	case ErrNetwork:
		return "Zabbix API is unreachable. Check zabbix.url and the network."
	case ErrRPC:
		return "Zabbix API rejected the request."
	case ErrBadResponse:
		return "Zabbix API returned a response that is not a valid JSON-RPC result."
	default:
		return "Unknown error while talking to Zabbix API."
	}
}

// RPCError — член "error" JSON-RPC ответа.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("zabbix api error %d: %s %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("zabbix api error %d: %s", e.Code, e.Message)
}

// ErrMissingResult — ответ разобран, но поля "result" в нём нет.
var ErrMissingResult = errors.New("response has no 'result' field")

// TransportError — любая ошибка обмена с Zabbix: сеть, HTTP статус,
// невалидный JSON, отсутствие result или JSON-RPC error.
type TransportError struct {
	Method string
	Type   ErrorType
	Err    error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// newTransportError оборачивает err, определяя тип через ClassifyError.
func newTransportError(method string, err error) *TransportError {
	return &TransportError{Method: method, Type: ClassifyError(err), Err: err}
}

// ClassifyError классифицирует ошибку по типу для лучшей диагностики.
//
// Анализирует цепочку ошибок и текст:
//   - ErrRPC: JSON-RPC error (кроме "Not authorised" / "re-login")
//   - ErrAuthFailed: 401, 403, unauthorized, not authorised
//   - ErrTimeout: timeout, deadline exceeded
//   - ErrNetwork: connection refused, no such host, net.OpError
//   - ErrBadResponse: невалидный JSON или нет result
//   - ErrUnknown: все остальные ошибки
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	errMsg := err.Error()
	errMsgLower := strings.ToLower(errMsg)

	// Проверка ошибок авторизации
	if strings.Contains(errMsg, "status 401") ||
		strings.Contains(errMsg, "status 403") ||
		strings.Contains(errMsgLower, "unauthorized") ||
		strings.Contains(errMsgLower, "not authorised") ||
		strings.Contains(errMsgLower, "re-login") {
		return ErrAuthFailed
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return ErrRPC
	}

	// Проверка таймаутов
	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(errMsgLower, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return ErrTimeout
	}

	// Проверка сетевых ошибок
	var opErr *net.OpError
	if errors.As(err, &opErr) ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") {
		return ErrNetwork
	}

	if errors.Is(err, ErrMissingResult) ||
		strings.Contains(errMsg, "unmarshal") ||
		strings.Contains(errMsg, "invalid character") {
		return ErrBadResponse
	}

	return ErrUnknown
}
