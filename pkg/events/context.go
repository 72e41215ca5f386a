package events

import (
	"context"
	"time"
)

type emitterKey struct{}

// WithEmitter возвращает контекст, несущий Emitter для текущего вызова.
//
// Используется хостами, у которых приёмник событий живёт в рамках одного
// запроса (например, MCP сессия).
func WithEmitter(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

// EmitterFrom достаёт Emitter из контекста.
func EmitterFrom(ctx context.Context) (Emitter, bool) {
	e, ok := ctx.Value(emitterKey{}).(Emitter)
	return e, ok && e != nil
}

// EmitterFunc адаптирует функцию к интерфейсу Emitter.
type EmitterFunc func(ctx context.Context, event Event)

// Emit вызывает f.
func (f EmitterFunc) Emit(ctx context.Context, event Event) {
	f(ctx, event)
}

// Send отправляет событие с текущим временем. nil Emitter игнорируется.
func Send(ctx context.Context, e Emitter, typ EventType, data EventData) {
	if e == nil {
		return
	}
	e.Emit(ctx, Event{Type: typ, Data: data, Timestamp: time.Now()})
}

var _ Emitter = EmitterFunc(nil)
