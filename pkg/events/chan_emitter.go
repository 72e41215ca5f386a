package events

import (
	"context"
	"sync"
)

// ChanEmitter складывает события в буферизованный канал.
//
// zabbix-chat -query читает из него статусы инструментов, пока агент работает.
// Emit и Close можно вызывать из разных горутин.
type ChanEmitter struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewChanEmitter создаёт эмиттер с буфером buffer (0 = без буфера).
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{ch: make(chan Event, buffer)}
}

// Emit ждёт места в канале. После Close и при отменённом ctx событие
// отбрасывается.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	select {
	case e.ch <- event:
	case <-ctx.Done():
	}
}

// Subscribe возвращает читателя общего канала.
func (e *ChanEmitter) Subscribe() Subscriber {
	return chanSubscriber{ch: e.ch}
}

// Close закрывает канал; повторный вызов ничего не делает.
func (e *ChanEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

type chanSubscriber struct {
	ch <-chan Event
}

func (s chanSubscriber) Events() <-chan Event { return s.ch }

// Close у подписчика пустой: канал закрывает ChanEmitter.
func (s chanSubscriber) Close() {}

var (
	_ Emitter    = (*ChanEmitter)(nil)
	_ Subscriber = chanSubscriber{}
)
