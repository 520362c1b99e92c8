// Package keylock выдает мьютекс на строковый ключ.
// Записи живут, пока ими кто-то пользуется, и удаляются после последнего Unlock.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{} // буфер 1: занят, когда внутри значение
	refs int
}

// Arena набор блокировок по ключам
type Arena struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Arena {
	return &Arena{entries: make(map[string]*entry)}
}

// Lock захватывает ключ. Возвращает функцию освобождения или ошибку контекста,
// если ожидание было прервано.
func (a *Arena) Lock(ctx context.Context, key string) (func(), error) {
	a.mu.Lock()
	e, ok := a.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		a.entries[key] = e
	}
	e.refs++
	a.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		a.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			a.release(key, e)
		})
	}, nil
}

func (a *Arena) release(key string, e *entry) {
	a.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(a.entries, key)
	}
	a.mu.Unlock()
}

// Len число ключей, которые сейчас удерживаются или ожидаются
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
