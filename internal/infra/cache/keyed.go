package cache

import (
	"context"
	"sync"
	"time"
)

const purgeThreshold = 256

// Keyed é um conjunto de Snapshots endereçados por chave, usado nas consultas
// de relatório cujos parâmetros vêm da requisição.
type Keyed[T any] struct {
	ttl time.Duration
	obs Observer
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*keyedEntry[T]
}

type keyedEntry[T any] struct {
	snap *Snapshot[T]

	mu   sync.Mutex
	load Loader[T]
}

func (e *keyedEntry[T]) run(ctx context.Context) (T, error) {
	e.mu.Lock()
	load := e.load
	e.mu.Unlock()
	return load(ctx)
}

func NewKeyed[T any](ttl time.Duration, obs Observer) *Keyed[T] {
	return &Keyed[T]{ttl: ttl, obs: obs, now: time.Now, entries: make(map[string]*keyedEntry[T])}
}

// Get retorna o valor da chave, carregando com load quando ausente ou vencido.
// O refresh sempre usa o loader da chamada mais recente, para que janelas que
// terminam em "agora" continuem andando.
func (k *Keyed[T]) Get(ctx context.Context, key string, load Loader[T]) (T, time.Time, error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		if len(k.entries) >= purgeThreshold {
			k.purgeLocked()
		}
		e = &keyedEntry[T]{}
		e.snap = NewSnapshot(k.ttl, e.run, k.obs)
		e.snap.now = k.now
		k.entries[key] = e
	}
	k.mu.Unlock()

	e.mu.Lock()
	e.load = load
	e.mu.Unlock()
	return e.snap.Get(ctx)
}

// InvalidateAll marca todas as entradas como vencidas.
func (k *Keyed[T]) InvalidateAll() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, e := range k.entries {
		e.snap.Invalidate()
	}
}

func (k *Keyed[T]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed[T]) purgeLocked() {
	now := k.now()
	for key, e := range k.entries {
		if e.snap.idle(now) {
			delete(k.entries, key)
		}
	}
}
