package cache

import (
	"context"
	"log"
	"sync"
	"time"
)

// Observer é notificado de hits e misses.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type Loader[T any] func(ctx context.Context) (T, error)

// Snapshot guarda um valor reconstruído por um Loader quando passa do TTL.
//
// Os refreshes são serializados: quem encontra o valor vencido pega o lock
// de refresh, e quem ficou na fila confere de novo a validade ao obter o lock,
// então uma rajada de requisições após o vencimento resulta numa única carga.
// Leitores de um valor válido nunca esperam um refresh em andamento. Depois de
// uma carga com falha sem nada publicado, quem chama recebe o mesmo erro até
// passar retryAfter.
type Snapshot[T any] struct {
	ttl        time.Duration
	retryAfter time.Duration
	load       Loader[T]
	obs        Observer
	now        func() time.Time

	refreshMu sync.Mutex

	mu        sync.RWMutex
	value     T
	has       bool
	loadedAt  time.Time
	checkedAt time.Time
	lastErr   error
}

const maxRetryAfter = 5 * time.Second

func NewSnapshot[T any](ttl time.Duration, load Loader[T], obs Observer) *Snapshot[T] {
	retry := maxRetryAfter
	if ttl > 0 && ttl < retry {
		retry = ttl
	}
	return &Snapshot[T]{ttl: ttl, retryAfter: retry, load: load, obs: obs, now: time.Now}
}

// Get retorna o valor em cache, carregando quando vencido. Um refresh com falha
// continua servindo o valor anterior; o erro só aparece quando nada foi
// carregado. O horário retornado é o da carga do valor.
func (s *Snapshot[T]) Get(ctx context.Context) (T, time.Time, error) {
	if v, at, ok := s.fresh(); ok {
		s.hit()
		return v, at, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if v, at, ok := s.fresh(); ok {
		s.hit()
		return v, at, nil
	}
	if err := s.recentFailure(); err != nil {
		var zero T
		return zero, time.Time{}, err
	}
	s.miss()

	v, at, err := s.refreshLocked(ctx)
	if err != nil {
		if prev, prevAt, ok := s.Peek(); ok {
			return prev, prevAt, nil
		}
		return v, at, err
	}
	return v, at, nil
}

// Refresh carrega um novo valor independente da idade e reporta erros de carga.
// O valor anterior continua publicado quando a carga falha.
func (s *Snapshot[T]) Refresh(ctx context.Context) (T, time.Time, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Snapshot[T]) refreshLocked(ctx context.Context) (T, time.Time, error) {
	v, err := s.load(ctx)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkedAt = now
	if err != nil {
		s.lastErr = err
		if s.has {
			log.Printf("⚠️ cache: refresh failed, keeping value from %s: %v", s.loadedAt.Format(time.RFC3339), err)
		}
		var zero T
		return zero, time.Time{}, err
	}
	s.value, s.has, s.loadedAt, s.lastErr = v, true, now, nil
	return v, now, nil
}

// Peek retorna o valor publicado sem carregar.
func (s *Snapshot[T]) Peek() (T, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.loadedAt, s.has
}

// Invalidate marca o valor como vencido; ele continua legível via Peek.
func (s *Snapshot[T]) Invalidate() {
	s.mu.Lock()
	s.checkedAt = time.Time{}
	s.mu.Unlock()
}

// LastError é o erro do refresh mais recente, nil após um sucesso.
func (s *Snapshot[T]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Snapshot[T]) fresh() (T, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.has && !s.checkedAt.IsZero() && s.now().Sub(s.checkedAt) < s.ttl {
		return s.value, s.loadedAt, true
	}
	var zero T
	return zero, time.Time{}, false
}

// recentFailure retorna o último erro de carga enquanto nada está publicado e
// a falha é mais recente que retryAfter.
func (s *Snapshot[T]) recentFailure() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.has || s.lastErr == nil || s.checkedAt.IsZero() {
		return nil
	}
	if s.now().Sub(s.checkedAt) < s.retryAfter {
		return s.lastErr
	}
	return nil
}

// idle informa se a entrada pode ser descartada: nenhuma carga em andamento e o
// valor venceu, ou a última tentativa falhou.
func (s *Snapshot[T]) idle(now time.Time) bool {
	if !s.refreshMu.TryLock() {
		return false
	}
	defer s.refreshMu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.has {
		return now.Sub(s.loadedAt) >= s.ttl
	}
	return !s.checkedAt.IsZero()
}

func (s *Snapshot[T]) hit() {
	if s.obs != nil {
		s.obs.CacheHit()
	}
}

func (s *Snapshot[T]) miss() {
	if s.obs != nil {
		s.obs.CacheMiss()
	}
}
