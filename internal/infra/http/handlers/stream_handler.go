package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/infra/http/middleware"
)

type sseMessage struct {
	id   string
	data []byte
}

// Hub envia mudanças de operador aos navegadores conectados via server-sent events.
// Clientes lentos perdem mensagens em vez de bloquear os publishers.
type Hub struct {
	mu        sync.Mutex
	clients   map[chan sseMessage]struct{}
	buffer    int
	keepAlive time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[chan sseMessage]struct{}),
		buffer:    32,
		keepAlive: 25 * time.Second,
	}
}

func (h *Hub) subscribe() (chan sseMessage, func()) {
	ch := make(chan sseMessage, h.buffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) PublishOperatorChanges(_ context.Context, changes []entity.OperatorChange) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := 0
	for _, c := range changes {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode change: %w", err)
		}
		msg := sseMessage{id: c.EventID, data: data}
		for ch := range h.clients {
			select {
			case ch <- msg:
			default:
				dropped++
			}
		}
	}
	if dropped > 0 {
		log.Printf("⚠️ stream: dropped %d message(s) for slow clients", dropped)
	}
	return nil
}

// Stream mantém a conexão aberta e escreve um evento "operator_change"
// por mudança.
func (h *Hub) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, unsubscribe := h.subscribe()
	defer unsubscribe()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-ch:
			fmt.Fprintf(w, "id: %s\nevent: operator_change\ndata: %s\n\n", msg.id, msg.data)
			flusher.Flush()
		}
	}
}
