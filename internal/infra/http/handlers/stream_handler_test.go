package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadboard/internal/entity"
)

// TestHubStreamsOperatorChanges - Teste que mudanças publicadas chegam ao cliente SSE
func TestHubStreamsOperatorChanges(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.Stream))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	change := entity.OperatorChange{EventID: "ev-1", Stage: "НДЗ", StatusID: "5", OperatorID: 2, Name: "Борис", Previous: 1, Current: 2}
	require.NoError(t, hub.PublishOperatorChanges(context.Background(), []entity.OperatorChange{change}))

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "id: ev-1", lines[0])
	assert.Equal(t, "event: operator_change", lines[1])

	var got entity.OperatorChange
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &got))
	assert.Equal(t, 2, got.Current)
	assert.Equal(t, "Борис", got.Name)
}

// TestHubDropsForSlowClients - Teste que um cliente lento não bloqueia a publicação
func TestHubDropsForSlowClients(t *testing.T) {
	hub := NewHub()
	hub.buffer = 1
	_, unsubscribe := hub.subscribe()
	defer unsubscribe()

	changes := []entity.OperatorChange{{EventID: "a"}, {EventID: "b"}, {EventID: "c"}}
	done := make(chan error, 1)
	go func() { done <- hub.PublishOperatorChanges(context.Background(), changes) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow client")
	}

	unsubscribe()
	assert.Zero(t, hub.Clients())
}
