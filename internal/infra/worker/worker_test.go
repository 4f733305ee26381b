package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadboard/internal/entity"
)

type scriptedRefresher struct {
	boards []*entity.StageBoard
	errs   []error
	calls  int
}

func (s *scriptedRefresher) RefreshBoard(context.Context) (*entity.StageBoard, error) {
	i := s.calls
	s.calls++
	return s.boards[i], s.errs[i]
}

type recordingPublisher struct {
	batches [][]entity.OperatorChange
}

func (r *recordingPublisher) PublishOperatorChanges(_ context.Context, changes []entity.OperatorChange) error {
	r.batches = append(r.batches, changes)
	return nil
}

func board(id string, partial bool, counts map[int]int) *entity.StageBoard {
	stage := entity.StageReport{Label: "НДЗ", StatusID: "5"}
	for op, n := range counts {
		stage.Operators = append(stage.Operators, entity.OperatorCount{OperatorID: op, Name: "op", Count: n})
		stage.Total += n
	}
	return &entity.StageBoard{ID: id, GeneratedAt: time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC), Partial: partial, Stages: []entity.StageReport{stage}}
}

// TestRefreshWorkerPublishesDiffs - Teste que só mudanças entre boards são publicadas
func TestRefreshWorkerPublishesDiffs(t *testing.T) {
	refresher := &scriptedRefresher{
		boards: []*entity.StageBoard{
			board("b1", false, map[int]int{1: 2}),
			nil,
			board("b2", true, map[int]int{1: 3}),
		},
		errs: []error{nil, errors.New("crm down"), nil},
	}
	pub := &recordingPublisher{}
	var outcomes []string
	w := NewRefreshWorker(refresher, pub, time.Minute).WithObserver(func(o string) { outcomes = append(outcomes, o) })

	w.refresh(context.Background())
	w.refresh(context.Background())
	w.refresh(context.Background())

	assert.Equal(t, []string{"ok", "error", "partial"}, outcomes)
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)
	assert.Equal(t, 2, pub.batches[0][0].Previous)
	assert.Equal(t, 3, pub.batches[0][0].Current)
}

// TestRefreshWorkerDayRollover - Teste que a virada do dia não publica zeros para todos os operadores
func TestRefreshWorkerDayRollover(t *testing.T) {
	yesterday := board("b1", false, map[int]int{1: 5, 2: 3})
	yesterday.From = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	midnight := board("b2", false, map[int]int{})
	midnight.From = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	morning := board("b3", false, map[int]int{1: 1})
	morning.From = midnight.From

	refresher := &scriptedRefresher{
		boards: []*entity.StageBoard{yesterday, midnight, morning},
		errs:   []error{nil, nil, nil},
	}
	pub := &recordingPublisher{}
	w := NewRefreshWorker(refresher, pub, time.Minute)

	w.refresh(context.Background())
	w.refresh(context.Background())
	assert.Empty(t, pub.batches)

	w.refresh(context.Background())
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)
	assert.Equal(t, 0, pub.batches[0][0].Previous)
	assert.Equal(t, 1, pub.batches[0][0].Current)
}

type countingDigest struct {
	mu    sync.Mutex
	calls int
}

func (c *countingDigest) Execute(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

func (c *countingDigest) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// TestDigestWorkerRunsOnTicks - Teste que o resumo é enviado a cada intervalo até o cancelamento
func TestDigestWorkerRunsOnTicks(t *testing.T) {
	digest := &countingDigest{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewDigestWorker(digest, 10*time.Millisecond).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return digest.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("digest worker did not stop")
	}
}
