package worker

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/usecase"
)

type BoardRefresher interface {
	RefreshBoard(ctx context.Context) (*entity.StageBoard, error)
}

// RefreshWorker reconstrói o quadro de etapas num período fixo, independente
// do tráfego, e publica as mudanças por operador entre os quadros que
// já viu.
type RefreshWorker struct {
	reports      BoardRefresher
	publisher    usecase.EventPublisher
	tickInterval time.Duration
	now          func() time.Time
	observe      func(outcome string)

	last *entity.StageBoard
}

func NewRefreshWorker(reports BoardRefresher, publisher usecase.EventPublisher, interval time.Duration) *RefreshWorker {
	if publisher == nil {
		publisher = usecase.NopPublisher{}
	}
	return &RefreshWorker{
		reports:      reports,
		publisher:    publisher,
		tickInterval: interval,
		now:          time.Now,
		observe:      func(string) {},
	}
}

// WithObserver recebe "ok", "error" ou "partial" após cada refresh.
func (w *RefreshWorker) WithObserver(fn func(outcome string)) *RefreshWorker {
	if fn != nil {
		w.observe = fn
	}
	return w
}

func (w *RefreshWorker) Start(ctx context.Context) {
	log.Printf("🕒 board refresh worker started (every %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ board refresh worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context) {
	started := w.now()
	board, err := w.reports.RefreshBoard(ctx)
	if err != nil {
		w.observe("error")
		log.Printf("❌ board refresh failed, serving previous board: %v", err)
		return
	}
	if board.Partial {
		w.observe("partial")
	} else {
		w.observe("ok")
	}

	if w.last != nil && !w.last.From.Equal(board.From) {
		// Novo dia: as contagens recomeçam do zero, o que não é mudança.
		w.last = nil
	}
	changes := usecase.DiffOperators(w.last, board, board.GeneratedAt)
	w.last = board

	if len(changes) > 0 {
		if err := w.publisher.PublishOperatorChanges(ctx, changes); err != nil {
			log.Printf("⚠️ publishing %d operator change(s) failed: %v", len(changes), err)
		}
	}
	log.Printf("✅ board %s refreshed in %s, %d change(s)", board.ID, w.now().Sub(started).Round(time.Millisecond), len(changes))
}
