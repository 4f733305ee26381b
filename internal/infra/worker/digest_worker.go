package worker

import (
	"context"
	"log"
	"time"
)

type DigestExecutor interface {
	Execute(ctx context.Context) error
}

// DigestWorker envia o quadro de etapas por e-mail num período fixo.
type DigestWorker struct {
	digest       DigestExecutor
	tickInterval time.Duration
}

func NewDigestWorker(digest DigestExecutor, interval time.Duration) *DigestWorker {
	return &DigestWorker{digest: digest, tickInterval: interval}
}

func (w *DigestWorker) Start(ctx context.Context) {
	log.Printf("📧 digest worker started (every %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ digest worker stopped")
			return
		case <-ticker.C:
			if err := w.digest.Execute(ctx); err != nil {
				log.Printf("❌ digest failed: %v", err)
			}
		}
	}
}
