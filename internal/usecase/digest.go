package usecase

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
)

// DigestData é o que o e-mail de resumo renderiza.
type DigestData struct {
	GeneratedAt time.Time
	Partial     bool
	Stages      []entity.StageReport
}

// SendDigestUseCase envia por e-mail o quadro atual de etapas.
type SendDigestUseCase struct {
	Reports    *Reports
	Sender     DigestSender
	Recipients []string
}

func NewSendDigestUseCase(reports *Reports, sender DigestSender, recipients []string) *SendDigestUseCase {
	return &SendDigestUseCase{Reports: reports, Sender: sender, Recipients: recipients}
}

func (uc *SendDigestUseCase) Execute(ctx context.Context) error {
	if uc.Sender == nil || len(uc.Recipients) == 0 {
		return &TechnicalError{Code: "DIGEST_DISABLED", Message: "digest mail is not configured"}
	}
	board, err := uc.Reports.Board(ctx)
	if err != nil {
		return err
	}
	data := DigestData{GeneratedAt: board.GeneratedAt, Partial: board.Partial, Stages: board.Stages}
	if err := uc.Sender.SendDigest(uc.Recipients, data); err != nil {
		return &TechnicalError{Code: "MAIL_ERROR", Message: "could not send digest", Err: err}
	}
	log.Printf("📧 digest sent to %d recipient(s)", len(uc.Recipients))
	return nil
}
