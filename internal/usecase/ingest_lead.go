package usecase

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
)

// Invalidator é qualquer coisa que guarde visões em cache derivadas do CRM.
type Invalidator interface {
	Invalidate()
}

// LeadLookup completa eventos de webhook que trazem apenas o id do lead.
type LeadLookup interface {
	Lead(ctx context.Context, id int64) (entity.Lead, error)
}

// IngestLeadUseCase grava um lead enviado pelo webhook do CRM e marca os
// agregados em cache como vencidos.
type IngestLeadUseCase struct {
	Repo      entity.LeadRepositoryInterface
	Stages    entity.StageSet
	Directory *Directory
	Caches    Invalidator
	Lookup    LeadLookup
	Now       func() time.Time
}

func NewIngestLeadUseCase(repo entity.LeadRepositoryInterface, stages entity.StageSet, dir *Directory, caches Invalidator) *IngestLeadUseCase {
	return &IngestLeadUseCase{Repo: repo, Stages: stages, Directory: dir, Caches: caches, Now: time.Now}
}

func (uc *IngestLeadUseCase) Execute(ctx context.Context, ev entity.LeadEvent) error {
	if ev.LeadID <= 0 {
		return &DomainError{Code: "INVALID_LEAD", Message: "lead id is required"}
	}
	if ev.StatusID == "" && uc.Lookup != nil {
		if err := uc.complete(ctx, &ev); err != nil {
			return err
		}
	}
	if ev.StatusID == "" {
		return &DomainError{Code: "INVALID_LEAD", Message: "status id is required"}
	}

	if uc.Caches != nil {
		defer uc.Caches.Invalidate()
	}
	if uc.Repo == nil {
		return nil
	}

	now := uc.Now()
	stored := &entity.StoredLead{
		LeadID:     ev.LeadID,
		StatusID:   ev.StatusID,
		StageLabel: uc.Stages.LabelFor(ev.StatusID),
		ModifiedAt: ev.ModifiedAt,
		CreatedAt:  ev.CreatedAt,
	}
	if stored.ModifiedAt.IsZero() {
		stored.ModifiedAt = now
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.ModifiedAt
	}
	if id, ok := (entity.Lead{AssignedByID: ev.AssignedByID}).OperatorID(); ok {
		stored.OperatorID = id
		if uc.Directory != nil {
			stored.OperatorName = uc.Directory.Names(ctx).Name(id)
		}
	}

	if err := uc.Repo.Upsert(ctx, stored); err != nil {
		return &TechnicalError{Code: "STORE_ERROR", Message: "could not store lead", Err: err}
	}
	log.Printf("📥 lead %d stored: stage=%s operator=%d", stored.LeadID, stored.StageLabel, stored.OperatorID)
	return nil
}

func (uc *IngestLeadUseCase) complete(ctx context.Context, ev *entity.LeadEvent) error {
	lead, err := uc.Lookup.Lead(ctx, ev.LeadID)
	if err != nil {
		return &TechnicalError{Code: "CRM_UNAVAILABLE", Message: "could not load lead from the CRM", Err: err}
	}
	ev.StatusID = lead.StatusID
	if ev.AssignedByID == "" {
		ev.AssignedByID = lead.AssignedByID
	}
	if ev.ModifiedAt.IsZero() {
		ev.ModifiedAt = lead.ModifiedAt
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = lead.CreatedAt
	}
	return nil
}

// StoredToday lê o resumo de hoje do store de leads.
func (uc *IngestLeadUseCase) StoredToday(ctx context.Context, loc *time.Location) (*entity.StoredSummary, error) {
	if uc.Repo == nil {
		return nil, &TechnicalError{Code: "STORE_DISABLED", Message: "lead store is not configured"}
	}
	if loc == nil {
		loc = time.UTC
	}
	summary, err := uc.Repo.Summary(ctx, dayStart(uc.Now().In(loc)), 8, 20)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_ERROR", Message: "could not read lead store", Err: err}
	}
	return summary, nil
}
