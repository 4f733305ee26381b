package entity

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Lead é uma cópia somente leitura de um lead do CRM.
type Lead struct {
	ID           string    `json:"id"`
	StatusID     string    `json:"status_id"`
	AssignedByID string    `json:"assigned_by_id,omitempty"`
	ModifiedAt   time.Time `json:"modified_at"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// OperatorID interpreta o responsável. Leads sem responsável inteiro não são
// atribuídos a nenhum operador.
func (l Lead) OperatorID() (int, bool) {
	raw := strings.TrimSpace(l.AssignedByID)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

// LeadQuery seleciona leads de uma etapa modificados dentro de [From, To].
type LeadQuery struct {
	StatusID string
	From     time.Time
	To       time.Time
}

// StoredLead é a linha desnormalizada mantida no store local de leads.
type StoredLead struct {
	LeadID       int64     `json:"lead_id"`
	StatusID     string    `json:"status_id"`
	StageLabel   string    `json:"stage_label"`
	OperatorID   int       `json:"operator_id"`
	OperatorName string    `json:"operator_name"`
	ModifiedAt   time.Time `json:"modified_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoredSummary é o que o store informa para um dia.
type StoredSummary struct {
	Day       string                    `json:"day"`
	Stages    map[string]int            `json:"stages"`
	Operators map[string]map[string]int `json:"operators"`
	Hourly    map[string][]int          `json:"hourly"`
	Hours     []string                  `json:"hours"`
}

type LeadRepositoryInterface interface {
	Upsert(ctx context.Context, lead *StoredLead) error
	Summary(ctx context.Context, dayStart time.Time, firstHour, lastHour int) (*StoredSummary, error)
}
