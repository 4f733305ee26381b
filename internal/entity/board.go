package entity

import "time"

// StageReport guarda o ranking por operador de uma etapa.
type StageReport struct {
	Label      string          `json:"label"`
	StatusID   string          `json:"status_id"`
	Total      int             `json:"total"`
	Unassigned int             `json:"unassigned"`
	Operators  []OperatorCount `json:"operators"`
}

// StageBoard é o snapshot agregado. É reconstruído do zero a cada
// refresh e nunca alterado depois de publicado.
type StageBoard struct {
	ID          string        `json:"id"`
	GeneratedAt time.Time     `json:"generated_at"`
	From        time.Time     `json:"from"`
	To          time.Time     `json:"to"`
	Partial     bool          `json:"partial"`
	Stages      []StageReport `json:"stages"`
}

func (b *StageBoard) Stage(statusID string) (StageReport, bool) {
	if b == nil {
		return StageReport{}, false
	}
	for _, s := range b.Stages {
		if s.StatusID == statusID {
			return s, true
		}
	}
	return StageReport{}, false
}

type StageTotal struct {
	Label    string `json:"label"`
	StatusID string `json:"status_id"`
	Count    int    `json:"count"`
}

type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type ComparisonRow struct {
	OperatorID int    `json:"operator_id"`
	Name       string `json:"name"`
	Yesterday  int    `json:"yesterday"`
	Today      int    `json:"today"`
	Diff       int    `json:"diff"`
	Trend      string `json:"trend"`
}

// OperatorChange registra a mudança de contagem de um operador numa etapa
// entre dois quadros consecutivos.
type OperatorChange struct {
	EventID    string    `json:"event_id"`
	Stage      string    `json:"stage"`
	StatusID   string    `json:"status_id"`
	OperatorID int       `json:"operator_id"`
	Name       string    `json:"name"`
	Previous   int       `json:"previous"`
	Current    int       `json:"current"`
	At         time.Time `json:"at"`
}
