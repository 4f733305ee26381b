package entity

import "strings"

// Stage associa um rótulo legível ao STATUS_ID do CRM correspondente.
type Stage struct {
	Label    string `json:"label"`
	StatusID string `json:"status_id"`
}

// StageSet é a lista ordenada de etapas acompanhadas.
type StageSet struct {
	stages   []Stage
	byLabel  map[string]Stage
	byStatus map[string]Stage
}

func NewStageSet(stages []Stage) StageSet {
	set := StageSet{
		stages:   append([]Stage(nil), stages...),
		byLabel:  make(map[string]Stage, len(stages)),
		byStatus: make(map[string]Stage, len(stages)),
	}
	for _, s := range stages {
		set.byLabel[strings.ToLower(s.Label)] = s
		set.byStatus[s.StatusID] = s
	}
	return set
}

func (s StageSet) All() []Stage {
	return append([]Stage(nil), s.stages...)
}

// Resolve aceita um rótulo (sem diferenciar maiúsculas) ou um STATUS_ID. Valores
// desconhecidos passam como STATUS_ID com o próprio valor como rótulo.
func (s StageSet) Resolve(labelOrID string) Stage {
	key := strings.TrimSpace(labelOrID)
	if st, ok := s.byLabel[strings.ToLower(key)]; ok {
		return st
	}
	if st, ok := s.byStatus[key]; ok {
		return st
	}
	return Stage{Label: key, StatusID: key}
}

// LabelFor retorna o rótulo de um STATUS_ID, ou o próprio id.
func (s StageSet) LabelFor(statusID string) string {
	if st, ok := s.byStatus[statusID]; ok {
		return st.Label
	}
	return statusID
}
