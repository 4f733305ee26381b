package usecase

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/leadboard/internal/entity"
)

// OperatorTally é o resultado de uma contagem sobre uma lista de leads.
type OperatorTally struct {
	Operators  []entity.OperatorCount
	Counts     map[int]int
	Total      int
	Unassigned int
}

// CountByOperator conta leads por responsável. Leads sem responsável ou com
// responsável não inteiro contam só em Total e Unassigned.
func CountByOperator(leads []entity.Lead, names entity.OperatorNames) OperatorTally {
	counts := make(map[int]int)
	tally := OperatorTally{Total: len(leads)}
	for _, lead := range leads {
		id, ok := lead.OperatorID()
		if !ok {
			tally.Unassigned++
			continue
		}
		counts[id]++
	}
	tally.Counts = counts
	tally.Operators = rankOperators(counts, names)
	return tally
}

// rankOperators ordena por contagem decrescente, depois nome, depois id.
func rankOperators(counts map[int]int, names entity.OperatorNames) []entity.OperatorCount {
	out := make([]entity.OperatorCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, entity.OperatorCount{OperatorID: id, Name: names.Name(id), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].OperatorID < out[j].OperatorID
	})
	return out
}

func BuildStageReport(stage entity.Stage, leads []entity.Lead, names entity.OperatorNames) entity.StageReport {
	tally := CountByOperator(leads, names)
	return entity.StageReport{
		Label:      stage.Label,
		StatusID:   stage.StatusID,
		Total:      tally.Total,
		Unassigned: tally.Unassigned,
		Operators:  tally.Operators,
	}
}

// CountByHour agrupa leads pela hora de modificação ("15:00") em loc. Só as horas
// com leads são retornadas, em ordem crescente.
func CountByHour(leads []entity.Lead, loc *time.Location) []entity.Bucket {
	if loc == nil {
		loc = time.UTC
	}
	var hours [24]int
	for _, lead := range leads {
		if lead.ModifiedAt.IsZero() {
			continue
		}
		hours[lead.ModifiedAt.In(loc).Hour()]++
	}
	var out []entity.Bucket
	for h, n := range hours {
		if n == 0 {
			continue
		}
		out = append(out, entity.Bucket{Key: hourKey(h), Count: n})
	}
	return out
}

// CountByDay agrupa leads por dia em loc, com todos os dias entre from e to
// presentes mesmo quando vazios.
func CountByDay(leads []entity.Lead, loc *time.Location, from, to time.Time) []entity.Bucket {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[string]int)
	for _, lead := range leads {
		if lead.ModifiedAt.IsZero() {
			continue
		}
		counts[lead.ModifiedAt.In(loc).Format(time.DateOnly)]++
	}

	var out []entity.Bucket
	first, last := dayStart(from.In(loc)), dayStart(to.In(loc))
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		out = append(out, entity.Bucket{Key: key, Count: counts[key]})
		delete(counts, key)
	}
	// Leads fora da janela (relógio adiantado no CRM) entram no final.
	extra := make([]string, 0, len(counts))
	for key := range counts {
		extra = append(extra, key)
	}
	sort.Strings(extra)
	for _, key := range extra {
		out = append(out, entity.Bucket{Key: key, Count: counts[key]})
	}
	return out
}

// CompareOperators alinha duas contagens, ordenadas pela de hoje decrescente.
func CompareOperators(today, yesterday OperatorTally, names entity.OperatorNames) []entity.ComparisonRow {
	ids := make(map[int]struct{}, len(today.Counts)+len(yesterday.Counts))
	for id := range today.Counts {
		ids[id] = struct{}{}
	}
	for id := range yesterday.Counts {
		ids[id] = struct{}{}
	}

	rows := make([]entity.ComparisonRow, 0, len(ids))
	for id := range ids {
		t, y := today.Counts[id], yesterday.Counts[id]
		rows = append(rows, entity.ComparisonRow{
			OperatorID: id,
			Name:       names.Name(id),
			Yesterday:  y,
			Today:      t,
			Diff:       t - y,
			Trend:      trend(t - y),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Today != rows[j].Today {
			return rows[i].Today > rows[j].Today
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].OperatorID < rows[j].OperatorID
	})
	return rows
}

// DiffOperators lista cada (etapa, operador) cuja contagem difere entre dois
// quadros. prev nil não gera mudanças: o primeiro quadro é a base.
func DiffOperators(prev, next *entity.StageBoard, at time.Time) []entity.OperatorChange {
	if prev == nil || next == nil {
		return nil
	}
	var changes []entity.OperatorChange
	for _, stage := range next.Stages {
		before := map[int]entity.OperatorCount{}
		if old, ok := prev.Stage(stage.StatusID); ok {
			for _, oc := range old.Operators {
				before[oc.OperatorID] = oc
			}
		}
		for _, oc := range stage.Operators {
			old := before[oc.OperatorID]
			delete(before, oc.OperatorID)
			if old.Count == oc.Count {
				continue
			}
			changes = append(changes, newChange(stage, oc.OperatorID, oc.Name, old.Count, oc.Count, at))
		}
		gone := make([]entity.OperatorCount, 0, len(before))
		for _, oc := range before {
			gone = append(gone, oc)
		}
		sort.Slice(gone, func(i, j int) bool { return gone[i].OperatorID < gone[j].OperatorID })
		for _, oc := range gone {
			changes = append(changes, newChange(stage, oc.OperatorID, oc.Name, oc.Count, 0, at))
		}
	}
	return changes
}

func newChange(stage entity.StageReport, id int, name string, prev, cur int, at time.Time) entity.OperatorChange {
	return entity.OperatorChange{
		EventID:    uuid.NewString(),
		Stage:      stage.Label,
		StatusID:   stage.StatusID,
		OperatorID: id,
		Name:       name,
		Previous:   prev,
		Current:    cur,
		At:         at,
	}
}

func trend(diff int) string {
	switch {
	case diff > 0:
		return "up"
	case diff < 0:
		return "down"
	}
	return "flat"
}

func hourKey(h int) string {
	return time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("15:04")
}
