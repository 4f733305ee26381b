package usecase

import (
	"fmt"
	"strings"
	"time"
)

const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeWeek      = "week"
	RangeMonth     = "month"
)

// stuckEpoch é o limite inferior usado ao buscar leads parados numa etapa.
var stuckEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// ResolveRange converte o nome de um período numa janela [from, to] em loc. A semana
// começa na segunda. Nome vazio significa hoje.
func ResolveRange(name string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := dayStart(now)

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RangeToday:
		return today, now, nil
	case RangeYesterday:
		return today.AddDate(0, 0, -1), today.Add(-time.Second), nil
	case RangeWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -offset), now, nil
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), now, nil
	}
	return time.Time{}, time.Time{}, &DomainError{
		Code:    "INVALID_RANGE",
		Message: fmt.Sprintf("unknown range %q (use today, yesterday, week or month)", name),
	}
}

func normalizeRange(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return RangeToday
	}
	return name
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
