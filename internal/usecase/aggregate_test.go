package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadboard/internal/entity"
)

var testNames = entity.OperatorNames{1: "Анна", 2: "Борис", 3: "Вера"}

// TestCountByOperatorRanksAndSeparatesUnassigned - Teste da contagem por operador com leads sem responsável
func TestCountByOperatorRanksAndSeparatesUnassigned(t *testing.T) {
	leads := []entity.Lead{
		lead("1", "2", wednesday),
		lead("2", "1", wednesday),
		lead("3", "2", wednesday),
		lead("4", "", wednesday),
		lead("5", "abc", wednesday),
		lead("6", "1", wednesday),
		lead("7", "3", wednesday),
		lead("8", "99", wednesday),
	}

	tally := CountByOperator(leads, testNames)

	assert.Equal(t, 8, tally.Total)
	assert.Equal(t, 2, tally.Unassigned)
	assert.Equal(t, []entity.OperatorCount{
		{OperatorID: 1, Name: "Анна", Count: 2},
		{OperatorID: 2, Name: "Борис", Count: 2},
		{OperatorID: 99, Name: "99", Count: 1},
		{OperatorID: 3, Name: "Вера", Count: 1},
	}, tally.Operators)
}

// TestCountByOperatorSumMatchesAssigned - Teste que a soma das contagens é igual ao número de leads atribuídos
func TestCountByOperatorSumMatchesAssigned(t *testing.T) {
	var leads []entity.Lead
	for i := 0; i < 50; i++ {
		assignee := ""
		if i%7 != 0 {
			assignee = []string{"1", "2", "3"}[i%3]
		}
		leads = append(leads, lead("x", assignee, wednesday))
	}

	tally := CountByOperator(leads, testNames)
	sum := 0
	for i, op := range tally.Operators {
		sum += op.Count
		assert.Positive(t, op.Count)
		if i > 0 {
			assert.GreaterOrEqual(t, tally.Operators[i-1].Count, op.Count)
		}
	}
	assert.Equal(t, tally.Total-tally.Unassigned, sum)
}

// TestCountByOperatorEmpty - Teste com lista vazia
func TestCountByOperatorEmpty(t *testing.T) {
	tally := CountByOperator(nil, testNames)
	assert.Zero(t, tally.Total)
	assert.Empty(t, tally.Operators)
}

// TestCountByHour - Teste do agrupamento por hora no fuso configurado
func TestCountByHour(t *testing.T) {
	leads := []entity.Lead{
		lead("1", "1", time.Date(2024, 3, 6, 6, 10, 0, 0, time.UTC)),
		lead("2", "1", time.Date(2024, 3, 6, 9, 59, 0, 0, msk)),
		lead("3", "1", time.Date(2024, 3, 6, 14, 0, 0, 0, msk)),
		{ID: "4"},
	}

	assert.Equal(t, []entity.Bucket{
		{Key: "09:00", Count: 2},
		{Key: "14:00", Count: 1},
	}, CountByHour(leads, msk))
}

// TestCountByDayFillsEmptyDays - Teste que dias sem leads aparecem com zero
func TestCountByDayFillsEmptyDays(t *testing.T) {
	from := time.Date(2024, 3, 4, 0, 0, 0, 0, msk)
	leads := []entity.Lead{
		lead("1", "1", time.Date(2024, 3, 4, 10, 0, 0, 0, msk)),
		lead("2", "1", time.Date(2024, 3, 6, 10, 0, 0, 0, msk)),
		lead("3", "1", time.Date(2024, 3, 6, 11, 0, 0, 0, msk)),
	}

	assert.Equal(t, []entity.Bucket{
		{Key: "2024-03-04", Count: 1},
		{Key: "2024-03-05", Count: 0},
		{Key: "2024-03-06", Count: 2},
	}, CountByDay(leads, msk, from, wednesday))
}

// TestCompareOperators - Teste da comparação hoje x ontem
func TestCompareOperators(t *testing.T) {
	today := CountByOperator([]entity.Lead{
		lead("1", "1", wednesday), lead("2", "1", wednesday), lead("3", "3", wednesday),
	}, testNames)
	yesterday := CountByOperator([]entity.Lead{
		lead("4", "1", wednesday), lead("5", "2", wednesday), lead("6", "3", wednesday),
	}, testNames)

	rows := CompareOperators(today, yesterday, testNames)

	assert.Equal(t, []entity.ComparisonRow{
		{OperatorID: 1, Name: "Анна", Yesterday: 1, Today: 2, Diff: 1, Trend: "up"},
		{OperatorID: 3, Name: "Вера", Yesterday: 1, Today: 1, Diff: 0, Trend: "flat"},
		{OperatorID: 2, Name: "Борис", Yesterday: 1, Today: 0, Diff: -1, Trend: "down"},
	}, rows)
}

// TestDiffOperators - Teste da detecção de mudanças entre dois painéis
func TestDiffOperators(t *testing.T) {
	prev := &entity.StageBoard{Stages: []entity.StageReport{{
		Label: "НДЗ", StatusID: "5",
		Operators: []entity.OperatorCount{
			{OperatorID: 1, Name: "Анна", Count: 3},
			{OperatorID: 2, Name: "Борис", Count: 1},
			{OperatorID: 3, Name: "Вера", Count: 2},
		},
	}}}
	next := &entity.StageBoard{Stages: []entity.StageReport{{
		Label: "НДЗ", StatusID: "5",
		Operators: []entity.OperatorCount{
			{OperatorID: 1, Name: "Анна", Count: 4},
			{OperatorID: 3, Name: "Вера", Count: 2},
		},
	}}}

	changes := DiffOperators(prev, next, wednesday)
	require.Len(t, changes, 2)

	assert.Equal(t, 1, changes[0].OperatorID)
	assert.Equal(t, 3, changes[0].Previous)
	assert.Equal(t, 4, changes[0].Current)
	assert.Equal(t, "НДЗ", changes[0].Stage)
	assert.NotEmpty(t, changes[0].EventID)

	assert.Equal(t, 2, changes[1].OperatorID)
	assert.Equal(t, 0, changes[1].Current)
	assert.NotEqual(t, changes[0].EventID, changes[1].EventID)

	assert.Nil(t, DiffOperators(nil, next, wednesday))
	assert.Empty(t, DiffOperators(next, next, wednesday))
}
