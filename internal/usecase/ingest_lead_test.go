package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadboard/internal/entity"
)

func newIngest(repo entity.LeadRepositoryInterface, crm *MockCRM, caches Invalidator) *IngestLeadUseCase {
	uc := NewIngestLeadUseCase(repo, testStages, NewDirectory(crm, time.Hour, nil), caches)
	uc.Now = func() time.Time { return wednesday }
	return uc
}

// TestIngestLeadStoresAndInvalidates - Teste que o lead é gravado com rótulo e nome do operador
func TestIngestLeadStoresAndInvalidates(t *testing.T) {
	crm := new(MockCRM)
	crm.On("Users", mock.Anything).Return(testOperators, nil)
	repo := new(MockLeadRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	caches := &countingInvalidator{}

	modified := wednesday.Add(-time.Hour)
	err := newIngest(repo, crm, caches).Execute(context.Background(), entity.LeadEvent{
		Event:        "ONCRMLEADUPDATE",
		LeadID:       42,
		StatusID:     "5",
		AssignedByID: "2",
		ModifiedAt:   modified,
	})
	require.NoError(t, err)

	stored := repo.Calls[0].Arguments.Get(1).(*entity.StoredLead)
	assert.Equal(t, int64(42), stored.LeadID)
	assert.Equal(t, "НДЗ", stored.StageLabel)
	assert.Equal(t, 2, stored.OperatorID)
	assert.Equal(t, "Борис", stored.OperatorName)
	assert.True(t, stored.ModifiedAt.Equal(modified))
	assert.True(t, stored.CreatedAt.Equal(modified))
	assert.Equal(t, 1, caches.n)
}

// TestIngestLeadDefaultsModifiedToNow - Teste que sem data de modificação é usado o horário atual
func TestIngestLeadDefaultsModifiedToNow(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	err := newIngest(repo, new(MockCRM), nil).Execute(context.Background(), entity.LeadEvent{LeadID: 7, StatusID: "UC_X"})
	require.NoError(t, err)

	stored := repo.Calls[0].Arguments.Get(1).(*entity.StoredLead)
	assert.True(t, stored.ModifiedAt.Equal(wednesday))
	assert.Equal(t, "UC_X", stored.StageLabel)
	assert.Zero(t, stored.OperatorID)
}

// TestIngestLeadRejectsInvalidEvent - Teste que eventos sem id ou estágio são rejeitados
func TestIngestLeadRejectsInvalidEvent(t *testing.T) {
	repo := new(MockLeadRepository)
	caches := &countingInvalidator{}
	uc := newIngest(repo, new(MockCRM), caches)

	err := uc.Execute(context.Background(), entity.LeadEvent{LeadID: 0, StatusID: "5"})
	assert.True(t, IsDomainError(err))

	err = uc.Execute(context.Background(), entity.LeadEvent{LeadID: 5})
	assert.True(t, IsDomainError(err))

	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Zero(t, caches.n)
}

// TestIngestLeadCompletesFromCRM - Teste que eventos só com id são completados pelo CRM
func TestIngestLeadCompletesFromCRM(t *testing.T) {
	crm := new(MockCRM)
	crm.On("Users", mock.Anything).Return(testOperators, nil)
	crm.On("Lead", mock.Anything, int64(42)).Return(entity.Lead{ID: "42", StatusID: "IN_PROCESS", AssignedByID: "3"}, nil)
	repo := new(MockLeadRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	uc := newIngest(repo, crm, nil)
	uc.Lookup = crm
	require.NoError(t, uc.Execute(context.Background(), entity.LeadEvent{LeadID: 42}))

	stored := repo.Calls[0].Arguments.Get(1).(*entity.StoredLead)
	assert.Equal(t, "Перезвонить", stored.StageLabel)
	assert.Equal(t, "Вера", stored.OperatorName)
}

// TestIngestLeadLookupFailure - Teste que falha na busca do lead é erro técnico
func TestIngestLeadLookupFailure(t *testing.T) {
	crm := new(MockCRM)
	crm.On("Lead", mock.Anything, int64(42)).Return(nil, errors.New("timeout"))

	uc := newIngest(new(MockLeadRepository), crm, nil)
	uc.Lookup = crm
	err := uc.Execute(context.Background(), entity.LeadEvent{LeadID: 42})
	assert.True(t, IsTechnicalError(err))
}

// TestIngestLeadStoreFailureStillInvalidates - Teste que erro no banco é técnico e o cache ainda é invalidado
func TestIngestLeadStoreFailureStillInvalidates(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	caches := &countingInvalidator{}

	err := newIngest(repo, new(MockCRM), caches).Execute(context.Background(), entity.LeadEvent{LeadID: 1, StatusID: "5"})

	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "STORE_ERROR", te.Code)
	assert.Equal(t, 1, caches.n)
}

// TestIngestLeadWithoutStore - Teste que sem banco o evento só invalida o cache
func TestIngestLeadWithoutStore(t *testing.T) {
	caches := &countingInvalidator{}
	err := newIngest(nil, new(MockCRM), caches).Execute(context.Background(), entity.LeadEvent{LeadID: 1, StatusID: "5"})
	require.NoError(t, err)
	assert.Equal(t, 1, caches.n)
}

// TestStoredToday - Teste do resumo do dia lido do banco
func TestStoredToday(t *testing.T) {
	repo := new(MockLeadRepository)
	summary := &entity.StoredSummary{Day: "2024-03-06", Stages: map[string]int{"НДЗ": 3}}
	repo.On("Summary", mock.Anything, time.Date(2024, 3, 6, 0, 0, 0, 0, msk), 8, 20).Return(summary, nil)

	got, err := newIngest(repo, new(MockCRM), nil).StoredToday(context.Background(), msk)
	require.NoError(t, err)
	assert.Same(t, summary, got)

	_, err = newIngest(nil, new(MockCRM), nil).StoredToday(context.Background(), msk)
	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "STORE_DISABLED", te.Code)
}
