package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/usecase"
)

type fakeCRM struct {
	leads []entity.Lead
	err   error
}

func (f *fakeCRM) Users(context.Context) ([]entity.Operator, error) {
	return []entity.Operator{{ID: 1, Name: "Анна"}, {ID: 2, Name: "Борис"}}, nil
}

func (f *fakeCRM) Leads(context.Context, entity.LeadQuery) ([]entity.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.leads, nil
}

func sampleLeads() []entity.Lead {
	now := time.Now()
	return []entity.Lead{
		{ID: "1", AssignedByID: "2", ModifiedAt: now.Add(-3 * time.Minute)},
		{ID: "2", AssignedByID: "1", ModifiedAt: now.Add(-2 * time.Minute)},
		{ID: "3", AssignedByID: "2", ModifiedAt: now.Add(-1 * time.Minute)},
		{ID: "4", ModifiedAt: now},
	}
}

func newReports(crm usecase.CRMClient) *usecase.Reports {
	stages := entity.NewStageSet([]entity.Stage{
		{Label: "НДЗ", StatusID: "5"},
		{Label: "Перезвонить", StatusID: "IN_PROCESS"},
	})
	return usecase.NewReports(crm, usecase.NewDirectory(crm, time.Hour, nil), usecase.ReportsConfig{
		Stages:    stages,
		Location:  time.UTC,
		BoardTTL:  time.Minute,
		ReportTTL: time.Minute,
	})
}

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Execute(ctx context.Context, ev entity.LeadEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type MockLeadProducer struct {
	mock.Mock
}

func (m *MockLeadProducer) PublishLeadEvent(ctx context.Context, ev entity.LeadEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v: %s", err, rec.Body.String())
	}
	return body
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}
