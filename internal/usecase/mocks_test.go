package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/leadboard/internal/entity"
)

var msk = time.FixedZone("MSK", 3*3600)

// wednesday é 2024-03-06 15:30 MSK.
var wednesday = time.Date(2024, 3, 6, 15, 30, 0, 0, msk)

type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) Users(ctx context.Context) ([]entity.Operator, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]entity.Operator)
	return users, args.Error(1)
}

func (m *MockCRM) Leads(ctx context.Context, q entity.LeadQuery) ([]entity.Lead, error) {
	args := m.Called(ctx, q)
	leads, _ := args.Get(0).([]entity.Lead)
	return leads, args.Error(1)
}

func (m *MockCRM) Lead(ctx context.Context, id int64) (entity.Lead, error) {
	args := m.Called(ctx, id)
	lead, _ := args.Get(0).(entity.Lead)
	return lead, args.Error(1)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Upsert(ctx context.Context, lead *entity.StoredLead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) Summary(ctx context.Context, dayStart time.Time, firstHour, lastHour int) (*entity.StoredSummary, error) {
	args := m.Called(ctx, dayStart, firstHour, lastHour)
	summary, _ := args.Get(0).(*entity.StoredSummary)
	return summary, args.Error(1)
}

type MockDigestSender struct {
	mock.Mock
}

func (m *MockDigestSender) SendDigest(to []string, d DigestData) error {
	args := m.Called(to, d)
	return args.Error(0)
}

type countingInvalidator struct {
	n int
}

func (c *countingInvalidator) Invalidate() { c.n++ }

func forStage(statusID string) any {
	return mock.MatchedBy(func(q entity.LeadQuery) bool { return q.StatusID == statusID })
}

func lead(id, assignee string, modified time.Time) entity.Lead {
	return entity.Lead{ID: id, AssignedByID: assignee, ModifiedAt: modified}
}

var testStages = entity.NewStageSet([]entity.Stage{
	{Label: "НДЗ", StatusID: "5"},
	{Label: "Перезвонить", StatusID: "IN_PROCESS"},
})

var testOperators = []entity.Operator{
	{ID: 1, Name: "Анна"},
	{ID: 2, Name: "Борис"},
	{ID: 3, Name: "Вера"},
}

func newTestReports(crm *MockCRM) *Reports {
	dir := NewDirectory(crm, time.Hour, nil)
	r := NewReports(crm, dir, ReportsConfig{
		Stages:    testStages,
		Location:  msk,
		BoardTTL:  time.Minute,
		ReportTTL: time.Minute,
	})
	r.now = func() time.Time { return wednesday }
	return r
}
