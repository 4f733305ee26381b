package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
)

const leadsSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id            BIGSERIAL PRIMARY KEY,
	lead_id       BIGINT       NOT NULL UNIQUE,
	stage_id      VARCHAR(50)  NOT NULL,
	stage_label   VARCHAR(100) NOT NULL,
	operator_id   INTEGER      NOT NULL DEFAULT 0,
	operator_name VARCHAR(100) NOT NULL DEFAULT '',
	modified_date TIMESTAMPTZ  NOT NULL,
	created_date  TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lead_stage ON leads (stage_id);
CREATE INDEX IF NOT EXISTS idx_lead_modified ON leads (modified_date);
CREATE INDEX IF NOT EXISTS idx_lead_operator ON leads (operator_id);
`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Migrate cria a tabela leads quando não existe.
func (r *LeadRepository) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, leadsSchema); err != nil {
		return wrapDBError("migrate leads", err)
	}
	return nil
}

// Upsert mantém uma linha por lead do CRM. O operador só é sobrescrito quando
// o evento traz um.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.StoredLead) error {
	query := `
		INSERT INTO leads (lead_id, stage_id, stage_label, operator_id, operator_name, modified_date, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (lead_id)
		DO UPDATE SET
			stage_id = EXCLUDED.stage_id,
			stage_label = EXCLUDED.stage_label,
			operator_id = CASE WHEN EXCLUDED.operator_id <> 0 THEN EXCLUDED.operator_id ELSE leads.operator_id END,
			operator_name = CASE WHEN EXCLUDED.operator_id <> 0 THEN EXCLUDED.operator_name ELSE leads.operator_name END,
			modified_date = EXCLUDED.modified_date
	`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		lead.LeadID,
		lead.StatusID,
		lead.StageLabel,
		lead.OperatorID,
		lead.OperatorName,
		lead.ModifiedAt,
		lead.CreatedAt,
	)
	return wrapDBError("upsert lead", err)
}

// Summary resume um dia de leads gravados: totais por etapa, uma matriz
// operador por etapa e contagens por hora em [firstHour, lastHour).
func (r *LeadRepository) Summary(ctx context.Context, dayStart time.Time, firstHour, lastHour int) (*entity.StoredSummary, error) {
	dayEnd := dayStart.AddDate(0, 0, 1)
	zone := dayStart.Location().String()

	summary := &entity.StoredSummary{
		Day:       dayStart.Format(time.DateOnly),
		Stages:    map[string]int{},
		Operators: map[string]map[string]int{},
		Hourly:    map[string][]int{},
	}
	for h := firstHour; h < lastHour; h++ {
		summary.Hours = append(summary.Hours, fmt.Sprintf("%02d:00-%02d:00", h, h+1))
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT stage_label,
		       COALESCE(NULLIF(operator_name, ''), operator_id::text),
		       EXTRACT(HOUR FROM modified_date AT TIME ZONE $3)::int,
		       COUNT(*)
		FROM leads
		WHERE modified_date >= $1 AND modified_date < $2
		GROUP BY 1, 2, 3
	`, dayStart, dayEnd, zone)
	if err != nil {
		return nil, wrapDBError("lead summary", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage, operator string
		var hour, count int
		if err := rows.Scan(&stage, &operator, &hour, &count); err != nil {
			return nil, wrapDBError("lead summary", err)
		}
		summary.Stages[stage] += count

		if summary.Operators[operator] == nil {
			summary.Operators[operator] = map[string]int{}
		}
		summary.Operators[operator][stage] += count

		if summary.Hourly[stage] == nil {
			summary.Hourly[stage] = make([]int, lastHour-firstHour)
		}
		if hour >= firstHour && hour < lastHour {
			summary.Hourly[stage][hour-firstHour] += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("lead summary", err)
	}
	return summary, nil
}
