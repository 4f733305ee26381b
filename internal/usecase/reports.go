package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/infra/cache"
)

type ReportsConfig struct {
	Stages    entity.StageSet
	Location  *time.Location
	BoardTTL  time.Duration
	ReportTTL time.Duration
	// BoardObserver e QueryObserver recebem hits e misses do cache.
	BoardObserver cache.Observer
	QueryObserver cache.Observer
}

// Reports serve todas as visões agregadas. O quadro de etapas é um snapshot
// compartilhado; consultas avulsas guardam as listas de leads por etapa e janela.
type Reports struct {
	crm    CRMClient
	dir    *Directory
	stages entity.StageSet
	loc    *time.Location
	now    func() time.Time

	board   *cache.Snapshot[*entity.StageBoard]
	queries *cache.Keyed[[]entity.Lead]
}

func NewReports(crm CRMClient, dir *Directory, cfg ReportsConfig) *Reports {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	r := &Reports{
		crm:     crm,
		dir:     dir,
		stages:  cfg.Stages,
		loc:     loc,
		now:     time.Now,
		queries: cache.NewKeyed[[]entity.Lead](cfg.ReportTTL, cfg.QueryObserver),
	}
	r.board = cache.NewSnapshot(cfg.BoardTTL, r.loadBoard, cfg.BoardObserver)
	return r
}

func (r *Reports) Stages() []entity.Stage {
	return r.stages.All()
}

func (r *Reports) Location() *time.Location {
	return r.loc
}

// Board retorna o ranking de operadores de hoje por etapa.
func (r *Reports) Board(ctx context.Context) (*entity.StageBoard, error) {
	board, _, err := r.board.Get(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "CRM_UNAVAILABLE", Message: "stage board unavailable", Err: err}
	}
	return board, nil
}

// RefreshBoard força a reconstrução. Em caso de falha o quadro anterior continua
// publicado e o erro é retornado.
func (r *Reports) RefreshBoard(ctx context.Context) (*entity.StageBoard, error) {
	board, _, err := r.board.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return board, nil
}

// Invalidate vence todas as visões em cache; a próxima leitura busca de novo.
func (r *Reports) Invalidate() {
	r.board.Invalidate()
	r.queries.InvalidateAll()
}

func (r *Reports) loadBoard(ctx context.Context) (*entity.StageBoard, error) {
	now := r.now().In(r.loc)
	from := dayStart(now)
	names := r.dir.Names(ctx)

	board := &entity.StageBoard{ID: uuid.NewString(), GeneratedAt: now, From: from, To: now}
	var errs []error
	for _, st := range r.stages.All() {
		leads, err := r.crm.Leads(ctx, entity.LeadQuery{StatusID: st.StatusID, From: from, To: now})
		if err != nil {
			errs = append(errs, err)
			board.Partial = true
		}
		board.Stages = append(board.Stages, BuildStageReport(st, leads, names))
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		if _, _, ok := r.board.Peek(); ok {
			return nil, err
		}
		// Nada publicado ainda: um quadro parcial é melhor que uma página de erro.
		log.Printf("⚠️ reports: publishing partial board: %v", err)
	}
	return board, nil
}

// StageTotals retorna a contagem de leads de hoje por etapa.
func (r *Reports) StageTotals(ctx context.Context) ([]entity.StageTotal, time.Time, error) {
	board, err := r.Board(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	out := make([]entity.StageTotal, 0, len(board.Stages))
	for _, s := range board.Stages {
		out = append(out, entity.StageTotal{Label: s.Label, StatusID: s.StatusID, Count: s.Total})
	}
	return out, board.GeneratedAt, nil
}

type DailyReport struct {
	Stage      entity.Stage           `json:"stage"`
	Range      string                 `json:"range"`
	From       time.Time              `json:"from"`
	To         time.Time              `json:"to"`
	Total      int                    `json:"total"`
	Unassigned int                    `json:"unassigned"`
	Operators  []entity.OperatorCount `json:"operators"`
}

func (r *Reports) Daily(ctx context.Context, label, rangeName string) (*DailyReport, error) {
	stage := r.stages.Resolve(label)
	rangeName = normalizeRange(rangeName)
	from, to, err := ResolveRange(rangeName, r.now(), r.loc)
	if err != nil {
		return nil, err
	}
	leads, err := r.fetch(ctx, stage, rangeName, from, to)
	if err != nil {
		return nil, err
	}
	tally := CountByOperator(leads, r.dir.Names(ctx))
	return &DailyReport{
		Stage:      stage,
		Range:      rangeName,
		From:       from,
		To:         to,
		Total:      tally.Total,
		Unassigned: tally.Unassigned,
		Operators:  tally.Operators,
	}, nil
}

type CompareReport struct {
	Stage entity.Stage           `json:"stage"`
	Rows  []entity.ComparisonRow `json:"rows"`
}

// Compare alinha as contagens por operador de hoje e de ontem numa etapa.
func (r *Reports) Compare(ctx context.Context, label string) (*CompareReport, error) {
	stage := r.stages.Resolve(label)
	now := r.now()

	tFrom, tTo, _ := ResolveRange(RangeToday, now, r.loc)
	yFrom, yTo, _ := ResolveRange(RangeYesterday, now, r.loc)

	todayLeads, err := r.fetch(ctx, stage, RangeToday, tFrom, tTo)
	if err != nil {
		return nil, err
	}
	yesterdayLeads, err := r.fetch(ctx, stage, RangeYesterday, yFrom, yTo)
	if err != nil {
		return nil, err
	}

	names := r.dir.Names(ctx)
	rows := CompareOperators(CountByOperator(todayLeads, names), CountByOperator(yesterdayLeads, names), names)
	return &CompareReport{Stage: stage, Rows: rows}, nil
}

const (
	BucketHour = "hour"
	BucketDay  = "day"
)

type TrendReport struct {
	Stage   entity.Stage    `json:"stage"`
	Range   string          `json:"range"`
	Bucket  string          `json:"bucket"`
	Total   int             `json:"total"`
	Buckets []entity.Bucket `json:"buckets"`
}

// Trend agrupa a atividade de uma etapa por hora ou por dia.
func (r *Reports) Trend(ctx context.Context, label, rangeName, bucket string) (*TrendReport, error) {
	stage := r.stages.Resolve(label)
	rangeName = normalizeRange(rangeName)
	bucket = strings.ToLower(strings.TrimSpace(bucket))
	if bucket == "" {
		bucket = BucketHour
	}
	if bucket != BucketHour && bucket != BucketDay {
		return nil, &DomainError{Code: "INVALID_BUCKET", Message: fmt.Sprintf("unknown bucket %q (use hour or day)", bucket)}
	}

	from, to, err := ResolveRange(rangeName, r.now(), r.loc)
	if err != nil {
		return nil, err
	}
	leads, err := r.fetch(ctx, stage, rangeName, from, to)
	if err != nil {
		return nil, err
	}

	var buckets []entity.Bucket
	if bucket == BucketHour {
		buckets = CountByHour(leads, r.loc)
	} else {
		buckets = CountByDay(leads, r.loc, from, to)
	}
	return &TrendReport{Stage: stage, Range: rangeName, Bucket: bucket, Total: len(leads), Buckets: buckets}, nil
}

type StuckReport struct {
	Stage     entity.Stage           `json:"stage"`
	Days      int                    `json:"days"`
	Before    time.Time              `json:"before"`
	Total     int                    `json:"total"`
	Operators []entity.OperatorCount `json:"operators"`
}

// Stuck conta leads parados numa etapa sem modificação há pelo menos
// days dias.
func (r *Reports) Stuck(ctx context.Context, label string, days int) (*StuckReport, error) {
	if days < 1 || days > 365 {
		return nil, &DomainError{Code: "INVALID_DAYS", Message: "days must be between 1 and 365"}
	}
	stage := r.stages.Resolve(label)
	before := r.now().In(r.loc).AddDate(0, 0, -days)
	leads, err := r.fetch(ctx, stage, fmt.Sprintf("stuck-%d", days), stuckEpoch.In(r.loc), before)
	if err != nil {
		return nil, err
	}
	tally := CountByOperator(leads, r.dir.Names(ctx))
	return &StuckReport{Stage: stage, Days: days, Before: before, Total: tally.Total, Operators: tally.Operators}, nil
}

type StageComparison struct {
	Stage1 string `json:"stage1"`
	Count1 int    `json:"count1"`
	Stage2 string `json:"stage2"`
	Count2 int    `json:"count2"`
	Diff   int    `json:"diff"`
	Range  string `json:"range"`
}

func (r *Reports) CompareStages(ctx context.Context, a, b, rangeName string) (*StageComparison, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return nil, &DomainError{Code: "INVALID_STAGE", Message: "stage1 and stage2 are required"}
	}
	first, err := r.Daily(ctx, a, rangeName)
	if err != nil {
		return nil, err
	}
	second, err := r.Daily(ctx, b, rangeName)
	if err != nil {
		return nil, err
	}
	return &StageComparison{
		Stage1: first.Stage.Label,
		Count1: first.Total,
		Stage2: second.Stage.Label,
		Count2: second.Total,
		Diff:   first.Total - second.Total,
		Range:  first.Range,
	}, nil
}

type ExportRow struct {
	LeadID     string
	Operator   string
	ModifiedAt time.Time
}

// Export lista os leads de um relatório diário, do mais recente ao mais antigo.
func (r *Reports) Export(ctx context.Context, label, rangeName string) (entity.Stage, []ExportRow, error) {
	stage := r.stages.Resolve(label)
	rangeName = normalizeRange(rangeName)
	from, to, err := ResolveRange(rangeName, r.now(), r.loc)
	if err != nil {
		return stage, nil, err
	}
	leads, err := r.fetch(ctx, stage, rangeName, from, to)
	if err != nil {
		return stage, nil, err
	}

	names := r.dir.Names(ctx)
	rows := make([]ExportRow, 0, len(leads))
	for _, lead := range leads {
		operator := "—"
		if id, ok := lead.OperatorID(); ok {
			operator = names.Name(id)
		}
		rows = append(rows, ExportRow{LeadID: lead.ID, Operator: operator, ModifiedAt: lead.ModifiedAt})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ModifiedAt.After(rows[j].ModifiedAt) })
	return stage, rows, nil
}

func (r *Reports) fetch(ctx context.Context, stage entity.Stage, window string, from, to time.Time) ([]entity.Lead, error) {
	key := stage.StatusID + "|" + window + "|" + from.Format(time.DateOnly)
	leads, _, err := r.queries.Get(ctx, key, func(ctx context.Context) ([]entity.Lead, error) {
		return r.crm.Leads(ctx, entity.LeadQuery{StatusID: stage.StatusID, From: from, To: to})
	})
	if err != nil {
		return nil, &TechnicalError{Code: "CRM_UNAVAILABLE", Message: "could not load leads from the CRM", Err: err}
	}
	return leads, nil
}
