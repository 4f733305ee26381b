package handlers

import (
	"net/http"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/usecase"
)

const defaultStage = "НДЗ"

// StatsHandler serve as visões JSON dos relatórios.
type StatsHandler struct {
	Reports *usecase.Reports
}

func NewStatsHandler(reports *usecase.Reports) *StatsHandler {
	return &StatsHandler{Reports: reports}
}

type boardResponse struct {
	Status      string               `json:"status"`
	ID          string               `json:"id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Partial     bool                 `json:"partial"`
	Stages      []entity.StageReport `json:"stages"`
}

// ByStage retorna o ranking de operadores de hoje em cada etapa acompanhada.
func (h *StatsHandler) ByStage(w http.ResponseWriter, r *http.Request) {
	board, err := h.Reports.Board(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse{
		Status:      "success",
		ID:          board.ID,
		GeneratedAt: board.GeneratedAt,
		Partial:     board.Partial,
		Stages:      board.Stages,
	})
}

type stageTotalsResponse struct {
	Status      string              `json:"status"`
	GeneratedAt time.Time           `json:"generated_at"`
	Total       int                 `json:"total"`
	Stages      []entity.StageTotal `json:"stages"`
}

func (h *StatsHandler) StagesToday(w http.ResponseWriter, r *http.Request) {
	totals, at, err := h.Reports.StageTotals(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	sum := 0
	for _, t := range totals {
		sum += t.Count
	}
	writeJSON(w, http.StatusOK, stageTotalsResponse{Status: "success", GeneratedAt: at, Total: sum, Stages: totals})
}

// chartResponse tem o formato de um gráfico no navegador: rótulos e valores paralelos.
type chartResponse struct {
	Stage      string   `json:"stage"`
	Range      string   `json:"range"`
	Labels     []string `json:"labels"`
	Values     []int    `json:"values"`
	Total      int      `json:"total"`
	Unassigned int      `json:"unassigned"`
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Daily(r.Context(), queryDefault(r, "label", defaultStage), queryDefault(r, "range", usecase.RangeToday))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	resp := chartResponse{
		Stage:      report.Stage.Label,
		Range:      report.Range,
		Labels:     make([]string, 0, len(report.Operators)),
		Values:     make([]int, 0, len(report.Operators)),
		Total:      report.Total,
		Unassigned: report.Unassigned,
	}
	for _, op := range report.Operators {
		resp.Labels = append(resp.Labels, op.Name)
		resp.Values = append(resp.Values, op.Count)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Trend(r.Context(),
		queryDefault(r, "label", defaultStage),
		queryDefault(r, "range", usecase.RangeToday),
		queryDefault(r, "bucket", usecase.BucketHour),
	)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *StatsHandler) CompareStages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.Reports.CompareStages(r.Context(), q.Get("stage1"), q.Get("stage2"), queryDefault(r, "range", usecase.RangeToday))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
