package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/leadboard/internal/usecase"
)

// ReportHandler renderiza os relatórios HTML no servidor e o export CSV.
type ReportHandler struct {
	Reports *usecase.Reports
}

func NewReportHandler(reports *usecase.Reports) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Daily(r.Context(), queryDefault(r, "label", defaultStage), queryDefault(r, "range", usecase.RangeToday))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	title := fmt.Sprintf("📊 Стадия: %s за %s", report.Stage.Label, strings.ToUpper(report.Range))
	h.render(w, "daily", page{Title: title, Report: report})
}

func (h *ReportHandler) Compare(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Compare(r.Context(), queryDefault(r, "label", defaultStage))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	h.render(w, "compare", page{Title: "🔁 Сравнение по стадии: " + report.Stage.Label, Report: report})
}

func (h *ReportHandler) Trend(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Trend(r.Context(),
		queryDefault(r, "label", defaultStage),
		queryDefault(r, "range", usecase.RangeToday),
		queryDefault(r, "bucket", usecase.BucketHour),
	)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	h.render(w, "trend", page{Title: "📈 Активность — " + report.Stage.Label, Report: report})
}

func (h *ReportHandler) Stuck(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 3)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	report, err := h.Reports.Stuck(r.Context(), queryDefault(r, "label", defaultStage), days)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	title := fmt.Sprintf("⏳ Зависшие лиды — стадия: %s, старше %d дней", report.Stage.Label, report.Days)
	h.render(w, "stuck", page{Title: title, Report: report})
}

// Download envia em CSV os leads de um relatório diário.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	rangeName := queryDefault(r, "range", usecase.RangeToday)
	stage, rows, err := h.Reports.Export(r.Context(), queryDefault(r, "label", defaultStage), rangeName)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"ID", "Сотрудник", "Дата"})
	loc := h.Reports.Location()
	for _, row := range rows {
		date := ""
		if !row.ModifiedAt.IsZero() {
			date = row.ModifiedAt.In(loc).Format(time.DateTime)
		}
		cw.Write([]string{row.LeadID, row.Operator, date})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		writeUsecaseError(w, err)
		return
	}

	filename := fmt.Sprintf("report_%s_%s.csv", stage.Label, strings.ToLower(rangeName))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (h *ReportHandler) render(w http.ResponseWriter, name string, data page) {
	var buf bytes.Buffer
	if err := reportTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("❌ rendering %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
