package handlers

import (
	"net/http"
	"time"

	"github.com/xavierca1/leadboard/internal/usecase"
)

// StoreHandler expõe o store de leads alimentado pelo webhook e o disparo do resumo.
type StoreHandler struct {
	Ingest   *usecase.IngestLeadUseCase
	Digest   *usecase.SendDigestUseCase
	Location *time.Location
}

func NewStoreHandler(ingest *usecase.IngestLeadUseCase, digest *usecase.SendDigestUseCase, loc *time.Location) *StoreHandler {
	return &StoreHandler{Ingest: ingest, Digest: digest, Location: loc}
}

func (h *StoreHandler) StoredToday(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Ingest.StoredToday(r.Context(), h.Location)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": summary})
}

func (h *StoreHandler) SendDigest(w http.ResponseWriter, r *http.Request) {
	if h.Digest == nil {
		writeUsecaseError(w, &usecase.TechnicalError{Code: "DIGEST_DISABLED", Message: "digest mail is not configured"})
		return
	}
	if err := h.Digest.Execute(r.Context()); err != nil {
		writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
