package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/xavierca1/leadboard/internal/infra/http/middleware"
	"github.com/xavierca1/leadboard/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ encoding response: %v", err)
	}
}

// writeUsecaseError mapeia erros de domínio para 400 e falhas de colaboradores
// para 502 (CRM), 503 (recurso não configurado) ou 500.
func writeUsecaseError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		middleware.WriteError(w, http.StatusBadRequest, de.Message)
		return
	}
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		log.Printf("❌ %s: %v", te.Code, err)
		switch te.Code {
		case "CRM_UNAVAILABLE":
			middleware.WriteError(w, http.StatusBadGateway, te.Message)
		case "STORE_DISABLED", "DIGEST_DISABLED":
			middleware.WriteError(w, http.StatusServiceUnavailable, te.Message)
		default:
			middleware.WriteError(w, http.StatusInternalServerError, te.Message)
		}
		return
	}
	log.Printf("❌ unexpected error: %v", err)
	middleware.WriteError(w, http.StatusInternalServerError, "internal error")
}

func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &usecase.DomainError{Code: "INVALID_PARAM", Message: key + " must be an integer"}
	}
	return n, nil
}
