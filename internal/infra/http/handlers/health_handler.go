package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Pinger é uma checagem barata de que o hook do CRM responde.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB        *sql.DB
	RabbitMQ  *amqp.Connection
	CRM       Pinger
	Location  *time.Location
	StartTime time.Time
	now       func() time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db *sql.DB, rabbitMQ *amqp.Connection, crm Pinger, loc *time.Location) *HealthHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &HealthHandler{
		DB:        db,
		RabbitMQ:  rabbitMQ,
		CRM:       crm,
		Location:  loc,
		StartTime: time.Now(),
		now:       time.Now,
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			deps["database"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			deps["database"] = "healthy"
		}
	} else {
		deps["database"] = "not configured"
	}

	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = "healthy"
		}
	} else {
		deps["rabbitmq"] = "not configured"
	}

	if h.CRM != nil {
		if err := h.CRM.Ping(ctx); err != nil {
			deps["bitrix"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			deps["bitrix"] = "healthy"
		}
	} else {
		deps["bitrix"] = "not configured"
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:       status,
		Version:      "1.0.0",
		Uptime:       h.now().Sub(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("pong"))
}

// Clock informa a hora do servidor no fuso dos relatórios, que é a base de
// toda janela de "hoje".
func (h *HealthHandler) Clock(w http.ResponseWriter, r *http.Request) {
	now := h.now().In(h.Location)
	writeJSON(w, http.StatusOK, map[string]string{
		"time":     now.Format(time.RFC3339),
		"timezone": h.Location.String(),
		"date":     now.Format(time.DateOnly),
	})
}
