package handlers

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/infra/http/middleware"
	"github.com/xavierca1/leadboard/internal/infra/integration/bitrix"
	"github.com/xavierca1/leadboard/internal/infra/queue"
)

type LeadIngester interface {
	Execute(ctx context.Context, ev entity.LeadEvent) error
}

// WebhookHandler recebe os eventos de lead do CRM. Com um producer o evento
// vai para a fila do worker; sem ele é ingerido na hora.
type WebhookHandler struct {
	Producer queue.LeadEventProducer
	Ingest   LeadIngester
	Token    string
	Location *time.Location
}

func NewWebhookHandler(producer queue.LeadEventProducer, ingest LeadIngester, token string, loc *time.Location) *WebhookHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &WebhookHandler{Producer: producer, Ingest: ingest, Token: token, Location: loc}
}

// webhookPayload é a visão achatada de qualquer uma das codificações do corpo.
type webhookPayload struct {
	Event  string
	Token  string
	Fields map[string]string
}

var (
	errBadJSON = errors.New("invalid JSON body")
	errBadForm = errors.New("invalid form body")
)

var ignoredEvents = map[string]bool{
	"ONCRMLEADDELETE": true,
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := parseWebhook(r)
	if err != nil {
		middleware.RecordLeadEvent("rejected")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.Token != "" && subtle.ConstantTimeCompare([]byte(payload.Token), []byte(h.Token)) != 1 {
		middleware.RecordLeadEvent("unauthorized")
		middleware.WriteError(w, http.StatusUnauthorized, "invalid_token")
		return
	}

	if ignoredEvents[strings.ToUpper(payload.Event)] {
		middleware.RecordLeadEvent("ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ev, err := h.toEvent(payload)
	if err != nil {
		middleware.RecordLeadEvent("rejected")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.Producer != nil {
		if err := h.Producer.PublishLeadEvent(r.Context(), ev); err != nil {
			log.Printf("❌ queueing lead %d: %v", ev.LeadID, err)
			middleware.RecordIntegrationError("rabbitmq")
			middleware.WriteError(w, http.StatusInternalServerError, "could not queue event")
			return
		}
		middleware.RecordLeadEvent("queued")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	if err := h.Ingest.Execute(r.Context(), ev); err != nil {
		middleware.RecordLeadEvent("failed")
		writeUsecaseError(w, err)
		return
	}
	middleware.RecordLeadEvent("stored")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *WebhookHandler) toEvent(p *webhookPayload) (entity.LeadEvent, error) {
	rawID := p.Fields["ID"]
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return entity.LeadEvent{}, fmt.Errorf("invalid lead id %q", rawID)
	}
	status := p.Fields["STATUS_ID"]
	if status == "" {
		status = p.Fields["STAGE_ID"]
	}
	return entity.LeadEvent{
		Event:        p.Event,
		LeadID:       id,
		StatusID:     status,
		AssignedByID: p.Fields["ASSIGNED_BY_ID"],
		ModifiedAt:   bitrix.ParseTime(p.Fields["DATE_MODIFY"], h.Location),
		CreatedAt:    bitrix.ParseTime(p.Fields["DATE_CREATE"], h.Location),
	}, nil
}

func parseWebhook(r *http.Request) (*webhookPayload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return parseJSONWebhook(r)
	}
	return parseFormWebhook(r)
}

// parseJSONWebhook aceita {"event","data":{...},"auth":{...}} onde data são
// os campos do lead ou {"FIELDS":{...}}.
func parseJSONWebhook(r *http.Request) (*webhookPayload, error) {
	var body struct {
		Event string                     `json:"event"`
		Data  map[string]json.RawMessage `json:"data"`
		Auth  struct {
			ApplicationToken string `json:"application_token"`
		} `json:"auth"`
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		return nil, errBadJSON
	}

	data := body.Data
	if nested, ok := data["FIELDS"]; ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(nested, &fields); err != nil {
			return nil, errBadJSON
		}
		data = fields
	}

	fields := make(map[string]string, len(data))
	for k, v := range data {
		fields[strings.ToUpper(k)] = scalar(v)
	}
	return &webhookPayload{Event: body.Event, Token: body.Auth.ApplicationToken, Fields: fields}, nil
}

// parseFormWebhook lê a codificação nativa do CRM:
// event=ONCRMLEADUPDATE&data[FIELDS][ID]=42&auth[application_token]=...
func parseFormWebhook(r *http.Request) (*webhookPayload, error) {
	if err := r.ParseForm(); err != nil {
		return nil, errBadForm
	}
	fields := map[string]string{}
	for key, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		name, ok := strings.CutPrefix(key, "data[FIELDS][")
		if !ok {
			name, ok = strings.CutPrefix(key, "data[")
		}
		if !ok || !strings.HasSuffix(name, "]") {
			continue
		}
		fields[strings.ToUpper(strings.TrimSuffix(name, "]"))] = values[0]
	}
	return &webhookPayload{
		Event:  r.PostForm.Get("event"),
		Token:  r.PostForm.Get("auth[application_token]"),
		Fields: fields,
	}, nil
}

// scalar converte string, número ou bool JSON em texto; o resto vira "".
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	case '{', '[', 'n':
		return ""
	}
	return string(raw)
}
