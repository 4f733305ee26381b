package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/usecase"
)

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func postForm(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// TestWebhookJSONIngestsInline - Teste que sem fila o evento é processado na hora
func TestWebhookJSONIngestsInline(t *testing.T) {
	ingest := new(MockIngester)
	ingest.On("Execute", mock.Anything, mock.MatchedBy(func(ev entity.LeadEvent) bool {
		return ev.LeadID == 42 && ev.StatusID == "UC_A2DF81" && ev.AssignedByID == "7" &&
			ev.ModifiedAt.Equal(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC))
	})).Return(nil)

	h := NewWebhookHandler(nil, ingest, "", time.UTC)
	rec := postJSON(h.Handle, `{"event":"ONCRMLEADUPDATE","data":{"ID":42,"STAGE_ID":"UC_A2DF81","ASSIGNED_BY_ID":"7","DATE_MODIFY":"2024-03-06T12:00:00+00:00"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decodeBody(t, rec)["status"])
	ingest.AssertExpectations(t)
}

// TestWebhookFormEncoding - Teste do formato nativo data[FIELDS][ID]
func TestWebhookFormEncoding(t *testing.T) {
	ingest := new(MockIngester)
	ingest.On("Execute", mock.Anything, mock.MatchedBy(func(ev entity.LeadEvent) bool {
		return ev.LeadID == 99 && ev.Event == "ONCRMLEADADD" && ev.StatusID == ""
	})).Return(nil)

	h := NewWebhookHandler(nil, ingest, "secret", time.UTC)
	rec := postForm(h.Handle, url.Values{
		"event":                   {"ONCRMLEADADD"},
		"data[FIELDS][ID]":        {"99"},
		"auth[application_token]": {"secret"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	ingest.AssertExpectations(t)
}

// TestWebhookRejectsBadToken - Teste que token inválido retorna 401
func TestWebhookRejectsBadToken(t *testing.T) {
	ingest := new(MockIngester)
	h := NewWebhookHandler(nil, ingest, "secret", time.UTC)

	rec := postJSON(h.Handle, `{"data":{"ID":"1","STATUS_ID":"5"},"auth":{"application_token":"nope"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["message"])

	rec = postJSON(h.Handle, `{"data":{"ID":"1","STATUS_ID":"5"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	ingest.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

// TestWebhookBadPayloads - Teste de corpo inválido e id ausente
func TestWebhookBadPayloads(t *testing.T) {
	h := NewWebhookHandler(nil, new(MockIngester), "", time.UTC)

	assert.Equal(t, http.StatusBadRequest, postJSON(h.Handle, `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(h.Handle, `{"data":{"STATUS_ID":"5"}}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(h.Handle, `{"data":{"ID":"abc"}}`).Code)
}

// TestWebhookIgnoresDelete - Teste que exclusões são ignoradas
func TestWebhookIgnoresDelete(t *testing.T) {
	ingest := new(MockIngester)
	h := NewWebhookHandler(nil, ingest, "", time.UTC)

	rec := postJSON(h.Handle, `{"event":"ONCRMLEADDELETE","data":{"FIELDS":{"ID":"5"}}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decodeBody(t, rec)["status"])
	ingest.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

// TestWebhookQueuesWhenProducerConfigured - Teste que com fila o evento é publicado
func TestWebhookQueuesWhenProducerConfigured(t *testing.T) {
	producer := new(MockLeadProducer)
	producer.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(ev entity.LeadEvent) bool {
		return ev.LeadID == 5 && ev.StatusID == "5"
	})).Return(nil)
	ingest := new(MockIngester)

	h := NewWebhookHandler(producer, ingest, "", time.UTC)
	rec := postJSON(h.Handle, `{"event":"ONCRMLEADUPDATE","data":{"FIELDS":{"ID":"5","STATUS_ID":"5"}}}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	producer.AssertExpectations(t)
	ingest.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

// TestWebhookQueueFailure - Teste que falha na fila retorna 500
func TestWebhookQueueFailure(t *testing.T) {
	producer := new(MockLeadProducer)
	producer.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	h := NewWebhookHandler(producer, new(MockIngester), "", time.UTC)
	rec := postJSON(h.Handle, `{"data":{"ID":"5","STATUS_ID":"5"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestWebhookIngestErrors - Teste do mapeamento de erros do caso de uso
func TestWebhookIngestErrors(t *testing.T) {
	ingest := new(MockIngester)
	ingest.On("Execute", mock.Anything, mock.Anything).Return(&usecase.TechnicalError{Code: "STORE_ERROR", Message: "could not store lead"}).Once()
	ingest.On("Execute", mock.Anything, mock.Anything).Return(&usecase.DomainError{Code: "INVALID_LEAD", Message: "status id is required"})

	h := NewWebhookHandler(nil, ingest, "", time.UTC)
	assert.Equal(t, http.StatusInternalServerError, postJSON(h.Handle, `{"data":{"ID":"5","STATUS_ID":"5"}}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(h.Handle, `{"data":{"ID":"5"}}`).Code)
}
