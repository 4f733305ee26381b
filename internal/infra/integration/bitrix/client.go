package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
)

// ErrMalformed marca uma resposta 2xx cujo corpo não é um envelope JSON.
var ErrMalformed = errors.New("malformed response")

// APIError é uma chamada com falha: uma chave "error" no envelope ou um status
// HTTP sem envelope legível.
type APIError struct {
	Method      string
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("bitrix %s: %s (%s)", e.Method, e.Code, e.Description)
	}
	return fmt.Sprintf("bitrix %s: %s", e.Method, e.Code)
}

// Retryable informa se o portal pede para tentar de novo mais tarde.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case "QUERY_LIMIT_EXCEEDED", "OPERATION_TIME_LIMIT", "INTERNAL_SERVER_ERROR":
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries int
	retryBase  time.Duration
	loc        *time.Location
	sleep      func(ctx context.Context, d time.Duration) error
	observe    func(method, outcome string)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithRetries define quantas vezes uma página com falha é repetida. A n-ésima
// tentativa espera base * 2^(n-1).
func WithRetries(max int, base time.Duration) Option {
	return func(c *Client) {
		if max < 0 {
			max = 0
		}
		c.maxRetries = max
		c.retryBase = base
	}
}

func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithObserver recebe um par (método, resultado) por chamada lógica.
func WithObserver(fn func(method, outcome string)) Option {
	return func(c *Client) {
		if fn != nil {
			c.observe = fn
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 20 * time.Second},
		maxRetries: 3,
		retryBase:  500 * time.Millisecond,
		loc:        time.UTC,
		sleep:      sleepCtx,
		observe:    func(string, string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call faz uma chamada de método, repetindo falhas recuperáveis com backoff
// exponencial.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (*Page, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBase << (attempt - 1)
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		page, err := c.do(ctx, method, params)
		if err == nil {
			c.observe(method, "ok")
			return page, nil
		}
		lastErr = err
		if !isRetryable(ctx, err) {
			break
		}
		log.Printf("⚠️ Bitrix: %s attempt=%d failed: %v", method, attempt+1, err)
	}
	c.observe(method, "error")
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method string, params map[string]any) (*Page, error) {
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("bitrix %s: encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method+".json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Code: fmt.Sprintf("HTTP_%d", resp.StatusCode), Description: truncate(string(body), 200)}
		}
		return nil, fmt.Errorf("bitrix %s: %w: %v", method, ErrMalformed, err)
	}
	if page.Error != "" {
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Code: page.Error, Description: page.ErrorDescription}
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Code: fmt.Sprintf("HTTP_%d", resp.StatusCode)}
	}
	return &page, nil
}

// ListAll segue o cursor "next" e retorna a concatenação de todas as
// páginas em ordem. Páginas sobrepostas não são deduplicadas. Quando uma página
// falha, os itens coletados até ali voltam junto com o erro.
func (c *Client) ListAll(ctx context.Context, method string, params map[string]any) ([]json.RawMessage, error) {
	var out []json.RawMessage
	start := 0
	for {
		body := make(map[string]any, len(params)+1)
		for k, v := range params {
			body[k] = v
		}
		body["start"] = start

		page, err := c.Call(ctx, method, body)
		if err != nil {
			return out, fmt.Errorf("bitrix %s start=%d: %w", method, start, err)
		}

		var items []json.RawMessage
		if len(page.Result) > 0 && !bytes.Equal(page.Result, []byte("null")) {
			if err := json.Unmarshal(page.Result, &items); err != nil {
				return out, fmt.Errorf("bitrix %s start=%d: result is not a list: %w", method, start, err)
			}
		}
		if len(items) == 0 {
			return out, nil
		}
		out = append(out, items...)

		if page.Next <= 0 {
			return out, nil
		}
		if page.Next <= start {
			log.Printf("⚠️ Bitrix: %s cursor did not advance (start=%d next=%d), stopping", method, start, page.Next)
			return out, nil
		}
		start = page.Next
	}
}

// Users lista todos os usuários do portal.
func (c *Client) Users(ctx context.Context) ([]entity.Operator, error) {
	raw, err := c.ListAll(ctx, MethodUsers, nil)
	users := make([]entity.Operator, 0, len(raw))
	for _, item := range raw {
		var u userDTO
		if jerr := json.Unmarshal(item, &u); jerr != nil {
			continue
		}
		id, ok := parseUserID(u.ID)
		if !ok {
			continue
		}
		users = append(users, entity.Operator{ID: id, Name: displayName(u)})
	}
	return users, err
}

// Leads lista os leads de uma etapa modificados dentro da janela da consulta.
func (c *Client) Leads(ctx context.Context, q entity.LeadQuery) ([]entity.Lead, error) {
	filter := map[string]any{}
	if q.StatusID != "" {
		filter["STATUS_ID"] = q.StatusID
	}
	if !q.From.IsZero() {
		filter[">=DATE_MODIFY"] = q.From.In(c.loc).Format(filterTimeLayout)
	}
	if !q.To.IsZero() {
		filter["<=DATE_MODIFY"] = q.To.In(c.loc).Format(filterTimeLayout)
	}

	raw, err := c.ListAll(ctx, MethodLeads, map[string]any{
		"filter": filter,
		"select": leadSelect,
	})
	leads := make([]entity.Lead, 0, len(raw))
	for _, item := range raw {
		var l leadDTO
		if jerr := json.Unmarshal(item, &l); jerr != nil {
			continue
		}
		leads = append(leads, c.toLead(l))
	}
	return leads, err
}

// Lead busca um único lead pelo id.
func (c *Client) Lead(ctx context.Context, id int64) (entity.Lead, error) {
	page, err := c.Call(ctx, MethodLead, map[string]any{"id": id})
	if err != nil {
		return entity.Lead{}, err
	}
	var l leadDTO
	if err := json.Unmarshal(page.Result, &l); err != nil {
		return entity.Lead{}, fmt.Errorf("bitrix %s id=%d: %w: %v", MethodLead, id, ErrMalformed, err)
	}
	return c.toLead(l), nil
}

func (c *Client) toLead(l leadDTO) entity.Lead {
	return entity.Lead{
		ID:           string(l.ID),
		StatusID:     string(l.StatusID),
		AssignedByID: string(l.AssignedByID),
		ModifiedAt:   ParseTime(l.DateModify, c.loc),
		CreatedAt:    ParseTime(l.DateCreate, c.loc),
	}
}

// Ping verifica se o hook responde. Não repete.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, MethodServerTime, nil)
	return err
}

func displayName(u userDTO) string {
	name := strings.TrimSpace(strings.TrimSpace(u.Name) + " " + strings.TrimSpace(u.LastName))
	switch {
	case name != "":
		return name
	case u.Login != "":
		return u.Login
	case u.Email != "":
		return u.Email
	}
	return string(u.ID)
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, ErrMalformed)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
