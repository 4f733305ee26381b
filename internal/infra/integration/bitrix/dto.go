package bitrix

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

const (
	MethodUsers      = "user.get"
	MethodLeads      = "crm.lead.list"
	MethodLead       = "crm.lead.get"
	MethodServerTime = "server.time"
)

// filterTimeLayout é o formato de DATE_MODIFY aceito pelo portal nos filtros.
// Os valores saem no fuso de quem chama, que deve ser o mesmo do portal.
const filterTimeLayout = "2006-01-02 15:04:05"

// Page é um envelope de resposta do hook REST.
type Page struct {
	Result           json.RawMessage `json:"result"`
	Next             int             `json:"next,omitempty"`
	Total            int             `json:"total,omitempty"`
	Error            string          `json:"error,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
}

// flexString aceita "12", 12 e null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type userDTO struct {
	ID       flexString `json:"ID"`
	Name     string     `json:"NAME"`
	LastName string     `json:"LAST_NAME"`
	Login    string     `json:"LOGIN"`
	Email    string     `json:"EMAIL"`
}

type leadDTO struct {
	ID           flexString `json:"ID"`
	StatusID     flexString `json:"STATUS_ID"`
	AssignedByID flexString `json:"ASSIGNED_BY_ID"`
	DateModify   string     `json:"DATE_MODIFY"`
	DateCreate   string     `json:"DATE_CREATE"`
}

var leadSelect = []string{"ID", "STATUS_ID", "ASSIGNED_BY_ID", "DATE_MODIFY", "DATE_CREATE"}

// ParseTime lê os timestamps do portal: ISO-8601 com offset, ou a forma
// simples "YYYY-MM-DD HH:MM:SS" em loc. Entrada inválida gera o tempo zero.
func ParseTime(raw string, loc *time.Location) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(filterTimeLayout, raw, loc); err == nil {
		return t
	}
	return time.Time{}
}

func parseUserID(raw flexString) (int, bool) {
	id, err := strconv.Atoi(string(raw))
	return id, err == nil
}
