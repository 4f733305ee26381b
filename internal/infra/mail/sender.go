package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadboard/internal/usecase"
)

type gomailSendCloser = gomail.SendCloser

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"fmtTime": func(t time.Time) string { return t.Format("02.01.2006 15:04") },
}).Parse(`<html><body>
<h2>Лиды по стадиям на {{fmtTime .GeneratedAt}}</h2>
{{if .Partial}}<p style="color:#b00">CRM ответила не на все запросы, данные неполные.</p>{{end}}
{{range .Stages}}
<h3>{{.Label}}: {{.Total}}</h3>
<table border="1" cellpadding="6">
<tr><th>Сотрудник</th><th>Количество</th></tr>
{{range .Operators}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}{{if .Unassigned}}<tr><td><i>без ответственного</i></td><td>{{.Unassigned}}</td></tr>{{end}}
</table>
{{end}}
</body></html>`))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	s := &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
	s.dial = func() (gomailSendCloser, error) {
		return gomail.NewDialer(s.Host, s.Port, s.User, s.Password).Dial()
	}
	return s
}

// RenderDigest renderiza o corpo do resumo.
func RenderDigest(d usecase.DigestData) (string, error) {
	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, d); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return body.String(), nil
}

func (s *EmailSender) SendDigest(to []string, d usecase.DigestData) error {
	body, err := RenderDigest(d)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", fmt.Sprintf("Лиды по стадиям — %s", d.GeneratedAt.Format("02.01.2006 15:04")))
	m.SetBody("text/html", body)

	sc, err := s.dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
