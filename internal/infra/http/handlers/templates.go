package handlers

import (
	"html/template"
	"strings"
)

const pageHead = `<!DOCTYPE html>
<html lang="ru"><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{border:1px solid #999;padding:6px 10px}.partial{color:#b00}</style>
</head><body>
<h2>{{.Title}}</h2>`

const pageFoot = `</body></html>`

var reportTemplates = template.Must(template.New("reports").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"arrow": trendArrow,
}).Parse(`
{{define "daily"}}` + pageHead + `
<table>
<tr><th>Сотрудник</th><th>Количество</th></tr>
{{range .Report.Operators}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}{{if .Report.Unassigned}}<tr><td>Без ответственного</td><td>{{.Report.Unassigned}}</td></tr>
{{end}}</table>
<p>Всего лидов: {{.Report.Total}}</p>
<p><a href="/download?label={{.Report.Stage.Label}}&range={{.Report.Range}}">Скачать CSV</a></p>
` + pageFoot + `{{end}}

{{define "compare"}}` + pageHead + `
<table>
<tr><th>Сотрудник</th><th>Вчера</th><th>Сегодня</th><th>Разница</th><th></th></tr>
{{range .Report.Rows}}<tr><td>{{.Name}}</td><td>{{.Yesterday}}</td><td>{{.Today}}</td><td>{{.Diff}}</td><td>{{arrow .Trend}}</td></tr>
{{end}}</table>
` + pageFoot + `{{end}}

{{define "trend"}}` + pageHead + `
<table>
<tr><th>{{if eq .Report.Bucket "day"}}День{{else}}Час{{end}}</th><th>Лидов</th></tr>
{{range .Report.Buckets}}<tr><td>{{.Key}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
<p>Всего лидов: {{.Report.Total}}</p>
` + pageFoot + `{{end}}

{{define "stuck"}}` + pageHead + `
<table>
<tr><th>Сотрудник</th><th>Количество</th></tr>
{{range .Report.Operators}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
<p>Всего лидов: {{.Report.Total}}</p>
` + pageFoot + `{{end}}
`))

type page struct {
	Title  string
	Report any
}

func trendArrow(trend string) string {
	switch trend {
	case "up":
		return "📈"
	case "down":
		return "📉"
	}
	return "➖"
}
