package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed static/dashboard.html
var dashboardPage []byte

func Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(dashboardPage)
}
