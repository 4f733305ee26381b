package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xavierca1/leadboard/internal/entity"
)

// Authenticator valida um bearer token ou um par usuário/senha.
type Authenticator interface {
	VerifyToken(token string) (*entity.User, error)
	VerifyPassword(username, password string) (*entity.User, bool)
}

type ctxKey struct{}

// RequireAuth deixa passar requisições com bearer token válido ou credenciais
// Basic válidas e guarda o usuário no contexto. Tentativas Basic com falha
// contam em failures por IP do cliente; esgotado o limite, requisições Basic
// recebem 429 até a janela reiniciar. failures pode ser nil.
func RequireAuth(a Authenticator, failures *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, _, basic := r.BasicAuth(); basic && failures != nil && failures.Exhausted(basicKey(r)) {
				WriteError(w, http.StatusTooManyRequests, "Too many failed login attempts. Please try again later.")
				return
			}
			user := authenticate(a, r)
			if user == nil {
				if _, _, basic := r.BasicAuth(); basic && failures != nil {
					failures.Allow(basicKey(r))
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="leadboard"`)
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
		})
	}
}

func authenticate(a Authenticator, r *http.Request) *entity.User {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		user, err := a.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			return nil
		}
		return user
	}
	// EventSource não envia headers, então o stream passa o token na query.
	if token := r.URL.Query().Get("token"); token != "" {
		user, err := a.VerifyToken(token)
		if err != nil {
			return nil
		}
		return user
	}
	if username, password, ok := r.BasicAuth(); ok {
		if user, ok := a.VerifyPassword(username, password); ok {
			return user
		}
	}
	return nil
}

func basicKey(r *http.Request) string {
	return "basic:" + ClientIP(r)
}

func UserFromContext(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*entity.User)
	return user, ok
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Status: "error", Message: message})
}
