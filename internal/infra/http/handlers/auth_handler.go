package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/xavierca1/leadboard/internal/infra/auth"
	"github.com/xavierca1/leadboard/internal/infra/http/middleware"
)

type AuthHandler struct {
	Auth *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{Auth: svc}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Status    string    `json:"status"`
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login aceita corpo JSON ou form e retorna um bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid form")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	if req.Username == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	session, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			middleware.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		writeUsecaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Status:    "success",
		User:      userView{Username: session.User.Username, Role: session.User.Role},
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Me devolve a conta autenticada.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"user":   userView{Username: user.Username, Role: user.Role},
	})
}
