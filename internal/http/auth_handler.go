package http

import (
	"encoding/json"
	"net/http"
	"time"

	"stocksync/internal/auth"
	"stocksync/internal/httpx"
)

type AuthHandler struct {
	secret        string
	adminUsername string
	adminHash     string
	tokenTTL      time.Duration
}

func NewAuthHandler(secret, adminUsername, adminHash string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AuthHandler{
		secret:        secret,
		adminUsername: adminUsername,
		adminHash:     adminHash,
		tokenTTL:      tokenTTL,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges the admin credential for a bearer token used by the
// stock-mutating endpoints.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if details := toErrorDetails(ValidateStruct(req)); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "validation_failed", "Invalid request", details)
		return
	}

	if req.Username != h.adminUsername || !auth.VerifyPassword(h.adminHash, req.Password) {
		httpx.JSONErrorWithRequest(r, w, http.StatusUnauthorized, "unauthorized", "Invalid credentials", nil)
		return
	}

	token, err := auth.GenerateToken(h.secret, req.Username, "ADMIN", h.tokenTTL)
	if err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "internal_error", "could not issue token", nil)
		return
	}

	httpx.JSONSuccessWithRequest(r, w, map[string]string{"token": token}, nil)
}
