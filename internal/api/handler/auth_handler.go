package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"subhub/internal/api/middleware"
	"subhub/internal/app/service"
	"subhub/internal/common"
	"subhub/internal/common/security"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	limiter     *middleware.LoginLimiter
}

func NewAuthHandler(authService *service.AuthService, limiter *middleware.LoginLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(h.limiter.Middleware).Post("/login", h.login)
	r.Get("/logout", h.logout)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "missing credential")
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if common.HTTPStatusFromError(err) == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "login failed", slog.Any("error", err))
		}
		common.RespondWithDomainError(w, err)
		return
	}
	http.SetCookie(w, security.SessionCookie(resp.Token, resp.Lifetime))
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.ClearSessionCookie())
	http.Redirect(w, r, "/", http.StatusFound)
}
