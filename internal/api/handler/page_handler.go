package handler

import (
	"errors"
	"net/http"
	"subhub/internal/api/middleware"
	"subhub/internal/api/view"
	"subhub/internal/app/service"
	"subhub/internal/common"
	"subhub/internal/common/security"

	"github.com/go-chi/chi/v5"
)

type PageHandler struct {
	records *service.RecordService
	auth    *middleware.Auth
	views   *view.Renderer
}

func NewPageHandler(records *service.RecordService, auth *middleware.Auth, views *view.Renderer) *PageHandler {
	return &PageHandler{records: records, auth: auth, views: views}
}

func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.static("login"))
	r.Get("/docs", h.static("docs"))
	r.Get("/clients", h.static("clients"))
	r.Get("/user", h.userPage)
	r.Get("/health", health)
	r.NotFound(notFound)
}

func (h *PageHandler) static(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.views.Render(w, page, nil)
	}
}

func (h *PageHandler) userPage(w http.ResponseWriter, r *http.Request) {
	v := h.auth.Check(r, security.Requirement{})
	if !v.Allowed() {
		if v.ClearCookie {
			http.SetCookie(w, security.ClearSessionCookie())
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	middleware.LogPrincipal(r.Context(), v.Principal)
	if v.Principal.IsAdmin() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	record, err := h.records.Get(r.Context(), v.Principal.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		respondWithError(w, r, err)
		return
	}
	h.views.Render(w, "user", view.UserPage{UUID: v.Principal.UserID, Record: *record})
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain;charset=utf-8")
	w.Write([]byte("OK"))
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}
