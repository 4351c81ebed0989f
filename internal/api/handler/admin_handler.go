package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"subhub/internal/api/middleware"
	"subhub/internal/api/view"
	"subhub/internal/app/service"
	"subhub/internal/common"
	"subhub/internal/common/security"
	"subhub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	records *service.RecordService
	auth    *middleware.Auth
	views   *view.Renderer
}

func NewAdminHandler(records *service.RecordService, auth *middleware.Auth, views *view.Renderer) *AdminHandler {
	return &AdminHandler{records: records, auth: auth, views: views}
}

type listUsersResponse struct {
	Users []model.RecordEntry `json:"users"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.page)

	r.Group(func(api chi.Router) {
		api.Use(h.auth.RequireAPI(middleware.AdminOnly))
		api.Get("/users", h.listUsers)
		api.Post("/users", h.createUser)
		api.Put("/users/{uuid}", h.updateUser)
		api.Delete("/users/{uuid}", h.deleteUser)
	})
}

func (h *AdminHandler) page(w http.ResponseWriter, r *http.Request) {
	v := h.auth.Check(r, security.Requirement{AdminOnly: true})
	if !v.Allowed() {
		if v.ClearCookie {
			http.SetCookie(w, security.ClearSessionCookie())
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	middleware.LogPrincipal(r.Context(), v.Principal)
	h.views.Render(w, "admin", nil)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	entries, err := h.records.List(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.RecordEntry{}
	}
	common.RespondWithJSON(w, http.StatusOK, listUsersResponse{Users: entries})
}

func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.records.Create(r.Context(), req); err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var in service.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.records.Update(r.Context(), chi.URLParam(r, "uuid"), in); err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Delete(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// respondWithError logs unmapped errors before writing the public response.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if common.HTTPStatusFromError(err) == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	common.RespondWithDomainError(w, err)
}
