package handler

import (
	"net/http"
	"subhub/internal/api/middleware"
	"subhub/internal/app/service"
	"subhub/internal/common"
	"subhub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type RefreshHandler struct {
	refresh *service.RefreshService
	auth    *middleware.Auth
}

func NewRefreshHandler(refresh *service.RefreshService, auth *middleware.Auth) *RefreshHandler {
	return &RefreshHandler{refresh: refresh, auth: auth}
}

type refreshResponse struct {
	Record *model.UserRecord `json:"record"`
}

func (h *RefreshHandler) RegisterRoutes(r chi.Router) {
	r.With(h.auth.RequireAPI(middleware.SubjectParam("uuid"))).Post("/{uuid}", h.refreshRecord)
}

func (h *RefreshHandler) refreshRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		common.RespondWithDomainError(w, common.ErrNotAuthenticated)
		return
	}
	record, err := h.refresh.Refresh(r.Context(), principal, chi.URLParam(r, "uuid"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, refreshResponse{Record: record})
}
