package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/services"
	"snapChallengeAPI/utils"
)

const reconcileTimeout = time.Minute

type AdminHandler struct {
	adminService     *services.AdminService
	reconcileService *services.ReconcileService
}

func NewAdminHandler(adminService *services.AdminService, reconcileService *services.ReconcileService) *AdminHandler {
	return &AdminHandler{
		adminService:     adminService,
		reconcileService: reconcileService,
	}
}

// ListCollections lists the browsable tables with their row counts.
func (h *AdminHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	collections, err := h.adminService.Collections(ctx)
	if err != nil {
		respondWithServiceError(w, err, "list collections")
		return
	}

	respondWithJSON(w, http.StatusOK, collections)
}

func (h *AdminHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, limit := utils.ParsePagination(r.URL.Query())

	result, err := h.adminService.Collection(ctx, mux.Vars(r)["name"], page, limit)
	if err != nil {
		respondWithServiceError(w, err, "get collection")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}

	var req user.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.adminService.SetUserRole(ctx, actor, id, &req); err != nil {
		respondWithServiceError(w, err, "set user role")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"id": id, "role": req.Role})
}

// Reconcile repairs denormalized counters from the fact tables.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reconcileTimeout)
	defer cancel()

	report, err := h.reconcileService.Reconcile(ctx)
	if err != nil {
		respondWithServiceError(w, err, "reconcile")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
