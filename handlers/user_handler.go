package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/services"
)

type UserHandler struct {
	userService  *services.UserService
	badgeService *services.BadgeService
}

func NewUserHandler(userService *services.UserService, badgeService *services.BadgeService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		badgeService: badgeService,
	}
}

// GetProfile returns the caller with stats and earned badges.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	u, err := h.userService.GetByID(ctx, actor.UserID)
	if err != nil {
		respondWithServiceError(w, err, "get profile")
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.userService.UpdateProfile(ctx, actor.UserID, &req)
	if err != nil {
		respondWithServiceError(w, err, "update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.userService.PublicProfile(ctx, actor.UserID, id)
	if err != nil {
		respondWithServiceError(w, err, "get user")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	users, err := h.userService.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, err, "search users")
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

// GetBadges returns the full catalogue marked with what the caller has earned.
func (h *UserHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	badges, err := h.badgeService.Catalogue(ctx, actor.UserID)
	if err != nil {
		respondWithServiceError(w, err, "get badges")
		return
	}

	respondWithJSON(w, http.StatusOK, badges)
}
