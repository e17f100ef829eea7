package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/internal/follow"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/services"
)

type FollowHandler struct {
	followService *services.FollowService
}

func NewFollowHandler(followService *services.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

func (h *FollowHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	var req follow.ToggleFollowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.followService.Toggle(ctx, actor.UserID, req.UserID)
	if err != nil {
		respondWithServiceError(w, err, "toggle follow")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// ListFollows lists ?type=followers|following of ?userId=, defaulting to the caller.
func (h *FollowHandler) ListFollows(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	if userID == "" {
		userID = actor.UserID
	}

	listType := follow.ListType(r.URL.Query().Get("type"))
	if listType == "" {
		listType = follow.Followers
	}
	if err := validation.Var("type", string(listType), "oneof=followers following"); err != nil {
		respondWithServiceError(w, err, "list follows")
		return
	}

	users, err := h.followService.List(ctx, userID, listType)
	if err != nil {
		respondWithServiceError(w, err, "list follows")
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}
