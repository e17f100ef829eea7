package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/internal/favorite"
	"snapChallengeAPI/services"
)

type FavoriteHandler struct {
	favoriteService *services.FavoriteService
}

func NewFavoriteHandler(favoriteService *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// ToggleFavorite accepts exactly one of submissionId or challengeId.
func (h *FavoriteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	var target favorite.Target
	if !decodeJSON(w, r, &target) {
		return
	}

	result, err := h.favoriteService.ToggleFavorite(ctx, actor.UserID, target)
	if err != nil {
		respondWithServiceError(w, err, "toggle favorite")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	favorites, err := h.favoriteService.ListFavorites(ctx, actor.UserID)
	if err != nil {
		respondWithServiceError(w, err, "list favorites")
		return
	}

	respondWithJSON(w, http.StatusOK, favorites)
}

// CountFavorites returns a fresh count for ?submissionId= or ?challengeId=.
func (h *FavoriteHandler) CountFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	target := favorite.Target{
		SubmissionID: q.Get("submissionId"),
		ChallengeID:  q.Get("challengeId"),
	}

	count, err := h.favoriteService.Count(ctx, target)
	if err != nil {
		respondWithServiceError(w, err, "count favorites")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}
