package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/services"
	"snapChallengeAPI/utils"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// leaderboardScope returns nil for the global board.
func leaderboardScope(w http.ResponseWriter, r *http.Request) (*string, bool) {
	challengeID, ok := queryID(w, r, "challengeId")
	if !ok || challengeID == "" {
		return nil, ok
	}
	return &challengeID, true
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	challengeID, ok := leaderboardScope(w, r)
	if !ok {
		return
	}
	page, limit := utils.ParsePagination(r.URL.Query())

	board, err := h.leaderboardService.List(ctx, challengeID, page, limit)
	if err != nil {
		respondWithServiceError(w, err, "get leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetMyPosition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	challengeID, ok := leaderboardScope(w, r)
	if !ok {
		return
	}

	position, err := h.leaderboardService.Position(ctx, actor.UserID, challengeID)
	if err != nil {
		respondWithServiceError(w, err, "get leaderboard position")
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}
