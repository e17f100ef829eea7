package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/internal/vote"
	"snapChallengeAPI/services"
)

type VoteHandler struct {
	voteService *services.VoteService
}

func NewVoteHandler(voteService *services.VoteService) *VoteHandler {
	return &VoteHandler{voteService: voteService}
}

// ToggleVote flips the caller's vote on a submission.
func (h *VoteHandler) ToggleVote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	var req vote.ToggleVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.voteService.ToggleVote(ctx, actor.UserID, req.SubmissionID)
	if err != nil {
		respondWithServiceError(w, err, "toggle vote")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *VoteHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	votes, err := h.voteService.ListVotes(ctx, actor.UserID)
	if err != nil {
		respondWithServiceError(w, err, "list votes")
		return
	}

	respondWithJSON(w, http.StatusOK, votes)
}
