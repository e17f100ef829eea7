package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/internal/challenge"
	"snapChallengeAPI/services"
	"snapChallengeAPI/utils"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	page, limit := utils.ParsePagination(q)

	result, err := h.challengeService.List(ctx, challenge.ListFilter{
		Status:   challenge.Status(q.Get("status")),
		Category: q.Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondWithServiceError(w, err, "list challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, ok := pathID(w, r, "id", "challenge")
	if !ok {
		return
	}

	c, err := h.challengeService.Get(ctx, id)
	if err != nil {
		respondWithServiceError(w, err, "get challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	var req challenge.CreateChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.challengeService.Create(ctx, actor, &req)
	if err != nil {
		respondWithServiceError(w, err, "create challenge")
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *ChallengeHandler) UpdateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "challenge")
	if !ok {
		return
	}

	var req challenge.UpdateChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.challengeService.Update(ctx, actor, id, &req)
	if err != nil {
		respondWithServiceError(w, err, "update challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *ChallengeHandler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "challenge")
	if !ok {
		return
	}

	if err := h.challengeService.Delete(ctx, actor, id); err != nil {
		respondWithServiceError(w, err, "delete challenge")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeclareWinner closes a finished challenge and credits the winner.
func (h *ChallengeHandler) DeclareWinner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "challenge")
	if !ok {
		return
	}

	var req challenge.DeclareWinnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.challengeService.DeclareWinner(ctx, actor, id, &req)
	if err != nil {
		respondWithServiceError(w, err, "declare winner")
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}
