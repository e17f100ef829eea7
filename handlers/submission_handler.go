package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/internal/submission"
	"snapChallengeAPI/services"
	"snapChallengeAPI/utils"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	var req submission.CreateSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.submissionService.Create(ctx, actor, &req)
	if err != nil {
		respondWithServiceError(w, err, "create submission")
		return
	}

	respondWithJSON(w, http.StatusCreated, s)
}

// ListSubmissions supports ?challengeId=&userId=&sort=recent|top&page=&limit=.
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	challengeID, ok := queryID(w, r, "challengeId")
	if !ok {
		return
	}
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}

	q := r.URL.Query()
	page, limit := utils.ParsePagination(q)

	result, err := h.submissionService.List(ctx, actor.UserID, submission.ListFilter{
		ChallengeID: challengeID,
		UserID:      userID,
		Sort:        submission.Sort(q.Get("sort")),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		respondWithServiceError(w, err, "list submissions")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "submission")
	if !ok {
		return
	}

	s, err := h.submissionService.Get(ctx, actor.UserID, id)
	if err != nil {
		respondWithServiceError(w, err, "get submission")
		return
	}

	respondWithJSON(w, http.StatusOK, s)
}

func (h *SubmissionHandler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "submission")
	if !ok {
		return
	}

	if err := h.submissionService.Delete(ctx, actor, id); err != nil {
		respondWithServiceError(w, err, "delete submission")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
