package handlers

import (
	"context"
	"net/http"

	"snapChallengeAPI/internal/comment"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/services"
	"snapChallengeAPI/utils"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	submissionID := r.URL.Query().Get("submissionId")
	if err := validation.Var("submissionId", submissionID, "required,uuid"); err != nil {
		respondWithServiceError(w, err, "list comments")
		return
	}
	page, limit := utils.ParsePagination(r.URL.Query())

	comments, err := h.commentService.List(ctx, submissionID, page, limit)
	if err != nil {
		respondWithServiceError(w, err, "list comments")
		return
	}

	respondWithJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}

	var req comment.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.commentService.Create(ctx, actor, &req)
	if err != nil {
		respondWithServiceError(w, err, "create comment")
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor, ok := actorFrom(w, ctx)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "comment")
	if !ok {
		return
	}

	if err := h.commentService.Delete(ctx, actor, id); err != nil {
		respondWithServiceError(w, err, "delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
