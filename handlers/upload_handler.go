package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"snapChallengeAPI/internal/media"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/services"
)

const uploadTimeout = 2 * time.Minute

// MediaUploader is implemented by services.MediaService.
type MediaUploader interface {
	Upload(ctx context.Context, file io.Reader, contentType string, size int64) (*media.UploadResult, error)
	Destroy(ctx context.Context, publicID string, kind media.Kind) error
}

type UploadHandler struct {
	uploader MediaUploader
}

// NewUploadHandler accepts a nil uploader when media hosting is not configured.
func NewUploadHandler(uploader MediaUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload forwards the multipart field "file" to the media host.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		respondWithServiceError(w, services.ErrMediaUnavailable, "upload media")
		return
	}
	if _, ok := actorFrom(w, r.Context()); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxVideoBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithServiceError(w, validation.Errors{"file": "is required"}, "upload media")
		return
	}
	defer file.Close()

	result, err := h.uploader.Upload(ctx, file, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		respondWithServiceError(w, err, "upload media")
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

// DeleteMedia removes ?publicId= of ?mediaType= from the media host.
func (h *UploadHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		respondWithServiceError(w, services.ErrMediaUnavailable, "delete media")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	kind := media.Kind(q.Get("mediaType"))
	if kind == "" {
		kind = media.KindImage
	}
	if err := validation.Var("mediaType", string(kind), "oneof=image video"); err != nil {
		respondWithServiceError(w, err, "delete media")
		return
	}

	if err := h.uploader.Destroy(ctx, q.Get("publicId"), kind); err != nil {
		respondWithServiceError(w, err, "delete media")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
