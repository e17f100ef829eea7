package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"snapChallengeAPI/internal/media"
	"snapChallengeAPI/internal/metrics"
)

var ErrMediaUnavailable = errors.New("media uploads are not configured")

// MediaService forwards files to Cloudinary. Only the returned URL is stored
// by the rest of the system.
type MediaService struct {
	cld *cloudinary.Cloudinary
}

func NewMediaService(cloudName, apiKey, apiSecret string) (*MediaService, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrMediaUnavailable
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &MediaService{cld: cld}, nil
}

// Upload checks the file against the allow-list, then stores it under
// snapchallenge/images or snapchallenge/videos.
func (s *MediaService) Upload(ctx context.Context, file io.Reader, contentType string, size int64) (*media.UploadResult, error) {
	kind, err := media.Classify(contentType, size)
	if err != nil {
		return nil, invalid(err.Error())
	}

	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       "snapchallenge/" + string(kind) + "s",
		ResourceType: string(kind),
	})
	if err == nil && res.Error.Message != "" {
		err = errors.New(res.Error.Message)
	}
	if err != nil {
		metrics.MediaUploads.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("failed to upload to cloudinary: %w", err)
	}

	metrics.MediaUploads.WithLabelValues(string(kind), "ok").Inc()
	return &media.UploadResult{
		URL:       res.SecureURL,
		PublicID:  res.PublicID,
		MediaType: kind,
		Bytes:     int64(res.Bytes),
	}, nil
}

func (s *MediaService) Destroy(ctx context.Context, publicID string, kind media.Kind) error {
	if publicID == "" {
		return invalid("publicId is required")
	}
	if kind != media.KindImage && kind != media.KindVideo {
		return invalid("mediaType must be image or video")
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: string(kind),
	})
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if res.Result == "not found" {
		return notFound("media")
	}
	return nil
}
