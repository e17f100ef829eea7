package media

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

const (
	MaxImageBytes int64 = 10 << 20
	MaxVideoBytes int64 = 50 << 20
)

var allowedTypes = map[string]Kind{
	"image/jpeg":      KindImage,
	"image/png":       KindImage,
	"image/gif":       KindImage,
	"image/webp":      KindImage,
	"video/mp4":       KindVideo,
	"video/quicktime": KindVideo,
	"video/webm":      KindVideo,
}

type UploadResult struct {
	URL       string `json:"url"`
	PublicID  string `json:"publicId"`
	MediaType Kind   `json:"mediaType"`
	Bytes     int64  `json:"bytes"`
}

// Classify checks a file's declared content type and size against the allow-list.
func Classify(contentType string, size int64) (Kind, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	kind, ok := allowedTypes[ct]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q", ct)
	}
	if size <= 0 {
		return "", fmt.Errorf("file is empty")
	}
	if limit := MaxBytes(kind); size > limit {
		return "", fmt.Errorf("%s exceeds the %dMB limit", kind, limit>>20)
	}
	return kind, nil
}

func MaxBytes(kind Kind) int64 {
	if kind == KindVideo {
		return MaxVideoBytes
	}
	return MaxImageBytes
}
