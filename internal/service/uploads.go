package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"inquill/internal/api"
	"inquill/internal/config"
	"inquill/internal/storage"
)

type UploadKind string

const (
	UploadContent UploadKind = "content"
	UploadCover   UploadKind = "cover"
)

type UploadsService struct {
	images storage.ImageStore
	site   *config.Manager
}

func NewUploadsService(images storage.ImageStore, site *config.Manager) *UploadsService {
	return &UploadsService{images: images, site: site}
}

func siteSettings(m *config.Manager) config.Site {
	if m == nil {
		return *config.DefaultSite()
	}
	return m.Get()
}

// Configured reports whether images can be hosted.
func (s *UploadsService) Configured() bool {
	return s != nil && s.images != nil
}

// MaxBytes is the configured upload size limit.
func (s *UploadsService) MaxBytes() int64 {
	if s == nil {
		return config.DefaultSite().Uploads.MaxBytes
	}
	return siteSettings(s.site).Uploads.MaxBytes
}

// Upload validates and stores an image. Covers are downscaled to the
// configured box first.
func (s *UploadsService) Upload(ctx context.Context, data []byte, kind UploadKind) (api.UploadResponse, error) {
	if !s.Configured() {
		return api.UploadResponse{}, unavailable("image storage not configured")
	}
	limits := siteSettings(s.site).Uploads
	if len(data) == 0 {
		return api.UploadResponse{}, invalid("No file uploaded")
	}
	if int64(len(data)) > limits.MaxBytes {
		return api.UploadResponse{}, invalid(fmt.Sprintf("File too large (max %d MB)", limits.MaxBytes>>20))
	}
	contentType, err := storage.DetectImageType(data)
	if err != nil {
		return api.UploadResponse{}, invalid("Only image files are allowed")
	}

	folder := "content"
	if kind == UploadCover {
		folder = "covers"
		data, contentType, err = storage.FitImage(data, contentType, limits.CoverMaxWidth, limits.CoverMaxHeight)
		if err != nil {
			return api.UploadResponse{}, fmt.Errorf("resize cover: %w", err)
		}
	}

	url, err := s.images.Put(ctx, storage.NewKey(folder, contentType), contentType, data)
	if err != nil {
		slog.ErrorContext(ctx, "image upload failed", "kind", kind, "error", err)
		return api.UploadResponse{}, NewError(http.StatusBadGateway, "upload_failed", "Image upload failed")
	}
	return api.UploadResponse{URL: url}, nil
}

// UploadDataURI decodes an inline "data:image/...;base64," payload and
// uploads it.
func (s *UploadsService) UploadDataURI(ctx context.Context, uri string, kind UploadKind) (api.UploadResponse, error) {
	_, data, err := storage.DecodeDataURI(uri)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidDataURI) {
			return api.UploadResponse{}, invalid("Invalid image data")
		}
		return api.UploadResponse{}, err
	}
	return s.Upload(ctx, data, kind)
}
