// Package storage hosts uploaded images and prepares them for upload.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("image storage not configured")
	ErrNotImage      = errors.New("only image uploads are allowed")
	ErrTooLarge      = errors.New("image exceeds size limit")
)

// ImageStore persists an object and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// NewKey returns a date-partitioned object key such as
// "inquill/covers/2026/10/15/<uuid>.jpg".
func NewKey(folder, contentType string) string {
	d := time.Now().UTC()
	ext := extensions[strings.ToLower(contentType)]
	return path.Join("inquill", folder, fmt.Sprintf("%04d/%02d/%02d", d.Year(), d.Month(), d.Day()), uuid.NewString()+ext)
}
