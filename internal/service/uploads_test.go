package service_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"inquill/internal/config"
	"inquill/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploads_NotConfigured(t *testing.T) {
	var nilSvc *service.UploadsService
	assert.False(t, nilSvc.Configured())

	svc := service.NewUploadsService(nil, nil)
	_, err := svc.UploadDataURI(context.Background(), pngDataURI(t, 4, 4), service.UploadContent)
	requireStatus(t, err, http.StatusServiceUnavailable)
}

func TestUploads_Validation(t *testing.T) {
	site := config.DefaultSite()
	site.Uploads.MaxBytes = 1 << 20
	svc := service.NewUploadsService(&fakeImages{}, config.NewStaticManager(site))
	ctx := context.Background()

	_, err := svc.Upload(ctx, nil, service.UploadContent)
	requireStatus(t, err, http.StatusBadRequest)

	se := requireStatus(t, func() error {
		_, err := svc.Upload(ctx, []byte("%PDF-1.7 not an image"), service.UploadContent)
		return err
	}(), http.StatusBadRequest)
	assert.Equal(t, "Only image files are allowed", se.Message)

	_, err = svc.Upload(ctx, []byte(strings.Repeat("a", (1<<20)+1)), service.UploadContent)
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.UploadDataURI(ctx, "data:text/plain;base64,aGk=", service.UploadContent)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUploads_StoresUnderKindFolder(t *testing.T) {
	images := &fakeImages{}
	svc := service.NewUploadsService(images, config.NewStaticManager(nil))
	ctx := context.Background()

	res, err := svc.UploadDataURI(ctx, pngDataURI(t, 8, 8), service.UploadContent)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.URL, "https://cdn.inquill.test/inquill/content/"), res.URL)
	assert.True(t, strings.HasSuffix(res.URL, ".png"), res.URL)

	res, err = svc.UploadDataURI(ctx, pngDataURI(t, 3200, 900), service.UploadCover)
	require.NoError(t, err)
	assert.Contains(t, res.URL, "/inquill/covers/")
	assert.Len(t, images.keys, 2)
}

func TestUploads_StorageFailure(t *testing.T) {
	svc := service.NewUploadsService(&fakeImages{failOn: "content"}, nil)
	_, err := svc.UploadDataURI(context.Background(), pngDataURI(t, 2, 2), service.UploadContent)
	se := requireStatus(t, err, http.StatusBadGateway)
	assert.Equal(t, "upload_failed", se.Code)
}
