package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"inquill/internal/service"
)

// multipartOverhead allows for boundaries and headers around the file.
const multipartOverhead = 1 << 20

func uploadKind(raw string) service.UploadKind {
	if strings.EqualFold(strings.TrimSpace(raw), string(service.UploadCover)) {
		return service.UploadCover
	}
	return service.UploadContent
}

// UploadImage accepts a multipart form with an "image" file field.
func (h API) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !h.Uploads.Configured() {
		writeServiceError(w, r, service.NewError(http.StatusServiceUnavailable, "service_unavailable", "image storage not configured"))
		return
	}
	limit := h.Uploads.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeBadRequest(w, "File too large")
			return
		}
		writeBadRequest(w, "No file uploaded")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("image")
	if err != nil {
		writeBadRequest(w, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeBadRequest(w, "Could not read upload")
		return
	}
	res, err := h.Uploads.Upload(r.Context(), data, uploadKind(r.FormValue("kind")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UploadBase64 accepts {"image": "data:image/...;base64,..."}.
func (h API) UploadBase64(w http.ResponseWriter, r *http.Request) {
	// base64 inflates by 4/3
	r.Body = http.MaxBytesReader(w, r.Body, h.Uploads.MaxBytes()/3*4+multipartOverhead)
	var p base64UploadPayload
	if !bind(w, r, &p) {
		return
	}
	res, err := h.Uploads.UploadDataURI(r.Context(), p.Image, uploadKind(p.Kind))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
