package storage

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

// DetectImageType sniffs the payload and returns its MIME type, rejecting
// anything that is not an image. TIFF is refused outright.
func DetectImageType(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if !strings.HasPrefix(ct, "image/") || strings.Contains(ct, "tiff") {
		if looksLikeSVG(data) {
			return "image/svg+xml", nil
		}
		return "", ErrNotImage
	}
	return ct, nil
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// FitImage shrinks raster images to fit within maxW x maxH, preserving
// aspect ratio. Images already inside the box, and formats imaging cannot
// re-encode, are returned unchanged.
func FitImage(data []byte, contentType string, maxW, maxH int) ([]byte, string, error) {
	var format imaging.Format
	switch contentType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	default:
		return data, contentType, nil
	}
	if maxW <= 0 || maxH <= 0 {
		return data, contentType, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, contentType, nil
	}
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return data, contentType, nil
	}

	resized := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), contentType, nil
}
