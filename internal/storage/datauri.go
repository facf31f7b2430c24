package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

// IsImageDataURI reports whether s looks like an inline base64 image.
func IsImageDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:image/")
}

// DecodeDataURI parses "data:<mime>;base64,<payload>".
func DecodeDataURI(s string) (contentType string, data []byte, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	parts := strings.Split(meta, ";")
	contentType = strings.ToLower(strings.TrimSpace(parts[0]))
	isBase64 := false
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 || contentType == "" {
		return "", nil, ErrInvalidDataURI
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, ErrInvalidDataURI
		}
	}
	return contentType, data, nil
}
