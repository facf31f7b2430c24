package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"inquill/internal/auth"
	"inquill/internal/storage"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()

	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
)

const maxSlugBase = 80

// Slugify transliterates title to ASCII and appends a short random suffix
// so that equal titles still get distinct slugs.
func Slugify(title string) (string, error) {
	base := strings.ToLower(unidecode.Unidecode(title))
	base = strings.Trim(slugInvalid.ReplaceAllString(base, "-"), "-")
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	if base == "" {
		base = "article"
	}
	suffix, err := auth.RandomBytes(3)
	if err != nil {
		return "", err
	}
	return base + "-" + hex.EncodeToString(suffix), nil
}

// PlainText strips every tag and decodes entities.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// keys whose values are never prose and are neither sanitised nor counted.
var rawKeys = map[string]bool{
	"url":            true,
	"code":           true,
	"level":          true,
	"style":          true,
	"alignment":      true,
	"withBorder":     true,
	"withBackground": true,
	"stretched":      true,
}

// contentProcessor normalises an Editor.js document on save.
type contentProcessor struct {
	uploads *UploadsService
}

type processedContent struct {
	Content   json.RawMessage
	WordCount int32
}

func decodeContent(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, invalid("Content must be a structured object")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, invalid("Content must be a structured object")
	}
	return doc, nil
}

// process sanitises block text, counts words and moves inline images to
// hosted storage. A failed block upload leaves that block unchanged.
func (p contentProcessor) process(ctx context.Context, raw json.RawMessage) (processedContent, error) {
	doc, err := decodeContent(raw)
	if err != nil {
		return processedContent{}, err
	}

	var words int
	blocks, _ := doc["blocks"].([]any)
	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok {
			continue
		}
		data, ok := block["data"].(map[string]any)
		if !ok {
			continue
		}
		if block["type"] == "image" {
			p.hostImage(ctx, data)
		}
		words += sanitizeValue(data)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return processedContent{}, err
	}
	return processedContent{Content: out, WordCount: int32(words)}, nil
}

func (p contentProcessor) hostImage(ctx context.Context, data map[string]any) {
	target := data
	if file, ok := data["file"].(map[string]any); ok {
		target = file
	}
	url, _ := target["url"].(string)
	if !storage.IsImageDataURI(url) {
		return
	}
	if !p.uploads.Configured() {
		slog.WarnContext(ctx, "inline image left in place: storage not configured")
		return
	}
	res, err := p.uploads.UploadDataURI(ctx, url, UploadContent)
	if err != nil {
		slog.WarnContext(ctx, "inline image upload failed", "error", err)
		return
	}
	target["url"] = res.URL
}

// sanitizeValue cleans every prose string under v in place and returns the
// number of words found.
func sanitizeValue(v any) int {
	words := 0
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if rawKeys[k] {
				continue
			}
			if s, ok := child.(string); ok {
				t[k] = ugcPolicy.Sanitize(s)
				words += len(strings.Fields(PlainText(s)))
				continue
			}
			words += sanitizeValue(child)
		}
	case []any:
		for i, child := range t {
			if s, ok := child.(string); ok {
				t[i] = ugcPolicy.Sanitize(s)
				words += len(strings.Fields(PlainText(s)))
				continue
			}
			words += sanitizeValue(child)
		}
	}
	return words
}
