package handlers

import (
	"errors"
	"net/http"
	"strings"

	"inquill/internal/api"
)

// Request payloads implement render.Binder so render.Bind can reject
// structurally empty bodies before they reach a service.

type registerPayload struct{ api.RegisterRequest }

func (p *registerPayload) Bind(*http.Request) error {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	if p.Username == "" || p.Email == "" || p.Password == "" {
		return errors.New("username, email and password are required")
	}
	return nil
}

type loginPayload struct{ api.LoginRequest }

func (p *loginPayload) Bind(*http.Request) error {
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" || p.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type articlePayload struct{ api.ArticleInput }

func (p *articlePayload) Bind(*http.Request) error {
	p.Status = strings.TrimSpace(p.Status)
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		p.Category = &category
	}
	return nil
}

type bulkArticlesPayload struct{ api.BulkArticleRequest }

func (p *bulkArticlesPayload) Bind(*http.Request) error {
	if len(p.IDs) == 0 {
		return errors.New("ids required")
	}
	return nil
}

type bulkUsersPayload struct{ api.BulkUserRequest }

func (p *bulkUsersPayload) Bind(*http.Request) error {
	if len(p.IDs) == 0 {
		return errors.New("ids required")
	}
	return nil
}

type commentPayload struct{ api.CommentInput }

func (p *commentPayload) Bind(*http.Request) error {
	if strings.TrimSpace(p.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

type base64UploadPayload struct{ api.Base64UploadRequest }

func (p *base64UploadPayload) Bind(*http.Request) error {
	p.Image = strings.TrimSpace(p.Image)
	if p.Image == "" {
		return errors.New("image is required")
	}
	return nil
}

type newsletterPayload struct{ api.NewsletterInput }

func (p *newsletterPayload) Bind(*http.Request) error {
	p.Subject = strings.TrimSpace(p.Subject)
	return nil
}
