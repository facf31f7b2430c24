package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/config"
	"inquill/internal/db/sqlc"
	"inquill/internal/logging"
	"inquill/internal/policy"
	"inquill/internal/repository"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
)

const maxSubjectLen = 200

type NewsletterService struct {
	store *repository.Store
	site  *config.Manager
	logs  *LogsService
	md    goldmark.Markdown
}

func NewNewsletterService(store *repository.Store, site *config.Manager, logs *LogsService) *NewsletterService {
	return &NewsletterService{store: store, site: site, logs: logs, md: goldmark.New()}
}

// RenderMarkdown converts newsletter markdown to sanitised HTML.
func (s *NewsletterService) RenderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return ugcPolicy.Sanitize(src)
	}
	return string(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

func (s *NewsletterService) mapNewsletter(n sqlc.Newsletter) api.Newsletter {
	sent := ""
	if n.SentAt.Valid {
		sent = n.SentAt.Time.UTC().Format(time.RFC3339)
	}
	return api.Newsletter{
		ID:          n.ID,
		Subject:     n.Subject,
		Content:     n.Content,
		ContentHTML: s.RenderMarkdown(n.Content),
		Status:      n.Status,
		SentDate:    sent,
		Recipients:  n.Recipients,
		OpenRate:    n.OpenRate,
		ClickRate:   n.ClickRate,
		CreatedAt:   n.CreatedAt,
	}
}

func (s *NewsletterService) List(ctx context.Context) ([]api.Newsletter, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	rows, err := s.store.Q.ListNewsletters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list newsletters: %w", err)
	}
	out := make([]api.Newsletter, 0, len(rows))
	for _, n := range rows {
		out = append(out, s.mapNewsletter(n))
	}
	return out, nil
}

// Create stores a draft with no recipients and zero rates.
func (s *NewsletterService) Create(ctx context.Context, user auth.User, in api.NewsletterInput) (api.Newsletter, error) {
	if s.store == nil {
		return api.Newsletter{}, errNoStore
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return api.Newsletter{}, invalid("Subject is required")
	}
	if len([]rune(subject)) > maxSubjectLen {
		return api.Newsletter{}, invalid("Subject is too long")
	}
	if strings.TrimSpace(in.Content) == "" {
		return api.Newsletter{}, invalid("Content is required")
	}
	created, err := s.store.Q.CreateNewsletter(ctx, sqlc.CreateNewsletterParams{
		ID:        uuid.New(),
		Subject:   subject,
		Content:   in.Content,
		CreatedBy: uuid.NullUUID{UUID: user.ID, Valid: true},
	})
	if err != nil {
		return api.Newsletter{}, fmt.Errorf("create newsletter: %w", err)
	}
	return s.mapNewsletter(created), nil
}

// Send marks a draft as sent and stamps the configured delivery snapshot.
// A newsletter is sent at most once.
func (s *NewsletterService) Send(ctx context.Context, user auth.User, id uuid.UUID) (api.Newsletter, error) {
	if s.store == nil {
		return api.Newsletter{}, errNoStore
	}
	current, err := s.store.Q.GetNewsletterByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return api.Newsletter{}, notFound("Newsletter not found")
		}
		return api.Newsletter{}, err
	}
	if current.Status == string(policy.NewsletterSent) {
		logging.Audit(ctx, "newsletter.send", "failure", slog.String("newsletter_id", id.String()), slog.String("reason", "already_sent"))
		return api.Newsletter{}, invalid("Newsletter already sent")
	}

	snap := siteSettings(s.site).Newsletter
	sent, err := s.store.Q.MarkNewsletterSent(ctx, sqlc.MarkNewsletterSentParams{
		ID:         id,
		Recipients: int32(snap.Recipients),
		OpenRate:   config.FormatRate(snap.OpenRate),
		ClickRate:  config.FormatRate(snap.ClickRate),
	})
	if err != nil {
		if isNoRows(err) {
			// a concurrent send won
			return api.Newsletter{}, invalid("Newsletter already sent")
		}
		return api.Newsletter{}, fmt.Errorf("send newsletter: %w", err)
	}

	if s.logs != nil {
		if _, err := s.logs.CreateLog(ctx, nil, CreateLogParams{
			AdminUserID: user.ID,
			Action:      "send_newsletter",
			TargetType:  "newsletter",
			TargetID:    id.String(),
			Details:     map[string]any{"subject": sent.Subject, "recipients": sent.Recipients},
		}); err != nil {
			logging.Error(ctx, "moderation log write failed", err)
		}
	}
	logging.Audit(ctx, "newsletter.send", logging.OutcomeSuccess, slog.String("newsletter_id", id.String()))
	return s.mapNewsletter(sent), nil
}
