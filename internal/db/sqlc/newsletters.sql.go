// source: newsletters.sql

package sqlc

import (
	"context"

	"github.com/google/uuid"
)

const newsletterColumns = `id, subject, content, status, sent_at, recipients, open_rate, click_rate, created_by, created_at`

func scanNewsletter(row rowScanner, i *Newsletter) error {
	return row.Scan(
		&i.ID,
		&i.Subject,
		&i.Content,
		&i.Status,
		&i.SentAt,
		&i.Recipients,
		&i.OpenRate,
		&i.ClickRate,
		&i.CreatedBy,
		&i.CreatedAt,
	)
}

const createNewsletter = `-- name: CreateNewsletter :one
INSERT INTO newsletters (id, subject, content, created_by)
VALUES ($1, $2, $3, $4)
RETURNING ` + newsletterColumns

type CreateNewsletterParams struct {
	ID        uuid.UUID
	Subject   string
	Content   string
	CreatedBy uuid.NullUUID
}

func (q *Queries) CreateNewsletter(ctx context.Context, arg CreateNewsletterParams) (Newsletter, error) {
	row := q.db.QueryRowContext(ctx, createNewsletter,
		arg.ID,
		arg.Subject,
		arg.Content,
		arg.CreatedBy,
	)
	var i Newsletter
	err := scanNewsletter(row, &i)
	return i, err
}

const getNewsletterByID = `-- name: GetNewsletterByID :one
SELECT ` + newsletterColumns + `
FROM newsletters
WHERE id = $1`

func (q *Queries) GetNewsletterByID(ctx context.Context, id uuid.UUID) (Newsletter, error) {
	row := q.db.QueryRowContext(ctx, getNewsletterByID, id)
	var i Newsletter
	err := scanNewsletter(row, &i)
	return i, err
}

const listNewsletters = `-- name: ListNewsletters :many
SELECT ` + newsletterColumns + `
FROM newsletters
ORDER BY created_at DESC`

func (q *Queries) ListNewsletters(ctx context.Context) ([]Newsletter, error) {
	rows, err := q.db.QueryContext(ctx, listNewsletters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Newsletter
	for rows.Next() {
		var i Newsletter
		if err := scanNewsletter(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markNewsletterSent = `-- name: MarkNewsletterSent :one
UPDATE newsletters
SET status = 'Sent', sent_at = now(), recipients = $2, open_rate = $3, click_rate = $4
WHERE id = $1 AND status = 'Draft'
RETURNING ` + newsletterColumns

type MarkNewsletterSentParams struct {
	ID         uuid.UUID
	Recipients int32
	OpenRate   string
	ClickRate  string
}

// MarkNewsletterSent returns sql.ErrNoRows when the newsletter is missing or
// was already sent.
func (q *Queries) MarkNewsletterSent(ctx context.Context, arg MarkNewsletterSentParams) (Newsletter, error) {
	row := q.db.QueryRowContext(ctx, markNewsletterSent,
		arg.ID,
		arg.Recipients,
		arg.OpenRate,
		arg.ClickRate,
	)
	var i Newsletter
	err := scanNewsletter(row, &i)
	return i, err
}
