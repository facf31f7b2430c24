// source: users.sql

package sqlc

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, username, email, password_hash, role, status, avatar_url, created_at, last_login_at`

func scanUser(row interface{ Scan(...interface{}) error }, i *User) error {
	return row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.PasswordHash,
		&i.Role,
		&i.Status,
		&i.AvatarUrl,
		&i.CreatedAt,
		&i.LastLoginAt,
	)
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (id, username, email, password_hash, role, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

type CreateUserParams struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Status       string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.ID,
		arg.Username,
		arg.Email,
		arg.PasswordHash,
		arg.Role,
		arg.Status,
	)
	var i User
	err := scanUser(row, &i)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + `
FROM users
WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := scanUser(row, &i)
	return i, err
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + `
FROM users
WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := scanUser(row, &i)
	return i, err
}

const getUsersByIDs = `-- name: GetUsersByIDs :many
SELECT ` + userColumns + `
FROM users
WHERE id = ANY($1::uuid[])`

func (q *Queries) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, getUsersByIDs, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := scanUser(rows, &i); err != nil {
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

const touchUserLastLogin = `-- name: TouchUserLastLogin :exec
UPDATE users SET last_login_at = now() WHERE id = $1`

func (q *Queries) TouchUserLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, touchUserLastLogin, id)
	return err
}

const listUsersWithArticleCount = `-- name: ListUsersWithArticleCount :many
SELECT u.id, u.username, u.email, u.role, u.status, u.avatar_url, u.created_at, u.last_login_at,
       COUNT(a.id)::bigint AS article_count
FROM users u
LEFT JOIN articles a ON a.author_id = u.id
GROUP BY u.id
ORDER BY u.created_at DESC`

type ListUsersWithArticleCountRow struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Role         string
	Status       string
	AvatarUrl    sql.NullString
	CreatedAt    time.Time
	LastLoginAt  sql.NullTime
	ArticleCount int64
}

func (q *Queries) ListUsersWithArticleCount(ctx context.Context) ([]ListUsersWithArticleCountRow, error) {
	rows, err := q.db.QueryContext(ctx, listUsersWithArticleCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListUsersWithArticleCountRow
	for rows.Next() {
		var i ListUsersWithArticleCountRow
		if err := rows.Scan(
			&i.ID,
			&i.Username,
			&i.Email,
			&i.Role,
			&i.Status,
			&i.AvatarUrl,
			&i.CreatedAt,
			&i.LastLoginAt,
			&i.ArticleCount,
		); err != nil {
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

const updateUserRole = `-- name: UpdateUserRole :one
UPDATE users SET role = $2
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserRoleParams struct {
	ID   uuid.UUID
	Role string
}

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserRole, arg.ID, arg.Role)
	var i User
	err := scanUser(row, &i)
	return i, err
}

const updateUserStatus = `-- name: UpdateUserStatus :one
UPDATE users SET status = $2
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserStatus, arg.ID, arg.Status)
	var i User
	err := scanUser(row, &i)
	return i, err
}

const deleteUser = `-- name: DeleteUser :execrows
DELETE FROM users WHERE id = $1`

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
