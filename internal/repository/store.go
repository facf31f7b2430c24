package repository

import (
	"context"
	"database/sql"
	"errors"

	"inquill/internal/db/sqlc"
)

// Store bundles the query layer with its transaction boundary. Postgres and
// the in-memory development store share this type.
type Store struct {
	DB *sql.DB
	Q  sqlc.Querier

	txFn func(ctx context.Context, fn func(q sqlc.Querier) error) error
}

func NewStore(db *sql.DB) *Store {
	s := &Store{DB: db}
	queries := sqlc.New(db)
	s.Q = queries
	s.txFn = func(ctx context.Context, fn func(q sqlc.Querier) error) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(queries.WithTx(tx)); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	}
	return s
}

// WithTx runs fn atomically: either every write in fn is applied or none is.
func (s *Store) WithTx(ctx context.Context, fn func(q sqlc.Querier) error) error {
	if s == nil || s.txFn == nil {
		return errors.New("store not configured")
	}
	return s.txFn(ctx, fn)
}

// Ping checks connectivity. The in-memory store is always reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.PingContext(ctx)
}

// IsMemory reports whether the store keeps data in process memory.
func (s *Store) IsMemory() bool {
	_, ok := s.Q.(*Memory)
	return ok
}
