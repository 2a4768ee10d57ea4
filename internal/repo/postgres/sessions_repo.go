package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRow is the slice of the identity provider's schema we read.
// The table names are quoted because the provider creates them as
// "session" and "user" (reserved words in postgres).
type SessionRow struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type SessionsRepo struct {
	pool *pgxpool.Pool
}

func NewSessionsRepo(pool *pgxpool.Pool) *SessionsRepo {
	return &SessionsRepo{pool: pool}
}

func (r *SessionsRepo) GetByToken(ctx context.Context, token string) (SessionRow, error) {
	var row SessionRow

	err := r.pool.QueryRow(
		ctx,
		`SELECT s.user_id, u.email, s.expires_at
         FROM "session" s
         JOIN "user" u ON s.user_id = u.id
         WHERE s.token = $1`,
		token,
	).Scan(
		&row.UserID,
		&row.Email,
		&row.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {

			return SessionRow{}, ErrSessionNotFound
		}

		return SessionRow{}, err
	}
	return row, nil
}
