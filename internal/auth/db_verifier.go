package auth

import (
	"context"
	"time"

	"github.com/taskdeck/api/internal/domain/identity"
	"github.com/taskdeck/api/internal/repo/postgres"
)

// Keep this small interface so tests can fake it easily.
type SessionStore interface {
	GetByToken(ctx context.Context, token string) (postgres.SessionRow, error)
}

// DBVerifier looks the token up in the session table the identity provider
// writes to, joined to its user record.
type DBVerifier struct {
	sessions SessionStore
}

func NewDBVerifier(sessions SessionStore) *DBVerifier {
	return &DBVerifier{sessions: sessions}
}

func (v *DBVerifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	row, err := v.sessions.GetByToken(ctx, token)

	if err != nil {
		// not-found and any storage fault collapse to the same rejection
		return identity.Identity{}, ErrInvalidSession
	}

	// naive UTC comparison, matching how the provider stores expiry
	if time.Now().UTC().After(row.ExpiresAt) {
		return identity.Identity{}, ErrSessionExpired
	}

	return identity.Identity{
		UserID: row.UserID,
		Email:  row.Email,
	}, nil
}
