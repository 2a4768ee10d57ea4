package auth

import (
	"context"
	"errors"

	"github.com/taskdeck/api/internal/domain/identity"
)

// Session rejections deliberately carry no detail beyond these two cases;
// a backend fault must look the same as a bad token to the caller.
var (
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
)

// SessionVerifier turns a raw bearer token into an identity or a rejection.
// Two implementations exist: DBVerifier (local session table) and
// RemoteVerifier (delegation to the identity service). They share the same
// success/failure contract and are selected at startup.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}
