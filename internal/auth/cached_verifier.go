package auth

import (
	"context"
	"time"

	"github.com/taskdeck/api/internal/domain/identity"
)

// CachedVerifier fronts another verifier with a short-TTL identity cache.
// Only successes are cached, so a revoked or expired session is honoured
// within at most one TTL. Failures always hit the backend.
type CachedVerifier struct {
	next   SessionVerifier
	cache  IdentityCache
	pepper string
	ttl    time.Duration
}

func NewCachedVerifier(next SessionVerifier, cache IdentityCache, pepper string, ttl time.Duration) *CachedVerifier {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &CachedVerifier{
		next:   next,
		cache:  cache,
		pepper: pepper,
		ttl:    ttl,
	}
}

func (v *CachedVerifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	if token == "" {
		return identity.Identity{}, ErrInvalidSession
	}

	fp := Fingerprint(v.pepper, token)

	if id, ok := v.cache.Get(ctx, fp); ok {
		return id, nil
	}

	id, err := v.next.Verify(ctx, token)

	if err != nil {
		return identity.Identity{}, err
	}

	v.cache.Set(ctx, fp, id, v.ttl)

	return id, nil
}
