package auth

import (
	"context"
	"errors"

	"github.com/taskdeck/api/internal/domain/identity"
	"github.com/taskdeck/api/internal/observability"
)

// MeteredVerifier counts backend verification outcomes. It sits inside the
// cache wrapper so cache hits do not inflate the counters.
type MeteredVerifier struct {
	next SessionVerifier
	prom *observability.Prom
	name string // "database" or "remote"
}

func NewMeteredVerifier(next SessionVerifier, prom *observability.Prom, name string) *MeteredVerifier {
	return &MeteredVerifier{
		next: next,
		prom: prom,
		name: name,
	}
}

func (v *MeteredVerifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	id, err := v.next.Verify(ctx, token)

	if v.prom != nil {
		result := "ok"

		switch {
		case errors.Is(err, ErrSessionExpired):
			result = "expired"
		case err != nil:
			result = "invalid"
		}

		v.prom.AuthResults.WithLabelValues(v.name, result).Inc()
	}

	return id, err
}
