package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/taskdeck/api/internal/domain/identity"
)

// RemoteVerifier forwards the token as a bearer credential to the identity
// service. Any non-200 response, transport failure or body we cannot map to
// an identity is a rejection; timeouts are rejections, never retried.
type RemoteVerifier struct {
	baseURL string
	client  *http.Client
}

func NewRemoteVerifier(baseURL string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sessionResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/auth/get-session", nil)

	if err != nil {
		return identity.Identity{}, ErrInvalidSession
	}

	req.Header.Set("Authorization", "Bearer "+token)

	res, err := v.client.Do(req)

	if err != nil {
		return identity.Identity{}, ErrInvalidSession
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return identity.Identity{}, ErrInvalidSession
	}

	var body sessionResponse

	err = json.NewDecoder(res.Body).Decode(&body)

	if err != nil {
		return identity.Identity{}, ErrInvalidSession
	}

	// a 200 with no user id means the service did not recognise the session
	if body.User.ID == "" {
		return identity.Identity{}, ErrInvalidSession
	}

	return identity.Identity{
		UserID: body.User.ID,
		Email:  body.User.Email,
	}, nil
}
