package identity

// Identity is what a verified session grants for the lifetime of one
// request. It is never persisted by this service.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
