package middlewares

// gin context keys shared across the middleware chain
const (
	CtxRequestID = "request_id"

	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"

	// set by RequireOwnership after the path/identity comparison; the only
	// owner scope handlers are allowed to trust
	ctxOwnerIDKey = "auth.ownerID"
)
