package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/api/internal/http/middlewares"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// GetSession echoes the identity bound to the presented token. The
// middleware has already verified it, so reaching here means 200.
func (h *SessionHandler) GetSession(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Invalid credentials")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user_id":       id.UserID,
		"email":         id.Email,
		"authenticated": true,
	})
}
