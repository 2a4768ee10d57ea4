package task

import (
	"time"

	"github.com/google/uuid"
)

// A factory to build a Task from the incoming DTO. The owner always comes
// from the verified scope, never from the request body.

func NewFromCreateRequest(ownerID string, req CreateTaskRequest) Task {
	now := time.Now().UTC()

	return Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
