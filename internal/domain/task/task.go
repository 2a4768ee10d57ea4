package task

import (
	"encoding/json"
	"errors"
	"time"
)

type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("task not found")

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Completed   bool    `json:"completed"`
}

// Partial update payload: nil means the field was absent from the request
// and must be left untouched. Description is nullable, so absence and an
// explicit null must stay distinguishable: DescriptionSet records that the
// key appeared in the body at all. A present null (or "") clears the
// description; an absent key leaves it alone.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Completed   *bool   `json:"completed"`

	DescriptionSet bool `json:"-"`
}

func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateTaskRequest

	var p plain

	err := json.Unmarshal(data, &p)

	if err != nil {
		return err
	}

	// a second decode into a key map is the only way encoding/json exposes
	// field presence
	var keys map[string]json.RawMessage

	err = json.Unmarshal(data, &keys)

	if err != nil {
		return err
	}

	*r = UpdateTaskRequest(p)
	_, r.DescriptionSet = keys["description"]

	return nil
}

// with pointers if optional, it will be nil
type ListTasksFilter struct {
	Completed *bool
	Limit     int
	Offset    int
}
