package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdeck/api/internal/config"
	"github.com/taskdeck/api/internal/domain/task"
	"github.com/taskdeck/api/internal/http/middlewares"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Every operation takes the guard-verified owner id as a mandatory scoping
// parameter; there is no unscoped variant to call by mistake.
type TaskStore interface {
	List(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error)
	Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (task.Task, error)
	Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type TasksHandler struct {
	repo TaskStore
}

func NewTasksHandler(repo TaskStore) *TasksHandler {
	return &TasksHandler{repo: repo}
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	owner, ok := ownerScope(ctx)
	if !ok {
		return
	}

	filter, ok := parseListQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, owner, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list tasks")

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":  items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	owner, ok := ownerScope(ctx)
	if !ok {
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// owner comes from the verified scope only; any owner field a client
	// smuggles into the body is never decoded
	created, err := h.repo.Create(cctx, owner, req)

	if err != nil {
		RespondInternal(ctx, "Could not create task")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	owner, ok := ownerScope(ctx)
	if !ok {
		return
	}

	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	t, err := h.repo.GetByID(cctx, owner, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}
		RespondInternal(ctx, "Could not fetch task")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	owner, ok := ownerScope(ctx)
	if !ok {
		return
	}

	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, owner, id, req)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}
		RespondInternal(ctx, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	owner, ok := ownerScope(ctx)
	if !ok {
		return
	}

	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, owner, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}
		RespondInternal(ctx, "Could not delete task")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// helper functions

func ownerScope(ctx *gin.Context) (string, bool) {
	owner, ok := middlewares.OwnerFromContext(ctx)

	if !ok {
		// the ownership guard did not run; refuse rather than guess
		RespondInternal(ctx, "Missing owner scope")
		return "", false
	}

	return owner, true
}

func taskIDParam(ctx *gin.Context) (string, bool) {
	raw := ctx.Param("task_id")

	id, err := uuid.Parse(raw)

	if err != nil {
		RespondUnprocessable(ctx, "Validation failed", gin.H{
			"fields": []FieldError{
				{Field: "task_id", Rule: "uuid", Message: "must be a valid UUID"},
			},
		})
		return "", false
	}

	return id.String(), true
}

func parseListQuery(ctx *gin.Context) (task.ListTasksFilter, bool) {
	filter := task.ListTasksFilter{
		Limit:  defaultListLimit,
		Offset: 0,
	}

	if raw := ctx.Query("completed"); raw != "" {
		val, err := strconv.ParseBool(raw)

		if err != nil {
			respondQueryError(ctx, "completed", "boolean", "must be true or false")
			return filter, false
		}

		filter.Completed = &val
	}

	if raw := ctx.Query("limit"); raw != "" {
		val, err := strconv.Atoi(raw)

		if err != nil || val < 1 || val > maxListLimit {
			respondQueryError(ctx, "limit", "range", "must be an integer between 1 and 100")
			return filter, false
		}

		filter.Limit = val
	}

	if raw := ctx.Query("offset"); raw != "" {
		val, err := strconv.Atoi(raw)

		if err != nil || val < 0 {
			respondQueryError(ctx, "offset", "min", "must be an integer greater than or equal to 0")
			return filter, false
		}

		filter.Offset = val
	}

	return filter, true
}

func respondQueryError(ctx *gin.Context, field, rule, message string) {
	RespondUnprocessable(ctx, "Validation failed", gin.H{
		"fields": []FieldError{
			{Field: field, Rule: rule, Message: message},
		},
	})
}
