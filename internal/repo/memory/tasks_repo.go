package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskdeck/api/internal/domain/task"
)

// TasksRepo is an in-memory TaskStore with the same owner-scoping and
// partial-update semantics as the postgres repo. Tests use it to exercise
// stateful behaviour without a database.
type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(ownerID, req)

	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
	r.mu.RLock()

	matched := make([]task.Task, 0, len(r.items))

	for _, t := range r.items {
		if t.OwnerID != ownerID {
			continue
		}

		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}

		matched = append(matched, t)
	}

	r.mu.RUnlock()

	// newest first, id as tiebreak, same order the SQL query produces
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	// total counts every match, not just the returned window
	total := len(matched)

	start := filter.Offset
	if start > total {
		start = total
	}

	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	r.mu.RLock()
	t, ok := r.items[id]
	r.mu.RUnlock()

	// a task under another owner looks exactly like no task at all
	if !ok || t.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

func (r *TasksRepo) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]

	if !ok || t.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}

	if req.Title != nil {
		t.Title = *req.Title
	}

	// a present description key always applies, null included
	if req.DescriptionSet || req.Description != nil {
		t.Description = req.Description
	}

	if req.Completed != nil {
		t.Completed = *req.Completed
	}

	// updated_at must move forward even when the clock has not
	now := time.Now().UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now

	r.items[id] = t

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]

	if !ok || t.OwnerID != ownerID {
		return task.ErrNotFound
	}

	delete(r.items, id)

	return nil
}
