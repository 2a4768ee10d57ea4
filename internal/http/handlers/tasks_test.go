package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdeck/api/internal/domain/identity"
	"github.com/taskdeck/api/internal/domain/task"
	"github.com/taskdeck/api/internal/http/handlers"
	"github.com/taskdeck/api/internal/http/middlewares"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// Fake verifier so the whole auth/ownership chain runs in front of the
// handlers, the way it does in the real router.

type staticVerifier struct {
	id  identity.Identity
	err error
}

func (v staticVerifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	if v.err != nil {
		return identity.Identity{}, v.err
	}
	return v.id, nil
}

// Fake store implementation of the handlers.TaskStore interface

type fakeTasksRepo struct {
	listFn   func(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error)
	createFn func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error)
	getFn    func(ctx context.Context, ownerID, id string) (task.Task, error)
	updateFn func(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error)
	deleteFn func(ctx context.Context, ownerID, id string) error
}

func (f *fakeTasksRepo) List(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID, filter)
	}

	return []task.Task{}, 0, nil
}

func (f *fakeTasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}

	return task.Task{}, nil
}

func (f *fakeTasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	if f.getFn != nil {
		return f.getFn(ctx, ownerID, id)
	}

	return task.Task{}, nil
}

func (f *fakeTasksRepo) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, ownerID, id, req)
	}

	return task.Task{}, nil
}

func (f *fakeTasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, ownerID, id)
	}

	return nil
}

// helper which mounts the handlers behind the real auth + ownership chain

func setupTasksRouter(store handlers.TaskStore, id identity.Identity) *gin.Engine {
	r := gin.New()

	authMw := middlewares.NewAuthMiddleware(staticVerifier{id: id})

	api := r.Group("/api/v1")
	api.Use(authMw.RequireAuth())

	h := handlers.NewTasksHandler(store)

	tasks := api.Group("/users/:user_id/tasks")
	tasks.Use(middlewares.RequireOwnership("user_id"))

	tasks.GET("", h.ListTasks)
	tasks.POST("", h.CreateTask)
	tasks.GET("/:task_id", h.GetTask)
	tasks.PATCH("/:task_id", h.UpdateTask)
	tasks.DELETE("/:task_id", h.DeleteTask)

	return r
}

func doTaskRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request

	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	req.Header.Set("Authorization", "Bearer test-token")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

const testUserID = "user-abc"

func testIdentity() identity.Identity {
	return identity.Identity{UserID: testUserID, Email: "abc@example.com"}
}

// Create task tests

func TestCreateTaskHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeTasksRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"title": "Buy milk", "description": "2 litres"}`,
			repoSetUp: func(f *fakeTasksRepo) {
				f.createFn = func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
					if ownerID != testUserID {
						return task.Task{}, errors.New("owner not taken from verified scope")
					}

					return task.Task{
						ID:          newUUID(),
						OwnerID:     ownerID,
						Title:       req.Title,
						Description: req.Description,
						Completed:   req.Completed,
						CreatedAt:   now,
						UpdatedAt:   now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "empty_title_rejected",
			body: `{"title": ""}`,
			repoSetUp: func(f *fakeTasksRepo) {
				// invalid payload, the repo should never be called
				f.createFn = func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
					return task.Task{}, errors.New("repo should not be called")
				}
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "missing_title_rejected",
			body:           `{"description": "no title"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "title_at_255_accepted",
			body: `{"title": "` + strings.Repeat("a", 255) + `"}`,
			repoSetUp: func(f *fakeTasksRepo) {
				f.createFn = func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
					if len(req.Title) != 255 {
						return task.Task{}, errors.New("title length changed in transit")
					}
					return task.Task{ID: newUUID(), OwnerID: ownerID, Title: req.Title, CreatedAt: now, UpdatedAt: now}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "title_at_256_rejected",
			body:           `{"title": "` + strings.Repeat("a", 256) + `"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "description_over_2000_rejected",
			body:           `{"title": "ok", "description": "` + strings.Repeat("d", 2001) + `"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "smuggled_owner_field_is_ignored",
			body: `{"title": "Buy milk", "owner_id": "someone-else"}`,
			repoSetUp: func(f *fakeTasksRepo) {
				f.createFn = func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
					if ownerID != testUserID {
						return task.Task{}, errors.New("body owner leaked into scope")
					}
					return task.Task{ID: newUUID(), OwnerID: ownerID, Title: req.Title, CreatedAt: now, UpdatedAt: now}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "repo_error",
			body: `{"title": "Buy milk"}`,
			repoSetUp: func(f *fakeTasksRepo) {
				f.createFn = func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeTasksRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(fakeRepo)
			}

			r := setupTasksRouter(fakeRepo, testIdentity())

			w := doTaskRequest(r, http.MethodPost, "/api/v1/users/"+testUserID+"/tasks", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var created task.Task
				if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
					t.Fatalf("failed to unmarshal created task: %v", err)
				}
				if created.OwnerID != testUserID {
					t.Fatalf("created owner_id = %q, want %q", created.OwnerID, testUserID)
				}
			}
		})
	}
}

// cross-user access must be indistinguishable from nonexistence on every route

func TestTaskRoutes_OtherUsersPathIs404(t *testing.T) {
	called := false

	fakeRepo := &fakeTasksRepo{
		listFn: func(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
			called = true
			return nil, 0, nil
		},
		getFn: func(ctx context.Context, ownerID, id string) (task.Task, error) {
			called = true
			return task.Task{}, nil
		},
		deleteFn: func(ctx context.Context, ownerID, id string) error {
			called = true
			return nil
		},
	}

	r := setupTasksRouter(fakeRepo, testIdentity())

	taskID := newUUID()

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/users/other-user/tasks", ""},
		{http.MethodPost, "/api/v1/users/other-user/tasks", `{"title":"x"}`},
		{http.MethodGet, "/api/v1/users/other-user/tasks/" + taskID, ""},
		{http.MethodPatch, "/api/v1/users/other-user/tasks/" + taskID, `{"completed":true}`},
		{http.MethodDelete, "/api/v1/users/other-user/tasks/" + taskID, ""},
	}

	for _, rt := range routes {
		w := doTaskRequest(r, rt.method, rt.path, rt.body)

		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s: got status %d, want %d (never 403), body=%s", rt.method, rt.path, w.Code, http.StatusNotFound, w.Body.String())
		}
	}

	if called {
		t.Fatalf("store was reached for a cross-user path")
	}
}

// List tests

func TestListTasksHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeTasksRepo)
		wantStatusCode int
	}{
		{
			name: "defaults_applied",
			url:  "/api/v1/users/" + testUserID + "/tasks",
			repoSetup: func(f *fakeTasksRepo) {
				f.listFn = func(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
					if filter.Limit != 50 || filter.Offset != 0 {
						return nil, 0, errors.New("defaults not applied")
					}
					if filter.Completed != nil {
						return nil, 0, errors.New("completed filter should be unset")
					}
					return []task.Task{
						{ID: newUUID(), OwnerID: ownerID, Title: "one", CreatedAt: now, UpdatedAt: now},
					}, 7, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "completed_filter_passthrough",
			url:  "/api/v1/users/" + testUserID + "/tasks?completed=true&limit=10&offset=20",
			repoSetup: func(f *fakeTasksRepo) {
				f.listFn = func(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
					if filter.Completed == nil || !*filter.Completed {
						return nil, 0, errors.New("completed filter not passed")
					}
					if filter.Limit != 10 || filter.Offset != 20 {
						return nil, 0, errors.New("pagination not passed")
					}
					return []task.Task{}, 0, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_completed",
			url:            "/api/v1/users/" + testUserID + "/tasks?completed=banana",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "limit_zero_rejected",
			url:            "/api/v1/users/" + testUserID + "/tasks?limit=0",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "limit_over_100_rejected",
			url:            "/api/v1/users/" + testUserID + "/tasks?limit=101",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "negative_offset_rejected",
			url:            "/api/v1/users/" + testUserID + "/tasks?offset=-1",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "repo_error",
			url:  "/api/v1/users/" + testUserID + "/tasks",
			repoSetup: func(f *fakeTasksRepo) {
				f.listFn = func(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
					return nil, 0, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeTasksRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			r := setupTasksRouter(fakeRepo, testIdentity())

			w := doTaskRequest(r, http.MethodGet, tt.url, "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListTasksHandler_EchoesPagination(t *testing.T) {
	fakeRepo := &fakeTasksRepo{
		listFn: func(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
			return []task.Task{}, 42, nil
		},
	}

	r := setupTasksRouter(fakeRepo, testIdentity())

	w := doTaskRequest(r, http.MethodGet, "/api/v1/users/"+testUserID+"/tasks?limit=5&offset=15", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Items  []task.Task `json:"items"`
		Total  int         `json:"total"`
		Limit  int         `json:"limit"`
		Offset int         `json:"offset"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal list response: %v", err)
	}

	if resp.Total != 42 {
		t.Fatalf("total = %d, want 42 (must reflect the filter-matching count)", resp.Total)
	}

	if resp.Limit != 5 || resp.Offset != 15 {
		t.Fatalf("pagination echo = limit %d offset %d, want 5/15", resp.Limit, resp.Offset)
	}
}

// Get task tests

func TestGetTaskHandler(t *testing.T) {
	now := time.Now().UTC()
	taskID := newUUID()

	tests := []struct {
		name           string
		taskID         string
		repoSetup      func(*fakeTasksRepo)
		wantStatusCode int
	}{
		{
			name:   "success",
			taskID: taskID,
			repoSetup: func(f *fakeTasksRepo) {
				f.getFn = func(ctx context.Context, ownerID, id string) (task.Task, error) {
					if ownerID != testUserID || id != taskID {
						return task.Task{}, errors.New("scoping params not passed")
					}
					return task.Task{ID: id, OwnerID: ownerID, Title: "one", CreatedAt: now, UpdatedAt: now}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:   "not_found",
			taskID: taskID,
			repoSetup: func(f *fakeTasksRepo) {
				f.getFn = func(ctx context.Context, ownerID, id string) (task.Task, error) {
					return task.Task{}, task.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_task_id",
			taskID:         "not-a-uuid",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:   "repo_error",
			taskID: taskID,
			repoSetup: func(f *fakeTasksRepo) {
				f.getFn = func(ctx context.Context, ownerID, id string) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeTasksRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			r := setupTasksRouter(fakeRepo, testIdentity())

			w := doTaskRequest(r, http.MethodGet, "/api/v1/users/"+testUserID+"/tasks/"+tt.taskID, "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK && w.Header().Get("ETag") == "" {
				t.Fatalf("expected ETag header on single-task GET")
			}
		})
	}
}

// Patch tests

func TestUpdateTaskHandler_PartialFields(t *testing.T) {
	now := time.Now().UTC()
	taskID := newUUID()

	var got task.UpdateTaskRequest

	fakeRepo := &fakeTasksRepo{
		updateFn: func(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
			got = req
			return task.Task{ID: id, OwnerID: ownerID, Title: "unchanged", Completed: true, CreatedAt: now, UpdatedAt: now.Add(time.Second)}, nil
		},
	}

	r := setupTasksRouter(fakeRepo, testIdentity())

	w := doTaskRequest(r, http.MethodPatch, "/api/v1/users/"+testUserID+"/tasks/"+taskID, `{"completed": true}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	if got.Title != nil || got.Description != nil {
		t.Fatalf("absent fields must stay unset: title=%v description=%v", got.Title, got.Description)
	}

	if got.DescriptionSet {
		t.Fatalf("an absent description key must not be marked present")
	}

	if got.Completed == nil || !*got.Completed {
		t.Fatalf("completed = %v, want explicit true", got.Completed)
	}
}

func TestUpdateTaskHandler_ExplicitEmptyDescription(t *testing.T) {
	taskID := newUUID()

	var got task.UpdateTaskRequest

	fakeRepo := &fakeTasksRepo{
		updateFn: func(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
			got = req
			return task.Task{ID: id, OwnerID: ownerID, Title: "t"}, nil
		},
	}

	r := setupTasksRouter(fakeRepo, testIdentity())

	w := doTaskRequest(r, http.MethodPatch, "/api/v1/users/"+testUserID+"/tasks/"+taskID, `{"description": ""}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	if got.Description == nil || *got.Description != "" {
		t.Fatalf("description = %v, want explicit empty string", got.Description)
	}

	if !got.DescriptionSet {
		t.Fatalf("a present description key must be marked present")
	}
}

func TestUpdateTaskHandler_ExplicitNullDescription(t *testing.T) {
	taskID := newUUID()

	var got task.UpdateTaskRequest

	fakeRepo := &fakeTasksRepo{
		updateFn: func(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
			got = req
			return task.Task{ID: id, OwnerID: ownerID, Title: "t"}, nil
		},
	}

	r := setupTasksRouter(fakeRepo, testIdentity())

	// a present null clears the description; it must not collapse into the
	// absent-field case
	w := doTaskRequest(r, http.MethodPatch, "/api/v1/users/"+testUserID+"/tasks/"+taskID, `{"description": null}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	if got.Description != nil {
		t.Fatalf("description = %v, want nil for an explicit null", got.Description)
	}

	if !got.DescriptionSet {
		t.Fatalf("explicit null description decoded as absent; key presence was lost")
	}
}

func TestUpdateTaskHandler_Errors(t *testing.T) {
	taskID := newUUID()

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeTasksRepo)
		wantStatusCode int
	}{
		{
			name:           "empty_title_rejected",
			body:           `{"title": ""}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "not_found",
			body: `{"completed": true}`,
			repoSetup: func(f *fakeTasksRepo) {
				f.updateFn = func(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
					return task.Task{}, task.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			body: `{"completed": true}`,
			repoSetup: func(f *fakeTasksRepo) {
				f.updateFn = func(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeTasksRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			r := setupTasksRouter(fakeRepo, testIdentity())

			w := doTaskRequest(r, http.MethodPatch, "/api/v1/users/"+testUserID+"/tasks/"+taskID, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// Delete tests

func TestDeleteTaskHandler(t *testing.T) {
	taskID := newUUID()

	tests := []struct {
		name           string
		repoSetup      func(*fakeTasksRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			repoSetup: func(f *fakeTasksRepo) {
				f.deleteFn = func(ctx context.Context, ownerID, id string) error {
					if ownerID != testUserID || id != taskID {
						return errors.New("scoping params not passed")
					}
					return nil
				}
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name: "not_found",
			repoSetup: func(f *fakeTasksRepo) {
				f.deleteFn = func(ctx context.Context, ownerID, id string) error {
					return task.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			repoSetup: func(f *fakeTasksRepo) {
				f.deleteFn = func(ctx context.Context, ownerID, id string) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeTasksRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			r := setupTasksRouter(fakeRepo, testIdentity())

			w := doTaskRequest(r, http.MethodDelete, "/api/v1/users/"+testUserID+"/tasks/"+taskID, "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
