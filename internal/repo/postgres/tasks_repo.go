package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdeck/api/internal/domain/task"
	"github.com/taskdeck/api/internal/observability"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {

		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(ownerID, req)

	err := r.observe("tasks.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO tasks(id, owner_id, title, description, completed, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7)`,
			t.ID, t.OwnerID, t.Title, t.Description, t.Completed, t.CreatedAt, t.UpdatedAt)
		return e
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil

}

// List always filters by owner; no code path may build the query without
// the owner condition.
func (r *TasksRepo) List(ctx context.Context, ownerID string, filter task.ListTasksFilter) ([]task.Task, int, error) {
	baseQuery :=
		`SELECT id,
		owner_id,
		title,
		description,
		completed,
	  created_at,
		updated_at,
		COUNT(*) OVER() AS TOTAL
	FROM tasks
	`

	conds := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	argsPosition := 2

	// filtered conditional checks.
	if filter.Completed != nil {
		conds = append(conds, fmt.Sprintf("completed = $%d", argsPosition))
		args = append(args, *filter.Completed)
		argsPosition++
	}

	query := baseQuery + " WHERE " + strings.Join(conds, " AND ")

	// newest first, id as tiebreak for stable pagination
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	output := make([]task.Task, 0, filter.Limit)
	total := 0

	err := r.observe("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var t task.Task
			var n int

			err = rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt, &n)

			if err != nil {
				return err
			}

			total = n
			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, owner_id, title, description, completed, created_at, updated_at
			FROM tasks
			WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		// a task under another owner looks exactly like no task at all
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// Update applies only the fields present in the patch and always bumps
// updated_at, even for an empty patch.
func (r *TasksRepo) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, ownerID}

	argsPosition := 3

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argsPosition))
		args = append(args, *req.Title)
		argsPosition++
	}

	// DescriptionSet covers the explicit-null case; a nil pointer with the
	// key present writes SQL NULL and clears the column
	if req.DescriptionSet || req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argsPosition))
		args = append(args, req.Description)
		argsPosition++
	}

	if req.Completed != nil {
		sets = append(sets, fmt.Sprintf("completed = $%d", argsPosition))
		args = append(args, *req.Completed)
		argsPosition++
	}

	query := `UPDATE tasks
		SET ` + strings.Join(sets, ",\n\t\t\t\t") + `
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, title, description, completed, created_at, updated_at`

	var t task.Task

	err := r.observe("tasks.update", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(
			&t.ID,
			&t.OwnerID,
			&t.Title,
			&t.Description,
			&t.Completed,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
	})

	if err != nil {
		// if there are no rows matching the id under this owner
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		// if it is any other type of error
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	var tag int64

	err := r.observe("tasks.delete", func() error {
		res, err := r.pool.Exec(ctx, `
			DELETE from tasks WHERE id = $1 AND owner_id = $2
		`, id, ownerID)

		if err != nil {
			return err
		}

		tag = res.RowsAffected()
		return nil
	})

	if err != nil {

		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag == 0 {
		return task.ErrNotFound
	}

	return nil
}
