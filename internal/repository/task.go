package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/St1cky1/tarefas-service/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

var _ ITaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func (r *TaskRepository) GetAll(ctx context.Context) ([]*entity.Task, error) {
	query := `
	SELECT id, title, description, status, date_start, date_end
	FROM todos
	ORDER BY id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*entity.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM todos WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check task %d: %w", id, err)
	}
	return exists, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*entity.Task, error) {
	query := `
	SELECT id, title, description, status, date_start, date_end
	FROM todos
	WHERE id = $1
	`
	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	INSERT INTO todos (title, description, status, date_start, date_end)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		task.Title(),
		task.Description(),
		string(task.Status()),
		task.DateStart(),
		task.DateEndPtr(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("could not create task: %w", err)
	}

	if err := task.SetID(id); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	UPDATE todos
	SET title = $1, description = $2, status = $3, date_start = $4, date_end = $5
	WHERE id = $6
	RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		task.Title(),
		task.Description(),
		string(task.Status()),
		task.DateStart(),
		task.DateEndPtr(),
		task.ID(),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not update task %d: %w", task.ID(), err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete task %d: %w", id, err)
	}
	return nil
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var (
		id          int64
		title       string
		description string
		status      string
		dateStart   time.Time
		dateEnd     *time.Time
	)
	err := row.Scan(&id, &title, &description, &status, &dateStart, &dateEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("could not scan task: %w", err)
	}
	return entity.RestoreTask(id, title, description, status, dateStart, dateEnd)
}
