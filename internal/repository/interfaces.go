package repository

import (
	"context"

	"github.com/St1cky1/tarefas-service/internal/entity"
)

// ITaskRepository - хранилище задач. Реализации: TaskRepository (PostgreSQL)
// и GormTaskRepository (SQLite).
type ITaskRepository interface {
	GetAll(ctx context.Context) ([]*entity.Task, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// FindByID возвращает nil, nil если задачи нет
	FindByID(ctx context.Context, id int64) (*entity.Task, error)
	// Create присваивает сгенерированный id
	Create(ctx context.Context, task *entity.Task) (*entity.Task, error)
	// Update возвращает nil, nil если строка исчезла
	Update(ctx context.Context, task *entity.Task) (*entity.Task, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// ITaskAuditRepository - интерфейс для TaskAuditRepository
type ITaskAuditRepository interface {
	Create(ctx context.Context, audit *entity.TaskAudit) error
}
