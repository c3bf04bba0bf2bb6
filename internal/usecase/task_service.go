package usecase

import (
	"context"
	"time"

	"github.com/St1cky1/tarefas-service/internal/entity"
	"github.com/St1cky1/tarefas-service/internal/repository"
	"github.com/go-pkgz/lgr"
)

// AuditPublisher интерфейс для публикации аудита (RabbitMQ)
type AuditPublisher interface {
	PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error
}

// NoopPublisher используется, когда RabbitMQ не настроен
type NoopPublisher struct{}

func (NoopPublisher) PublishAuditMessage(context.Context, *entity.AuditMessage) error { return nil }

const auditPublishTimeout = 2 * time.Second

type TaskService struct {
	taskRepo repository.ITaskRepository
	audit    AuditPublisher
	logger   lgr.L
	now      func() time.Time
}

func NewTaskService(taskRepo repository.ITaskRepository, audit AuditPublisher, logger lgr.L) *TaskService {
	if audit == nil {
		audit = NoopPublisher{}
	}
	if logger == nil {
		logger = lgr.NoOp
	}
	return &TaskService{
		taskRepo: taskRepo,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	tasks, err := s.taskRepo.GetAll(ctx)
	if err != nil {
		return nil, entity.Storage("list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID int64) (*entity.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, entity.Storage("find task", err)
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}
	return task, nil
}

// SaveTask: без id -> Create, с id -> Update
func (s *TaskService) SaveTask(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	if !task.HasID() {
		return s.CreateTask(ctx, task)
	}
	return s.UpdateTask(ctx, task)
}

func (s *TaskService) CreateTask(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, entity.Storage("create task", err)
	}

	s.sendAuditMessage(ctx, entity.ActionCreate, created.ID(), nil, created)
	return created, nil
}

// UpdateTask заменяет все поля существующей задачи.
func (s *TaskService) UpdateTask(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	// 1. Текущая версия нужна для аудита и проверки существования
	oldTask, err := s.taskRepo.FindByID(ctx, task.ID())
	if err != nil {
		return nil, entity.Storage("find task", err)
	}
	if oldTask == nil {
		return nil, entity.ErrTaskNotFound
	}

	// 2. Обновляем
	updated, err := s.taskRepo.Update(ctx, task)
	if err != nil {
		return nil, entity.Storage("update task", err)
	}
	if updated == nil {
		// строку удалили между проверкой и обновлением
		return nil, entity.ErrTaskNotFound
	}

	s.sendAuditMessage(ctx, entity.ActionUpdate, updated.ID(), oldTask, updated)
	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID int64) error {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return entity.Storage("find task", err)
	}
	if task == nil {
		return entity.ErrTaskNotFound
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return entity.Storage("delete task", err)
	}

	s.sendAuditMessage(ctx, entity.ActionDelete, taskID, task, nil)
	return nil
}

func (s *TaskService) TaskExists(ctx context.Context, taskID int64) (bool, error) {
	exists, err := s.taskRepo.Exists(ctx, taskID)
	if err != nil {
		return false, entity.Storage("check task", err)
	}
	return exists, nil
}

// Ping проверяет хранилище для health-check
func (s *TaskService) Ping(ctx context.Context) error {
	return s.taskRepo.Ping(ctx)
}

// Аудит не должен ломать запрос: ошибки только логируем.
func (s *TaskService) sendAuditMessage(ctx context.Context, action entity.ActionType, taskID int64, oldTask, newTask *entity.Task) {
	msg := entity.NewAuditMessage(action, taskID, oldTask, newTask, s.now())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditPublishTimeout)
	defer cancel()

	if err := s.audit.PublishAuditMessage(ctx, msg); err != nil {
		s.logger.Logf("WARN [audit] publish %s task id=%d: %v", action, taskID, err)
		return
	}
	s.logger.Logf("DEBUG [audit] sent %s task id=%d", action, taskID)
}
