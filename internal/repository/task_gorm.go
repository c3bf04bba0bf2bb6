package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/St1cky1/tarefas-service/internal/entity"
	"gorm.io/gorm"
)

// taskRecord - строка таблицы todos для gorm
type taskRecord struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"size:200;not null"`
	Description string     `gorm:"size:500;not null"`
	Status      string     `gorm:"size:10;not null;default:ongoing"`
	DateStart   time.Time  `gorm:"not null"`
	DateEnd     *time.Time
}

func (taskRecord) TableName() string {
	return "todos"
}

func toRecord(task *entity.Task) *taskRecord {
	return &taskRecord{
		ID:          task.ID(),
		Title:       task.Title(),
		Description: task.Description(),
		Status:      string(task.Status()),
		DateStart:   task.DateStart(),
		DateEnd:     task.DateEndPtr(),
	}
}

func (rec *taskRecord) toTask() (*entity.Task, error) {
	return entity.RestoreTask(rec.ID, rec.Title, rec.Description, rec.Status, rec.DateStart, rec.DateEnd)
}

// GormTaskRepository - хранилище задач поверх gorm (SQLite)
type GormTaskRepository struct {
	db *gorm.DB
}

var _ ITaskRepository = (*GormTaskRepository)(nil)

func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// AutoMigrate создаёт таблицу todos, если её нет.
func (r *GormTaskRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&taskRecord{}); err != nil {
		return fmt.Errorf("could not migrate todos: %w", err)
	}
	return nil
}

func (r *GormTaskRepository) GetAll(ctx context.Context) ([]*entity.Task, error) {
	var records []taskRecord
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	tasks := make([]*entity.Task, 0, len(records))
	for i := range records {
		task, err := records[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *GormTaskRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&taskRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("could not check task %d: %w", id, err)
	}
	return count > 0, nil
}

func (r *GormTaskRepository) FindByID(ctx context.Context, id int64) (*entity.Task, error) {
	var rec taskRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not find task %d: %w", id, err)
	}
	return rec.toTask()
}

func (r *GormTaskRepository) Create(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	rec := toRecord(task)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("could not create task: %w", err)
	}
	if err := task.SetID(rec.ID); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *GormTaskRepository) Update(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	rec := toRecord(task)
	// Select нужен, чтобы date_end = NULL тоже записывался
	result := r.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("id = ?", rec.ID).
		Select("title", "description", "status", "date_start", "date_end").
		Updates(rec)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("could not update task %d: %w", rec.ID, err)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return task, nil
}

func (r *GormTaskRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("could not delete task %d: %w", id, err)
	}
	return nil
}

func (r *GormTaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
