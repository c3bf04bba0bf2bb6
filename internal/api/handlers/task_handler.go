package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/St1cky1/tarefas-service/internal/api/response"
	"github.com/St1cky1/tarefas-service/internal/entity"
	"github.com/St1cky1/tarefas-service/internal/sanitize"
	"github.com/St1cky1/tarefas-service/internal/usecase"
)

var errBadBody = entity.Validation("Corpo da requisição inválido")

type TaskHandler struct {
	taskService *usecase.TaskService
	sanitizer   *sanitize.Sanitizer
}

func NewTaskHandler(taskService *usecase.TaskService, sanitizer *sanitize.Sanitizer) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		sanitizer:   sanitizer,
	}
}

// GET /tarefas
func (h *TaskHandler) GetAll(ctx context.Context) (*response.Envelope, error) {
	tasks, err := h.taskService.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return response.Success(http.StatusOK, tasks), nil
}

// GET /tarefas/:id
func (h *TaskHandler) GetOne(ctx context.Context, rawID string) (*response.Envelope, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	task, err := h.taskService.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return response.Success(http.StatusOK, task), nil
}

// POST /tarefas
func (h *TaskHandler) Create(ctx context.Context, body []byte) (*response.Envelope, error) {
	task, err := h.buildTask(body)
	if err != nil {
		return nil, err
	}
	saved, err := h.taskService.SaveTask(ctx, task)
	if err != nil {
		return nil, err
	}
	return response.Success(http.StatusCreated, saved), nil
}

// PUT /tarefas/:id - id из пути перекрывает id из тела
func (h *TaskHandler) Update(ctx context.Context, rawID string, body []byte) (*response.Envelope, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	exists, err := h.taskService.TaskExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, entity.ErrTaskNotFound
	}

	task, err := h.buildTask(body)
	if err != nil {
		return nil, err
	}
	if err := task.SetID(id); err != nil {
		return nil, err
	}
	saved, err := h.taskService.SaveTask(ctx, task)
	if err != nil {
		return nil, err
	}
	return response.Success(http.StatusOK, saved), nil
}

// DELETE /tarefas/:id
func (h *TaskHandler) Delete(ctx context.Context, rawID string) (*response.Envelope, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if err := h.taskService.DeleteTask(ctx, id); err != nil {
		return nil, err
	}
	return response.Success(http.StatusNoContent, nil), nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, entity.ErrInvalidID
	}
	return id, nil
}

// buildTask: decode -> sanitize -> entity.NewTask (валидация)
func (h *TaskHandler) buildTask(body []byte) (*entity.Task, error) {
	fields, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	fields = h.sanitizer.Sanitize(fields)

	var in entity.TaskInput
	if in.ID, err = optionalID(fields); err != nil {
		return nil, err
	}
	if in.Title, err = requiredString(fields, "title"); err != nil {
		return nil, err
	}
	if in.Description, err = requiredString(fields, "description"); err != nil {
		return nil, err
	}
	if in.Status, err = optionalString(fields, "status"); err != nil {
		return nil, err
	}
	if in.DateStart, err = requiredString(fields, "date_start"); err != nil {
		return nil, err
	}
	if in.DateEnd, err = optionalString(fields, "date_end"); err != nil {
		return nil, err
	}
	return entity.NewTask(in)
}

func decodeBody(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errBadBody
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, errBadBody
	}
	// после объекта допускаются только пробелы
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errBadBody
	}
	return fields, nil
}

func requiredString(fields map[string]any, key string) (string, error) {
	value, ok := fields[key]
	if !ok || value == nil {
		return "", entity.Validation("Campo obrigatório ausente: " + key)
	}
	s, ok := value.(string)
	if !ok {
		return "", entity.Validation(fmt.Sprintf("Campo %s deve ser texto", key))
	}
	return s, nil
}

func optionalString(fields map[string]any, key string) (*string, error) {
	value, ok := fields[key]
	if !ok || value == nil {
		return nil, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, entity.Validation(fmt.Sprintf("Campo %s deve ser texto", key))
	}
	return &s, nil
}

// optionalID принимает число JSON или числовую строку.
func optionalID(fields map[string]any) (*int64, error) {
	value, ok := fields["id"]
	if !ok || value == nil {
		return nil, nil
	}
	var raw string
	switch v := value.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
	default:
		return nil, entity.ErrInvalidID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, entity.ErrInvalidID
	}
	return &id, nil
}
