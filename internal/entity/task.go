package entity

import (
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type TaskStatus string

const (
	StatusOngoing TaskStatus = "ongoing"
	StatusDone    TaskStatus = "done"
)

// DateLayout - формат дат на проводе
const DateLayout = "2006-01-02T15:04"

// принимаемые форматы входных дат, по порядку
var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var lower = cases.Lower(language.Und)

// Task - задача (tarefa). Поля закрыты: любое значение проходит через сеттеры,
// поэтому инварианты держатся после конструирования.
type Task struct {
	id          int64
	title       string
	description string
	status      TaskStatus
	dateStart   time.Time
	dateEnd     time.Time
}

// TaskInput - сырые значения из тела запроса
type TaskInput struct {
	ID          *int64
	Title       string
	Description string
	Status      *string
	DateStart   string
	DateEnd     *string
}

// NewTask валидирует поля в порядке id -> title -> description -> status ->
// date_start -> date_end и останавливается на первой ошибке.
func NewTask(in TaskInput) (*Task, error) {
	t := &Task{}
	var id int64
	if in.ID != nil {
		id = *in.ID
	}
	steps := []func() error{
		func() error { return t.setID(id, in.ID != nil) },
		func() error { return t.SetTitle(in.Title) },
		func() error { return t.SetDescription(in.Description) },
		func() error { return t.SetStatus(in.Status) },
		func() error { return t.SetDateStart(in.DateStart) },
		func() error { return t.SetDateEnd(in.DateEnd) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// RestoreTask собирает задачу из строки хранилища через те же проверки.
func RestoreTask(id int64, title, description, status string, dateStart time.Time, dateEnd *time.Time) (*Task, error) {
	t := &Task{}
	if err := t.SetID(id); err != nil {
		return nil, err
	}
	if err := t.SetTitle(title); err != nil {
		return nil, err
	}
	if err := t.SetDescription(description); err != nil {
		return nil, err
	}
	if err := t.SetStatus(&status); err != nil {
		return nil, err
	}
	t.dateStart = normalize(dateStart)
	if dateEnd != nil {
		if err := t.setDateEndTime(normalize(*dateEnd)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Task) ID() int64 { return t.id }

// HasID - false до первого сохранения
func (t *Task) HasID() bool { return t.id != 0 }

// SetID присваивает идентификатор. 0 и отрицательные значения запрещены.
func (t *Task) SetID(id int64) error {
	return t.setID(id, true)
}

func (t *Task) setID(id int64, present bool) error {
	if !present {
		t.id = 0
		return nil
	}
	if id <= 0 {
		return ErrInvalidID
	}
	t.id = id
	return nil
}

func (t *Task) Title() string { return t.title }

func (t *Task) SetTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return Validation("Título não pode estar vazio")
	}
	t.title = title
	return nil
}

func (t *Task) Description() string { return t.description }

func (t *Task) SetDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return Validation("Descrição não pode estar vazia")
	}
	t.description = description
	return nil
}

func (t *Task) Status() TaskStatus { return t.status }

// SetStatus: nil или пустая (пробельная) строка -> ongoing
func (t *Task) SetStatus(status *string) error {
	if status == nil || strings.TrimSpace(*status) == "" {
		t.status = StatusOngoing
		return nil
	}
	s := TaskStatus(lower.String(strings.TrimSpace(*status)))
	if s != StatusOngoing && s != StatusDone {
		return Validation("Status só pode aceitar os valores 'done' e 'ongoing'")
	}
	t.status = s
	return nil
}

func (t *Task) DateStart() time.Time { return t.dateStart }

func (t *Task) SetDateStart(value string) error {
	if strings.TrimSpace(value) == "" {
		return Validation("Data de início não pode ser nula")
	}
	d, ok := ParseDate(value)
	if !ok {
		return Validation("Formato de data de início está inválido. Tente YYYY-mm-ddTHH:mm")
	}
	t.dateStart = d
	return nil
}

// DateEnd возвращает срок и признак его наличия.
func (t *Task) DateEnd() (time.Time, bool) {
	return t.dateEnd, !t.dateEnd.IsZero()
}

// SetDateEnd требует уже установленный date_start.
func (t *Task) SetDateEnd(value *string) error {
	if value == nil || strings.TrimSpace(*value) == "" {
		t.dateEnd = time.Time{}
		return nil
	}
	d, ok := ParseDate(*value)
	if !ok {
		return Validation("Formato de data final está inválido. Tente YYYY-mm-ddTHH:mm")
	}
	return t.setDateEndTime(d)
}

func (t *Task) setDateEndTime(d time.Time) error {
	if !d.After(t.dateStart) {
		return Validation("O prazo final não pode ser anterior ou igual à data de início")
	}
	t.dateEnd = d
	return nil
}

// DateEndPtr - для драйверов БД, nil означает NULL
func (t *Task) DateEndPtr() *time.Time {
	if t.dateEnd.IsZero() {
		return nil
	}
	d := t.dateEnd
	return &d
}

// Equal сравнивает логические значения задач.
func (t *Task) Equal(o *Task) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.id == o.id &&
		t.title == o.title &&
		t.description == o.description &&
		t.status == o.status &&
		t.dateStart.Equal(o.dateStart) &&
		t.dateEnd.Equal(o.dateEnd)
}

// ParseDate разбирает ISO-подобную строку. Строка со смещением переводится
// в UTC, без смещения считается уже UTC. Точность - минута.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range inputLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return normalize(d), true
		}
	}
	return time.Time{}, false
}

func normalize(d time.Time) time.Time {
	d = d.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), 0, 0, time.UTC)
}

// TaskJSON - форма задачи на проводе
type TaskJSON struct {
	ID          *int64  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DateStart   string  `json:"date_start"`
	DateEnd     *string `json:"date_end"`
}

func (t *Task) ToJSON() TaskJSON {
	out := TaskJSON{
		Title:       t.title,
		Description: t.description,
		Status:      string(t.status),
		DateStart:   t.dateStart.Format(DateLayout),
	}
	if t.HasID() {
		id := t.id
		out.ID = &id
	}
	if end, ok := t.DateEnd(); ok {
		s := end.Format(DateLayout)
		out.DateEnd = &s
	}
	return out
}

func (t *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToJSON())
}

// AsMap - значения для аудита
func (t *Task) AsMap() map[string]any {
	j := t.ToJSON()
	m := map[string]any{
		"title":       j.Title,
		"description": j.Description,
		"status":      j.Status,
		"date_start":  j.DateStart,
		"date_end":    nil,
	}
	if j.DateEnd != nil {
		m["date_end"] = *j.DateEnd
	}
	return m
}
