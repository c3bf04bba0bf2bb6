package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func int64Ptr(i int64) *int64 { return &i }

func validInput() TaskInput {
	return TaskInput{
		Title:       "Estudar Go",
		Description: "Capítulo de interfaces",
		DateStart:   "2024-01-01T08:00",
		DateEnd:     strPtr("2024-01-01T09:00"),
	}
}

func TestNewTaskValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *TaskInput)
		wantErr string
	}{
		{"valid", func(in *TaskInput) {}, ""},
		{"zero id", func(in *TaskInput) { in.ID = int64Ptr(0) }, "Id deve ser um inteiro positivo"},
		{"negative id", func(in *TaskInput) { in.ID = int64Ptr(-3) }, "Id deve ser um inteiro positivo"},
		{"empty title", func(in *TaskInput) { in.Title = "" }, "Título não pode estar vazio"},
		{"blank title", func(in *TaskInput) { in.Title = "  \t " }, "Título não pode estar vazio"},
		{"blank description", func(in *TaskInput) { in.Description = "\n" }, "Descrição não pode estar vazia"},
		{"bad status", func(in *TaskInput) { in.Status = strPtr("pending") }, "Status só pode aceitar os valores 'done' e 'ongoing'"},
		{"empty start", func(in *TaskInput) { in.DateStart = "" }, "Data de início não pode ser nula"},
		{"bad start", func(in *TaskInput) { in.DateStart = "ontem" }, "Formato de data de início está inválido. Tente YYYY-mm-ddTHH:mm"},
		{"bad end", func(in *TaskInput) { in.DateEnd = strPtr("31/12/2024") }, "Formato de data final está inválido. Tente YYYY-mm-ddTHH:mm"},
		{"end equals start", func(in *TaskInput) { in.DateEnd = strPtr("2024-01-01T08:00") }, "O prazo final não pode ser anterior ou igual à data de início"},
		{"end before start", func(in *TaskInput) { in.DateEnd = strPtr("2023-12-31") }, "O prazo final não pode ser anterior ou igual à data de início"},
		{"end absent", func(in *TaskInput) { in.DateEnd = nil }, ""},
		{"end empty", func(in *TaskInput) { in.DateEnd = strPtr("") }, ""},
		// первая ошибка побеждает
		{"title checked before dates", func(in *TaskInput) { in.Title = ""; in.DateStart = "" }, "Título não pode estar vazio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			task, err := NewTask(in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if task == nil {
					t.Fatal("expected task")
				}
				return
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if MessageOf(err) != tt.wantErr {
				t.Errorf("expected %q, got %q", tt.wantErr, MessageOf(err))
			}
		})
	}
}

func TestStatusNormalization(t *testing.T) {
	tests := []struct {
		in   *string
		want TaskStatus
	}{
		{nil, StatusOngoing},
		{strPtr(""), StatusOngoing},
		{strPtr("   "), StatusOngoing},
		{strPtr(" done\t"), StatusDone},
		{strPtr("done"), StatusDone},
		{strPtr("DONE"), StatusDone},
		{strPtr("Ongoing"), StatusOngoing},
		{strPtr("oNgOiNg"), StatusOngoing},
	}

	for _, tt := range tests {
		task := &Task{}
		if err := task.SetStatus(tt.in); err != nil {
			t.Fatalf("SetStatus(%v) error = %v", tt.in, err)
		}
		if task.Status() != tt.want {
			t.Errorf("SetStatus(%v) = %q, want %q", tt.in, task.Status(), tt.want)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	inputs := []string{
		"2024-03-10T14:30",
		"2024-03-10T14:30:45",
		"2024-03-10 14:30",
		"2024-03-10 14:30:59",
		"2024-03-10T11:30:00-03:00",
		"2024-03-10T19:30:00+05:00",
		"2024-03-10T14:30:00Z",
	}
	for _, in := range inputs {
		got, ok := ParseDate(in)
		if !ok {
			t.Errorf("ParseDate(%q) failed", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}

	day, ok := ParseDate("2024-03-10")
	if !ok || !day.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate(date only) = %v, %v", day, ok)
	}
}

func TestDateEndMustBeAfterStart(t *testing.T) {
	in := validInput()
	in.DateStart = "2024-01-01T10:00"

	in.DateEnd = strPtr("2024-01-01T10:01")
	if _, err := NewTask(in); err != nil {
		t.Errorf("one minute after start must pass, got %v", err)
	}

	in.DateEnd = strPtr("2024-01-01T10:00:30")
	if _, err := NewTask(in); KindOf(err) != KindValidation {
		t.Errorf("same minute must fail, got %v", err)
	}
}

func TestDateOrderComparesInstants(t *testing.T) {
	// 11:00+05:00 = 06:00Z, раньше начала
	in := validInput()
	in.DateStart = "2024-01-01T10:00:00Z"
	in.DateEnd = strPtr("2024-01-01T11:00:00+05:00")
	_, err := NewTask(in)
	if MessageOf(err) != "O prazo final não pode ser anterior ou igual à data de início" {
		t.Errorf("end before start in another offset must fail, got %v", err)
	}

	// 10:00+03:00 = 07:00Z, конец 08:00Z позже
	in.DateStart = "2024-01-01T10:00:00+03:00"
	in.DateEnd = strPtr("2024-01-01T08:00:00Z")
	task, err := NewTask(in)
	if err != nil {
		t.Fatalf("end after start in another offset must pass, got %v", err)
	}
	if got := task.ToJSON(); got.DateStart != "2024-01-01T07:00" || *got.DateEnd != "2024-01-01T08:00" {
		t.Errorf("expected UTC output, got %s / %s", got.DateStart, *got.DateEnd)
	}

	// одинаковый момент в разных смещениях
	in.DateStart = "2024-01-01T12:00:00+02:00"
	in.DateEnd = strPtr("2024-01-01T10:00:00Z")
	if _, err := NewTask(in); KindOf(err) != KindValidation {
		t.Errorf("same instant must fail, got %v", err)
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	in := validInput()
	in.ID = int64Ptr(12)
	in.Status = strPtr("DONE")
	task, err := NewTask(in)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":12,"title":"Estudar Go","description":"Capítulo de interfaces","status":"done","date_start":"2024-01-01T08:00","date_end":"2024-01-01T09:00"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var wire TaskJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	status := wire.Status
	again, err := NewTask(TaskInput{
		ID:          wire.ID,
		Title:       wire.Title,
		Description: wire.Description,
		Status:      &status,
		DateStart:   wire.DateStart,
		DateEnd:     wire.DateEnd,
	})
	if err != nil {
		t.Fatalf("NewTask(wire) error = %v", err)
	}
	if !again.Equal(task) {
		t.Errorf("round trip mismatch: %+v vs %+v", again.ToJSON(), task.ToJSON())
	}
}

func TestTaskJSONWithoutOptionalFields(t *testing.T) {
	in := validInput()
	in.DateEnd = nil
	task, err := NewTask(in)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}

	data, _ := json.Marshal(task)
	want := `{"id":null,"title":"Estudar Go","description":"Capítulo de interfaces","status":"ongoing","date_start":"2024-01-01T08:00","date_end":null}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestRestoreTask(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	task, err := RestoreTask(7, "a", "b", "done", start, &end)
	if err != nil {
		t.Fatalf("RestoreTask() error = %v", err)
	}
	if task.ID() != 7 || task.Status() != StatusDone {
		t.Errorf("unexpected task %+v", task.ToJSON())
	}

	if _, err := RestoreTask(7, "a", "b", "done", start, &start); KindOf(err) != KindValidation {
		t.Errorf("expected validation error for end == start, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), ErrTaskNotFound)
	if KindOf(wrapped) != KindNotFound {
		t.Errorf("expected not found kind through wrapping, got %v", KindOf(wrapped))
	}
	if !errors.Is(NotFound("Tarefa não encontrada"), ErrTaskNotFound) {
		t.Error("expected errors.Is to match by kind and message")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("plain errors must be internal")
	}
	storage := Storage("create task", errors.New("boom"))
	if KindOf(storage) != KindStorage || MessageOf(storage) != "create task" {
		t.Errorf("unexpected storage error %v", storage)
	}
}

func TestNewAuditMessageChanges(t *testing.T) {
	oldTask, _ := NewTask(validInput())
	in := validInput()
	in.Status = strPtr("done")
	newTask, _ := NewTask(in)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	msg := NewAuditMessage(ActionUpdate, 1, oldTask, newTask, now)

	if len(msg.Changes) != 1 {
		t.Fatalf("expected only status change, got %v", msg.Changes)
	}
	change := msg.Changes["status"].(map[string]any)
	if change["old"] != "ongoing" || change["new"] != "done" {
		t.Errorf("unexpected change %v", change)
	}

	created := NewAuditMessage(ActionCreate, 1, nil, newTask, now)
	if created.OldValues != nil || created.Changes != nil || created.NewValues == nil {
		t.Errorf("unexpected create message %+v", created)
	}
}
