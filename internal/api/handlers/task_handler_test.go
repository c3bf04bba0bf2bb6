package handlers

import (
	"testing"

	"github.com/St1cky1/tarefas-service/internal/entity"
	"github.com/St1cky1/tarefas-service/internal/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := parseID("15")
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	for _, raw := range []string{"", "0", "-2", "1.5", "abc", "99999999999999999999"} {
		_, err := parseID(raw)
		assert.ErrorIs(t, err, entity.ErrInvalidID, raw)
	}
}

func TestBuildTask(t *testing.T) {
	h := NewTaskHandler(nil, sanitize.NewSanitizer())

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"title":"a","description":"b","date_start":"2024-01-01T10:00"}`, ""},
		{"numeric id", `{"id":4,"title":"a","description":"b","date_start":"2024-01-01T10:00"}`, ""},
		{"string id", `{"id":"4","title":"a","description":"b","date_start":"2024-01-01T10:00"}`, ""},
		{"null optionals", `{"id":null,"title":"a","description":"b","status":null,"date_start":"2024-01-01T10:00","date_end":null}`, ""},
		{"empty body", ``, "Corpo da requisição inválido"},
		{"not json", `title=a`, "Corpo da requisição inválido"},
		{"array body", `[1,2]`, "Corpo da requisição inválido"},
		{"null body", `null`, "Corpo da requisição inválido"},
		{"trailing data", `{"title":"a","description":"b","date_start":"2024-01-01"} garbage{{`, "Corpo da requisição inválido"},
		{"two objects", `{"title":"a","description":"b","date_start":"2024-01-01"}{}`, "Corpo da requisição inválido"},
		{"trailing whitespace", "{\"title\":\"a\",\"description\":\"b\",\"date_start\":\"2024-01-01\"}\n\t ", ""},
		{"missing title", `{"description":"b","date_start":"2024-01-01T10:00"}`, "Campo obrigatório ausente: title"},
		{"missing date_start", `{"title":"a","description":"b"}`, "Campo obrigatório ausente: date_start"},
		{"numeric title", `{"title":5,"description":"b","date_start":"2024-01-01T10:00"}`, "Campo title deve ser texto"},
		{"numeric status", `{"title":"a","description":"b","status":1,"date_start":"2024-01-01T10:00"}`, "Campo status deve ser texto"},
		{"fractional id", `{"id":1.5,"title":"a","description":"b","date_start":"2024-01-01T10:00"}`, "Id deve ser um inteiro positivo"},
		{"zero id", `{"id":0,"title":"a","description":"b","date_start":"2024-01-01T10:00"}`, "Id deve ser um inteiro positivo"},
		{"bad status", `{"title":"a","description":"b","status":"later","date_start":"2024-01-01T10:00"}`, "Status só pode aceitar os valores 'done' e 'ongoing'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := h.buildTask([]byte(tt.body))
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, task)
				return
			}
			require.Error(t, err)
			assert.Equal(t, entity.KindValidation, entity.KindOf(err))
			assert.Equal(t, tt.wantErr, entity.MessageOf(err))
		})
	}
}

func TestBuildTaskSanitizesText(t *testing.T) {
	h := NewTaskHandler(nil, sanitize.NewSanitizer())

	task, err := h.buildTask([]byte(`{"title":"<script>","description":"a & b","date_start":"2024-01-01T10:00"}`))
	require.NoError(t, err)
	assert.Equal(t, "&lt;script&gt;", task.Title())
	assert.Equal(t, "a &amp; b", task.Description())
}
