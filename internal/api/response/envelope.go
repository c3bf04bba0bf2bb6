package response

import (
	"encoding/json"
	"net/http"
	"reflect"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// InternalErrorMessage - единственный текст, который клиент видит при 500
const InternalErrorMessage = "Ocorreu um erro em nossos servidores"

// Envelope - JSend-обёртка каждого ответа
type Envelope struct {
	Status  string
	Code    int
	Data    any
	Message string
}

func Success(code int, data any) *Envelope {
	return &Envelope{Status: StatusSuccess, Code: code, Data: data}
}

func Fail(code int, message string) *Envelope {
	return &Envelope{Status: StatusFail, Code: code, Message: message}
}

func Error(code int, message string) *Envelope {
	return &Envelope{Status: StatusError, Code: code, Message: message}
}

func InternalError() *Envelope {
	return Error(http.StatusInternalServerError, InternalErrorMessage)
}

// HasBody - 204 никогда не несёт тела
func (e *Envelope) HasBody() bool {
	return e != nil && e.Code != http.StatusNoContent
}

type wire struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// MarshalJSON опускает data, если она nil или пустая коллекция,
// и message, если она пустая.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	w := wire{Status: e.Status, Code: e.Code, Message: e.Message}
	if !isEmpty(e.Data) {
		w.Data = e.Data
	}
	return json.Marshal(w)
}

func isEmpty(data any) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}
