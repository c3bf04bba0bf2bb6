package entity

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для выбора HTTP-кода на границе роутера.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error - ошибка с тегом Kind. Message безопасно показывать клиенту,
// Err хранит внутреннюю причину.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает по Kind и Message, чтобы errors.Is работал с ErrTaskNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf возвращает Kind первой *Error в цепочке, иначе KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf возвращает сообщение для клиента, если оно есть.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

var (
	ErrTaskNotFound = NotFound("Tarefa não encontrada")
	ErrInvalidID    = Validation("Id deve ser um inteiro positivo")
)
