// Package apperr описывает таксономию ошибок, общую для хранилища, сценариев и хендлеров.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindStateConflict       Kind = "state_conflict"
	KindNotFound            Kind = "not_found"
	KindReferentialConflict Kind = "referential_conflict"
	KindConflict            Kind = "conflict"
	KindOracleUnavailable   Kind = "oracle_unavailable"
	KindAuth                Kind = "auth"
	KindInternal            Kind = "internal"
)

// Error несёт Kind и достаточно деталей, чтобы вызывающий понял, какое поле или сущность виноваты.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает по Kind, чтобы работал errors.Is(err, apperr.NotFound("")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func StateConflict(message string) *Error {
	return &Error{Kind: KindStateConflict, Message: message}
}

func ReferentialConflict(message string) *Error {
	return &Error{Kind: KindReferentialConflict, Message: message}
}

func Conflict(field, message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Field: field}
}

func OracleUnavailable(message string, err error) *Error {
	return &Error{Kind: KindOracleUnavailable, Message: message, Err: err}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf возвращает Kind ошибки или KindInternal, если *Error в цепочке нет.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus сопоставляет Kind с HTTP-кодом ответа.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindReferentialConflict, KindConflict:
		return http.StatusConflict
	case KindOracleUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
