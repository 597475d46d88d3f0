// Package apierrors defines the domain error taxonomy. Every error carries an
// English and a Russian message; controllers map them onto HTTP status codes.
package apierrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNotFound Kind = iota
	KindAlreadyExists
	KindForbidden
	KindUnavailable
	KindRateLimited
	KindInvalidInput
	KindInternal
)

// APIError is the common shape of all recoverable domain errors.
type APIError struct {
	Kind Kind
	Eng  string
	Ru   string
}

func (e *APIError) Error() string { return e.Eng }

func ObjectNotFound(obj string, id any) *APIError {
	return &APIError{
		Kind: KindNotFound,
		Eng:  fmt.Sprintf("%s %v not found", obj, id),
		Ru:   fmt.Sprintf("Объект %s с идентификатором %v не найден", obj, id),
	}
}

func AlreadyExists(obj string, id any) *APIError {
	return &APIError{
		Kind: KindAlreadyExists,
		Eng:  fmt.Sprintf("%s %v already exists", obj, id),
		Ru:   fmt.Sprintf("Объект %s с идентификатором %v уже существует", obj, id),
	}
}

func ForbiddenAction(obj string) *APIError {
	return &APIError{
		Kind: KindForbidden,
		Eng:  fmt.Sprintf("forbidden action with %s", obj),
		Ru:   fmt.Sprintf("Запрещенное действие с объектом %s", obj),
	}
}

// NoneAvailable: no free unit of the requested item type.
func NoneAvailable(itemTypeID string) *APIError {
	return &APIError{
		Kind: KindUnavailable,
		Eng:  fmt.Sprintf("no available items of type %s", itemTypeID),
		Ru:   fmt.Sprintf("Нет доступных предметов типа %s", itemTypeID),
	}
}

// SessionExists: the user already holds a session of this item type.
func SessionExists(itemTypeID string) *APIError {
	return &APIError{
		Kind: KindAlreadyExists,
		Eng:  fmt.Sprintf("active session for item type %s already exists", itemTypeID),
		Ru:   fmt.Sprintf("Активная сессия аренды для типа %s уже существует", itemTypeID),
	}
}

// InactiveSession: a transition was requested on a session whose status does
// not permit it.
func InactiveSession(sessionID string) *APIError {
	return &APIError{
		Kind: KindForbidden,
		Eng:  fmt.Sprintf("session %s is not in a state that allows this action", sessionID),
		Ru:   fmt.Sprintf("Сессия %s находится в статусе, не допускающем это действие", sessionID),
	}
}

func InvalidDeadline() *APIError {
	return &APIError{
		Kind: KindInvalidInput,
		Eng:  "deadline must be in the future",
		Ru:   "Дедлайн должен быть в будущем",
	}
}

// ModifiedConcurrently: the row moved between the caller's read and write.
func ModifiedConcurrently(obj, id string) *APIError {
	return &APIError{
		Kind: KindAlreadyExists,
		Eng:  fmt.Sprintf("%s %s was modified concurrently, retry", obj, id),
		Ru:   fmt.Sprintf("Объект %s %s был изменен параллельно, повторите попытку", obj, id),
	}
}

func DateRangeError() *APIError {
	return &APIError{
		Kind: KindInvalidInput,
		Eng:  "both from_date and to_date must be supplied together",
		Ru:   "Параметры from_date и to_date должны быть указаны вместе",
	}
}

// RateLimitedError additionally carries the reset ETA in whole minutes.
type RateLimitedError struct {
	APIError
	RetryAfterMinutes int
}

func RateLimited(minutes int) *RateLimitedError {
	return &RateLimitedError{
		APIError: APIError{
			Kind: KindRateLimited,
			Eng:  fmt.Sprintf("too many reservation attempts, retry in %d min", minutes),
			Ru:   fmt.Sprintf("Слишком много попыток бронирования, повторите через %d мин", minutes),
		},
		RetryAfterMinutes: minutes,
	}
}

// KindOf extracts the taxonomy kind; unknown errors are internal.
func KindOf(err error) Kind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return KindRateLimited
	}
	return KindInternal
}
