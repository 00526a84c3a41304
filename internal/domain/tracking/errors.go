package tracking

import (
	"errors"
	"fmt"
)

// Базовые ошибки домена для проверки через errors.Is().
var (
	// ErrAlreadyStarted - дата начала уже установлена.
	ErrAlreadyStarted = errors.New("tracking already started")

	// ErrNotStarted - отсчёт ещё не начат.
	ErrNotStarted = errors.New("tracking not started")

	// ErrInvalidDate - дата не в формате YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNoChange - мутация ничего не изменила, сохранять нечего.
	ErrNoChange = errors.New("no change")
)

// DomainError описывает ошибку домена с контекстом операции.
type DomainError struct {
	Op    string // операция, например "StartedOn"
	Kind  error  // базовая ошибка для errors.Is()
	Value string // значение, вызвавшее ошибку
	Err   error  // исходная ошибка (необязательно)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tracking.%s: %v %q: %v", e.Op, e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("tracking.%s: %v %q", e.Op, e.Kind, e.Value)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	return e.Kind != nil && errors.Is(e.Kind, target)
}

// WrapError оборачивает ошибку контекстом домена.
func WrapError(op string, kind error, value string, err error) *DomainError {
	return &DomainError{Op: op, Kind: kind, Value: value, Err: err}
}
