// Package apperrors содержит общую таксономию ошибок сервиса.
// Все слои оборачивают эти значения через fmt.Errorf("...: %w", err),
// вызывающая сторона проверяет их через errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument некорректный или неполный ввод. Повторять не нужно.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation нарушение уникальности на стороне хранилища.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrConflict конкурентное обновление не удалось разрешить.
	ErrConflict = errors.New("conflict")
	// ErrGateway отказ платежного шлюза.
	ErrGateway = errors.New("payment gateway error")
	// ErrTransient временный отказ, запрос можно повторить.
	ErrTransient = errors.New("transient failure")
	// ErrRejected шлюз отклонил запрос, повтор не поможет.
	ErrRejected = errors.New("rejected")
	// ErrConfiguration ошибка конфигурации, фатальна при старте.
	ErrConfiguration = errors.New("configuration error")
)

// Invalid возвращает ErrInvalidArgument с пояснением.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound возвращает ErrNotFound с пояснением.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Kind возвращает корневую категорию ошибки или nil, если ошибка не из таксономии.
// Более конкретные категории проверяются первыми: ErrGateway может оборачивать ErrTransient.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidArgument,
		ErrNotFound,
		ErrConflict,
		ErrConstraintViolation,
		ErrConfiguration,
		ErrTransient,
		ErrRejected,
		ErrGateway,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
