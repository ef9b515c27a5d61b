package route_command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
)

var (
	// ErrIncompleteRequest базовая ошибка для IncompleteRequestError
	ErrIncompleteRequest = errors.New("route_command: incomplete request")

	// ErrUnknownIntent возвращается, когда намерение не распознано
	ErrUnknownIntent = errors.New("route_command: unknown intent")

	// ErrNotFound возвращается, когда по пациенту и дате не найдено ни одной записи
	ErrNotFound = errors.New("route_command: appointment not found")

	// ErrAmbiguousMatch возвращается, когда по пациенту и дате найдено несколько записей
	ErrAmbiguousMatch = errors.New("route_command: more than one appointment matches")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("route_command: internal error")
)

// IncompleteRequestError перечисляет обязательные поля, которых нет в команде
type IncompleteRequestError struct {
	Intent  domain.IntentKind
	Missing []string
}

func (e *IncompleteRequestError) Error() string {
	return fmt.Sprintf("%v: %s requires %s", ErrIncompleteRequest, e.Intent, strings.Join(e.Missing, ", "))
}

func (e *IncompleteRequestError) Unwrap() error {
	return ErrIncompleteRequest
}
