package intentparser

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("intentparser: internal error")

	// ErrUnavailable возвращается, когда модель не ответила
	ErrUnavailable = errors.New("intentparser: model unavailable")

	// ErrInvalidResponse возвращается при ответе, который не удалось разобрать
	ErrInvalidResponse = errors.New("intentparser: invalid response")

	// ErrEmptyText возвращается для пустого сообщения
	ErrEmptyText = errors.New("intentparser: empty text")
)
