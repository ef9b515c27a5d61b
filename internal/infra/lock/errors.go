package lock

import "errors"

var (
	// ErrLockTimeout возвращается, когда блокировку не удалось получить за отведенное время
	ErrLockTimeout = errors.New("lock: timed out waiting for professional lock")

	// ErrLockUnavailable возвращается при ошибке хранилища блокировок
	ErrLockUnavailable = errors.New("lock: lock storage unavailable")
)
