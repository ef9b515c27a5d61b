package schedule_appointment

import "errors"

var (
	// ErrServiceNotFound возвращается, когда ни одна услуга не подходит под запрос
	ErrServiceNotFound = errors.New("schedule_appointment: service not found")

	// ErrConflictDetected возвращается, когда все попытки записи проиграли параллельным записям
	ErrConflictDetected = errors.New("schedule_appointment: slot was taken concurrently, try again")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("schedule_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("schedule_appointment: internal error")
)
