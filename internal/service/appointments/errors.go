package appointments

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")

	// ErrProfessionalNotFound возвращается, когда специалист из назначения не найден
	ErrProfessionalNotFound = errors.New("appointments: professional not found")

	// ErrConflictDetected возвращается, когда между подбором и записью специалист стал недоступен.
	// Вызывающий должен заново подобрать специалиста, а не повторять то же назначение.
	ErrConflictDetected = errors.New("appointments: conflicting appointment detected")

	// ErrScheduleConflict возвращается, когда новое время переноса недоступно
	ErrScheduleConflict = errors.New("appointments: requested time is not available")

	// ErrInvalidStatusTransition возвращается при недопустимой смене статуса
	ErrInvalidStatusTransition = errors.New("appointments: invalid status transition")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("appointments: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("appointments: internal error")
)
