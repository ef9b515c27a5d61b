package appointment

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrOverlap возвращается, когда у специалиста уже есть активная запись на пересекающийся интервал
	ErrOverlap = errors.New("appointment.repository: overlapping appointment exists")

	// ErrSerialization возвращается, когда параллельная транзакция изменила те же данные
	ErrSerialization = errors.New("appointment.repository: concurrent update, retry resolution")

	// ErrReferenceNotFound возвращается при ссылке на несуществующего пациента, специалиста или услугу
	ErrReferenceNotFound = errors.New("appointment.repository: referenced entity not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")
)

// Коды ошибок PostgreSQL
const (
	pqExclusionViolation   = "23P01"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqForeignKeyViolation  = "23503"
)

// mapWriteError переводит ошибки драйвера в ошибки репозитория.
// Возвращает nil, если ошибка не относится к известным кодам.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch string(pqErr.Code) {
	case pqExclusionViolation:
		return ErrOverlap
	case pqSerializationFailure, pqDeadlockDetected:
		return ErrSerialization
	case pqForeignKeyViolation:
		return ErrReferenceNotFound
	}
	return nil
}
