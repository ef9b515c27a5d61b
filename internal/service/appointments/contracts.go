package appointments

import (
	"context"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей.
// InsertAtomic и UpdateTimeAtomic проверяют пересечения и пишут в одной атомарной операции.
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	ListByFilter(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
	InsertAtomic(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	UpdateTimeAtomic(ctx context.Context, id int64, startAt time.Time) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus, reason *string) (*domain.Appointment, error)
}

// ProfessionalRepository интерфейс репозитория специалистов
type ProfessionalRepository interface {
	GetProfessional(ctx context.Context, id int64, date *time.Time) (*domain.Professional, error)
}

// SlotLocker сериализует запись по одному специалисту
type SlotLocker interface {
	Lock(ctx context.Context, professionalID int64) (func(), error)
}

// Metrics интерфейс для учета конфликтов записи
type Metrics interface {
	ObserveConflict(operation string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
