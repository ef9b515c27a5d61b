package schedule_appointment

import (
	"context"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
)

// CatalogRepository интерфейс справочников клиники
type CatalogRepository interface {
	ListServices(ctx context.Context) ([]*domain.Service, error)
	ListProfessionals(ctx context.Context, filter domain.ProfessionalsFilter) ([]*domain.Professional, error)
}

// AppointmentRepository интерфейс чтения снимка записей
type AppointmentRepository interface {
	ListByFilter(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
}

// PatientRepository интерфейс репозитория пациентов
type PatientRepository interface {
	FindOrCreateByName(ctx context.Context, fullName string) (*domain.Patient, error)
}

// Commander интерфейс сервиса, выполняющего запись
type Commander interface {
	Create(ctx context.Context, assignment models.Assignment) (*domain.Appointment, error)
}

// Metrics интерфейс для учета повторных подборов
type Metrics interface {
	ObserveReResolve()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
