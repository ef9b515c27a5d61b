package route_command

import (
	"context"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// Scheduler интерфейс use case записи на прием
type Scheduler interface {
	Execute(ctx context.Context, req *schedule_appointment.Request) (*schedule_appointment.Response, error)
}

// Commander интерфейс сервиса изменения записей
type Commander interface {
	Reschedule(ctx context.Context, id int64, newDate time.Time, newTime types.TimeString) (*domain.Appointment, error)
	Cancel(ctx context.Context, id int64, req models.CancelRequest) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
}

// Metrics интерфейс для учета результатов команд
type Metrics interface {
	ObserveOutcome(intent, outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
