package get_appointments

import (
	"context"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
)

type AppointmentService interface {
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
