package reschedule_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

type AppointmentService interface {
	Reschedule(ctx context.Context, id int64, newDate time.Time, newTime types.TimeString) (*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
