package check_availability

import (
	"context"

	scheduleAppointment "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
)

type AvailabilityUseCase interface {
	Resolve(ctx context.Context, req *scheduleAppointment.Request) (*scheduleAppointment.Proposal, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
