package cancel_appointment

import (
	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
)

// CancelAppointmentRequest HTTP request model
type CancelAppointmentRequest struct {
	CancelledBy        string  `json:"cancelledBy" validate:"required,oneof=staff patient"`
	CancellationReason *string `json:"cancellationReason,omitempty" validate:"omitempty,max=500"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelAppointmentRequest) ToServiceRequest() models.CancelRequest {
	status := domain.StatusCancelledStaff
	if r.CancelledBy == "patient" {
		status = domain.StatusCancelledPatient
	}
	return models.CancelRequest{
		Status: status,
		Reason: r.CancellationReason,
	}
}
