package schedule_appointment

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	scheduleAppointment "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// ScheduleAppointmentRequest HTTP request model.
// Услуга задается serviceId или текстом service.
type ScheduleAppointmentRequest struct {
	PatientName      string `json:"patientName" validate:"required,max=200"`
	ServiceID        *int64 `json:"serviceId,omitempty" validate:"omitempty,gt=0"`
	Service          string `json:"service,omitempty" validate:"max=200"`
	Date             string `json:"date" validate:"required,date"` // "2024-06-11"
	Time             string `json:"time" validate:"required,starttime"` // "12:00"
	ProfessionalID   *int64 `json:"professionalId,omitempty" validate:"omitempty,gt=0"`
	ProfessionalName string `json:"professionalName,omitempty" validate:"max=200"`
	LocationID       *int64 `json:"locationId,omitempty" validate:"omitempty,gt=0"`
}

// ScheduleAppointmentResponse HTTP response model
type ScheduleAppointmentResponse struct {
	Outcome     string                      `json:"outcome"` // booked | no_availability
	Message     string                      `json:"message,omitempty"`
	Date        string                      `json:"date"`
	Time        string                      `json:"time"`
	ServiceID   int64                       `json:"serviceId"`
	ServiceName string                      `json:"serviceName"`
	Appointment *models.AppointmentResponse `json:"appointment,omitempty"`
	Attempts    int                         `json:"attempts"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ScheduleAppointmentRequest) ToUseCaseRequest(loc *time.Location) (*scheduleAppointment.Request, error) {
	date, err := time.ParseInLocation(domain.DateFormat, r.Date, loc)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.Time)
	if err != nil {
		return nil, err
	}

	return &scheduleAppointment.Request{
		PatientName:             r.PatientName,
		ServiceID:               r.ServiceID,
		ServiceText:             r.Service,
		Date:                    date,
		Time:                    startTime,
		PreferredProfessionalID: r.ProfessionalID,
		ProfessionalName:        r.ProfessionalName,
		LocationID:              r.LocationID,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *scheduleAppointment.Response) *ScheduleAppointmentResponse {
	out := &ScheduleAppointmentResponse{
		Outcome:     string(resp.Outcome),
		Date:        resp.StartAt.Format(domain.DateFormat),
		Time:        resp.StartAt.Format(domain.TimeFormat),
		Appointment: models.FromDomainAppointment(resp.Appointment),
		Attempts:    resp.Attempts,
	}
	if resp.Service != nil {
		out.ServiceID = resp.Service.ID
		out.ServiceName = resp.Service.Name
	}
	if out.Appointment != nil && resp.Professional != nil {
		out.Appointment.ProfessionalName = resp.Professional.Name
		out.Appointment.ServiceName = out.ServiceName
	}
	return out
}
