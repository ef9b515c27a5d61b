package route_command

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/reply"
	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	routeCommand "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/route_command"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// CommandRequest HTTP request model: уже разобранное намерение
type CommandRequest struct {
	Intent           string `json:"intent" validate:"required,oneof=schedule reschedule cancel query"`
	PatientName      string `json:"patientName,omitempty" validate:"max=200"`
	Service          string `json:"service,omitempty" validate:"max=200"`
	ProfessionalName string `json:"professionalName,omitempty" validate:"max=200"`
	Date             string `json:"date,omitempty" validate:"omitempty,date"`
	Time             string `json:"time,omitempty" validate:"omitempty,starttime"`
	NewDate          string `json:"newDate,omitempty" validate:"omitempty,date"`
	NewTime          string `json:"newTime,omitempty" validate:"omitempty,starttime"`
	LocationID       *int64 `json:"locationId,omitempty" validate:"omitempty,gt=0"`
	Channel          string `json:"channel,omitempty" validate:"omitempty,oneof=staff message"`
}

// CommandResponse HTTP response model
type CommandResponse struct {
	Intent       string                       `json:"intent"`
	Outcome      string                       `json:"outcome"`
	Message      string                       `json:"message"`
	Appointment  *models.AppointmentResponse  `json:"appointment,omitempty"`
	Appointments []models.AppointmentResponse `json:"appointments,omitempty"`
}

// ToCommand конвертирует HTTP запрос в команду
func (r *CommandRequest) ToCommand(today time.Time, loc *time.Location) (routeCommand.Command, error) {
	intent := domain.Intent{
		Kind:             domain.IntentKind(r.Intent),
		PatientName:      r.PatientName,
		Service:          r.Service,
		ProfessionalName: r.ProfessionalName,
		LocationID:       r.LocationID,
	}

	var err error
	if intent.Date, err = optionalDate(r.Date, loc); err != nil {
		return routeCommand.Command{}, err
	}
	if intent.NewDate, err = optionalDate(r.NewDate, loc); err != nil {
		return routeCommand.Command{}, err
	}
	if intent.Time, err = optionalTime(r.Time); err != nil {
		return routeCommand.Command{}, err
	}
	if intent.NewTime, err = optionalTime(r.NewTime); err != nil {
		return routeCommand.Command{}, err
	}

	channel := routeCommand.ChannelStaff
	if r.Channel == string(routeCommand.ChannelMessage) {
		channel = routeCommand.ChannelMessage
	}

	return routeCommand.Command{Intent: intent, Today: today, Channel: channel}, nil
}

// FromResult конвертирует результат команды в HTTP response
func FromResult(result *routeCommand.Result) *CommandResponse {
	resp := &CommandResponse{
		Intent:      string(result.Intent),
		Outcome:     string(result.Outcome),
		Message:     reply.Render(result),
		Appointment: models.FromDomainAppointment(result.Appointment),
	}
	if result.Outcome == routeCommand.OutcomeListed {
		resp.Appointments = models.FromDomainAppointmentList(result.Appointments).Appointments
	}
	return resp
}

func optionalDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := handlers.ParseDate(s, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalTime(s string) (*types.TimeString, error) {
	if s == "" {
		return nil, nil
	}
	t, err := types.NewTimeStringFromString(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
