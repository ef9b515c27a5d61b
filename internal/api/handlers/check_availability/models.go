package check_availability

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	scheduleAppointment "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// ProfessionalResponse подобранный специалист
type ProfessionalResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	LocationID int64  `json:"locationId"`
}

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Available       bool                  `json:"available"`
	ServiceID       int64                 `json:"serviceId"`
	ServiceName     string                `json:"serviceName"`
	DurationMinutes int                   `json:"durationMinutes"`
	Date            string                `json:"date"`
	StartTime       string                `json:"startTime"`
	EndTime         string                `json:"endTime"`
	Professional    *ProfessionalResponse `json:"professional,omitempty"`
}

// ToUseCaseRequest формирует запрос из query параметров.
// Пациент для проверки не нужен, поэтому подставляется служебное имя.
func ToUseCaseRequest(query url.Values, loc *time.Location) (*scheduleAppointment.Request, error) {
	serviceID, err := handlers.ParseOptionalID(query.Get("serviceId"))
	if err != nil {
		return nil, fmt.Errorf("invalid serviceId: %w", err)
	}
	service := strings.TrimSpace(query.Get("service"))
	if serviceID == nil && service == "" {
		return nil, errors.New("service or serviceId is required")
	}

	date, err := handlers.ParseDate(query.Get("date"), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	startTime, err := types.NewTimeStringFromString(query.Get("time"))
	if err != nil {
		return nil, fmt.Errorf("invalid time: %w", err)
	}

	professionalID, err := handlers.ParseOptionalID(query.Get("professionalId"))
	if err != nil {
		return nil, fmt.Errorf("invalid professionalId: %w", err)
	}

	locationID, err := handlers.ParseOptionalID(query.Get("locationId"))
	if err != nil {
		return nil, fmt.Errorf("invalid locationId: %w", err)
	}

	return &scheduleAppointment.Request{
		PatientName:             "availability check",
		ServiceID:               serviceID,
		ServiceText:             service,
		Date:                    date,
		Time:                    startTime,
		PreferredProfessionalID: professionalID,
		ProfessionalName:        strings.TrimSpace(query.Get("professional")),
		LocationID:              locationID,
	}, nil
}

// FromProposal конвертирует результат подбора в HTTP response
func FromProposal(p *scheduleAppointment.Proposal) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		Available: p.Available(),
		Date:      p.StartAt.Format(domain.DateFormat),
		StartTime: p.StartAt.Format(domain.TimeFormat),
		EndTime:   p.EndAt.Format(domain.TimeFormat),
	}
	if p.Service != nil {
		resp.ServiceID = p.Service.ID
		resp.ServiceName = p.Service.Name
		resp.DurationMinutes = p.Service.DurationMinutes
	}
	if p.Professional != nil {
		resp.Professional = &ProfessionalResponse{
			ID:         p.Professional.ID,
			Name:       p.Professional.Name,
			LocationID: p.Professional.LocationID,
		}
	}
	return resp
}
