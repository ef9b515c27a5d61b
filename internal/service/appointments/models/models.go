package models

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
)

// Request модели

// Assignment полностью подобранное назначение: пациент, услуга, специалист и время
type Assignment struct {
	PatientID       int64
	ProfessionalID  int64
	ServiceID       int64
	LocationID      int64
	StartAt         time.Time
	DurationMinutes int
}

// EndAt возвращает конец интервала назначения
func (a Assignment) EndAt() time.Time {
	return a.StartAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// CancelRequest запрос на отмену записи
type CancelRequest struct {
	Status domain.AppointmentStatus // cancelled_staff или cancelled_patient
	Reason *string
}

// Response модели

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID              int64  `json:"id"`
	PatientID       int64  `json:"patientId"`
	ProfessionalID  int64  `json:"professionalId"`
	ServiceID       int64  `json:"serviceId"`
	LocationID      int64  `json:"locationId"`
	Date            string `json:"date"`      // "2024-06-11"
	StartTime       string `json:"startTime"` // "12:00"
	EndTime         string `json:"endTime"`   // "12:30"
	DurationMinutes int    `json:"durationMinutes"`
	Status          string `json:"status"`

	// Денормализованные данные
	PatientName      string `json:"patientName"`
	ProfessionalName string `json:"professionalName"`
	ServiceName      string `json:"serviceName"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		ProfessionalID:     a.ProfessionalID,
		ServiceID:          a.ServiceID,
		LocationID:         a.LocationID,
		Date:               a.StartAt.Format(domain.DateFormat),
		StartTime:          a.StartAt.Format(domain.TimeFormat),
		EndTime:            a.EndAt().Format(domain.TimeFormat),
		DurationMinutes:    a.DurationMinutes,
		Status:             string(a.Status),
		PatientName:        a.PatientName,
		ProfessionalName:   a.ProfessionalName,
		ServiceName:        a.ServiceName,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	if a.CancelledAt != nil {
		cancelledAt := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(list []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{Appointments: make([]AppointmentResponse, 0, len(list))}
	for _, a := range list {
		if a == nil {
			continue
		}
		resp.Appointments = append(resp.Appointments, *FromDomainAppointment(a))
	}
	return resp
}
