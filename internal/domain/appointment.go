package domain

import "time"

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusBooked           AppointmentStatus = "booked"
	StatusConfirmed        AppointmentStatus = "confirmed"
	StatusCancelledStaff   AppointmentStatus = "cancelled_staff"
	StatusCancelledPatient AppointmentStatus = "cancelled_patient"
	StatusCompleted        AppointmentStatus = "completed"
)

// IsValid returns true if the status is one of the known statuses
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusBooked, StatusConfirmed, StatusCancelledStaff, StatusCancelledPatient, StatusCompleted:
		return true
	}
	return false
}

// IsCancelled returns true for both cancellation statuses
func (s AppointmentStatus) IsCancelled() bool {
	return s == StatusCancelledStaff || s == StatusCancelledPatient
}

// Appointment represents a persisted appointment.
// The same type is used as the snapshot of existing bookings during resolution.
type Appointment struct {
	ID              int64
	PatientID       int64
	ProfessionalID  int64
	ServiceID       int64
	LocationID      int64
	StartAt         time.Time
	DurationMinutes int
	Status          AppointmentStatus

	// Denormalized data for lookups and replies
	PatientName      string
	ProfessionalName string
	ServiceName      string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndAt returns the exclusive end of the appointment interval
func (a *Appointment) EndAt() time.Time {
	return a.StartAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsActive returns true if the appointment occupies its professional's time
func (a *Appointment) IsActive() bool {
	return !a.Status.IsCancelled()
}

// IsCancelled returns true if the appointment has been cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status.IsCancelled()
}

// CanBeRescheduled returns true if the appointment can be moved
func (a *Appointment) CanBeRescheduled() bool {
	return a.Status == StatusBooked || a.Status == StatusConfirmed
}

// CanTransitionTo reports whether the status change is allowed.
// booked -> confirmed | cancelled_* | completed; confirmed -> cancelled_* | completed.
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	switch a.Status {
	case StatusBooked:
		return next == StatusConfirmed || next == StatusCompleted || next.IsCancelled()
	case StatusConfirmed:
		return next == StatusCompleted || next.IsCancelled()
	default:
		return false
	}
}

// AppointmentsFilter фильтр для выборки записей
type AppointmentsFilter struct {
	Date            *time.Time // Календарный день (в часовом поясе клиники)
	LocationID      *int64     // Фильтр по кабинету/филиалу (опционально)
	ProfessionalID  *int64     // Фильтр по специалисту (опционально)
	PatientName     *string    // Подстрока ФИО пациента без учета регистра (опционально)
	ExcludeID       *int64     // Исключить запись (при переносе)
	IncludeInactive bool       // Включать ли отмененные записи
}
