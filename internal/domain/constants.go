package domain

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Business validation constants
const (
	MaxPatientNameLength        = 200
	MaxServiceTextLength        = 200
	MaxCancellationReasonLength = 500
	MaxInboundTextLength        = 4000
)

// CancelledStatuses статусы отмененных записей.
// Отмененные записи не участвуют в проверке пересечений.
var CancelledStatuses = []AppointmentStatus{
	StatusCancelledStaff,
	StatusCancelledPatient,
}

// ActiveStatuses статусы записей, занимающих время специалиста
var ActiveStatuses = []AppointmentStatus{
	StatusBooked,
	StatusConfirmed,
	StatusCompleted,
}
