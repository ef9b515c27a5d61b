package reschedule_appointment

// RescheduleAppointmentRequest HTTP request model
type RescheduleAppointmentRequest struct {
	Date string `json:"date" validate:"required,date"` // "2024-06-13"
	Time string `json:"time" validate:"required,starttime"` // "14:00"
}
