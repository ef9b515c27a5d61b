package inbound_message

import (
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
)

// MessageRequest входящее сообщение пациента
type MessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
	From string `json:"from,omitempty" validate:"max=200"`
}

// MessageResponse текст ответа пациенту
type MessageResponse struct {
	Reply       string                      `json:"reply"`
	Intent      string                      `json:"intent,omitempty"`
	Outcome     string                      `json:"outcome,omitempty"`
	Appointment *models.AppointmentResponse `json:"appointment,omitempty"`
}
