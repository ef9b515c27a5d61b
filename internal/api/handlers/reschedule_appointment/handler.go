package reschedule_appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgNotFound             = "запись не найдена"
	msgScheduleConflict     = "новое время недоступно у специалиста"
	msgCannotReschedule     = "запись не может быть перенесена"
	msgInvalidInput         = "некорректные дата или время"
)

type Handler struct {
	service AppointmentService
	loc     *time.Location
	logger  Logger
}

func NewHandler(service AppointmentService, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		service: service,
		loc:     loc,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/appointments/{appointmentId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.ParseID(mux.Vars(r)["appointmentId"])
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/reschedule - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req RescheduleAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	newDate, err := handlers.ParseDate(req.Date, h.loc)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}
	newTime, err := types.NewTimeStringFromString(req.Time)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}

	updated, err := h.service.Reschedule(r.Context(), appointmentID, newDate, newTime)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/{id}/reschedule - Appointment not found: appointment_id=%d", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrScheduleConflict):
			h.logger.Warn("PATCH /appointments/{id}/reschedule - Time unavailable: appointment_id=%d, date=%s, time=%s",
				appointmentID, req.Date, req.Time)
			handlers.RespondConflict(w, msgScheduleConflict)

		case errors.Is(err, appointments.ErrInvalidStatusTransition):
			h.logger.Warn("PATCH /appointments/{id}/reschedule - Cannot reschedule: appointment_id=%d", appointmentID)
			handlers.RespondBadRequest(w, msgCannotReschedule)

		case errors.Is(err, appointments.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /appointments/{id}/reschedule - Failed to reschedule: appointment_id=%d, error=%v",
				appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id}/reschedule - Appointment rescheduled successfully: appointment_id=%d", appointmentID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAppointment(updated))
}
