package schedule_appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	scheduleAppointment "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidInput       = "некорректные данные записи"
	msgServiceNotFound    = "услуга не найдена"
	msgConflict           = "время только что заняли, выберите другое время"
	msgNoAvailability     = "на выбранное время нет свободных специалистов"
)

type Handler struct {
	useCase ScheduleAppointmentUseCase
	loc     *time.Location
	logger  Logger
}

func NewHandler(useCase ScheduleAppointmentUseCase, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		loc:     loc,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ScheduleAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(h.loc)
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, scheduleAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, scheduleAppointment.ErrServiceNotFound):
			h.logger.Warn("POST /appointments - Service not found: service=%q", req.Service)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, scheduleAppointment.ErrConflictDetected):
			h.logger.Warn("POST /appointments - Lost to concurrent bookings: date=%s, time=%s", req.Date, req.Time)
			handlers.RespondConflict(w, msgConflict)

		default:
			h.logger.Error("POST /appointments - Failed to schedule appointment: date=%s, time=%s, error=%v",
				req.Date, req.Time, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	if result.Outcome == scheduleAppointment.OutcomeNoAvailability {
		h.logger.Info("POST /appointments - No availability: date=%s, time=%s", req.Date, req.Time)
		response.Message = msgNoAvailability
		handlers.RespondJSON(w, http.StatusOK, response)
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%d, professional_id=%d",
		result.Appointment.ID, result.Professional.ID)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
