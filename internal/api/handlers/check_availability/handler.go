package check_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	scheduleAppointment "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
)

const (
	msgInvalidParams   = "некорректные параметры запроса"
	msgServiceNotFound = "услуга не найдена"
)

type Handler struct {
	useCase AvailabilityUseCase
	loc     *time.Location
	logger  Logger
}

func NewHandler(useCase AvailabilityUseCase, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		loc:     loc,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability
// Query params: service | serviceId, date, time, professionalId, professional, locationId
// Проверяет только точное время и ничего не записывает.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ToUseCaseRequest(r.URL.Query(), h.loc)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	proposal, err := h.useCase.Resolve(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, scheduleAppointment.ErrInvalidInput):
			h.logger.Warn("GET /availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		case errors.Is(err, scheduleAppointment.ErrServiceNotFound):
			h.logger.Warn("GET /availability - Service not found: service=%q", req.ServiceText)
			handlers.RespondNotFound(w, msgServiceNotFound)

		default:
			h.logger.Error("GET /availability - Failed to resolve availability: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability - Resolved: service=%q, start=%s, available=%t",
		req.ServiceText, proposal.StartAt.Format(time.RFC3339), proposal.Available())
	handlers.RespondJSON(w, http.StatusOK, FromProposal(proposal))
}
