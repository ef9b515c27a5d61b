package get_appointments

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
)

const msgInvalidParams = "некорректные параметры запроса"

type Handler struct {
	service AppointmentService
	loc     *time.Location
	now     func() time.Time
	logger  Logger
}

func NewHandler(service AppointmentService, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		service: service,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Handle GET /api/v1/appointments
// Query params: date, locationId, professionalId, patient, includeCancelled (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	filter, err := ToFilter(r.URL.Query(), handlers.Today(h.now(), h.loc), h.loc)
	if err != nil {
		h.logger.Warn("GET /appointments - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("GET /appointments - Failed to list appointments: date=%s, error=%v",
			filter.Date.Format(domain.DateFormat), err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /appointments - Appointments retrieved successfully: date=%s, count=%d",
		filter.Date.Format(domain.DateFormat), len(list))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAppointmentList(list))
}
