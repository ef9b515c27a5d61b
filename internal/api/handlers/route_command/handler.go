package route_command

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/reply"
)

const msgInvalidRequestBody = "некорректное тело запроса"

type Handler struct {
	useCase RouteCommandUseCase
	loc     *time.Location
	now     func() time.Time
	logger  Logger
}

func NewHandler(useCase RouteCommandUseCase, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Handle POST /api/v1/commands
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /commands - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	cmd, err := req.ToCommand(handlers.Today(h.now(), h.loc), h.loc)
	if err != nil {
		h.logger.Warn("POST /commands - Failed to parse command: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Route(r.Context(), cmd)
	if err != nil {
		message, status := reply.RenderError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("POST /commands - Failed to route command: intent=%s, error=%v", req.Intent, err)
		} else {
			h.logger.Warn("POST /commands - Command rejected: intent=%s, error=%v", req.Intent, err)
		}
		handlers.RespondError(w, status, message)
		return
	}

	h.logger.Info("POST /commands - Command routed successfully: intent=%s, outcome=%s", result.Intent, result.Outcome)
	handlers.RespondJSON(w, http.StatusOK, FromResult(result))
}
