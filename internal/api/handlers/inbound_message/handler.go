package inbound_message

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/reply"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	routeCommand "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/route_command"
)

const msgInvalidRequestBody = "некорректное тело запроса"

type Handler struct {
	parser  IntentParser
	useCase RouteCommandUseCase
	loc     *time.Location
	now     func() time.Time
	logger  Logger
}

func NewHandler(parser IntentParser, useCase RouteCommandUseCase, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		parser:  parser,
		useCase: useCase,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Handle POST /api/v1/inbound/messages
//
// Ошибки, которые пациент может исправить сам, возвращаются со статусом 200
// и текстом ответа: канал доставляет reply отправителю как есть.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /inbound/messages - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	today := handlers.Today(h.now(), h.loc)

	// 1. Разбор намерения
	intent, err := h.parser.Parse(r.Context(), req.Text, today)
	if err != nil {
		h.respondError(w, req.From, "", err)
		return
	}

	// 2. Выполнение команды от имени пациента
	result, err := h.useCase.Route(r.Context(), routeCommand.Command{
		Intent:  intent,
		Today:   today,
		Channel: routeCommand.ChannelMessage,
	})
	if err != nil {
		h.respondError(w, req.From, string(intent.Kind), err)
		return
	}

	h.logger.Info("POST /inbound/messages - Message handled: from=%q, intent=%s, outcome=%s", req.From, result.Intent, result.Outcome)
	handlers.RespondJSON(w, http.StatusOK, MessageResponse{
		Reply:       reply.Render(result),
		Intent:      string(result.Intent),
		Outcome:     string(result.Outcome),
		Appointment: models.FromDomainAppointment(result.Appointment),
	})
}

func (h *Handler) respondError(w http.ResponseWriter, from, intent string, err error) {
	message, status := reply.RenderError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("POST /inbound/messages - Failed to handle message: from=%q, intent=%s, error=%v", from, intent, err)
		handlers.RespondJSON(w, status, MessageResponse{Reply: message, Intent: intent})
		return
	}

	h.logger.Warn("POST /inbound/messages - Message rejected: from=%q, intent=%s, error=%v", from, intent, err)
	handlers.RespondJSON(w, http.StatusOK, MessageResponse{Reply: message, Intent: intent})
}
