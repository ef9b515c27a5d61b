package reply

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/integrations/intentparser"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments"
	"github.com/m04kA/SMC-PodologyScheduler/internal/usecase/route_command"
	"github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
)

const (
	msgBooked          = "Вы записаны на %s (%s) к специалисту %s, %s в %s."
	msgNoAvailability  = "На %s в %s нет свободных специалистов. Пожалуйста, выберите другое время."
	msgRescheduled     = "Запись перенесена на %s в %s."
	msgCancelled       = "Запись на %s в %s отменена."
	msgListedEmpty     = "На %s записей нет."
	msgListedHeader    = "Записи на %s:"
	msgIncomplete      = "Не хватает данных: %s."
	msgUnknownIntent   = "Не удалось понять запрос. Укажите, что нужно: записаться, перенести или отменить запись."
	msgNotFound        = "Запись не найдена. Проверьте ФИО и дату."
	msgAmbiguous       = "Найдено несколько записей. Уточните ФИО пациента."
	msgServiceNotFound = "Такая услуга не найдена."
	msgInvalidInput    = "Некорректные данные запроса."
	msgConflict        = "Это время только что заняли. Пожалуйста, выберите другое время."
	msgScheduleBusy    = "Новое время недоступно у вашего специалиста. Пожалуйста, выберите другое."
	msgCannotChange    = "Эту запись нельзя изменить."
	msgParserFailed    = "Не удалось разобрать сообщение. Попробуйте написать иначе."
	msgInternal        = "Произошла ошибка. Пожалуйста, попробуйте позже."
)

var fieldNames = map[string]string{
	"patientName": "ФИО пациента",
	"service":     "услуга",
	"date":        "дата",
	"time":        "время",
	"newDate":     "новая дата",
	"newTime":     "новое время",
}

// Render текст ответа для результата команды
func Render(result *route_command.Result) string {
	switch result.Outcome {
	case route_command.OutcomeBooked:
		professional := ""
		if result.Professional != nil {
			professional = result.Professional.Name
		}
		service := ""
		duration := 0
		if result.Service != nil {
			service = result.Service.Name
			duration = result.Service.DurationMinutes
		}
		return fmt.Sprintf(msgBooked, service, minutes(duration), professional,
			result.StartAt.Format(domain.DateFormat), result.StartAt.Format(domain.TimeFormat))

	case route_command.OutcomeNoAvailability:
		return fmt.Sprintf(msgNoAvailability, result.StartAt.Format(domain.DateFormat), result.StartAt.Format(domain.TimeFormat))

	case route_command.OutcomeRescheduled:
		return fmt.Sprintf(msgRescheduled, result.StartAt.Format(domain.DateFormat), result.StartAt.Format(domain.TimeFormat))

	case route_command.OutcomeCancelled:
		return fmt.Sprintf(msgCancelled, result.StartAt.Format(domain.DateFormat), result.StartAt.Format(domain.TimeFormat))

	case route_command.OutcomeListed:
		date := result.Date.Format(domain.DateFormat)
		if len(result.Appointments) == 0 {
			return fmt.Sprintf(msgListedEmpty, date)
		}
		lines := []string{fmt.Sprintf(msgListedHeader, date)}
		for _, a := range result.Appointments {
			lines = append(lines, fmt.Sprintf("%s-%s %s, %s (%s)",
				a.StartAt.Format(domain.TimeFormat), a.EndAt().Format(domain.TimeFormat),
				a.PatientName, a.ServiceName, a.ProfessionalName))
		}
		return strings.Join(lines, "\n")
	}
	return msgInternal
}

// RenderError текст ответа и HTTP статус для ошибки
func RenderError(err error) (string, int) {
	var incomplete *route_command.IncompleteRequestError
	if errors.As(err, &incomplete) {
		missing := make([]string, 0, len(incomplete.Missing))
		for _, f := range incomplete.Missing {
			if name, ok := fieldNames[f]; ok {
				missing = append(missing, name)
				continue
			}
			missing = append(missing, f)
		}
		return fmt.Sprintf(msgIncomplete, strings.Join(missing, ", ")), http.StatusBadRequest
	}

	switch {
	case errors.Is(err, route_command.ErrUnknownIntent):
		return msgUnknownIntent, http.StatusBadRequest
	case errors.Is(err, route_command.ErrNotFound), errors.Is(err, appointments.ErrAppointmentNotFound):
		return msgNotFound, http.StatusNotFound
	case errors.Is(err, route_command.ErrAmbiguousMatch):
		return msgAmbiguous, http.StatusConflict
	case errors.Is(err, schedule_appointment.ErrServiceNotFound):
		return msgServiceNotFound, http.StatusNotFound
	case errors.Is(err, schedule_appointment.ErrInvalidInput), errors.Is(err, appointments.ErrInvalidInput):
		return msgInvalidInput, http.StatusBadRequest
	case errors.Is(err, schedule_appointment.ErrConflictDetected), errors.Is(err, appointments.ErrConflictDetected):
		return msgConflict, http.StatusConflict
	case errors.Is(err, appointments.ErrScheduleConflict):
		return msgScheduleBusy, http.StatusConflict
	case errors.Is(err, appointments.ErrInvalidStatusTransition):
		return msgCannotChange, http.StatusBadRequest
	case errors.Is(err, intentparser.ErrEmptyText), errors.Is(err, intentparser.ErrInvalidResponse):
		return msgParserFailed, http.StatusBadRequest
	case errors.Is(err, intentparser.ErrUnavailable):
		return msgParserFailed, http.StatusServiceUnavailable
	}
	return msgInternal, http.StatusInternalServerError
}

func minutes(n int) string {
	return fmt.Sprintf("%d мин", n)
}
