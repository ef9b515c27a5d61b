package route_command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/ptr"
)

// Метки результата с ошибкой для метрик
const (
	outcomeIncomplete = "incomplete"
	outcomeNotFound   = "not_found"
	outcomeAmbiguous  = "ambiguous"
	outcomeConflict   = "conflict"
	outcomeRejected   = "rejected"
	outcomeError      = "error"
)

// UseCase маршрутизирует команды schedule, reschedule, cancel и query
type UseCase struct {
	scheduler Scheduler
	commander Commander
	metrics   Metrics
	logger    Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(scheduler Scheduler, commander Commander, metrics Metrics, logger Logger) *UseCase {
	return &UseCase{
		scheduler: scheduler,
		commander: commander,
		metrics:   metrics,
		logger:    logger,
	}
}

// Route выполняет команду.
//
// Поля намерения не считаются проверенными: недостающие обязательные поля
// возвращаются как IncompleteRequestError. Для переноса и отмены запись ищется
// по подстроке ФИО пациента и дате; несколько совпадений дают ErrAmbiguousMatch.
func (uc *UseCase) Route(ctx context.Context, cmd Command) (*Result, error) {
	uc.logger.Info("Route: intent=%s, channel=%s, patient=%q", cmd.Intent.Kind, cmd.Channel, cmd.Intent.PatientName)

	var (
		result *Result
		err    error
	)

	switch cmd.Intent.Kind {
	case domain.IntentSchedule:
		result, err = uc.schedule(ctx, cmd)
	case domain.IntentReschedule:
		result, err = uc.reschedule(ctx, cmd)
	case domain.IntentCancel:
		result, err = uc.cancel(ctx, cmd)
	case domain.IntentQuery:
		result, err = uc.query(ctx, cmd)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownIntent, cmd.Intent.Kind)
	}

	uc.observe(cmd.Intent.Kind, result, err)
	return result, err
}

func (uc *UseCase) schedule(ctx context.Context, cmd Command) (*Result, error) {
	in := cmd.Intent

	// 1. Проверка обязательных полей
	if err := checkRequired(in.Kind, map[string]bool{
		"patientName": strings.TrimSpace(in.PatientName) != "",
		"service":     strings.TrimSpace(in.Service) != "",
		"date":        in.Date != nil,
		"time":        in.Time != nil && !in.Time.IsZero(),
	}, "patientName", "service", "date", "time"); err != nil {
		return nil, err
	}

	// 2. Подбор специалиста и запись
	resp, err := uc.scheduler.Execute(ctx, &schedule_appointment.Request{
		PatientName:      in.PatientName,
		ServiceText:      in.Service,
		Date:             *in.Date,
		Time:             *in.Time,
		ProfessionalName: in.ProfessionalName,
		LocationID:       in.LocationID,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Intent:       in.Kind,
		Outcome:      OutcomeNoAvailability,
		Date:         domain.StartOfDay(*in.Date),
		StartAt:      resp.StartAt,
		Service:      resp.Service,
		Professional: resp.Professional,
		Appointment:  resp.Appointment,
	}
	if resp.Outcome == schedule_appointment.OutcomeBooked {
		result.Outcome = OutcomeBooked
	}
	return result, nil
}

func (uc *UseCase) reschedule(ctx context.Context, cmd Command) (*Result, error) {
	in := cmd.Intent

	// 1. Проверка обязательных полей
	if err := checkRequired(in.Kind, map[string]bool{
		"patientName": strings.TrimSpace(in.PatientName) != "",
		"date":        in.Date != nil,
		"newDate":     in.NewDate != nil,
		"newTime":     in.NewTime != nil && !in.NewTime.IsZero(),
	}, "patientName", "date", "newDate", "newTime"); err != nil {
		return nil, err
	}

	// 2. Поиск единственной записи
	target, err := uc.findTarget(ctx, in)
	if err != nil {
		return nil, err
	}

	// 3. Перенос к тому же специалисту
	updated, err := uc.commander.Reschedule(ctx, target.ID, *in.NewDate, *in.NewTime)
	if err != nil {
		return nil, err
	}

	return &Result{
		Intent:      in.Kind,
		Outcome:     OutcomeRescheduled,
		Date:        domain.StartOfDay(updated.StartAt),
		StartAt:     updated.StartAt,
		Appointment: updated,
	}, nil
}

func (uc *UseCase) cancel(ctx context.Context, cmd Command) (*Result, error) {
	in := cmd.Intent

	// 1. Проверка обязательных полей
	if err := checkRequired(in.Kind, map[string]bool{
		"patientName": strings.TrimSpace(in.PatientName) != "",
		"date":        in.Date != nil,
	}, "patientName", "date"); err != nil {
		return nil, err
	}

	// 2. Поиск единственной записи; повторная отмена находит уже отмененную
	target, err := uc.findTarget(ctx, in)
	if errors.Is(err, ErrNotFound) {
		target, err = uc.findCancelled(ctx, in, err)
	}
	if err != nil {
		return nil, err
	}

	// 3. Отмена от имени источника команды
	status := domain.StatusCancelledStaff
	if cmd.Channel == ChannelMessage {
		status = domain.StatusCancelledPatient
	}
	cancelled, err := uc.commander.Cancel(ctx, target.ID, models.CancelRequest{Status: status})
	if err != nil {
		return nil, err
	}

	return &Result{
		Intent:      in.Kind,
		Outcome:     OutcomeCancelled,
		Date:        domain.StartOfDay(cancelled.StartAt),
		StartAt:     cancelled.StartAt,
		Appointment: cancelled,
	}, nil
}

func (uc *UseCase) query(ctx context.Context, cmd Command) (*Result, error) {
	in := cmd.Intent

	date := cmd.Today
	if in.Date != nil {
		date = *in.Date
	}
	if date.IsZero() {
		return nil, &IncompleteRequestError{Intent: in.Kind, Missing: []string{"date"}}
	}
	date = domain.StartOfDay(date)

	filter := domain.AppointmentsFilter{
		Date:       &date,
		LocationID: in.LocationID,
	}
	if name := strings.TrimSpace(in.PatientName); name != "" {
		filter.PatientName = &name
	}

	list, err := uc.commander.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Result{
		Intent:       in.Kind,
		Outcome:      OutcomeListed,
		Date:         date,
		Appointments: list,
	}, nil
}

// findTarget ищет активную запись пациента на дату
func (uc *UseCase) findTarget(ctx context.Context, in domain.Intent) (*domain.Appointment, error) {
	date := domain.StartOfDay(*in.Date)
	name := strings.TrimSpace(in.PatientName)

	list, err := uc.commander.List(ctx, domain.AppointmentsFilter{
		Date:        &date,
		PatientName: ptr.Ptr(name),
	})
	if err != nil {
		uc.logger.Error("findTarget: failed to list appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to find appointment: %v", ErrInternal, err)
	}

	return uc.single(list, name, date)
}

// findCancelled ищет среди отмененных записей пациента на дату.
// Если таких нет, возвращается исходная ошибка notFound.
func (uc *UseCase) findCancelled(ctx context.Context, in domain.Intent, notFound error) (*domain.Appointment, error) {
	date := domain.StartOfDay(*in.Date)
	name := strings.TrimSpace(in.PatientName)

	list, err := uc.commander.List(ctx, domain.AppointmentsFilter{
		Date:            &date,
		PatientName:     ptr.Ptr(name),
		IncludeInactive: true,
	})
	if err != nil {
		uc.logger.Error("findCancelled: failed to list appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to find appointment: %v", ErrInternal, err)
	}

	cancelled := make([]*domain.Appointment, 0, len(list))
	for _, a := range list {
		if a.IsCancelled() {
			cancelled = append(cancelled, a)
		}
	}
	if len(cancelled) == 0 {
		return nil, notFound
	}
	return uc.single(cancelled, name, date)
}

// single возвращает единственную запись или ошибку поиска
func (uc *UseCase) single(list []*domain.Appointment, name string, date time.Time) (*domain.Appointment, error) {
	switch len(list) {
	case 0:
		uc.logger.Warn("findTarget: no appointment for patient=%q on %s", name, date.Format(domain.DateFormat))
		return nil, fmt.Errorf("%w: patient %q on %s", ErrNotFound, name, date.Format(domain.DateFormat))
	case 1:
		return list[0], nil
	default:
		uc.logger.Warn("findTarget: %d appointments match patient=%q on %s", len(list), name, date.Format(domain.DateFormat))
		return nil, fmt.Errorf("%w: %d appointments for %q on %s", ErrAmbiguousMatch, len(list), name, date.Format(domain.DateFormat))
	}
}

func (uc *UseCase) observe(kind domain.IntentKind, result *Result, err error) {
	if uc.metrics == nil {
		return
	}

	intent := string(kind)
	if !kind.IsValid() {
		intent = string(domain.IntentUnknown)
	}

	if err == nil {
		uc.metrics.ObserveOutcome(intent, string(result.Outcome))
		return
	}
	uc.metrics.ObserveOutcome(intent, classify(err))
}

func classify(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteRequest), errors.Is(err, ErrUnknownIntent):
		return outcomeIncomplete
	case errors.Is(err, ErrNotFound), errors.Is(err, appointments.ErrAppointmentNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrAmbiguousMatch):
		return outcomeAmbiguous
	case errors.Is(err, schedule_appointment.ErrConflictDetected),
		errors.Is(err, appointments.ErrConflictDetected),
		errors.Is(err, appointments.ErrScheduleConflict):
		return outcomeConflict
	case errors.Is(err, schedule_appointment.ErrServiceNotFound),
		errors.Is(err, schedule_appointment.ErrInvalidInput),
		errors.Is(err, appointments.ErrInvalidInput),
		errors.Is(err, appointments.ErrInvalidStatusTransition):
		return outcomeRejected
	}
	return outcomeError
}

// checkRequired возвращает IncompleteRequestError с полями в порядке order
func checkRequired(kind domain.IntentKind, present map[string]bool, order ...string) error {
	var missing []string
	for _, field := range order {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &IncompleteRequestError{Intent: kind, Missing: missing}
}
