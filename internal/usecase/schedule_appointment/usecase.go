package schedule_appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/availability"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/ptr"
)

// DefaultMaxResolveAttempts сколько раз подбирать специалиста заново после проигранной гонки
const DefaultMaxResolveAttempts = 3

// UseCase use case записи на прием: подбор специалиста и создание записи
type UseCase struct {
	catalogRepo     CatalogRepository
	appointmentRepo AppointmentRepository
	patientRepo     PatientRepository
	commander       Commander
	metrics         Metrics
	logger          Logger
	maxAttempts     int
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	catalogRepo CatalogRepository,
	appointmentRepo AppointmentRepository,
	patientRepo PatientRepository,
	commander Commander,
	metrics Metrics,
	logger Logger,
	maxAttempts int,
) *UseCase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxResolveAttempts
	}
	return &UseCase{
		catalogRepo:     catalogRepo,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		commander:       commander,
		metrics:         metrics,
		logger:          logger,
		maxAttempts:     maxAttempts,
	}
}

// Resolve подбирает специалиста без записи
func (uc *UseCase) Resolve(ctx context.Context, req *Request) (*Proposal, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("Resolve: validation failed: %v", err)
		return nil, err
	}

	service, err := uc.findService(ctx, req)
	if err != nil {
		return nil, err
	}

	return uc.resolve(ctx, req, service)
}

// Execute подбирает специалиста и создает запись.
//
// Если запись проиграла параллельной записи (ErrConflictDetected), подбор выполняется
// заново на свежем снимке. То же назначение повторно не отправляется.
// Отсутствие свободного специалиста - нормальный результат OutcomeNoAvailability, не ошибка.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ScheduleAppointment: patient=%q, service=%q, date=%s, time=%s",
		req.PatientName, req.ServiceText, req.Date.Format(domain.DateFormat), req.Time)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ScheduleAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Определяем услугу
	service, err := uc.findService(ctx, req)
	if err != nil {
		return nil, err
	}

	var patient *domain.Patient

	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		// 3. Подбор специалиста на свежем снимке
		proposal, err := uc.resolve(ctx, req, service)
		if err != nil {
			return nil, err
		}

		if !proposal.Available() {
			uc.logger.Info("ScheduleAppointment: no availability for service=%d at %s",
				service.ID, proposal.StartAt.Format(time.RFC3339))
			return &Response{
				Outcome:  OutcomeNoAvailability,
				Service:  service,
				StartAt:  proposal.StartAt,
				Attempts: attempt,
			}, nil
		}

		// 4. Пациент нужен только когда есть кого записывать
		if patient == nil {
			patient, err = uc.patientRepo.FindOrCreateByName(ctx, strings.TrimSpace(req.PatientName))
			if err != nil {
				uc.logger.Error("ScheduleAppointment: failed to find or create patient: %v", err)
				return nil, fmt.Errorf("%w: failed to find or create patient: %v", ErrInternal, err)
			}
		}

		// 5. Запись с повторной проверкой
		created, err := uc.commander.Create(ctx, models.Assignment{
			PatientID:       patient.ID,
			ProfessionalID:  proposal.Professional.ID,
			ServiceID:       service.ID,
			LocationID:      proposal.Professional.LocationID,
			StartAt:         proposal.StartAt,
			DurationMinutes: service.DurationMinutes,
		})
		if err == nil {
			uc.logger.Info("ScheduleAppointment: created appointment id=%d with professional=%d (attempt %d)",
				created.ID, proposal.Professional.ID, attempt)
			return &Response{
				Outcome:      OutcomeBooked,
				Service:      service,
				Professional: proposal.Professional,
				Appointment:  created,
				StartAt:      proposal.StartAt,
				Attempts:     attempt,
			}, nil
		}

		switch {
		case errors.Is(err, appointments.ErrConflictDetected), errors.Is(err, appointments.ErrProfessionalNotFound):
			uc.logger.Warn("ScheduleAppointment: attempt %d lost to a concurrent booking: %v", attempt, err)
			if uc.metrics != nil {
				uc.metrics.ObserveReResolve()
			}
			continue
		case errors.Is(err, appointments.ErrInvalidInput):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		}

		uc.logger.Error("ScheduleAppointment: failed to create appointment: %v", err)
		return nil, fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
	}

	uc.logger.Warn("ScheduleAppointment: gave up after %d attempts", uc.maxAttempts)
	return nil, ErrConflictDetected
}

// resolve загружает кандидатов и снимок записей на дату и выбирает специалиста
func (uc *UseCase) resolve(ctx context.Context, req *Request, service *domain.Service) (*Proposal, error) {
	startAt, err := domain.Combine(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid time: %v", ErrInvalidInput, err)
	}
	proposal := &Proposal{
		Service: service,
		StartAt: startAt,
		EndAt:   startAt.Add(time.Duration(service.DurationMinutes) * time.Minute),
	}

	date := req.Date
	candidates, err := uc.catalogRepo.ListProfessionals(ctx, domain.ProfessionalsFilter{
		LocationID: req.LocationID,
		Date:       &date,
	})
	if err != nil {
		uc.logger.Error("resolve: failed to list professionals: %v", err)
		return nil, fmt.Errorf("%w: failed to list professionals: %v", ErrInternal, err)
	}

	bookings, err := uc.appointmentRepo.ListByFilter(ctx, domain.AppointmentsFilter{
		Date:       &date,
		LocationID: req.LocationID,
	})
	if err != nil {
		uc.logger.Error("resolve: failed to list bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to list bookings: %v", ErrInternal, err)
	}

	preferred := req.PreferredProfessionalID
	if preferred == nil && req.ProfessionalName != "" {
		preferred = matchProfessionalByName(candidates, req.ProfessionalName)
	}

	if professional, ok := availability.Resolve(availability.Input{
		Service:                 service,
		Date:                    req.Date,
		Time:                    req.Time,
		Candidates:              candidates,
		Bookings:                bookings,
		PreferredProfessionalID: preferred,
	}); ok {
		proposal.Professional = professional
	}

	return proposal, nil
}

func (uc *UseCase) findService(ctx context.Context, req *Request) (*domain.Service, error) {
	services, err := uc.catalogRepo.ListServices(ctx)
	if err != nil {
		uc.logger.Error("findService: failed to list services: %v", err)
		return nil, fmt.Errorf("%w: failed to list services: %v", ErrInternal, err)
	}

	service, err := matchService(services, req.ServiceID, req.ServiceText)
	if err != nil {
		uc.logger.Warn("findService: no service for id=%d text=%q", ptr.Value(req.ServiceID), req.ServiceText)
		return nil, err
	}
	return service, nil
}
