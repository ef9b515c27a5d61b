package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/infra/lock"
	appointmentRepo "github.com/m04kA/SMC-PodologyScheduler/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-PodologyScheduler/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/availability"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// DefaultWriteTimeout ограничение на операцию записи после ее начала
const DefaultWriteTimeout = 5 * time.Second

// Операции для метрики конфликтов
const (
	operationCreate     = "create"
	operationReschedule = "reschedule"
)

// Service выполняет все изменения записей: создание, перенос, отмену и смену статуса.
// Перед записью повторно проверяет доступность специалиста на свежем снимке,
// саму запись выполняет атомарная операция хранилища.
type Service struct {
	appointmentRepo  AppointmentRepository
	professionalRepo ProfessionalRepository
	locker           SlotLocker
	metrics          Metrics
	logger           Logger
	writeTimeout     time.Duration
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	professionalRepo ProfessionalRepository,
	locker SlotLocker,
	metrics Metrics,
	logger Logger,
	writeTimeout time.Duration,
) *Service {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Service{
		appointmentRepo:  appointmentRepo,
		professionalRepo: professionalRepo,
		locker:           locker,
		metrics:          metrics,
		logger:           logger,
		writeTimeout:     writeTimeout,
	}
}

// Create создает запись по подобранному назначению.
// Возвращает ErrConflictDetected, если специалист стал недоступен после подбора.
func (s *Service) Create(ctx context.Context, assignment models.Assignment) (*domain.Appointment, error) {
	s.logger.Info("Create: patient=%d, professional=%d, service=%d, start=%s, duration=%d",
		assignment.PatientID, assignment.ProfessionalID, assignment.ServiceID,
		assignment.StartAt.Format(time.RFC3339), assignment.DurationMinutes)

	// 1. Валидация назначения
	if err := validateAssignment(assignment); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	// 2. Блокировка специалиста между репликами
	release, err := s.locker.Lock(ctx, assignment.ProfessionalID)
	if err != nil {
		return nil, s.lockError("Create", operationCreate, assignment.ProfessionalID, err, ErrConflictDetected)
	}
	defer release()

	// 3. Повторная проверка на свежем снимке
	professional, err := s.getProfessional(ctx, "Create", assignment.ProfessionalID, assignment.StartAt)
	if err != nil {
		return nil, err
	}

	bookings, err := s.snapshot(ctx, assignment.ProfessionalID, assignment.StartAt)
	if err != nil {
		s.logger.Error("Create: failed to load bookings snapshot: %v", err)
		return nil, fmt.Errorf("%w: Create - load snapshot: %v", ErrInternal, err)
	}

	if reason := availability.Check(professional, assignment.StartAt, assignment.EndAt(), bookings, 0); reason != availability.Eligible {
		s.logger.Warn("Create: professional=%d no longer available at %s: %s",
			assignment.ProfessionalID, assignment.StartAt.Format(time.RFC3339), reason)
		s.observeConflict(operationCreate)
		return nil, fmt.Errorf("%w: %s", ErrConflictDetected, reason)
	}

	// 4. Отказ вызывающего до начала записи не оставляет следов
	if err := ctx.Err(); err != nil {
		s.logger.Warn("Create: request abandoned before write: %v", err)
		return nil, err
	}

	// 5. Атомарная запись, которая доводится до конца независимо от отмены запроса
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()

	created, err := s.appointmentRepo.InsertAtomic(writeCtx, &domain.Appointment{
		PatientID:       assignment.PatientID,
		ProfessionalID:  assignment.ProfessionalID,
		ServiceID:       assignment.ServiceID,
		LocationID:      assignment.LocationID,
		StartAt:         assignment.StartAt,
		DurationMinutes: assignment.DurationMinutes,
		Status:          domain.StatusBooked,
	})
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrOverlap) || errors.Is(err, appointmentRepo.ErrSerialization) {
			s.logger.Warn("Create: concurrent booking for professional=%d at %s: %v",
				assignment.ProfessionalID, assignment.StartAt.Format(time.RFC3339), err)
			s.observeConflict(operationCreate)
			return nil, ErrConflictDetected
		}
		if errors.Is(err, appointmentRepo.ErrReferenceNotFound) {
			s.logger.Warn("Create: invalid references in assignment: %v", err)
			return nil, fmt.Errorf("%w: unknown patient, professional or service", ErrInvalidInput)
		}
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: successfully created appointment id=%d", created.ID)
	return created, nil
}

// Reschedule переносит запись на новую дату и время у того же специалиста.
// Сама переносимая запись в проверке пересечений не участвует.
func (s *Service) Reschedule(ctx context.Context, id int64, newDate time.Time, newTime types.TimeString) (*domain.Appointment, error) {
	s.logger.Info("Reschedule: appointment id=%d to %s %s", id, newDate.Format(domain.DateFormat), newTime)

	// 1. Вычисляем новое время начала
	if err := newTime.ValidateStart(); err != nil {
		s.logger.Warn("Reschedule: invalid new time %q: %v", newTime, err)
		return nil, fmt.Errorf("%w: invalid new time: %v", ErrInvalidInput, err)
	}

	newStart, err := domain.Combine(newDate, newTime)
	if err != nil {
		s.logger.Warn("Reschedule: invalid new time %q: %v", newTime, err)
		return nil, fmt.Errorf("%w: invalid new time: %v", ErrInvalidInput, err)
	}

	// 2. Загружаем запись
	current, err := s.getAppointment(ctx, "Reschedule", id)
	if err != nil {
		return nil, err
	}

	if !current.CanBeRescheduled() {
		s.logger.Warn("Reschedule: appointment id=%d cannot be rescheduled, status=%s", id, current.Status)
		return nil, fmt.Errorf("%w: appointment in status %s cannot be rescheduled", ErrInvalidStatusTransition, current.Status)
	}

	if current.StartAt.Equal(newStart) {
		s.logger.Info("Reschedule: appointment id=%d already starts at %s", id, newStart.Format(time.RFC3339))
		return current, nil
	}

	// 3. Блокировка специалиста
	release, err := s.locker.Lock(ctx, current.ProfessionalID)
	if err != nil {
		return nil, s.lockError("Reschedule", operationReschedule, current.ProfessionalID, err, ErrScheduleConflict)
	}
	defer release()

	// 4. Проверяем новый интервал по календарю того же специалиста
	professional, err := s.getProfessional(ctx, "Reschedule", current.ProfessionalID, newStart)
	if err != nil {
		return nil, err
	}

	bookings, err := s.snapshot(ctx, current.ProfessionalID, newStart)
	if err != nil {
		s.logger.Error("Reschedule: failed to load bookings snapshot: %v", err)
		return nil, fmt.Errorf("%w: Reschedule - load snapshot: %v", ErrInternal, err)
	}

	newEnd := newStart.Add(time.Duration(current.DurationMinutes) * time.Minute)
	if reason := availability.Check(professional, newStart, newEnd, bookings, current.ID); reason != availability.Eligible {
		s.logger.Warn("Reschedule: appointment id=%d cannot move to %s: %s", id, newStart.Format(time.RFC3339), reason)
		s.observeConflict(operationReschedule)
		return nil, fmt.Errorf("%w: %s", ErrScheduleConflict, reason)
	}

	if err := ctx.Err(); err != nil {
		s.logger.Warn("Reschedule: request abandoned before write: %v", err)
		return nil, err
	}

	// 5. Атомарное обновление времени
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()

	updated, err := s.appointmentRepo.UpdateTimeAtomic(writeCtx, id, newStart)
	if err != nil {
		switch {
		case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
			s.logger.Warn("Reschedule: appointment id=%d not found during update", id)
			return nil, ErrAppointmentNotFound
		case errors.Is(err, appointmentRepo.ErrOverlap), errors.Is(err, appointmentRepo.ErrSerialization):
			s.logger.Warn("Reschedule: concurrent booking for appointment id=%d: %v", id, err)
			s.observeConflict(operationReschedule)
			return nil, ErrScheduleConflict
		}
		s.logger.Error("Reschedule: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Reschedule - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Reschedule: successfully moved appointment id=%d to %s", id, newStart.Format(time.RFC3339))
	return updated, nil
}

// Cancel отменяет запись, меняя только статус.
// Повторная отмена уже отмененной записи возвращает ее без изменений.
func (s *Service) Cancel(ctx context.Context, id int64, req models.CancelRequest) (*domain.Appointment, error) {
	s.logger.Info("Cancel: appointment id=%d with status=%s", id, req.Status)

	if !req.Status.IsCancelled() {
		s.logger.Warn("Cancel: status=%s is not a cancellation status", req.Status)
		return nil, fmt.Errorf("%w: status must be cancelled_staff or cancelled_patient", ErrInvalidInput)
	}

	current, err := s.getAppointment(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}

	if current.IsCancelled() {
		s.logger.Info("Cancel: appointment id=%d already cancelled with status=%s", id, current.Status)
		return current, nil
	}

	if !current.CanTransitionTo(req.Status) {
		s.logger.Warn("Cancel: appointment id=%d cannot be cancelled, status=%s", id, current.Status)
		return nil, fmt.Errorf("%w: appointment in status %s cannot be cancelled", ErrInvalidStatusTransition, current.Status)
	}

	return s.writeStatus(ctx, "Cancel", id, req.Status, req.Reason)
}

// UpdateStatus меняет статус записи (подтверждение, завершение, отмена).
// Установка текущего статуса ничего не меняет.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) (*domain.Appointment, error) {
	s.logger.Info("UpdateStatus: appointment id=%d to status=%s", id, status)

	if !status.IsValid() {
		s.logger.Warn("UpdateStatus: invalid status=%s", status)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	if status.IsCancelled() {
		return s.Cancel(ctx, id, models.CancelRequest{Status: status})
	}

	current, err := s.getAppointment(ctx, "UpdateStatus", id)
	if err != nil {
		return nil, err
	}

	if current.Status == status {
		return current, nil
	}

	if !current.CanTransitionTo(status) {
		s.logger.Warn("UpdateStatus: transition %s -> %s is not allowed for appointment id=%d", current.Status, status, id)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, status)
	}

	return s.writeStatus(ctx, "UpdateStatus", id, status, nil)
}

// GetByID получает запись по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	return s.getAppointment(ctx, "GetByID", id)
}

// List получает записи по фильтру
func (s *Service) List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	list, err := s.appointmentRepo.ListByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}
	return list, nil
}

// Вспомогательные методы

func (s *Service) writeStatus(ctx context.Context, op string, id int64, status domain.AppointmentStatus, reason *string) (*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		s.logger.Warn("%s: request abandoned before write: %v", op, err)
		return nil, err
	}

	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()

	updated, err := s.appointmentRepo.UpdateStatus(writeCtx, id, status, reason)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("%s: appointment id=%d not found during update", op, id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	s.logger.Info("%s: appointment id=%d now has status=%s", op, id, updated.Status)
	return updated, nil
}

func (s *Service) getAppointment(ctx context.Context, op string, id int64) (*domain.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("%s: appointment id=%d not found", op, id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return appointment, nil
}

func (s *Service) getProfessional(ctx context.Context, op string, id int64, date time.Time) (*domain.Professional, error) {
	professional, err := s.professionalRepo.GetProfessional(ctx, id, &date)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrProfessionalNotFound) {
			s.logger.Warn("%s: professional id=%d not found", op, id)
			return nil, ErrProfessionalNotFound
		}
		s.logger.Error("%s: failed to get professional id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - failed to get professional: %v", ErrInternal, op, err)
	}
	return professional, nil
}

// snapshot возвращает активные записи специалиста на дату
func (s *Service) snapshot(ctx context.Context, professionalID int64, date time.Time) ([]*domain.Appointment, error) {
	return s.appointmentRepo.ListByFilter(ctx, domain.AppointmentsFilter{
		Date:           &date,
		ProfessionalID: &professionalID,
	})
}

// writeContext отвязывает запись от отмены запроса, но ограничивает ее по времени
func (s *Service) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
}

func (s *Service) lockError(op, operation string, professionalID int64, err, conflict error) error {
	if errors.Is(err, lock.ErrLockTimeout) {
		s.logger.Warn("%s: professional=%d is locked by a concurrent booking", op, professionalID)
		s.observeConflict(operation)
		return conflict
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.Error("%s: failed to lock professional=%d: %v", op, professionalID, err)
	return fmt.Errorf("%w: %s - lock professional: %v", ErrInternal, op, err)
}

func (s *Service) observeConflict(operation string) {
	if s.metrics != nil {
		s.metrics.ObserveConflict(operation)
	}
}

func validateAssignment(a models.Assignment) error {
	if a.PatientID <= 0 {
		return fmt.Errorf("%w: patientID must be positive", ErrInvalidInput)
	}
	if a.ProfessionalID <= 0 {
		return fmt.Errorf("%w: professionalID must be positive", ErrInvalidInput)
	}
	if a.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}
	if a.DurationMinutes <= 0 {
		return fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidInput)
	}
	if a.StartAt.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidInput)
	}
	return nil
}
