package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/infra/lock"
	appointmentRepo "github.com/m04kA/SMC-PodologyScheduler/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-PodologyScheduler/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/logger"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/ptr"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// memoryStore хранилище в памяти с той же атомарной семантикой, что и репозиторий
type memoryStore struct {
	mu            sync.Mutex
	nextID        int64
	appointments  map[int64]*domain.Appointment
	professionals map[int64]*domain.Professional

	insertCalls       int
	statusUpdateCalls int
	beforeInsert      func(ctx context.Context) error
}

func newMemoryStore(professionals ...*domain.Professional) *memoryStore {
	s := &memoryStore{
		nextID:        1,
		appointments:  make(map[int64]*domain.Appointment),
		professionals: make(map[int64]*domain.Professional),
	}
	for _, p := range professionals {
		s.professionals[p.ID] = p
	}
	return s
}

func (s *memoryStore) seed(a *domain.Appointment) *domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID
	s.nextID++
	stored := *a
	s.appointments[a.ID] = &stored
	return a
}

func (s *memoryStore) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *memoryStore) ListByFilter(_ context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.Appointment, 0)
	for _, a := range s.appointments {
		if filter.Date != nil && !domain.SameDay(a.StartAt, *filter.Date) {
			continue
		}
		if filter.ProfessionalID != nil && a.ProfessionalID != *filter.ProfessionalID {
			continue
		}
		if !filter.IncludeInactive && !a.IsActive() {
			continue
		}
		copied := *a
		result = append(result, &copied)
	}
	return result, nil
}

func (s *memoryStore) overlapsLocked(professionalID int64, start, end time.Time, excludeID int64) bool {
	for _, a := range s.appointments {
		if a.ProfessionalID != professionalID || !a.IsActive() || a.ID == excludeID {
			continue
		}
		if domain.Overlaps(start, end, a.StartAt, a.EndAt()) {
			return true
		}
	}
	return false
}

func (s *memoryStore) InsertAtomic(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	if s.beforeInsert != nil {
		if err := s.beforeInsert(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertCalls++
	if s.overlapsLocked(a.ProfessionalID, a.StartAt, a.EndAt(), 0) {
		return nil, appointmentRepo.ErrOverlap
	}

	stored := *a
	stored.ID = s.nextID
	s.nextID++
	s.appointments[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (s *memoryStore) UpdateTimeAtomic(_ context.Context, id int64, startAt time.Time) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	end := startAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
	if s.overlapsLocked(a.ProfessionalID, startAt, end, id) {
		return nil, appointmentRepo.ErrOverlap
	}

	a.StartAt = startAt
	copied := *a
	return &copied, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, id int64, status domain.AppointmentStatus, reason *string) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statusUpdateCalls++
	a, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	a.Status = status
	if status.IsCancelled() {
		a.CancellationReason = reason
	}
	copied := *a
	return &copied, nil
}

func (s *memoryStore) GetProfessional(_ context.Context, id int64, _ *time.Time) (*domain.Professional, error) {
	p, ok := s.professionals[id]
	if !ok {
		return nil, catalogRepo.ErrProfessionalNotFound
	}
	return p, nil
}

func (s *memoryStore) activeFor(professionalID int64) []*domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.Appointment, 0)
	for _, a := range s.appointments {
		if a.ProfessionalID == professionalID && a.IsActive() {
			result = append(result, a)
		}
	}
	return result
}

type conflictCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *conflictCounter) ObserveConflict(operation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[operation]++
}

type timeoutLocker struct{}

func (timeoutLocker) Lock(context.Context, int64) (func(), error) {
	return nil, lock.ErrLockTimeout
}

var tuesday = time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

func at(hh, mm int) time.Time {
	return tuesday.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func professionalA() *domain.Professional {
	return &domain.Professional{
		ID:   1,
		Name: "A",
		WeeklySchedule: []domain.WeeklyScheduleEntry{
			{Weekday: time.Tuesday, IsWorking: true, Start: "09:00", End: "13:00"},
			{Weekday: time.Wednesday, IsWorking: true, Start: "09:00", End: "13:00"},
		},
	}
}

func assignmentAt(start time.Time) models.Assignment {
	return models.Assignment{
		PatientID:       5,
		ProfessionalID:  1,
		ServiceID:       1,
		LocationID:      1,
		StartAt:         start,
		DurationMinutes: 30,
	}
}

func newTestService(store *memoryStore, locker SlotLocker, metrics Metrics) *Service {
	return NewService(store, store, locker, metrics, logger.NewNop(), time.Second)
}

func TestService_Create(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	created, err := svc.Create(context.Background(), assignmentAt(at(12, 0)))
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.StatusBooked, created.Status)
	assert.Equal(t, at(12, 0), created.StartAt)
	assert.Equal(t, 30, created.DurationMinutes)
}

func TestService_Create_SecondIdenticalRequestConflicts(t *testing.T) {
	store := newMemoryStore(professionalA())
	metrics := &conflictCounter{}
	svc := newTestService(store, nil, metrics)

	_, err := svc.Create(context.Background(), assignmentAt(at(12, 0)))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), assignmentAt(at(12, 0)))
	assert.ErrorIs(t, err, ErrConflictDetected)
	assert.Equal(t, 1, store.insertCalls, "stale assignment must not reach the store")
	assert.Equal(t, 1, metrics.counts[operationCreate])
}

func TestService_Create_OutsideWorkingHoursConflicts(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	_, err := svc.Create(context.Background(), assignmentAt(at(12, 45)))
	assert.ErrorIs(t, err, ErrConflictDetected)
	assert.Zero(t, store.insertCalls)
}

func TestService_Create_LostRaceAtWrite(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	// Конкурент успевает записаться между проверкой и записью
	store.beforeInsert = func(context.Context) error {
		store.beforeInsert = nil
		store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(12, 15), DurationMinutes: 30, Status: domain.StatusBooked})
		return nil
	}

	_, err := svc.Create(context.Background(), assignmentAt(at(12, 0)))
	assert.ErrorIs(t, err, ErrConflictDetected)
	assert.Len(t, store.activeFor(1), 1)
}

func TestService_Create_ConcurrentRequestsNeverOverlap(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	starts := []time.Time{at(10, 0), at(10, 0), at(10, 15), at(10, 20), at(10, 30), at(10, 30), at(10, 45), at(9, 50)}

	var wg sync.WaitGroup
	errs := make([]error, len(starts)*3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), assignmentAt(starts[i%len(starts)]))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrConflictDetected)
		}
	}

	active := store.activeFor(1)
	require.NotEmpty(t, active)
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			assert.False(t,
				domain.Overlaps(active[i].StartAt, active[i].EndAt(), active[j].StartAt, active[j].EndAt()),
				"appointments %d and %d overlap", active[i].ID, active[j].ID)
		}
	}
}

func TestService_RescheduleRacingCreateNeverOverlap(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	// Записи на 09:00-11:30 переносятся в 12:00-12:30, куда же параллельно записываются новые пациенты
	var moving []*domain.Appointment
	for i := 0; i < 6; i++ {
		moving = append(moving, store.seed(&domain.Appointment{
			ProfessionalID: 1, StartAt: at(9, 0).Add(time.Duration(i) * 30 * time.Minute), DurationMinutes: 30, Status: domain.StatusBooked,
		}))
	}
	targets := []types.TimeString{"12:00", "12:15", "12:30", "12:00", "12:15", "12:30"}

	var wg sync.WaitGroup
	rescheduleErrs := make([]error, len(moving))
	createErrs := make([]error, len(targets))
	for i := range moving {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, rescheduleErrs[i] = svc.Reschedule(context.Background(), moving[i].ID, tuesday, targets[i])
		}(i)
		go func(i int) {
			defer wg.Done()
			start, _ := domain.Combine(tuesday, "12:00")
			_, createErrs[i] = svc.Create(context.Background(), assignmentAt(start.Add(time.Duration(i%3)*15*time.Minute)))
		}(i)
	}
	wg.Wait()

	for _, err := range rescheduleErrs {
		if err != nil {
			assert.ErrorIs(t, err, ErrScheduleConflict)
		}
	}
	for _, err := range createErrs {
		if err != nil {
			assert.ErrorIs(t, err, ErrConflictDetected)
		}
	}

	active := store.activeFor(1)
	require.Len(t, active, len(moving)+countNil(createErrs))
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			assert.False(t,
				domain.Overlaps(active[i].StartAt, active[i].EndAt(), active[j].StartAt, active[j].EndAt()),
				"appointments %d and %d overlap", active[i].ID, active[j].ID)
		}
	}
}

func countNil(errs []error) int {
	n := 0
	for _, err := range errs {
		if err == nil {
			n++
		}
	}
	return n
}

func TestService_Create_AbandonedBeforeWrite(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, assignmentAt(at(12, 0)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.insertCalls)
}

func TestService_Create_WriteSurvivesCallerCancellation(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store.beforeInsert = func(writeCtx context.Context) error {
		cancel()
		return writeCtx.Err()
	}

	created, err := svc.Create(ctx, assignmentAt(at(12, 0)))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestService_Create_LockTimeoutIsConflict(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, timeoutLocker{}, nil)

	_, err := svc.Create(context.Background(), assignmentAt(at(12, 0)))
	assert.ErrorIs(t, err, ErrConflictDetected)
}

func TestService_Create_Validation(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	bad := assignmentAt(at(12, 0))
	bad.DurationMinutes = 0
	_, err := svc.Create(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	unknown := assignmentAt(at(12, 0))
	unknown.ProfessionalID = 99
	_, err = svc.Create(context.Background(), unknown)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)
}

func TestService_Reschedule(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)
	existing := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusBooked})

	// Новый интервал пересекается только со старым интервалом самой записи
	updated, err := svc.Reschedule(context.Background(), existing.ID, tuesday, "10:15")
	require.NoError(t, err)
	assert.Equal(t, at(10, 15), updated.StartAt)
	assert.Equal(t, int64(1), updated.ProfessionalID)
}

func TestService_Reschedule_Conflicts(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)
	moving := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusBooked})
	store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(11, 0), DurationMinutes: 30, Status: domain.StatusConfirmed})

	_, err := svc.Reschedule(context.Background(), moving.ID, tuesday, "11:15")
	assert.ErrorIs(t, err, ErrScheduleConflict)

	_, err = svc.Reschedule(context.Background(), moving.ID, tuesday, "12:45")
	assert.ErrorIs(t, err, ErrScheduleConflict, "outside working hours")

	_, err = svc.Reschedule(context.Background(), moving.ID, tuesday.AddDate(0, 0, 3), "10:00")
	assert.ErrorIs(t, err, ErrScheduleConflict, "day off")

	unchanged, err := store.GetByID(context.Background(), moving.ID)
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), unchanged.StartAt)
}

func TestService_Reschedule_AnotherDay(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)
	moving := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusBooked})

	wednesday := tuesday.AddDate(0, 0, 1)
	updated, err := svc.Reschedule(context.Background(), moving.ID, wednesday, "09:00")
	require.NoError(t, err)
	assert.Equal(t, wednesday.Add(9*time.Hour), updated.StartAt)
}

func TestService_Reschedule_InvalidState(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)
	cancelled := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusCancelledStaff})

	_, err := svc.Reschedule(context.Background(), cancelled.ID, tuesday, "11:00")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.Reschedule(context.Background(), 999, tuesday, "11:00")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = svc.Reschedule(context.Background(), cancelled.ID, tuesday, "xx")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Reschedule_EndOfDayIsNotAStart(t *testing.T) {
	night := &domain.Professional{
		ID:   1,
		Name: "A",
		WeeklySchedule: []domain.WeeklyScheduleEntry{
			{Weekday: time.Tuesday, IsWorking: true, Start: "09:00", End: "24:00"},
			{Weekday: time.Wednesday, IsWorking: true, Start: "00:00", End: "08:00"},
		},
	}
	store := newMemoryStore(night)
	svc := newTestService(store, nil, nil)
	moving := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusBooked})

	_, err := svc.Reschedule(context.Background(), moving.ID, tuesday, "24:00")
	assert.ErrorIs(t, err, ErrInvalidInput)

	unchanged, err := store.GetByID(context.Background(), moving.ID)
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), unchanged.StartAt)
}

func TestService_Cancel_Idempotent(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)
	existing := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusBooked})

	req := models.CancelRequest{Status: domain.StatusCancelledPatient, Reason: ptr.Ptr("заболел")}

	first, err := svc.Cancel(context.Background(), existing.ID, req)
	require.NoError(t, err)
	second, err := svc.Cancel(context.Background(), existing.ID, req)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelledPatient, first.Status)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, 1, store.statusUpdateCalls)

	// Время освобождается для новой записи
	_, err = svc.Create(context.Background(), assignmentAt(at(10, 0)))
	assert.NoError(t, err)
}

func TestService_Cancel_Errors(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)
	completed := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusCompleted})

	_, err := svc.Cancel(context.Background(), completed.ID, models.CancelRequest{Status: domain.StatusCancelledStaff})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.Cancel(context.Background(), completed.ID, models.CancelRequest{Status: domain.StatusConfirmed})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Cancel(context.Background(), 999, models.CancelRequest{Status: domain.StatusCancelledStaff})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestService_UpdateStatus(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)
	existing := store.seed(&domain.Appointment{ProfessionalID: 1, StartAt: at(10, 0), DurationMinutes: 30, Status: domain.StatusBooked})

	confirmed, err := svc.UpdateStatus(context.Background(), existing.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	completed, err := svc.UpdateStatus(context.Background(), existing.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)

	_, err = svc.UpdateStatus(context.Background(), existing.ID, domain.StatusBooked)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(context.Background(), existing.ID, domain.AppointmentStatus("unknown"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_InternalErrorsAreWrapped(t *testing.T) {
	store := newMemoryStore(professionalA())
	svc := newTestService(store, nil, nil)

	store.beforeInsert = func(context.Context) error {
		return errors.New("connection reset by peer")
	}

	_, err := svc.Create(context.Background(), assignmentAt(at(12, 0)))
	assert.ErrorIs(t, err, ErrInternal)
}
