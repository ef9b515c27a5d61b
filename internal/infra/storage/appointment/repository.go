package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/psqlbuilder"
)

var appointmentColumns = []string{
	"a.id",
	"a.patient_id",
	"a.professional_id",
	"a.service_id",
	"a.location_id",
	"a.start_at",
	"a.duration_minutes",
	"a.status",
	"p.full_name",
	"pr.name",
	"s.name",
	"a.cancellation_reason",
	"a.cancelled_at",
	"a.created_at",
	"a.updated_at",
}

// Repository репозиторий для работы с записями на прием
type Repository struct {
	db        DBExecutor
	txManager TransactionManager
	loc       *time.Location
}

// NewRepository создает новый экземпляр репозитория записей.
// loc - часовой пояс клиники, в нем интерпретируются календарные даты фильтров.
func NewRepository(db DBExecutor, txManager TransactionManager, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, txManager: txManager, loc: loc}
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.selectAppointments().
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	appointment, err := r.scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	return appointment, nil
}

// ListByFilter получает записи с фильтрацией.
//
// Примеры использования:
//
// 1. Снимок активных записей на дату (для подбора специалиста):
//
//	filter := domain.AppointmentsFilter{Date: &date}
//
// 2. Поиск записи пациента для переноса или отмены:
//
//	filter := domain.AppointmentsFilter{Date: &date, PatientName: ptr.Ptr("иванов")}
//
// 3. Все записи кабинета на дату, включая отмененные:
//
//	filter := domain.AppointmentsFilter{Date: &date, LocationID: &locationID, IncludeInactive: true}
func (r *Repository) ListByFilter(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.selectAppointments()

	if filter.Date != nil {
		dayStart, dayEnd := r.dayBounds(*filter.Date)
		selectBuilder = selectBuilder.
			Where(squirrel.GtOrEq{"a.start_at": dayStart}).
			Where(squirrel.Lt{"a.start_at": dayEnd})
	}

	if filter.LocationID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"a.location_id": *filter.LocationID})
	}

	if filter.ProfessionalID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"a.professional_id": *filter.ProfessionalID})
	}

	// Поиск по подстроке ФИО без учета регистра
	if filter.PatientName != nil && strings.TrimSpace(*filter.PatientName) != "" {
		pattern := "%" + escapeLike(strings.TrimSpace(*filter.PatientName)) + "%"
		selectBuilder = selectBuilder.Where(squirrel.ILike{"p.full_name": pattern})
	}

	if filter.ExcludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"a.id": *filter.ExcludeID})
	}

	if !filter.IncludeInactive {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"a.status": cancelledStatusStrings()})
	}

	query, args, err := selectBuilder.
		OrderBy("a.start_at ASC", "a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanAppointments(rows)
}

// InsertAtomic создает запись, только если у специалиста нет активной записи на пересекающийся интервал.
//
// Проверка и вставка выполняются под advisory lock специалиста, поэтому параллельные вызовы
// для одного специалиста выполняются по очереди. Транзакция идет на READ COMMITTED:
// каждый запрос после получения блокировки видит строки, закоммиченные предыдущим владельцем.
// Ограничение исключения в схеме дублирует проверку на уровне БД.
func (r *Repository) InsertAtomic(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error) {
	var created *domain.Appointment

	err := r.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := r.lockProfessional(txCtx, appointment.ProfessionalID); err != nil {
			return err
		}

		busy, err := r.hasOverlap(txCtx, appointment.ProfessionalID, appointment.StartAt, appointment.EndAt(), 0)
		if err != nil {
			return err
		}
		if busy {
			return ErrOverlap
		}

		id, err := r.insert(txCtx, appointment)
		if err != nil {
			return err
		}

		created, err = r.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, wrapTxError("InsertAtomic", err)
	}

	return created, nil
}

// UpdateTimeAtomic переносит запись на новое время у того же специалиста.
// Пересечение проверяется с другими активными записями специалиста (сама запись исключается).
func (r *Repository) UpdateTimeAtomic(ctx context.Context, id int64, startAt time.Time) (*domain.Appointment, error) {
	var updated *domain.Appointment

	err := r.txManager.Do(ctx, func(txCtx context.Context) error {
		current, err := r.getForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if err := r.lockProfessional(txCtx, current.ProfessionalID); err != nil {
			return err
		}

		endAt := startAt.Add(time.Duration(current.DurationMinutes) * time.Minute)
		busy, err := r.hasOverlap(txCtx, current.ProfessionalID, startAt, endAt, id)
		if err != nil {
			return err
		}
		if busy {
			return ErrOverlap
		}

		if err := r.updateTime(txCtx, id, startAt, endAt); err != nil {
			return err
		}

		updated, err = r.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, wrapTxError("UpdateTimeAtomic", err)
	}

	return updated, nil
}

// UpdateStatus обновляет статус записи.
// Для статусов отмены также сохраняются причина и время отмены.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus, reason *string) (*domain.Appointment, error) {
	var updated *domain.Appointment

	err := r.txManager.Do(ctx, func(txCtx context.Context) error {
		executor := dbmetrics.GetExecutor(txCtx, r.db)

		updateBuilder := psqlbuilder.Update("appointments").
			Set("status", status).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": id})

		if status.IsCancelled() {
			updateBuilder = updateBuilder.
				Set("cancellation_reason", reason).
				Set("cancelled_at", squirrel.Expr("NOW()"))
		}

		query, args, err := updateBuilder.ToSql()
		if err != nil {
			return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
		}

		result, err := executor.ExecContext(txCtx, query, args...)
		if err != nil {
			if mapped := mapWriteError(err); mapped != nil {
				return fmt.Errorf("%w: UpdateStatus - execute update: %v", mapped, err)
			}
			return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
		}
		if rowsAffected == 0 {
			return ErrAppointmentNotFound
		}

		updated, err = r.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, wrapTxError("UpdateStatus", err)
	}

	return updated, nil
}

// lockProfessional берет транзакционный advisory lock на специалиста.
// Блокировка снимается при завершении транзакции.
func (r *Repository) lockProfessional(ctx context.Context, professionalID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("pg_advisory_xact_lock(?)", professionalID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: lockProfessional - build query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: lockProfessional - execute: %v", ErrExecQuery, err)
	}
	return nil
}

// hasOverlap проверяет наличие активной записи специалиста, пересекающей [start, end)
func (r *Repository) hasOverlap(ctx context.Context, professionalID int64, start, end time.Time, excludeID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("COUNT(*)").
		From("appointments").
		Where(squirrel.Eq{"professional_id": professionalID}).
		Where(squirrel.NotEq{"status": cancelledStatusStrings()}).
		Where(squirrel.Lt{"start_at": end}).
		Where(squirrel.Gt{"end_at": start})

	if excludeID != 0 {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: hasOverlap - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: hasOverlap - scan count: %v", ErrScanRow, err)
	}

	return count > 0, nil
}

func (r *Repository) insert(ctx context.Context, a *domain.Appointment) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"patient_id",
			"professional_id",
			"service_id",
			"location_id",
			"start_at",
			"end_at",
			"duration_minutes",
			"status",
		).
		Values(
			a.PatientID,
			a.ProfessionalID,
			a.ServiceID,
			a.LocationID,
			a.StartAt,
			a.EndAt(),
			a.DurationMinutes,
			a.Status,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: insert - build insert query: %v", ErrBuildQuery, err)
	}

	var id int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return 0, fmt.Errorf("%w: insert - execute insert: %v", mapped, err)
		}
		return 0, fmt.Errorf("%w: insert - execute insert: %v", ErrExecQuery, err)
	}

	return id, nil
}

func (r *Repository) updateTime(ctx context.Context, id int64, startAt, endAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("start_at", startAt).
		Set("end_at", endAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: updateTime - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return fmt.Errorf("%w: updateTime - execute update: %v", mapped, err)
		}
		return fmt.Errorf("%w: updateTime - execute update: %v", ErrExecQuery, err)
	}

	return nil
}

// getForUpdate блокирует строку записи до конца транзакции
func (r *Repository) getForUpdate(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "professional_id", "duration_minutes", "status").
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getForUpdate - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.Appointment
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.ProfessionalID, &a.DurationMinutes, &a.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getForUpdate - scan appointment: %v", ErrScanRow, err)
	}

	return &a, nil
}

func (r *Repository) selectAppointments() squirrel.SelectBuilder {
	return psqlbuilder.Select(appointmentColumns...).
		From("appointments a").
		Join("patients p ON p.id = a.patient_id").
		Join("professionals pr ON pr.id = a.professional_id").
		Join("services s ON s.id = a.service_id")
}

// dayBounds возвращает полуинтервал календарного дня в часовом поясе клиники
func (r *Repository) dayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, r.loc)
	return start, start.AddDate(0, 0, 1)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProfessionalID,
		&a.ServiceID,
		&a.LocationID,
		&a.StartAt,
		&a.DurationMinutes,
		&a.Status,
		&a.PatientName,
		&a.ProfessionalName,
		&a.ServiceName,
		&a.CancellationReason,
		&a.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.StartAt = a.StartAt.In(r.loc)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

// scanAppointments сканирует результаты запроса в слайс записей
func (r *Repository) scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)

	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %v", ErrScanRow, err)
	}

	return appointments, nil
}

// wrapTxError сохраняет ошибки репозитория как есть и переводит ошибки фиксации транзакции
func wrapTxError(op string, err error) error {
	for _, known := range []error{ErrOverlap, ErrSerialization, ErrAppointmentNotFound, ErrReferenceNotFound, ErrBuildQuery, ErrExecQuery, ErrScanRow} {
		if errors.Is(err, known) {
			return err
		}
	}
	if mapped := mapWriteError(err); mapped != nil {
		return fmt.Errorf("%w: %s - commit: %v", mapped, op, err)
	}
	return fmt.Errorf("%w: %s - transaction: %v", ErrExecQuery, op, err)
}

func cancelledStatusStrings() []string {
	statuses := make([]string, len(domain.CancelledStatuses))
	for i, s := range domain.CancelledStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
