package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/psqlbuilder"
)

// Repository справочные данные клиники: услуги, специалисты и их расписания
type Repository struct {
	db  DBExecutor
	loc *time.Location
}

// NewRepository создает новый экземпляр репозитория справочников
func NewRepository(db DBExecutor, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc}
}

// ListServices возвращает активные услуги, упорядоченные по ID
func (r *Repository) ListServices(ctx context.Context) ([]*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "duration_minutes").
		From("services").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	services := make([]*domain.Service, 0)
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes); err != nil {
			return nil, fmt.Errorf("%w: ListServices - scan service: %v", ErrScanRow, err)
		}
		services = append(services, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListServices - rows error: %v", ErrScanRow, err)
	}

	return services, nil
}

// GetService получает услугу по ID
func (r *Repository) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "duration_minutes").
		From("services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.Service
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Name, &s.DurationMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - scan service: %v", ErrScanRow, err)
	}

	return &s, nil
}

// ListProfessionals возвращает специалистов вместе с недельным расписанием и исключениями.
// Менеджеры тоже возвращаются: исключать их из автоназначения - задача подбора.
func (r *Repository) ListProfessionals(ctx context.Context, filter domain.ProfessionalsFilter) ([]*domain.Professional, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "name", "location_id", "is_manager").
		From("professionals").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("id ASC")

	if filter.LocationID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListProfessionals - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListProfessionals - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	professionals := make([]*domain.Professional, 0)
	for rows.Next() {
		var p domain.Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.LocationID, &p.IsManager); err != nil {
			return nil, fmt.Errorf("%w: ListProfessionals - scan professional: %v", ErrScanRow, err)
		}
		professionals = append(professionals, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListProfessionals - rows error: %v", ErrScanRow, err)
	}

	if err := r.attachSchedules(ctx, professionals, filter.Date); err != nil {
		return nil, err
	}

	return professionals, nil
}

// GetProfessional получает специалиста по ID вместе с расписанием.
// date ограничивает загружаемые исключения расписания (nil - все).
func (r *Repository) GetProfessional(ctx context.Context, id int64, date *time.Time) (*domain.Professional, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "location_id", "is_manager").
		From("professionals").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetProfessional - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Professional
	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Name, &p.LocationID, &p.IsManager)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfessionalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetProfessional - scan professional: %v", ErrScanRow, err)
	}

	if err := r.attachSchedules(ctx, []*domain.Professional{&p}, date); err != nil {
		return nil, err
	}

	return &p, nil
}

// attachSchedules загружает недельные шаблоны и исключения двумя запросами на всех специалистов
func (r *Repository) attachSchedules(ctx context.Context, professionals []*domain.Professional, date *time.Time) error {
	if len(professionals) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Professional, len(professionals))
	ids := make([]int64, 0, len(professionals))
	for _, p := range professionals {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	if err := r.attachWeeklySchedule(ctx, ids, byID); err != nil {
		return err
	}
	return r.attachOverrides(ctx, ids, byID, date)
}

func (r *Repository) attachWeeklySchedule(ctx context.Context, ids []int64, byID map[int64]*domain.Professional) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("professional_id", "weekday", "is_working", "start_time", "end_time").
		From("professional_work_schedule").
		Where(squirrel.Eq{"professional_id": ids}).
		OrderBy("professional_id ASC", "weekday ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachWeeklySchedule - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachWeeklySchedule - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var professionalID int64
		var weekday int
		var entry domain.WeeklyScheduleEntry

		if err := rows.Scan(&professionalID, &weekday, &entry.IsWorking, &entry.Start, &entry.End); err != nil {
			return fmt.Errorf("%w: attachWeeklySchedule - scan entry: %v", ErrScanRow, err)
		}
		entry.Weekday = time.Weekday(weekday)

		if p, ok := byID[professionalID]; ok {
			p.WeeklySchedule = append(p.WeeklySchedule, entry)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachWeeklySchedule - rows error: %v", ErrScanRow, err)
	}
	return nil
}

func (r *Repository) attachOverrides(ctx context.Context, ids []int64, byID map[int64]*domain.Professional, date *time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("professional_id", "override_date", "is_working", "start_time", "end_time").
		From("professional_schedule_overrides").
		Where(squirrel.Eq{"professional_id": ids}).
		OrderBy("professional_id ASC", "override_date ASC")

	// Дата передается строкой, чтобы не зависеть от часового пояса сессии
	if date != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"override_date": date.Format(domain.DateFormat)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachOverrides - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var professionalID int64
		var overrideDate time.Time
		var override domain.ScheduleOverride

		if err := rows.Scan(&professionalID, &overrideDate, &override.IsWorking, &override.Start, &override.End); err != nil {
			return fmt.Errorf("%w: attachOverrides - scan override: %v", ErrScanRow, err)
		}

		// DATE приходит как полночь UTC, переводим в календарный день клиники
		y, m, d := overrideDate.Date()
		override.Date = time.Date(y, m, d, 0, 0, 0, 0, r.loc)

		if p, ok := byID[professionalID]; ok {
			p.Overrides = append(p.Overrides, override)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachOverrides - rows error: %v", ErrScanRow, err)
	}
	return nil
}
