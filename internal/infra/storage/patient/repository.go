package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/psqlbuilder"
)

// Repository репозиторий пациентов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория пациентов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindOrCreateByName возвращает пациента с точно таким ФИО (без учета регистра) или создает нового.
// Уникальный индекс по lower(full_name) делает операцию атомарной.
func (r *Repository) FindOrCreateByName(ctx context.Context, fullName string) (*domain.Patient, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("patients").
		Columns("full_name").
		Values(strings.TrimSpace(fullName)).
		Suffix("ON CONFLICT ((lower(full_name))) DO UPDATE SET full_name = patients.full_name RETURNING id, full_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOrCreateByName - build upsert query: %v", ErrBuildQuery, err)
	}

	var p domain.Patient
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.FullName); err != nil {
		return nil, fmt.Errorf("%w: FindOrCreateByName - execute upsert: %v", ErrExecQuery, err)
	}

	return &p, nil
}

// GetByID получает пациента по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "full_name").
		From("patients").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Patient
	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan patient: %v", ErrExecQuery, err)
	}

	return &p, nil
}
