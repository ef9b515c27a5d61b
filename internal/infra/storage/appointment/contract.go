package appointment

import (
	"context"

	"github.com/m04kA/SMC-PodologyScheduler/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// TransactionManager интерфейс для управления транзакциями.
// Атомарные операции выполняются на уровне изоляции по умолчанию под advisory lock.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
