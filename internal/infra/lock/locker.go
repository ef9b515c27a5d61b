package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "podology:lock:professional:"

// releaseScript удаляет ключ, только если он принадлежит текущему владельцу
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Config параметры распределенной блокировки
type Config struct {
	TTL           time.Duration // Время жизни ключа, если владелец не освободил блокировку
	WaitTimeout   time.Duration // Сколько ждать освобождения блокировки
	RetryInterval time.Duration // Пауза между попытками
}

// RedisLocker сериализует операции записи по специалисту между репликами сервиса
type RedisLocker struct {
	client redis.UniversalClient
	cfg    Config
	logger Logger
}

// NewRedisLocker создает блокировку поверх Redis
func NewRedisLocker(client redis.UniversalClient, cfg Config, logger Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 3 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

// Lock захватывает блокировку специалиста и возвращает функцию освобождения
func (l *RedisLocker) Lock(ctx context.Context, professionalID int64) (func(), error) {
	key := fmt.Sprintf("%s%d", keyPrefix, professionalID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(waitCtx, key, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: Lock - professional=%d: %v", ErrLockUnavailable, professionalID, err)
		}
		if acquired {
			return l.releaseFunc(key, token), nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: professional=%d", ErrLockTimeout, professionalID)
		}
	}
}

func (l *RedisLocker) releaseFunc(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			// Ключ истечет сам по TTL
			l.logger.Warn("lock: failed to release %s: %v", key, err)
		}
	}
}

// NoopLocker используется, когда Redis не настроен.
// Атомарность записи при этом обеспечивает БД.
type NoopLocker struct{}

// Lock ничего не блокирует
func (NoopLocker) Lock(context.Context, int64) (func(), error) {
	return func() {}, nil
}
