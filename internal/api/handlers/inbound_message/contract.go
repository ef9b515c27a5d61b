package inbound_message

import (
	"context"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	routeCommand "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/route_command"
)

// IntentParser извлекает намерение из свободного текста
type IntentParser interface {
	Parse(ctx context.Context, text string, today time.Time) (domain.Intent, error)
}

type RouteCommandUseCase interface {
	Route(ctx context.Context, cmd routeCommand.Command) (*routeCommand.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
