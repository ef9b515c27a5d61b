package route_command

import (
	"context"

	routeCommand "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/route_command"
)

type RouteCommandUseCase interface {
	Route(ctx context.Context, cmd routeCommand.Command) (*routeCommand.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
