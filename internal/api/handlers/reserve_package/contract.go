package reserve_package

import (
	"context"

	reservePackage "github.com/m04kA/SMC-SchedulingService/internal/usecase/reserve_package"
)

type ReservePackageUseCase interface {
	Execute(ctx context.Context, req *reservePackage.Request) (*reservePackage.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
