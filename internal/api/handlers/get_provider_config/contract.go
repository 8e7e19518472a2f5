package get_provider_config

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/config/models"
)

type ConfigService interface {
	GetEffective(ctx context.Context, providerID int64, locationID, serviceID *int64) (*models.ConfigResponse, error)
	GetAllByProvider(ctx context.Context, providerID int64) (*models.ConfigListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
