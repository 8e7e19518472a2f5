package update_provider_config

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/config/models"
)

type ConfigService interface {
	GetExact(ctx context.Context, providerID int64, locationID, serviceID *int64) (*models.ConfigResponse, error)
	Create(ctx context.Context, req *models.CreateConfigRequest) (*models.ConfigResponse, error)
	Update(ctx context.Context, id int64, req *models.UpdateConfigRequest) (*models.ConfigResponse, error)
	Delete(ctx context.Context, id int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
