package config

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// ConfigRepository интерфейс репозитория конфигурации расписания
type ConfigRepository interface {
	Create(ctx context.Context, config *domain.SchedulingConfig) (*domain.SchedulingConfig, error)
	GetByID(ctx context.Context, id int64) (*domain.SchedulingConfig, error)
	GetExact(ctx context.Context, providerID int64, locationID, serviceID *int64) (*domain.SchedulingConfig, error)
	GetConfigWithHierarchy(ctx context.Context, providerID int64, locationID, serviceID *int64) (*domain.SchedulingConfig, error)
	GetAllByProvider(ctx context.Context, providerID int64) ([]*domain.SchedulingConfig, error)
	Update(ctx context.Context, id int64, config *domain.SchedulingConfig) (*domain.SchedulingConfig, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogClient интерфейс клиента CatalogService
type CatalogClient interface {
	GetProvider(ctx context.Context, providerID int64) (*catalogservice.Provider, error)
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
