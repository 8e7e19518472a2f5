package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	configRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/config"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/service/config/models"
)

// Service сервис конфигурации расписания провайдеров
type Service struct {
	configRepo ConfigRepository
	catalog    CatalogClient
	logger     Logger
}

// NewService создает новый экземпляр сервиса конфигурации
func NewService(configRepo ConfigRepository, catalog CatalogClient, logger Logger) *Service {
	return &Service{
		configRepo: configRepo,
		catalog:    catalog,
		logger:     logger,
	}
}

// Create создает новую конфигурацию расписания.
// Проверяет существование провайдера, локации и услуги в каталоге.
func (s *Service) Create(ctx context.Context, req *models.CreateConfigRequest) (*models.ConfigResponse, error) {
	s.logger.Info("Create: creating config for provider=%d, location=%v, service=%v",
		req.ProviderID, req.LocationID, req.ServiceID)

	// 1. Валидируем параметры
	if err := validateConfigData(req.BaseCapacity, req.OverbookingPercent,
		req.AdvanceBookingDays, req.MinBookingNoticeMinutes); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	// 2. Провайдер должен существовать в каталоге
	provider, err := s.catalog.GetProvider(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrProviderNotFound) {
			s.logger.Warn("Create: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		s.logger.Error("Create: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 3. Локация, если указана, должна принадлежать провайдеру
	if req.LocationID != nil && !provider.HasLocation(*req.LocationID) {
		s.logger.Warn("Create: location id=%d not found in provider=%d", *req.LocationID, req.ProviderID)
		return nil, ErrLocationNotFound
	}

	// 4. Услуга, если указана, должна существовать и принадлежать провайдеру
	if req.ServiceID != nil {
		service, err := s.catalog.GetService(ctx, *req.ServiceID)
		if err != nil {
			if errors.Is(err, catalogservice.ErrServiceNotFound) {
				s.logger.Warn("Create: service id=%d not found", *req.ServiceID)
				return nil, ErrServiceNotFound
			}
			s.logger.Error("Create: failed to get service id=%d: %v", *req.ServiceID, err)
			return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
		if service.ProviderID != req.ProviderID {
			s.logger.Warn("Create: service id=%d belongs to another provider", *req.ServiceID)
			return nil, ErrServiceNotFound
		}
	}

	// 5. Дубликат комбинации provider/location/service запрещен
	existing, err := s.configRepo.GetExact(ctx, req.ProviderID, req.LocationID, req.ServiceID)
	if err != nil && !errors.Is(err, configRepo.ErrConfigNotFound) {
		s.logger.Error("Create: failed to check existing config: %v", err)
		return nil, fmt.Errorf("%w: failed to check existing config: %v", ErrInternal, err)
	}
	if existing != nil {
		s.logger.Warn("Create: config already exists for provider=%d, location=%v, service=%v",
			req.ProviderID, req.LocationID, req.ServiceID)
		return nil, ErrConfigAlreadyExists
	}

	// 6. Создаем конфигурацию
	created, err := s.configRepo.Create(ctx, req.ToDomainConfig())
	if err != nil {
		if errors.Is(err, configRepo.ErrDuplicateConfig) {
			return nil, ErrConfigAlreadyExists
		}
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: successfully created config id=%d", created.ID)
	return models.FromDomainConfig(created), nil
}

// GetEffective возвращает действующую конфигурацию для комбинации
// провайдера, локации и услуги с учетом иерархии приоритетов.
// При отсутствии конфигурации возвращаются значения по умолчанию.
func (s *Service) GetEffective(ctx context.Context, providerID int64, locationID, serviceID *int64) (*models.ConfigResponse, error) {
	cfg, err := s.configRepo.GetConfigWithHierarchy(ctx, providerID, locationID, serviceID)
	if err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return models.FromDomainConfig(&domain.SchedulingConfig{
				ProviderID:              providerID,
				SlotGranularityMinutes:  domain.DefaultSlotGranularityMinutes,
				BaseCapacity:            domain.DefaultBaseCapacity,
				OverbookingPercent:      domain.DefaultOverbookingPercent,
				AdvanceBookingDays:      domain.DefaultAdvanceBookingDays,
				MinBookingNoticeMinutes: domain.DefaultMinBookingNoticeMinutes,
			}), nil
		}
		s.logger.Error("GetEffective: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetEffective - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainConfig(cfg), nil
}

// GetExact возвращает конфигурацию точного уровня (без подъема по
// иерархии). Используется для различения create и update при сохранении.
func (s *Service) GetExact(ctx context.Context, providerID int64, locationID, serviceID *int64) (*models.ConfigResponse, error) {
	cfg, err := s.configRepo.GetExact(ctx, providerID, locationID, serviceID)
	if err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return nil, ErrConfigNotFound
		}
		s.logger.Error("GetExact: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetExact - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainConfig(cfg), nil
}

// GetAllByProvider возвращает все конфигурации провайдера
func (s *Service) GetAllByProvider(ctx context.Context, providerID int64) (*models.ConfigListResponse, error) {
	configs, err := s.configRepo.GetAllByProvider(ctx, providerID)
	if err != nil {
		s.logger.Error("GetAllByProvider: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetAllByProvider - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainConfigList(configs), nil
}

// Update обновляет параметры конфигурации расписания
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateConfigRequest) (*models.ConfigResponse, error) {
	if err := validateConfigData(req.BaseCapacity, req.OverbookingPercent,
		req.AdvanceBookingDays, req.MinBookingNoticeMinutes); err != nil {
		s.logger.Warn("Update: validation failed for config=%d: %v", id, err)
		return nil, err
	}

	updated, err := s.configRepo.Update(ctx, id, &domain.SchedulingConfig{
		SlotGranularityMinutes:  req.SlotGranularityMinutes,
		BaseCapacity:            req.BaseCapacity,
		OverbookingPercent:      req.OverbookingPercent,
		AdvanceBookingDays:      req.AdvanceBookingDays,
		MinBookingNoticeMinutes: req.MinBookingNoticeMinutes,
	})
	if err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return nil, ErrConfigNotFound
		}
		s.logger.Error("Update: repository error for config=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: successfully updated config id=%d", id)
	return models.FromDomainConfig(updated), nil
}

// Delete удаляет конфигурацию расписания
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.configRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return ErrConfigNotFound
		}
		s.logger.Error("Delete: repository error for config=%d: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Delete: successfully deleted config id=%d", id)
	return nil
}

// validateConfigData проверяет бизнес-границы параметров конфигурации
func validateConfigData(baseCapacity, overbookingPercent, advanceDays, noticeMinutes int) error {
	if baseCapacity < domain.MinBaseCapacity || baseCapacity > domain.MaxBaseCapacity {
		return fmt.Errorf("%w: base capacity %d out of [%d, %d]",
			ErrInvalidInput, baseCapacity, domain.MinBaseCapacity, domain.MaxBaseCapacity)
	}
	if overbookingPercent < domain.MinOverbookingPercent || overbookingPercent > domain.MaxOverbookingPercent {
		return fmt.Errorf("%w: overbooking percent %d out of [%d, %d]",
			ErrInvalidInput, overbookingPercent, domain.MinOverbookingPercent, domain.MaxOverbookingPercent)
	}
	if advanceDays < domain.MinAdvanceBookingDays || advanceDays > domain.MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advance booking days %d out of [%d, %d]",
			ErrInvalidInput, advanceDays, domain.MinAdvanceBookingDays, domain.MaxAdvanceBookingDays)
	}
	if noticeMinutes < 0 {
		return fmt.Errorf("%w: negative min booking notice", ErrInvalidInput)
	}
	return nil
}
