package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Config конфигурация сервиса, загружается из config.toml
type Config struct {
	Server         ServerConfig         `toml:"server"`
	Database       DatabaseConfig       `toml:"database"`
	Logs           LogsConfig           `toml:"logs"`
	Metrics        MetricsConfig        `toml:"metrics"`
	CatalogService IntegrationConfig    `toml:"catalog_service"`
	Payments       IntegrationConfig    `toml:"payments"`
	Notifications  IntegrationConfig    `toml:"notifications"`
	Booking        BookingConfig        `toml:"booking"`
	Cancellation   []CancellationTier   `toml:"cancellation_tiers"`
	NoShow         NoShowConfig         `toml:"no_show"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки Prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// IntegrationConfig настройки внешнего HTTP сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// BookingConfig настройки движка бронирования
type BookingConfig struct {
	// HoldTTLSeconds время жизни холда до подтверждения
	HoldTTLSeconds int `toml:"hold_ttl_seconds"`

	// OfferTTLMinutes время жизни оффера листа ожидания
	OfferTTLMinutes int `toml:"offer_ttl_minutes"`

	// SweeperIntervalSeconds период очистки истекших холдов и офферов
	SweeperIntervalSeconds int `toml:"sweeper_interval_seconds"`

	Currency string `toml:"currency"`
}

// CancellationTier тариф отмены из конфигурации
type CancellationTier struct {
	MinHoursBefore float64 `toml:"min_hours_before"`
	FeePercent     float64 `toml:"fee_percent"`
}

// NoShowConfig политика блокировки за неявки
type NoShowConfig struct {
	Threshold    int `toml:"threshold"`     // количество неявок для блокировки
	LookbackDays int `toml:"lookback_days"` // окно подсчета неявок
	BlockDays    int `toml:"block_days"`    // длительность блокировки
}

// CancellationPolicy собирает domain политику отмены из конфигурации
func (c *Config) CancellationPolicy() domain.CancellationPolicy {
	tiers := make([]domain.CancellationTier, 0, len(c.Cancellation))
	for _, t := range c.Cancellation {
		tiers = append(tiers, domain.CancellationTier{
			MinHoursBefore: t.MinHoursBefore,
			FeePercent:     t.FeePercent,
		})
	}
	return domain.CancellationPolicy{Tiers: tiers}
}

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("config: server.http_port must be positive")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Booking.HoldTTLSeconds <= 0 {
		return fmt.Errorf("config: booking.hold_ttl_seconds must be positive")
	}
	if c.Booking.OfferTTLMinutes <= 0 {
		return fmt.Errorf("config: booking.offer_ttl_minutes must be positive")
	}
	if c.Booking.SweeperIntervalSeconds <= 0 {
		return fmt.Errorf("config: booking.sweeper_interval_seconds must be positive")
	}
	if err := c.CancellationPolicy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.NoShow.Threshold <= 0 || c.NoShow.LookbackDays <= 0 || c.NoShow.BlockDays <= 0 {
		return fmt.Errorf("config: no_show policy values must be positive")
	}
	return nil
}
