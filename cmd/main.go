package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	addExceptionHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/add_exception"
	advanceStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/advance_status"
	cancelBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/cancel_booking"
	commitHoldHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/commit_hold"
	confirmOfferHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/confirm_offer"
	createHoldHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_hold"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking"
	getClientBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_client_bookings"
	getProviderConfigHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_provider_config"
	getProviderScheduleHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_provider_schedule"
	getWindowsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_windows"
	joinWaitlistHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/join_waitlist"
	markNoShowHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/mark_no_show"
	putWindowsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/put_windows"
	releaseHoldHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/release_hold"
	reservePackageHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/reserve_package"
	updateProviderConfigHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_provider_config"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	auditRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/audit"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	configRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/config"
	holdRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/hold"
	noshowRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/noshow"
	waitlistRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/waitlist"
	catalogServiceClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
	paymentsClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/payments"
	availabilityService "github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	configService "github.com/m04kA/SMC-SchedulingService/internal/service/config"
	ledgerService "github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
	policyService "github.com/m04kA/SMC-SchedulingService/internal/service/policy"
	waitlistService "github.com/m04kA/SMC-SchedulingService/internal/service/waitlist"
	generateSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/generate_slots"
	reservePackageUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/reserve_package"
	"github.com/m04kA/SMC-SchedulingService/internal/worker"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// realTimeProvider реальный провайдер времени для production
type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SchedulingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	payClient := paymentsClient.NewClient(
		cfg.Payments.URL,
		time.Duration(cfg.Payments.Timeout)*time.Second,
		log,
	)
	notifier := notify.NewDispatcher(
		cfg.Notifications.URL,
		time.Duration(cfg.Notifications.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (CatalogService=%s, Payments=%s, Notifications=%s)",
		cfg.CatalogService.URL, cfg.Payments.URL, cfg.Notifications.URL)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository      *bookingRepo.Repository
		holdRepository         *holdRepo.Repository
		configRepository       *configRepo.Repository
		availabilityRepository *availabilityRepo.Repository
		waitlistRepository     *waitlistRepo.Repository
		noshowRepository       *noshowRepo.Repository
		auditRepository        *auditRepo.Repository
	)

	// Интерфейс для transaction manager (используется сервисами)
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		holdRepository = holdRepo.NewRepository(wrappedDB)
		configRepository = configRepo.NewRepository(wrappedDB)
		availabilityRepository = availabilityRepo.NewRepository(wrappedDB)
		waitlistRepository = waitlistRepo.NewRepository(wrappedDB)
		noshowRepository = noshowRepo.NewRepository(wrappedDB)
		auditRepository = auditRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		holdRepository = holdRepo.NewRepository(db)
		configRepository = configRepo.NewRepository(db)
		availabilityRepository = availabilityRepo.NewRepository(db)
		waitlistRepository = waitlistRepo.NewRepository(db)
		noshowRepository = noshowRepo.NewRepository(db)
		auditRepository = auditRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	clock := realTimeProvider{}

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(availabilityRepository, txMgr, log)

	policySvc, err := policyService.NewService(
		cfg.CancellationPolicy(),
		cfg.NoShow.Threshold,
		cfg.NoShow.LookbackDays,
		cfg.NoShow.BlockDays,
		noshowRepository,
		clock,
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize policy service: %v", err)
	}

	waitlistSvc := waitlistService.NewService(
		waitlistRepository,
		auditRepository,
		notifier,
		txMgr,
		clock,
		time.Duration(cfg.Booking.OfferTTLMinutes)*time.Minute,
		log,
	)

	ledgerSvc := ledgerService.NewService(
		bookingRepository,
		holdRepository,
		configRepository,
		waitlistRepository,
		auditRepository,
		availabilitySvc,
		policySvc,
		waitlistSvc,
		catalogClient,
		payClient,
		notifier,
		txMgr,
		clock,
		time.Duration(cfg.Booking.HoldTTLSeconds)*time.Second,
		cfg.Booking.Currency,
		log,
	)

	bookingSvc := bookingsService.NewService(bookingRepository, log)
	configSvc := configService.NewService(configRepository, catalogClient, log)

	// Инициализируем use cases
	generateSlotsUseCase := generateSlotsUC.NewUseCase(
		bookingRepository,
		holdRepository,
		configRepository,
		availabilitySvc,
		catalogClient,
		log,
	)
	reservePackageUseCase := reservePackageUC.NewUseCase(ledgerSvc, catalogClient, log)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(generateSlotsUseCase, log)
	createHold := createHoldHandler.NewHandler(ledgerSvc, log)
	commitHold := commitHoldHandler.NewHandler(ledgerSvc, log)
	releaseHold := releaseHoldHandler.NewHandler(ledgerSvc, log)
	reservePackage := reservePackageHandler.NewHandler(reservePackageUseCase, log)
	joinWaitlist := joinWaitlistHandler.NewHandler(waitlistSvc, log)
	confirmOffer := confirmOfferHandler.NewHandler(ledgerSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(ledgerSvc, log)
	markNoShow := markNoShowHandler.NewHandler(ledgerSvc, log)
	advanceStatus := advanceStatusHandler.NewHandler(ledgerSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getClientBookings := getClientBookingsHandler.NewHandler(bookingSvc, log)
	getProviderSchedule := getProviderScheduleHandler.NewHandler(bookingSvc, log)
	getWindows := getWindowsHandler.NewHandler(availabilitySvc, log)
	putWindows := putWindowsHandler.NewHandler(availabilitySvc, log)
	addException := addExceptionHandler.NewHandler(availabilitySvc, log)
	getProviderConfig := getProviderConfigHandler.NewHandler(configSvc, log)
	updateProviderConfig := updateProviderConfigHandler.NewHandler(configSvc, log)

	// Фоновая очистка истекших холдов и офферов
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	sweeper := worker.NewSweeper(
		ledgerSvc,
		waitlistSvc,
		time.Duration(cfg.Booking.SweeperIntervalSeconds)*time.Second,
		log,
	)
	go sweeper.Run(sweeperCtx)
	log.Info("Expiry sweeper started (interval=%ds)", cfg.Booking.SweeperIntervalSeconds)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты на дату
	api.HandleFunc("/providers/{providerId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Расписание доступности провайдера
	api.HandleFunc("/providers/{providerId}/windows",
		getWindows.Handle).Methods(http.MethodGet)

	// Действующая конфигурация расписания
	api.HandleFunc("/providers/{providerId}/config",
		getProviderConfig.Handle).Methods(http.MethodGet)

	// Все уровни конфигурации провайдера
	api.HandleFunc("/providers/{providerId}/configs",
		getProviderConfig.HandleList).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Холды и бронирования ---
	// Резервирование слота (первая фаза)
	protected.HandleFunc("/holds", createHold.Handle).Methods(http.MethodPost)

	// Подтверждение холда (вторая фаза)
	protected.HandleFunc("/holds/{holdId}/commit", commitHold.Handle).Methods(http.MethodPost)

	// Досрочное освобождение холда
	protected.HandleFunc("/holds/{holdId}", releaseHold.Handle).Methods(http.MethodDelete)

	// Пакетное бронирование нескольких услуг подряд
	protected.HandleFunc("/packages", reservePackage.Handle).Methods(http.MethodPost)

	// --- Лист ожидания ---
	protected.HandleFunc("/waitlist", joinWaitlist.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/waitlist/{entryId}/confirm", confirmOffer.Handle).Methods(http.MethodPost)

	// --- Жизненный цикл бронирования ---
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/no-show", markNoShow.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/status", advanceStatus.Handle).Methods(http.MethodPatch)

	// История бронирований клиента
	protected.HandleFunc("/clients/{clientId}/bookings", getClientBookings.Handle).Methods(http.MethodGet)

	// --- Управление провайдером ---
	// Список бронирований провайдера
	protected.HandleFunc("/providers/{providerId}/bookings",
		getProviderSchedule.Handle).Methods(http.MethodGet)

	// Замена недельного расписания
	protected.HandleFunc("/providers/{providerId}/windows",
		putWindows.Handle).Methods(http.MethodPut)

	// Исключение на конкретную дату
	protected.HandleFunc("/providers/{providerId}/exceptions",
		addException.Handle).Methods(http.MethodPost)

	// Обновление конфигурации расписания
	protected.HandleFunc("/providers/{providerId}/config",
		updateProviderConfig.Handle).Methods(http.MethodPut)

	// Удаление уровня конфигурации
	protected.HandleFunc("/providers/{providerId}/configs/{configId}",
		updateProviderConfig.HandleDelete).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновую очистку
	stopSweeper()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
