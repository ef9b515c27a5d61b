package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelAppointmentHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/cancel_appointment"
	checkAvailabilityHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/check_availability"
	getAppointmentHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/get_appointment"
	getAppointmentsHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/get_appointments"
	inboundMessageHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/inbound_message"
	rescheduleAppointmentHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/reschedule_appointment"
	routeCommandHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/route_command"
	scheduleAppointmentHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/schedule_appointment"
	updateAppointmentStatusHandler "github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers/update_appointment_status"
	"github.com/m04kA/SMC-PodologyScheduler/internal/api/middleware"
	"github.com/m04kA/SMC-PodologyScheduler/internal/config"
	"github.com/m04kA/SMC-PodologyScheduler/internal/infra/lock"
	appointmentRepo "github.com/m04kA/SMC-PodologyScheduler/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-PodologyScheduler/internal/infra/storage/catalog"
	patientRepo "github.com/m04kA/SMC-PodologyScheduler/internal/infra/storage/patient"
	"github.com/m04kA/SMC-PodologyScheduler/internal/integrations/intentparser"
	appointmentsService "github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments"
	routeCommandUC "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/route_command"
	scheduleAppointmentUC "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/logger"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/metrics"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/txmanager"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
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

	log.Info("Starting SMC-PodologyScheduler...")
	log.Info("Configuration loaded from %s", *configPath)

	clinicLoc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Fatal("Failed to load clinic timezone: %v", err)
	}
	log.Info("Clinic timezone: %s", clinicLoc)

	// Инициализируем метрики (если включены)
	var (
		metricsCollector *metrics.Metrics
		dbCollector      dbmetrics.Collector
	)
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		dbCollector = metricsCollector
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

	// Без коллектора обёртка только прокидывает запросы
	wrappedDB := dbmetrics.WrapWithDefault(db, dbCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB, txMgr, clinicLoc)
	catalogRepository := catalogRepo.NewRepository(wrappedDB, clinicLoc)
	patientRepository := patientRepo.NewRepository(wrappedDB)

	// Распределенная блокировка специалиста (если Redis включен)
	var locker appointmentsService.SlotLocker
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancelPing()
			log.Fatal("Failed to ping redis: %v", err)
		}
		cancelPing()

		locker = lock.NewRedisLocker(redisClient, lock.Config{
			TTL:           time.Duration(cfg.Redis.LockTTLMs) * time.Millisecond,
			WaitTimeout:   time.Duration(cfg.Redis.LockWaitMs) * time.Millisecond,
			RetryInterval: time.Duration(cfg.Redis.LockRetryMs) * time.Millisecond,
		}, log)
		log.Info("Redis professional lock enabled (addr=%s)", cfg.Redis.Addr)
	}

	// Инициализируем сервисы
	appointmentSvc := appointmentsService.NewService(
		appointmentRepository,
		catalogRepository,
		locker,
		metricsCollector,
		log,
		cfg.Scheduling.WriteTimeout(),
	)

	// Инициализируем use cases
	scheduleAppointmentUseCase := scheduleAppointmentUC.NewUseCase(
		catalogRepository,
		appointmentRepository,
		patientRepository,
		appointmentSvc,
		metricsCollector,
		log,
		cfg.Scheduling.MaxResolveAttempts,
	)

	routeCommandUseCase := routeCommandUC.NewUseCase(
		scheduleAppointmentUseCase,
		appointmentSvc,
		metricsCollector,
		log,
	)

	// Разбор входящих сообщений (если включен)
	var parser *intentparser.Client
	if cfg.IntentParser.Enabled {
		parser, err = intentparser.NewClient(
			context.Background(),
			cfg.IntentParser.APIKey,
			cfg.IntentParser.Model,
			time.Duration(cfg.IntentParser.Timeout)*time.Second,
			log,
		)
		if err != nil {
			log.Fatal("Failed to initialize intent parser: %v", err)
		}
		defer parser.Close()
		log.Info("Intent parser initialized (model=%s, timeout=%ds)", cfg.IntentParser.Model, cfg.IntentParser.Timeout)
	}

	// Инициализируем handlers
	scheduleAppointment := scheduleAppointmentHandler.NewHandler(scheduleAppointmentUseCase, clinicLoc, log)
	checkAvailability := checkAvailabilityHandler.NewHandler(scheduleAppointmentUseCase, clinicLoc, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	getAppointments := getAppointmentsHandler.NewHandler(appointmentSvc, clinicLoc, log)
	rescheduleAppointment := rescheduleAppointmentHandler.NewHandler(appointmentSvc, clinicLoc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(appointmentSvc, log)
	updateAppointmentStatus := updateAppointmentStatusHandler.NewHandler(appointmentSvc, log)
	routeCommand := routeCommandHandler.NewHandler(routeCommandUseCase, clinicLoc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware и endpoint (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Доступность ---
	// Подбор специалиста без записи
	api.HandleFunc("/availability", checkAvailability.Handle).Methods(http.MethodGet)

	// --- Записи ---
	// Запись на прием
	api.HandleFunc("/appointments", scheduleAppointment.Handle).Methods(http.MethodPost)

	// Записи на дату
	api.HandleFunc("/appointments", getAppointments.Handle).Methods(http.MethodGet)

	// Получение записи по ID
	api.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)

	// Перенос записи
	api.HandleFunc("/appointments/{appointmentId}/reschedule", rescheduleAppointment.Handle).Methods(http.MethodPatch)

	// Отмена записи
	api.HandleFunc("/appointments/{appointmentId}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// Смена статуса записи
	api.HandleFunc("/appointments/{appointmentId}/status", updateAppointmentStatus.Handle).Methods(http.MethodPatch)

	// --- Команды ---
	// Структурированное намерение (schedule, reschedule, cancel, query)
	api.HandleFunc("/commands", routeCommand.Handle).Methods(http.MethodPost)

	// Свободный текст от пациента
	if parser != nil {
		inboundMessage := inboundMessageHandler.NewHandler(parser, routeCommandUseCase, clinicLoc, log)
		api.HandleFunc("/inbound/messages", inboundMessage.Handle).Methods(http.MethodPost)
	}

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

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

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
