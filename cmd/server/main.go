package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-portal/config"
	"hotel-portal/internal/api"
	"hotel-portal/internal/board"
	"hotel-portal/internal/broker"
	"hotel-portal/internal/realtime"
	"hotel-portal/internal/redisclient"
	"hotel-portal/internal/service"
	"hotel-portal/internal/store"
	"hotel-portal/internal/store/memstore"
	"hotel-portal/internal/util"
	"hotel-portal/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	loc := cfg.Location()
	logger.Info("Starting hotel portal",
		zap.String("env", cfg.Server.Env),
		zap.String("timezone", loc.String()),
		zap.String("store", cfg.Database.Backend),
		zap.String("bus", cfg.Portal.BusBackend),
		zap.String("board_sync", cfg.Portal.BoardSync))

	tp, err := util.InitTracer("hotel-portal", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	var readiness []api.Pinger

	var repo store.Repository
	switch cfg.Database.Backend {
	case config.StoreMemory:
		mem := memstore.New()
		demo := mem.SeedDemo()
		logger.Info("In-memory store seeded", zap.Int64("hotel_id", demo.ID))
		repo = mem
	default:
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Database connected")
		repo = db
	}
	readiness = append(readiness, repo)

	var bus realtime.Bus
	switch cfg.Portal.BusBackend {
	case config.BusRedis:
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected")
		bus = redisClient
		readiness = append(readiness, redisClient)
	default:
		bus = realtime.NewMemoryBus(realtime.DefaultBuffer)
	}

	builder := board.NewBuilder(repo, cfg.Portal.BoardLaneLimit, loc)
	broadcaster := realtime.NewBroadcaster(builder, bus)

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))
	}

	// with events sync the board refresh runs in the worker instead of the request path
	var notifier service.BoardNotifier = broadcaster
	if cfg.Portal.BoardSync == config.BoardSyncEvents {
		notifier = nil
	}

	billingService := service.NewBillingService(repo, notifier, publisher)
	requestService := service.NewRequestService(repo, billingService, notifier, publisher, loc)
	occupancyService := service.NewOccupancyService(repo, billingService, notifier, publisher, loc)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var syncWorker *worker.BoardSyncWorker
	if cfg.Portal.BoardSync == config.BoardSyncEvents {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		syncWorker = worker.NewBoardSyncWorker(consumer, broadcaster)
		go func() {
			if err := syncWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Board sync worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Guests:      service.NewGuestService(repo),
		Carts:       service.NewCartService(repo),
		Requests:    requestService,
		Occupancy:   occupancyService,
		Billing:     billingService,
		Broadcaster: broadcaster,
		Gateway:     realtime.NewGateway(broadcaster, bus, cfg.Portal.StaffBotKey, cfg.Server.CORSOrigins),
	}, api.Options{
		Location:          loc,
		PhoneCookieMaxAge: cfg.Portal.PhoneCookieMaxAge(),
		SecureCookies:     cfg.Server.Env == "production",
		CORSOrigins:       cfg.Server.CORSOrigins,
		Readiness:         readiness,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if syncWorker != nil {
		if err := syncWorker.Stop(); err != nil {
			logger.Warn("Error stopping board sync worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
