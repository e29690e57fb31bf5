package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venue-service/config"
	"venue-service/internal/api"
	"venue-service/internal/broker"
	"venue-service/internal/redisclient"
	"venue-service/internal/service"
	"venue-service/internal/store"
	"venue-service/internal/util"
	"venue-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting venue service", zap.String("store", cfg.Store.Backend))

	tp, err := util.InitTracer(util.TracingOptions{
		ServiceName:    cfg.Observ.ServiceName,
		JaegerEndpoint: cfg.Observ.JaegerEndpoint,
		SampleRatio:    cfg.Observ.TraceSampleRate,
	})
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

	var (
		kv          store.KV
		locker      store.Locker
		redisClient *redisclient.Client
		ready       func(ctx context.Context) error
	)

	if cfg.Store.Backend != "memory" {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.LockTTLSeconds)*time.Second)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = redisClient
		logger.Info("Redis connected")
	}

	switch cfg.Store.Backend {
	case "postgres":
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		kv = db
		ready = func(ctx context.Context) error { return db.GetDB().PingContext(ctx) }
		logger.Info("Database connected")
	case "redis":
		kv = redisClient
		ready = func(ctx context.Context) error { return redisClient.GetClient().Ping(ctx).Err() }
	case "memory":
		kv = store.NewMemoryStore()
		locker = store.NewMemoryLocker()
		logger.Warn("Using in-memory store, data is lost on restart")
	default:
		logger.Fatal("Unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	docs := store.NewDocuments(kv)
	deps := service.NewDeps(docs, locker, nil)
	deps.LockTimeout = time.Duration(cfg.Business.LockTimeoutSeconds) * time.Second

	kitchen := service.NewKitchenBoard(deps, service.DefaultBoardSize)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if redisClient != nil {
		docs.SetRelay(func(ctx context.Context, venueID, topic string) {
			if err := redisClient.PublishChange(ctx, venueID, topic); err != nil {
				logger.Warn("Failed to relay change", zap.String("venue_id", venueID), zap.String("topic", topic), zap.Error(err))
			}
		})
		go func() {
			err := redisClient.SubscribeChanges(workerCtx, func(change redisclient.Change) {
				logger.Debug("Remote venue document changed",
					zap.String("venue_id", change.VenueID),
					zap.String("topic", change.Topic))
				docs.Dispatch(workerCtx, change.VenueID, change.Topic)
			})
			if err != nil && workerCtx.Err() == nil {
				logger.Error("Change subscription stopped", zap.Error(err))
			}
		}()
	}

	var kitchenWorker *worker.KitchenWorker
	if cfg.Kafka.Enabled {
		ticketProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicTickets)
		defer ticketProducer.Close()
		eventProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer eventProducer.Close()
		deps.Events = broker.NewEventPublisher(ticketProducer, eventProducer)
		logger.Info("Kafka producers initialized")

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicTickets, cfg.Kafka.ConsumerGroup)
		var dedup worker.Deduplicator
		if redisClient != nil {
			dedup = redisClient
		}
		kitchenWorker = worker.NewKitchenWorker(consumer, kitchen, dedup)
		go func() {
			if err := kitchenWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Kitchen worker error", zap.Error(err))
			}
		}()
	} else {
		deps.Events = service.BoardSink{Board: kitchen}
		logger.Info("Kafka disabled, tickets go straight to the kitchen board")
	}

	tables := service.NewTableRegistry(deps)
	menu := service.NewMenu(deps)
	employees := service.NewEmployees(deps)
	settings := service.NewSettings(deps)
	cash := service.NewCashLedger(deps)
	loyalty := service.NewLoyalty(deps, nil)
	orders := service.NewOrderService(deps, menu, employees, tables, cash, loyalty, settings, cfg.Business.ServiceFeePercent)
	stopWatching := orders.WatchActiveOrders()
	defer stopWatching()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := api.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Tables:       tables,
		Reservations: service.NewReservationBook(deps, tables),
		Menu:         menu,
		Employees:    employees,
		Settings:     settings,
		Orders:       orders,
		Cash:         cash,
		Loyalty:      loyalty,
		Kitchen:      kitchen,
		Ready:        ready,
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
	if kitchenWorker != nil {
		if err := kitchenWorker.Stop(); err != nil {
			logger.Warn("Error stopping kitchen worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
