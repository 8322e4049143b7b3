package main

import (
	"context"
	"log" // Using standard log for early errors before zap is set up
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fathima-sithara/notification-service/internal/auth"
	"github.com/fathima-sithara/notification-service/internal/config"
	"github.com/fathima-sithara/notification-service/internal/database"
	"github.com/fathima-sithara/notification-service/internal/handler"
	"github.com/fathima-sithara/notification-service/internal/hub"
	"github.com/fathima-sithara/notification-service/internal/kafka"
	"github.com/fathima-sithara/notification-service/internal/metrics"
	"github.com/fathima-sithara/notification-service/internal/middleware"
	"github.com/fathima-sithara/notification-service/internal/notifier"
	"github.com/fathima-sithara/notification-service/internal/redis"
	"github.com/fathima-sithara/notification-service/internal/repository"
	"github.com/fathima-sithara/notification-service/internal/routes"
	"github.com/fathima-sithara/notification-service/internal/service"
	"github.com/fathima-sithara/notification-service/internal/utils"
	"github.com/fathima-sithara/notification-service/internal/ws"
)

type repositories struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	posts         repository.PostRepository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables:", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()
	sugar.Infof("Starting notification-service in %s environment on port %d", cfg.App.Env, cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	var (
		repos       repositories
		mongoClient *mongo.Client
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		sugar.Warn("Using in-memory storage; notifications are lost on restart")
		store := repository.NewMemoryStore()
		for _, u := range cfg.Storage.Users() {
			store.PutUser(u)
		}
		sugar.Infof("Seeded %d users into the memory store", len(cfg.Storage.SeedUsers))
		repos = repositories{store.Notifications(), store.Users(), store.Posts()}
	default:
		db, client, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.ConnectTimeout, sugar)
		if err != nil {
			sugar.Fatal(err)
		}
		mongoClient = client
		notifications, err := repository.NewMongoNotificationRepo(ctx, db)
		if err != nil {
			sugar.Fatalf("create notification indexes: %v", err)
		}
		repos = repositories{notifications, repository.NewMongoUserRepo(db), repository.NewMongoPostRepo(db)}
	}

	// Presence
	var (
		rdb      *goredis.Client
		presence *redis.Store
	)
	if cfg.Redis.Enabled {
		rdb, err = database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.ConnectTimeout, sugar)
		if err != nil {
			sugar.Fatal(err)
		}
		presence = redis.NewStore(rdb, cfg.Redis.Prefix, cfg.PresenceTTL)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	validator, err := newValidator(cfg)
	if err != nil {
		sugar.Fatalf("jwt validator: %v", err)
	}

	// Email
	var (
		emailSender service.EmailSender
		dispatcher  *notifier.Dispatcher
	)
	if cfg.Email.Enabled {
		en, err := notifier.NewEmailNotifier(notifier.EmailConfig{
			APIURL:      cfg.Email.APIURL,
			APIKey:      cfg.Email.BrevoAPIKey,
			SenderEmail: cfg.Email.SenderEmail,
			SenderName:  cfg.Email.SenderName,
		}, sugar)
		if err != nil {
			sugar.Fatal(err)
		}
		dispatcher = notifier.NewDispatcher(en, cfg.Email.Workers, cfg.Email.QueueSize, sugar)
		dispatcher.Start()
		emailSender = dispatcher
		sugar.Info("Email notifications enabled.")
	} else {
		sugar.Warn("Email notifications disabled.")
	}

	registry := hub.New(sugar, m)
	svc := service.NewNotificationService(
		repos.notifications,
		service.NewLoader(repos.users, repos.posts),
		registry,
		emailSender,
		m,
		sugar,
		service.Options{PreviewLength: cfg.Email.PreviewLength, FrontendURL: cfg.Email.FrontendURL},
	)

	// Kafka ingress
	var consumer *kafka.Consumer
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		dlq := kafka.NewDLQWriter(cfg.Kafka.Brokers, cfg.Kafka.DLQTopic)
		defer dlq.Close()
		kh := kafka.NewHandler(svc, dlq, cfg.Kafka.MaxRetries, cfg.Kafka.RetryBackoffMs, sugar)
		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.GroupID, kh, sugar)
		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				sugar.Errorf("kafka consumer stopped: %v", err)
			}
		}()
	} else {
		close(consumerDone)
	}

	// HTTP
	var presenceReader handler.PresenceReader
	var wsPresence ws.Presence
	if presence != nil {
		presenceReader = presence
		wsPresence = presence
	}
	wsServer := ws.NewServer(registry, repos.users, validator, wsPresence, ws.Config{
		PingInterval:   cfg.PingInterval,
		WriteDeadline:  cfg.WriteDeadline,
		MaxMessageSize: cfg.WS.MaxMessageSizeBytes,
		SendBufferSize: cfg.WS.SendBufferSize,
		Heartbeat:      cfg.WS.Heartbeat,
		IdleTimeout:    cfg.IdleTimeout,
	}, sugar)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, sugar)
	go limiter.Cleanup(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "notification-service",
		ErrorHandler: handler.ErrorHandler(sugar),
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(sugar, "/health", "/metrics"))
	routes.Register(app, routes.Deps{
		Handler:   handler.New(svc, service.NewFeedService(registry, sugar), presenceReader, registry, cfg.OperationTimeout, sugar),
		WS:        wsServer,
		Validator: validator,
		Limiter:   limiter,
		Metrics:   m,
	})

	go func() {
		sugar.Infof("Server listening on %s", cfg.Addr())
		if err := app.Listen(cfg.Addr()); err != nil {
			sugar.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down server...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShut()

	registry.Shutdown()
	if err := app.ShutdownWithContext(ctxShut); err != nil {
		sugar.Errorf("Fiber app shutdown error: %v", err)
	}

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			sugar.Errorf("Kafka consumer close error: %v", err)
		}
	}
	<-consumerDone

	if dispatcher != nil {
		if err := dispatcher.Stop(ctxShut); err != nil {
			sugar.Errorf("Email queue not drained: %v", err)
		}
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctxShut); err != nil {
			sugar.Errorf("MongoDB disconnect error: %v", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			sugar.Errorf("Redis client close error: %v", err)
		}
	}

	sugar.Info("Graceful shutdown complete. Goodbye!")
}

func newValidator(cfg *config.Config) (auth.TokenValidator, error) {
	if strings.EqualFold(cfg.JWT.Algorithm, "RS256") {
		return auth.NewRS256Validator(cfg.JWT.PublicKeyPath)
	}
	return auth.NewHS256Validator(cfg.JWT.HSSecret)
}
