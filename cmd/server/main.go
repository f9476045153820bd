package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gametag/assassin/pkg/api"
	"github.com/gametag/assassin/pkg/auth/providers"
	"github.com/gametag/assassin/pkg/codes"
	"github.com/gametag/assassin/pkg/game"
	"github.com/gametag/assassin/pkg/log"
	"github.com/gametag/assassin/pkg/notifications"
	"github.com/gametag/assassin/pkg/pubsub"
	"github.com/gametag/assassin/pkg/queue"
	"github.com/gametag/assassin/pkg/repositories"
	"github.com/gametag/assassin/pkg/subscriptions"
	"github.com/gametag/assassin/pkg/version"
	"github.com/gametag/assassin/pkg/workers"
)

func main() {
	httpPort := flag.Int("http-port", 8080, "HTTP API port to listen on")
	wsPort := flag.Int("ws-port", 8081, "WebSocket port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	driver := flag.String("driver", "memory", "Storage driver (memory, sqlite or postgres)")
	sqlitePath := flag.String("sqlite-path", "assassin.db", "Path to the SQLite database file")
	sqliteMigrations := flag.String("sqlite-migrations", "migrations/sqlite", "Path to the SQLite migrations directory")
	authMode := flag.String("auth-mode", "firebase", "Auth mode (firebase or dev)")
	certFile := flag.String("cert-file", "", "Path to a TLS certificate file")
	keyFile := flag.String("key-file", "", "Path to a TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}

	log.Info("Starting server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, err := newRepository(ctx, *driver, *sqlitePath, *sqliteMigrations)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	bus, err := newBus(ctx)
	if err != nil {
		panic(fmt.Sprintf("Failed to create event bus: %v", err))
	}
	defer bus.Close()

	authProvider, err := newAuthProvider(ctx, *authMode)
	if err != nil {
		panic(fmt.Sprintf("Failed to create auth provider: %v", err))
	}

	engine := game.NewEngine(game.NewEngineOptions{
		Repository: repository,
		Codes:      codes.NewWordPairGenerator(nil),
	})

	eventQueue := queue.NewInMemoryQueue(1000)
	eventRouterWorker := workers.NewEventRouterWorker(workers.NewEventRouterWorkerOptions{
		EventQueue: eventQueue,
		Router:     notifications.NewRouter(bus),
		Interval:   100 * time.Millisecond,
	})
	go eventRouterWorker.Start(ctx)

	subscriberManager := subscriptions.NewSubscriberManager()
	deliveryWorker := subscriptions.NewDeliveryWorker(subscriptions.NewDeliveryWorkerOptions{
		Bus:     bus,
		Manager: subscriberManager,
	})
	go func() {
		if err := deliveryWorker.Start(ctx); err != nil {
			log.Error("Delivery worker error: %v", err)
		}
	}()

	var apiTLS *api.TLSConfig
	var wsTLS *subscriptions.TLSConfig
	if *certFile != "" && *keyFile != "" {
		apiTLS = &api.TLSConfig{CertFile: *certFile, KeyFile: *keyFile}
		wsTLS = &subscriptions.TLSConfig{CertFile: *certFile, KeyFile: *keyFile}
	}

	wsServer := subscriptions.NewWSServer(subscriptions.NewWSServerOptions{
		Port:         *wsPort,
		TLS:          wsTLS,
		AuthProvider: authProvider,
		Manager:      subscriberManager,
	})
	go wsServer.Start(ctx)

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *httpPort,
		TLS:          apiTLS,
		AuthProvider: authProvider,
		Repository:   repository,
		Engine:       engine,
		EventQueue:   eventQueue,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}

func newRepository(ctx context.Context, driver string, sqlitePath string, sqliteMigrations string) (repositories.Repository, error) {
	switch driver {
	case "memory":
		return repositories.NewInMemoryRepository(), nil
	case "sqlite":
		return repositories.NewSQLiteRepository(ctx, sqlitePath, sqliteMigrations)
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable must be set")
		}
		return repositories.NewPostgresRepository(ctx, connStr)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}

func newBus(ctx context.Context) (pubsub.Bus, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return pubsub.NewInMemoryBus(), nil
	}
	return pubsub.NewRedisBus(ctx, redisURL)
}

func newAuthProvider(ctx context.Context, mode string) (providers.AuthProvider, error) {
	switch mode {
	case "dev":
		log.Warn("Using dev auth provider, tokens are not verified")
		return providers.NewDevAuthProvider(), nil
	case "firebase":
		projectID := os.Getenv("FIREBASE_PROJECT_ID")
		if projectID == "" {
			return nil, fmt.Errorf("FIREBASE_PROJECT_ID environment variable must be set")
		}
		credentialsJSON := []byte(os.Getenv("FIREBASE_CREDENTIALS_JSON"))
		if len(credentialsJSON) == 0 {
			return nil, fmt.Errorf("FIREBASE_CREDENTIALS_JSON environment variable must be set")
		}
		return providers.NewFirebaseAuthProvider(ctx, projectID, credentialsJSON)
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", mode)
	}
}
