package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-pg/pg/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	gatewayactor "github.com/rbroggi/clients/internal/actors/gateway"
	grpcactor "github.com/rbroggi/clients/internal/actors/grpc"
	jwtactor "github.com/rbroggi/clients/internal/actors/jwt"
	memoryactor "github.com/rbroggi/clients/internal/actors/memory"
	mongoactor "github.com/rbroggi/clients/internal/actors/mongo"
	postgresactor "github.com/rbroggi/clients/internal/actors/postgres"
	produceractor "github.com/rbroggi/clients/internal/actors/pubsub/producer"
	"github.com/rbroggi/clients/internal/config"
	"github.com/rbroggi/clients/internal/core/model"
	"github.com/rbroggi/clients/internal/core/ports"
	"github.com/rbroggi/clients/internal/core/usecase"
	"github.com/rbroggi/clients/internal/metrics"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetLevel(log.DebugLevel)
}

var (
	grpcServerEndpoint = flag.String("grpc-server-endpoint", "localhost:50051", "gRPC server endpoint")
	httpServerEndpoint = flag.String("http-server-endpoint", "localhost:8080", "HTTP server endpoint")
)

type repository interface {
	ports.Repository
	grpcactor.Pinger
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	opts := []usecase.ClientServiceOptArgs{}
	if cfg.PublishOnCreate {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("error creating pubsub client: %w", err)
		}
		defer client.Close()

		topic := client.Topic(cfg.PubSub.ClientEventTopic)
		defer topic.Stop()
		producer, err := produceractor.NewProducer(topic)
		if err != nil {
			return err
		}
		opts = append(opts,
			usecase.WithSender(producer),
			usecase.WithPublishErrorHandler(func(event model.ClientEvent, err error) {
				appMetrics.IncrementPublishFailures()
				log.WithError(err).WithField("event-id", event.ID).Error("could not publish client creation event")
			}),
		)
	}
	clientService := usecase.NewClientService(usecase.ClientServiceArgs{Repository: repo}, opts...)

	tokens, err := jwtactor.NewService(jwtactor.ServiceArgs{
		SigningKey: []byte(cfg.JWT.Key),
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		TTL:        cfg.JWT.TTL,
	})
	if err != nil {
		return err
	}
	authenticator := usecase.NewAuthenticator(usecase.AuthenticatorArgs{
		ServiceAccounts: cfg.ServiceAccounts,
		Issuer:          tokens,
	})
	if len(cfg.ServiceAccounts) == 0 {
		log.Warn("no service accounts configured, no token can be issued")
	}

	healthService, err := grpcactor.NewHealthService(grpcactor.HealthServiceArgs{Pinger: repo})
	if err != nil {
		return err
	}
	go healthService.Watch(ctx)

	gateway, err := gatewayactor.NewServer(gatewayactor.ServerArgs{
		Clients:  clientService,
		Auth:     authenticator,
		Verifier: tokens,
		Health:   healthService,
		Metrics:  appMetrics,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              *httpServerEndpoint,
		Handler:           gateway.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()

	lis, err := net.Listen("tcp", *grpcServerEndpoint)
	if err != nil {
		return err
	}

	s := grpc.NewServer()
	healthService.Register(s)

	// Register reflection service on gRPC server.
	reflection.Register(s)

	// Start gRPC server
	go func() {
		if err := s.Serve(lis); err != nil {
			panic(err)
		}
	}()

	log.
		WithField("http-server-addr", *httpServerEndpoint).
		WithField("grpc-server-addr", *grpcServerEndpoint).
		WithField("storage-driver", cfg.StorageDriver).
		Info("servers up or soon to be up. listening to SIGTERM, SIGINT, SIGQUIT for stoping the server")

	// Wait for signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-ch

	// Stop servers
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("error shutting down http server")
	}
	s.GracefulStop()

	return nil
}

// openRepository connects the storage selected by configuration. The returned func
// releases the connection.
func openRepository(ctx context.Context, cfg *config.Config) (repository, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		opt, err := pg.ParseURL(cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("error parsing postgres url: %w", err)
		}
		db := pg.Connect(opt)
		if err := db.Ping(ctx); err != nil {
			log.WithError(err).Error("db does not appear to be reachable")
			db.Close()
			return nil, nil, err
		}
		postgresDB, err := postgresactor.NewPostgresDB(postgresactor.PostgresDBArgs{DB: db})
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgresDB, func() { db.Close() }, nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting to mongo: %w", err)
		}
		disconnect := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Error("error disconnecting from mongo")
			}
		}
		if err := client.Ping(ctx, nil); err != nil {
			log.WithError(err).Error("db does not appear to be reachable")
			disconnect()
			return nil, nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		mongoDB, err := mongoactor.NewMongoDB(mongoactor.MongoDBArgs{
			ClientCollection:  database.Collection("clients"),
			CounterCollection: database.Collection("counters"),
		})
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		if err := mongoDB.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, nil, err
		}
		return mongoDB, disconnect, nil

	case config.DriverMemory:
		log.Warn("using in-memory storage, data will be lost on restart")
		return memoryactor.NewMemoryDB(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		panic(err)
	}
}
