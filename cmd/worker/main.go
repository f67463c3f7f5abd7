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
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcactor "github.com/rbroggi/clients/internal/actors/grpc"
	produceractor "github.com/rbroggi/clients/internal/actors/pubsub/producer"
	subscriberactor "github.com/rbroggi/clients/internal/actors/pubsub/subscriber"
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
	grpcServerEndpoint = flag.String("grpc-server-endpoint", "localhost:50052", "gRPC server endpoint")
	httpServerEndpoint = flag.String("http-server-endpoint", "localhost:8081", "HTTP server endpoint")
)

// subscriptionPinger reports the worker healthy while its CDC subscription exists.
type subscriptionPinger struct {
	subscription *pubsub.Subscription
}

func (p subscriptionPinger) Ping(ctx context.Context) error {
	exists, err := p.subscription.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("subscription %s does not exist", p.subscription.ID())
	}
	return nil
}

// countingSender counts the events relayed to the public topic.
type countingSender struct {
	next    ports.Sender
	metrics *metrics.Metrics
}

func (c countingSender) Send(ctx context.Context, event model.ClientEvent) error {
	if err := c.next.Send(ctx, event); err != nil {
		return err
	}
	c.metrics.IncrementEventsRelayed(event.Type)
	return nil
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return err
	}
	defer client.Close()

	topic := client.Topic(cfg.PubSub.ClientEventTopic)
	defer topic.Stop()
	producer, err := produceractor.NewProducer(topic)
	if err != nil {
		return err
	}

	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	// with publish_on_create the server announces creations, relaying the insert would duplicate them
	informer := usecase.NewInformer(
		countingSender{next: producer, metrics: appMetrics},
		usecase.WithSkipCreations(cfg.PublishOnCreate),
	)

	subscription := client.Subscription(cfg.PubSub.CDCSubscription)
	subscriber := subscriberactor.NewSubscriber(subscriberactor.SubscriberArgs{
		ClientEventHandler: informer,
		Subscription:       subscription,
	})

	// start subscriber
	go func(ctx context.Context) {
		if err := subscriber.Consume(ctx); err != nil {
			panic(err)
		}
	}(ctx)

	healthService, err := grpcactor.NewHealthService(grpcactor.HealthServiceArgs{
		Pinger: subscriptionPinger{subscription: subscription},
	}, grpcactor.WithInterval(30*time.Second))
	if err != nil {
		return err
	}
	go healthService.Watch(ctx)

	mux := runtime.NewServeMux()
	if err := mux.HandlePath(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		w.Header().Set("Content-Type", "application/json")
		if err := healthService.Healthz(r.Context()); err != nil {
			log.WithError(err).Warn("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"Unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"Ok"}`))
	}); err != nil {
		return err
	}
	metricsHandler := promhttp.Handler()
	if err := mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		metricsHandler.ServeHTTP(w, r)
	}); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              *httpServerEndpoint,
		Handler:           mux,
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
		WithField("subscription", cfg.PubSub.CDCSubscription).
		Info("worker up or soon to be up. listening to SIGTERM, SIGINT, SIGQUIT for stoping the worker")

	// Wait for signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-ch

	// Stop servers and subscriber
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("error shutting down http server")
	}
	s.GracefulStop()

	return nil
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		panic(err)
	}
}
