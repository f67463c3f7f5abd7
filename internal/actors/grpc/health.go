package grpc

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name under which the clients service reports its health.
const ServiceName = "clients.v1.ClientService"

// Pinger is a dependency whose reachability decides whether the service is healthy.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServiceArgs are the mandatory args to instantiate the HealthService.
type HealthServiceArgs struct {
	// Pinger is usually the storage actor.
	Pinger Pinger
}

// HealthServiceOptArgs are the optional arguments for building a HealthService.
type HealthServiceOptArgs = func(*HealthService)

// WithInterval overrides how often Watch probes the Pinger.
func WithInterval(interval time.Duration) HealthServiceOptArgs {
	return func(h *HealthService) {
		h.interval = interval
	}
}

// HealthService reports storage reachability through the standard gRPC health
// protocol and to the HTTP gateway.
type HealthService struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
}

// NewHealthService creates a new HealthService. Until the first probe the service
// reports SERVING.
func NewHealthService(args HealthServiceArgs, optArgs ...HealthServiceOptArgs) (*HealthService, error) {
	if args.Pinger == nil {
		return nil, errors.New("nil pinger")
	}
	h := &HealthService{
		server:   health.NewServer(),
		pinger:   args.Pinger,
		interval: 10 * time.Second,
	}
	for _, opt := range optArgs {
		opt(h)
	}
	h.setStatus(healthpb.HealthCheckResponse_SERVING)
	return h, nil
}

// Register exposes the health service on the gRPC server.
func (h *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Healthz probes the Pinger once and records the outcome.
func (h *HealthService) Healthz(ctx context.Context) error {
	if err := h.pinger.Ping(ctx); err != nil {
		h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	h.setStatus(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Watch probes the Pinger periodically until ctx is cancelled, then marks the
// service as shutting down. It blocks and should run in its own go-routine.
func (h *HealthService) Watch(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, h.interval)
			if err := h.Healthz(probeCtx); err != nil {
				log.WithError(err).Warn("health probe failed")
			}
			cancel()
		}
	}
}

func (h *HealthService) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}
