package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func TestHealthService_Healthz(t *testing.T) {
	pinger := &fakePinger{}
	h, err := NewHealthService(HealthServiceArgs{Pinger: pinger})
	require.NoError(t, err)

	ctx := context.Background()
	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		return resp.Status
	}

	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check())

	pinger.err = errors.New("connection refused")
	require.Error(t, h.Healthz(ctx))
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())

	pinger.err = nil
	require.NoError(t, h.Healthz(ctx))
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check())
}

func TestHealthService_WatchStopsOnCancel(t *testing.T) {
	h, err := NewHealthService(HealthServiceArgs{Pinger: &fakePinger{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Watch(ctx)
		close(done)
	}()
	cancel()
	<-done

	resp, err := h.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestNewHealthService_NilPinger(t *testing.T) {
	_, err := NewHealthService(HealthServiceArgs{})
	require.Error(t, err)
}
