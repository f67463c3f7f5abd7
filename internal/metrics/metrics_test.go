package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/v1/clients", 200, time.Now())
	m.ObserveRequest("GET", "/v1/clients", 200, time.Now())
	m.IncrementClientsRegistered()
	m.IncrementPublishFailures()
	m.IncrementEventsRelayed("client.updated")

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/v1/clients", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ClientsRegistered))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures))
	require.Equal(t, 1.0, testutil.ToFloat64(m.EventsRelayed.WithLabelValues("client.updated")))
}
