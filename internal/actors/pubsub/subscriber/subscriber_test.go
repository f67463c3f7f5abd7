package subscriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rbroggi/clients/internal/core/model"
	"github.com/stretchr/testify/require"
)

type mockHandler struct {
	events []model.ClientEvent
	err    error
}

func (m *mockHandler) Handle(ctx context.Context, event model.ClientEvent) error {
	m.events = append(m.events, event)
	return m.err
}

const updateMessage = `{
	"payload": {
		"op": "u",
		"ts_ms": 1709287200000,
		"source": {"schema": "clients", "table": "clients"},
		"before": {"id": 7, "first_name": "Ana", "last_name": "Ruiz", "nit": "1234567", "email": "ana@test.com",
			"is_deleted": false, "created_by": 5, "created_at": "2024-03-01T10:00:00.000000Z", "updated_by": 5, "updated_at": 1709287200000000},
		"after": {"id": 7, "first_name": "Anabel", "last_name": "Ruiz", "nit": "1234567", "email": "ana@test.com",
			"is_deleted": false, "created_by": 5, "created_at": "2024-03-01T10:00:00.000000Z", "updated_by": 9, "updated_at": null}
	}
}`

func TestDecodeCDCMessage(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	event, err := DecodeCDCMessage("m1", []byte(updateMessage))
	require.NoError(t, err)
	require.Equal(t, "m1", event.ID)
	require.Equal(t, at, event.OccurredAt)
	require.NotNil(t, event.Before)
	require.NotNil(t, event.After)
	require.Equal(t, int64(7), event.Before.ID)
	require.Equal(t, "Ana", event.Before.FirstName)
	require.Equal(t, "Anabel", event.After.FirstName)
	require.Equal(t, at, event.Before.CreatedAt)
	require.Equal(t, at, event.Before.UpdatedAt)
	require.True(t, event.After.UpdatedAt.IsZero())
	require.Equal(t, int64(9), event.After.UpdatedBy)

	_, err = DecodeCDCMessage("m2", []byte(`{"payload": {"source": {"table": "other"}}}`))
	require.ErrorIs(t, err, ErrIgnoreEvent)

	_, err = DecodeCDCMessage("m3", []byte(`not json`))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrIgnoreEvent)

	_, err = DecodeCDCMessage("m4", nil)
	require.Error(t, err)
}

func TestSubscriber_process(t *testing.T) {
	tests := []struct {
		name          string
		data          string
		handlerErr    error
		expectAck     bool
		expectHandled int
	}{
		{name: "handled message is acked", data: updateMessage, expectAck: true, expectHandled: 1},
		{name: "handler failure is nacked", data: updateMessage, handlerErr: errors.New("boom"), expectHandled: 1},
		{name: "foreign table is acked without handling", data: `{"payload": {"source": {"table": "other"}}}`, expectAck: true},
		{name: "malformed message is nacked", data: `{`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler := &mockHandler{err: test.handlerErr}
			s := NewSubscriber(SubscriberArgs{ClientEventHandler: handler})
			var acked, nacked bool
			s.process(context.Background(), "id", []byte(test.data), func() { acked = true }, func() { nacked = true })
			require.Equal(t, test.expectAck, acked)
			require.Equal(t, !test.expectAck, nacked)
			require.Len(t, handler.events, test.expectHandled)
		})
	}
}
