package producer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rbroggi/clients/internal/core/model"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_NilTopic(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestEncodeEvent(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		event    model.ClientEvent
		expected string
	}{
		{
			name: "creation",
			event: model.ClientEvent{
				ID:         "e1",
				Type:       model.ClientCreated,
				OccurredAt: created,
				After: &model.Client{
					ID: 7, FirstName: "Ana", LastName: "Ruiz", NIT: "1234567", Email: "ana@test.com",
					CreatedBy: 5, CreatedAt: created, UpdatedBy: 5, UpdatedAt: created,
				},
			},
			expected: `{
				"id": "e1",
				"type": "client.created",
				"occurred_at": "2024-03-01T10:00:00Z",
				"before": null,
				"after": {
					"id": 7,
					"first_name": "Ana",
					"last_name": "Ruiz",
					"nit": "1234567",
					"email": "ana@test.com",
					"created_by": 5,
					"created_at": "2024-03-01T10:00:00Z",
					"updated_by": 5,
					"updated_at": "2024-03-01T10:00:00Z"
				}
			}`,
		},
		{
			name: "deletion",
			event: model.ClientEvent{
				ID:     "e2",
				Type:   model.ClientDeleted,
				Before: &model.Client{ID: 7, FirstName: "Ana"},
			},
			expected: `{
				"id": "e2",
				"type": "client.deleted",
				"occurred_at": "",
				"after": null,
				"before": {
					"id": 7,
					"first_name": "Ana",
					"last_name": "",
					"nit": "",
					"email": "",
					"created_by": 0,
					"created_at": "",
					"updated_by": 0,
					"updated_at": ""
				}
			}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := EncodeEvent(test.event)
			require.NoError(t, err)
			require.True(t, json.Valid(data))
			require.JSONEq(t, test.expected, string(data))
		})
	}
}
