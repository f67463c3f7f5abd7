package producer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rbroggi/clients/internal/core/model"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// TypeAttribute is the message attribute carrying the event type.
const TypeAttribute = "type"

// NewProducer creates a new producer.
func NewProducer(topic *pubsub.Topic) (*Producer, error) {
	if topic == nil {
		return nil, errors.New("topic is nil")
	}
	return &Producer{topic: topic}, nil
}

// Producer is the pubsub producer of client events.
type Producer struct {
	topic *pubsub.Topic
}

// Send publishes the event and blocks until the server acknowledges it.
func (p *Producer) Send(ctx context.Context, event model.ClientEvent) error {
	data, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{TypeAttribute: event.Type},
	})
	// Block until the result is returned and a server-generated
	// ID is returned for the published message.
	_, err = result.Get(ctx)
	if err != nil {
		return fmt.Errorf("error publishing client event ID [%s]: %w", event.ID, err)
	}
	return nil
}

// EncodeEvent renders the event as a protojson google.protobuf.Struct.
func EncodeEvent(event model.ClientEvent) ([]byte, error) {
	payload, err := structpb.NewStruct(map[string]interface{}{
		"id":          event.ID,
		"type":        event.Type,
		"occurred_at": formatTime(event.OccurredAt),
		"before":      toPayloadClient(event.Before),
		"after":       toPayloadClient(event.After),
	})
	if err != nil {
		return nil, fmt.Errorf("error building client-event payload: %w", err)
	}
	data, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling client-event payload: %w", err)
	}
	return data, nil
}

func toPayloadClient(c *model.Client) interface{} {
	if c == nil {
		return nil
	}
	return map[string]interface{}{
		"id":         c.ID,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"nit":        c.NIT,
		"email":      c.Email,
		"created_by": c.CreatedBy,
		"created_at": formatTime(c.CreatedAt),
		"updated_by": c.UpdatedBy,
		"updated_at": formatTime(c.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
