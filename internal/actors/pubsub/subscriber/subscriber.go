package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rbroggi/clients/internal/core/model"
	"github.com/rbroggi/clients/internal/core/ports"

	log "github.com/sirupsen/logrus"
)

const clientsTable = "clients"

// SubscriberArgs contain the mandatory arguments to build a subscriber.
type SubscriberArgs struct {
	// Subscription is a pubsub subscription
	Subscription *pubsub.Subscription

	// ClientEventHandler is a event handler
	ClientEventHandler ports.ClientEventHandler
}

// Subscriber is a pubsub async subscriber
type Subscriber struct {
	subscription       *pubsub.Subscription
	clientEventHandler ports.ClientEventHandler
}

// NewSubscriber creates a subscriber
func NewSubscriber(args SubscriberArgs) *Subscriber {
	return &Subscriber{
		subscription:       args.Subscription,
		clientEventHandler: args.ClientEventHandler,
	}
}

// Consume starts the subscriber. This is a blocking method and should be started in it's own go-routine.
// The way to terminate the method is to cancel the context in input.
func (s *Subscriber) Consume(ctx context.Context) error {
	if err := s.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.process(ctx, msg.ID, msg.Data, msg.Ack, msg.Nack)
	}); err != nil {
		return fmt.Errorf("error receiving messages from subscription: %w", err)
	}
	return nil
}

func (s *Subscriber) process(ctx context.Context, id string, data []byte, ack, nack func()) {
	clientEvent, err := DecodeCDCMessage(id, data)
	if errors.Is(err, ErrIgnoreEvent) {
		log.WithField("message-id", id).Debug("ignoring cdc message")
		ack()
		return
	}
	if err != nil {
		log.WithError(err).Error("error decoding message into client-event")
		nack()
		return
	}

	if err := s.clientEventHandler.Handle(ctx, *clientEvent); err != nil {
		log.WithError(err).Error("error in client event handler")
		nack()
	} else {
		ack()
	}
}

var (
	// ErrIgnoreEvent is returned for CDC messages that do not concern the clients table.
	ErrIgnoreEvent = errors.New("event should be ignored")
)

// DecodeCDCMessage decodes a Debezium change message of the clients table.
func DecodeCDCMessage(id string, data []byte) (*model.ClientEvent, error) {
	if len(data) == 0 {
		return nil, errors.New("cannot decode empty pubsub msg")
	}
	debeziumMsg := new(debeziumMessage)
	if err := json.Unmarshal(data, debeziumMsg); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}

	if debeziumMsg.Payload.Source.Table != clientsTable {
		return nil, ErrIgnoreEvent
	}

	clientEvent := new(model.ClientEvent)
	clientEvent.ID = id
	clientEvent.Before = translateClientToModel(debeziumMsg.Payload.Before)
	clientEvent.After = translateClientToModel(debeziumMsg.Payload.After)
	if debeziumMsg.Payload.TsMs != 0 {
		clientEvent.OccurredAt = time.UnixMilli(debeziumMsg.Payload.TsMs).UTC()
	}

	return clientEvent, nil
}

func translateClientToModel(dbzClient *debeziumClient) *model.Client {
	if dbzClient == nil {
		return nil
	}

	return &model.Client{
		ID:        dbzClient.ID,
		FirstName: dbzClient.FirstName,
		LastName:  dbzClient.LastName,
		NIT:       dbzClient.NIT,
		Email:     dbzClient.Email,
		IsDeleted: dbzClient.IsDeleted,
		CreatedBy: dbzClient.CreatedBy,
		CreatedAt: dbzClient.CreatedAt.Time,
		UpdatedBy: dbzClient.UpdatedBy,
		UpdatedAt: dbzClient.UpdatedAt.Time,
	}
}

type debeziumMessage struct {
	// Payload is the debezium segment containing the payload.
	Payload payload `json:"payload"`
}

type payload struct {
	Op     string          `json:"op"`
	TsMs   int64           `json:"ts_ms"`
	Source source          `json:"source"`
	Before *debeziumClient `json:"before"`
	After  *debeziumClient `json:"after"`
}

type source struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

type debeziumClient struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	NIT       string  `json:"nit"`
	Email     string  `json:"email"`
	IsDeleted bool    `json:"is_deleted"`
	CreatedBy int64   `json:"created_by"`
	CreatedAt CDCTime `json:"created_at"`
	UpdatedBy int64   `json:"updated_by"`
	UpdatedAt CDCTime `json:"updated_at"`
}

// CDCTime accepts the two shapes Debezium emits for timestamps: microseconds from
// epoch (timestamp) and ISO-8601 strings (timestamptz).
type CDCTime struct {
	time.Time
}

func (ct *CDCTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var iso string
	if err := json.Unmarshal(b, &iso); err == nil {
		t, err := time.Parse(time.RFC3339Nano, iso)
		if err != nil {
			return err
		}
		ct.Time = t.UTC()
		return nil
	}
	var timestamp int64
	if err := json.Unmarshal(b, &timestamp); err != nil {
		return err
	}
	ct.Time = time.Unix(0, timestamp*1000).UTC()
	return nil
}

func (ct CDCTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(ct.UnixNano()/1000, 10)), nil
}
