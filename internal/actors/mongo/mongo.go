package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbroggi/clients/internal/core/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	clientSequence        = "clients"
	emailActiveIndex      = "email_active_unique"
	nitActiveIndex        = "nit_active_unique"
	nameOrderIndex        = "last_name_first_name"
	duplicateKeyErrorCode = 11000
)

// MongoDB is a mongo adapter for persistance.
type MongoDB struct {
	clientCollection  *mongo.Collection
	counterCollection *mongo.Collection
}

// MongoDBArgs are the mandatory arguments for the creation of a MongoDB
type MongoDBArgs struct {
	// ClientCollection is the mongo collection holding the clients.
	ClientCollection *mongo.Collection

	// CounterCollection holds the sequences used to assign integer ids.
	CounterCollection *mongo.Collection
}

// NewMongoDB creates a new MongoDB.
func NewMongoDB(args MongoDBArgs) (*MongoDB, error) {
	if args.ClientCollection == nil || args.CounterCollection == nil {
		return nil, errors.New("nil mongo collection")
	}
	return &MongoDB{clientCollection: args.ClientCollection, counterCollection: args.CounterCollection}, nil
}

// Ping checks that the primary is reachable.
func (p *MongoDB) Ping(ctx context.Context) error {
	return p.clientCollection.Database().Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the ordering index and the unique indexes scoped to active clients.
func (p *MongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := p.clientCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}},
			Options: options.Index().SetName(nameOrderIndex),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName(emailActiveIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.D{
					{Key: "is_deleted", Value: false},
					{Key: "email", Value: bson.D{{Key: "$gt", Value: ""}}},
				}),
		},
		{
			Keys: bson.D{{Key: "nit", Value: 1}},
			Options: options.Index().
				SetName(nitActiveIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "is_deleted", Value: false}}),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating client indexes: %w", err)
	}
	return nil
}

// CreateClient will save the client in the database and assign its ID.
func (p *MongoDB) CreateClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to create method")
	}

	id, err := p.nextID(ctx)
	if err != nil {
		return err
	}

	dbClient := toDBModel(client)
	dbClient.ID = id
	if _, err := p.clientCollection.InsertOne(ctx, dbClient); err != nil {
		return translateError(err)
	}

	client.ID = id
	return nil
}

// GetClient returns the active client by id. It returns model.ErrNotFound if the
// client does not exist or is soft-deleted.
func (p *MongoDB) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	dbClient := new(clientDB)
	err := p.clientCollection.FindOne(ctx, activeByID(id)).Decode(dbClient)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	client := translateDBToModel(*dbClient)
	return &client, nil
}

// ListClients lists the active clients ordered by last name then first name.
func (p *MongoDB) ListClients(ctx context.Context) ([]model.Client, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
	cursor, err := p.clientCollection.Find(ctx, bson.D{{Key: "is_deleted", Value: false}}, opts)
	if err != nil {
		return nil, err
	}
	var clients []clientDB
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return translateDBToModels(clients), nil
}

// UpdateClient overwrites the mutable fields of the client. It returns
// model.ErrNotFound if no document has the client's ID.
func (p *MongoDB) UpdateClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to update method")
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "first_name", Value: client.FirstName},
		{Key: "last_name", Value: client.LastName},
		{Key: "nit", Value: client.NIT},
		{Key: "email", Value: client.Email},
		{Key: "updated_by", Value: client.UpdatedBy},
		{Key: "updated_at", Value: client.UpdatedAt},
	}}}
	res, err := p.clientCollection.UpdateOne(ctx, activeByID(client.ID), update)
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount < 1 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteClient flags the client as deleted. The document is kept.
func (p *MongoDB) DeleteClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to delete method")
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_deleted", Value: true},
		{Key: "updated_by", Value: client.UpdatedBy},
		{Key: "updated_at", Value: client.UpdatedAt},
	}}}
	res, err := p.clientCollection.UpdateOne(ctx, activeByID(client.ID), update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return model.ErrNotFound
	}
	return nil
}

func activeByID(id int64) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "is_deleted", Value: false}}
}

func (p *MongoDB) nextID(ctx context.Context) (int64, error) {
	var counter counterDB
	err := p.counterCollection.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: clientSequence}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("error incrementing client sequence: %w", err)
	}
	return counter.Seq, nil
}

// translateError maps duplicate keys on the partial unique indexes to the domain
// duplicate errors.
func translateError(err error) error {
	var writeErr mongo.WriteException
	if !errors.As(err, &writeErr) {
		return err
	}
	for _, we := range writeErr.WriteErrors {
		if we.Code != duplicateKeyErrorCode {
			continue
		}
		switch {
		case strings.Contains(we.Message, emailActiveIndex):
			return model.ErrDuplicateEmail
		case strings.Contains(we.Message, nitActiveIndex):
			return model.ErrDuplicateTaxID
		}
	}
	return err
}

func toDBModel(client *model.Client) *clientDB {
	return &clientDB{
		ID:        client.ID,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		NIT:       client.NIT,
		Email:     client.Email,
		IsDeleted: client.IsDeleted,
		CreatedBy: client.CreatedBy,
		CreatedAt: client.CreatedAt,
		UpdatedBy: client.UpdatedBy,
		UpdatedAt: client.UpdatedAt,
	}
}

func translateDBToModels(dbClients []clientDB) []model.Client {
	models := make([]model.Client, len(dbClients))
	for i, dbClient := range dbClients {
		models[i] = translateDBToModel(dbClient)
	}
	return models
}

func translateDBToModel(dbClient clientDB) model.Client {
	return model.Client{
		ID:        dbClient.ID,
		FirstName: dbClient.FirstName,
		LastName:  dbClient.LastName,
		NIT:       dbClient.NIT,
		Email:     dbClient.Email,
		IsDeleted: dbClient.IsDeleted,
		CreatedBy: dbClient.CreatedBy,
		CreatedAt: dbClient.CreatedAt.UTC(),
		UpdatedBy: dbClient.UpdatedBy,
		UpdatedAt: dbClient.UpdatedAt.UTC(),
	}
}

type counterDB struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

type clientDB struct {
	// ID unique identifier of the client, taken from the clients sequence.
	ID int64 `bson:"_id"`

	// FirstName is the client first name.
	FirstName string `bson:"first_name"`

	// LastName is the client last name.
	LastName string `bson:"last_name"`

	// NIT is the national tax id.
	NIT string `bson:"nit"`

	// Email is the client email. Empty when absent.
	Email string `bson:"email"`

	// IsDeleted marks a soft-deleted client.
	IsDeleted bool `bson:"is_deleted"`

	// CreatedBy is the actor that registered the client.
	CreatedBy int64 `bson:"created_by"`

	// CreatedAt is the time at which the client was created in the system.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedBy is the actor that last modified the client.
	UpdatedBy int64 `bson:"updated_by"`

	// UpdatedAt is the time at which the client was last updated.
	UpdatedAt time.Time `bson:"updated_at"`
}
