package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/rbroggi/clients/internal/core/model"
)

const (
	uniqueViolation       = "23505"
	emailActiveConstraint = "clients_email_active_key"
	nitActiveConstraint   = "clients_nit_active_key"
)

// PostgresDB is a postgress adapter for persistance.
type PostgresDB struct {
	db *pg.DB
}

// PostgresDBArgs are the mandatory arguments for the creation of a PostgresDB
type PostgresDBArgs struct {
	// DB is a postgres database handle
	DB *pg.DB
}

// NewPostgresDB creates a new PostgresDB.
func NewPostgresDB(args PostgresDBArgs) (*PostgresDB, error) {
	if args.DB == nil {
		return nil, errors.New("nil postgres handle")
	}
	return &PostgresDB{db: args.DB}, nil
}

// Ping checks that the database is reachable.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// CreateClient inserts the client and sets its generated ID.
func (p *PostgresDB) CreateClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to create method")
	}

	dbClient := toDBModel(client)
	if _, err := p.db.ModelContext(ctx, dbClient).Insert(); err != nil {
		return translateError(err)
	}

	client.ID = dbClient.ID
	return nil
}

// GetClient returns the active client by id. It returns model.ErrNotFound if the
// client does not exist or is soft-deleted.
func (p *PostgresDB) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	dbClient := new(clientDB)
	err := p.db.ModelContext(ctx, dbClient).
		Where("id = ?", id).
		Where("is_deleted = FALSE").
		Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, err
	} else if err == pg.ErrNoRows {
		return nil, model.ErrNotFound
	}

	client := translateDBToModel(*dbClient)
	return &client, nil
}

// ListClients lists the active clients ordered by last name then first name.
func (p *PostgresDB) ListClients(ctx context.Context) ([]model.Client, error) {
	var clients []clientDB
	err := p.db.ModelContext(ctx, &clients).
		Where("is_deleted = FALSE").
		Order("last_name ASC", "first_name ASC").
		Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, err
	}
	return translateDBToModels(clients), nil
}

// UpdateClient overwrites the mutable fields of an active client. It returns
// model.ErrNotFound if no active row has the client's ID.
func (p *PostgresDB) UpdateClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to update method")
	}

	res, err := p.db.ModelContext(ctx, toDBModel(client)).
		Column("first_name", "last_name", "nit", "email", "updated_by", "updated_at").
		WherePK().
		Where("is_deleted = FALSE").
		Update()
	if err != nil {
		return translateError(err)
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteClient flags the client as deleted. The row is kept.
func (p *PostgresDB) DeleteClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to delete method")
	}

	res, err := p.db.ModelContext(ctx, (*clientDB)(nil)).
		Set("is_deleted = TRUE").
		Set("updated_by = ?", client.UpdatedBy).
		Set("updated_at = ?", client.UpdatedAt).
		Where("id = ?", client.ID).
		Where("is_deleted = FALSE").
		Update()
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// translateError maps the partial unique indexes on active rows to the domain
// duplicate errors.
func translateError(err error) error {
	var pgErr pg.Error
	if !errors.As(err, &pgErr) || pgErr.Field('C') != uniqueViolation {
		return err
	}
	switch pgErr.Field('n') {
	case emailActiveConstraint:
		return model.ErrDuplicateEmail
	case nitActiveConstraint:
		return model.ErrDuplicateTaxID
	default:
		return err
	}
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

type clientDB struct {
	tableName struct{} `pg:"clients.clients"`

	// ID unique identifier of the client, generated by the bigserial sequence.
	ID int64 `pg:"id,pk"`

	// FirstName is the client first name.
	FirstName string `pg:"first_name,use_zero"`

	// LastName is the client last name.
	LastName string `pg:"last_name,use_zero"`

	// NIT is the national tax id.
	NIT string `pg:"nit,use_zero"`

	// Email is the client email. Stored as an empty string when absent.
	Email string `pg:"email,use_zero"`

	// IsDeleted marks a soft-deleted client.
	IsDeleted bool `pg:"is_deleted,use_zero"`

	// CreatedBy is the actor that registered the client.
	CreatedBy int64 `pg:"created_by,use_zero"`

	// CreatedAt is the time at which the client was created in the system.
	CreatedAt time.Time `pg:"created_at"`

	// UpdatedBy is the actor that last modified the client.
	UpdatedBy int64 `pg:"updated_by,use_zero"`

	// UpdatedAt is the time at which the client was last updated.
	UpdatedAt time.Time `pg:"updated_at"`
}
