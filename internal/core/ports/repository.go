package ports

import (
	"context"

	"github.com/rbroggi/clients/internal/core/model"
)

// Repository is the interface for the persistence layer.
type Repository interface {
	// CreateClient durably saves the client and assigns its ID.
	CreateClient(ctx context.Context, client *model.Client) error

	// GetClient returns the active client with the given id. It returns model.ErrNotFound
	// if the client does not exist or is soft-deleted.
	GetClient(ctx context.Context, id int64) (*model.Client, error)

	// ListClients lists all active clients ordered by last name then first name.
	ListClients(ctx context.Context) ([]model.Client, error)

	// UpdateClient overwrites the mutable fields and the updater stamp of the client by id.
	UpdateClient(ctx context.Context, client *model.Client) error

	// DeleteClient flags the client as deleted and stamps the updater. Records are never removed.
	DeleteClient(ctx context.Context, client *model.Client) error
}
