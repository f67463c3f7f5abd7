package ports

import (
	"context"

	"github.com/rbroggi/clients/internal/core/model"
)

// ClientEventHandler handles incoming ClientEvents.
type ClientEventHandler interface {
	// Handle will receive an incoming client event and handle it.
	Handle(ctx context.Context, clientEvent model.ClientEvent) error
}
